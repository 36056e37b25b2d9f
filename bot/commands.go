package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandFunc produces the reply text for a command message.
type CommandFunc func(ctx context.Context, msg *tgbotapi.Message) string

type command struct {
	name        string
	description string
	run         CommandFunc
}

// Commands is an ordered command registry. Order is kept for the help text.
type Commands struct {
	header string
	list   []command
	byName map[string]int
}

func NewCommands(header string) *Commands {
	return &Commands{
		header: header,
		byName: make(map[string]int),
	}
}

// Register adds a command. Registering a name twice replaces the handler.
func (c *Commands) Register(name, description string, run CommandFunc) {
	cmd := command{name: name, description: description, run: run}
	if i, ok := c.byName[name]; ok {
		c.list[i] = cmd
		return
	}
	c.byName[name] = len(c.list)
	c.list = append(c.list, cmd)
}

// Lookup finds the handler for a bare command name (no slash, no @bot suffix).
func (c *Commands) Lookup(name string) (CommandFunc, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.list[i].run, true
}

// Help lists the registered commands below the registry header and a blank
// line, one command per line in registration order.
func (c *Commands) Help() string {
	var sb strings.Builder
	sb.WriteString(c.header)
	sb.WriteString("\n")
	for _, cmd := range c.list {
		sb.WriteString("\n/")
		sb.WriteString(cmd.name)
		sb.WriteString(" — ")
		sb.WriteString(cmd.description)
	}
	return sb.String()
}

// BotCommands describes the registry for Telegram's setMyCommands.
func (c *Commands) BotCommands() []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, len(c.list))
	for i, cmd := range c.list {
		out[i] = tgbotapi.BotCommand{Command: cmd.name, Description: cmd.description}
	}
	return out
}

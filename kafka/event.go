package kafka

import "time"

// RollEvent is the record published for every /r command.
type RollEvent struct {
	ChatID    int64     `json:"chat_id"`
	User      string    `json:"user,omitempty"`
	Notation  string    `json:"notation"`
	Count     int       `json:"count,omitempty"`
	Sides     int       `json:"sides,omitempty"`
	Modifier  int       `json:"modifier,omitempty"`
	Rolls     []int     `json:"rolls,omitempty"`
	Total     int       `json:"total"`
	Reply     string    `json:"reply"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OK reports whether the command produced a roll.
func (e RollEvent) OK() bool {
	return e.Error == ""
}

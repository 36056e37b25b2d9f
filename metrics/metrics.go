// Package metrics holds the Prometheus collectors scraped from /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Roll outcomes used as the "outcome" label of RollsTotal.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidFormat = "invalid_format"
	OutcomeInvalidCount  = "invalid_count"
	OutcomeInvalidSides  = "invalid_sides"
	OutcomeLimited       = "limited"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbot_commands_total",
		Help: "Bot commands received, by command name",
	}, []string{"command"})

	RollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbot_rolls_total",
		Help: "Dice roll commands evaluated, by outcome",
	}, []string{"outcome"})

	DiceRolledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollbot_dice_rolled_total",
		Help: "Individual dice rolled across all successful commands",
	})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbot_roll_events_published_total",
		Help: "Roll events sent to Kafka, by result",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

package dice

import (
	"fmt"
	"math/rand/v2"
)

// Limits caps the size of a single roll. Zero fields are unlimited.
type Limits struct {
	MaxCount int
	MaxSides int
}

// LimitError reports a request beyond the configured Limits.
type LimitError struct {
	Field string
	Max   int
}

func (e *LimitError) Error() string {
	if e.Field == "count" {
		return fmt.Sprintf("Too many dice. You can roll at most %d dice at once.", e.Max)
	}
	return fmt.Sprintf("Too many sides on the dice. The dice can have at most %d sides.", e.Max)
}

// Evaluator turns notation into reply text. The zero value is ready to use
// and has no limits.
type Evaluator struct {
	Limits Limits

	// NewRand returns the generator for one evaluation. Nil means a fresh
	// PCG seeded from the runtime source.
	NewRand func() *rand.Rand
}

// NewEvaluator returns an Evaluator enforcing limits.
func NewEvaluator(limits Limits) *Evaluator {
	return &Evaluator{Limits: limits}
}

// EvaluateRoll parses input, checks the limits and rolls.
func (e *Evaluator) EvaluateRoll(input string) (Result, error) {
	req, err := Parse(input)
	if err != nil {
		return Result{}, err
	}
	if limit := e.Limits.MaxCount; limit > 0 && req.Count > limit {
		return Result{}, &LimitError{Field: "count", Max: limit}
	}
	if limit := e.Limits.MaxSides; limit > 0 && req.Sides > limit {
		return Result{}, &LimitError{Field: "sides", Max: limit}
	}
	return Roll(e.rand(), req), nil
}

// Evaluate returns the reply for input: the formatted roll on success,
// otherwise the error message.
func (e *Evaluator) Evaluate(input string) string {
	res, err := e.EvaluateRoll(input)
	if err != nil {
		return err.Error()
	}
	return res.String()
}

func (e *Evaluator) rand() *rand.Rand {
	if e.NewRand != nil {
		return e.NewRand()
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

var defaultEvaluator Evaluator

// Evaluate evaluates input with no limits.
func Evaluate(input string) string {
	return defaultEvaluator.Evaluate(input)
}

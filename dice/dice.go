// Package dice parses and rolls compact dice notation such as "2d20+5".
//
// The grammar is [count]d<sides>[(+|-)modifier] with a lowercase "d". Count
// defaults to 1 and the modifier to 0. Evaluate never fails: invalid input
// is answered with one of the package error messages.
package dice

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("Invalid dice roll format. Use format like '2d20+5' or '2d20-5'")
	ErrInvalidCount  = errors.New("Invalid number of dice. You can't roll 0 or negative dice.")
	ErrInvalidSides  = errors.New("Invalid number of sides on the dice. The dice gotta have at least 1 side.")
)

var notation = regexp.MustCompile(`^(\d*)d(\d+)(?:([+-])(\d+))?$`)

// Request is a parsed roll: Count dice with Sides faces plus Modifier.
type Request struct {
	Count    int
	Sides    int
	Modifier int
}

// Result holds the rolled values in draw order.
type Result struct {
	Request
	Rolls []int
	Sum   int
	Total int
}

// Parse turns notation into a Request. The returned error is one of
// ErrInvalidFormat, ErrInvalidCount or ErrInvalidSides.
func Parse(input string) (Request, error) {
	m := notation.FindStringSubmatch(input)
	if m == nil {
		return Request{}, ErrInvalidFormat
	}

	req := Request{Count: 1}
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Request{}, ErrInvalidFormat
		}
		req.Count = n
	}
	if req.Count <= 0 {
		return Request{}, ErrInvalidCount
	}

	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Request{}, ErrInvalidFormat
	}
	if sides <= 0 {
		return Request{}, ErrInvalidSides
	}
	req.Sides = sides

	if m[4] != "" {
		mod, err := strconv.Atoi(m[4])
		if err != nil {
			return Request{}, ErrInvalidFormat
		}
		if m[3] == "-" {
			mod = -mod
		}
		req.Modifier = mod
	}

	if !fitsInt(req) {
		return Request{}, ErrInvalidFormat
	}
	return req, nil
}

// fitsInt reports whether every reachable total, count*sides plus or minus
// the modifier, is representable as an int.
func fitsInt(req Request) bool {
	if req.Count > math.MaxInt/req.Sides {
		return false
	}
	_, abs := signOf(req.Modifier)
	return abs <= math.MaxInt-req.Count*req.Sides
}

// Roll draws req.Count values uniformly from [1, req.Sides] using rng.
// req must come from Parse or otherwise satisfy Count >= 1 and Sides >= 1.
func Roll(rng *rand.Rand, req Request) Result {
	rolls := make([]int, req.Count)
	sum := 0
	for i := range rolls {
		rolls[i] = rollDie(rng, req.Sides)
		sum += rolls[i]
	}

	return Result{
		Request: req,
		Rolls:   rolls,
		Sum:     sum,
		Total:   sum + req.Modifier,
	}
}

func rollDie(rng *rand.Rand, sides int) int {
	return rng.IntN(sides) + 1
}

// String renders the request back in dice notation, e.g. "2d20-5".
func (r Request) String() string {
	if r.Modifier == 0 {
		return fmt.Sprintf("%dd%d", r.Count, r.Sides)
	}
	sign, abs := signOf(r.Modifier)
	return fmt.Sprintf("%dd%d%s%d", r.Count, r.Sides, sign, abs)
}

// String renders the reply message for the roll.
func (r Result) String() string {
	rolls := make([]string, len(r.Rolls))
	for i, v := range r.Rolls {
		rolls[i] = strconv.Itoa(v)
	}
	joined := strings.Join(rolls, " + ")

	if r.Modifier == 0 {
		return fmt.Sprintf("🎲 Rolling %s: [%s] = %d", r.Request, joined, r.Total)
	}
	sign, abs := signOf(r.Modifier)
	return fmt.Sprintf("🎲 Rolling %s: [%s] %s %d = %d", r.Request, joined, sign, abs, r.Total)
}

func signOf(n int) (string, int) {
	if n < 0 {
		return "-", -n
	}
	return "+", n
}

package dice

import (
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seeded(seed uint64) func() *rand.Rand {
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(seed, seed))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Request
		wantErr error
	}{
		{input: "2d20+5", want: Request{Count: 2, Sides: 20, Modifier: 5}},
		{input: "2d20-5", want: Request{Count: 2, Sides: 20, Modifier: -5}},
		{input: "d6", want: Request{Count: 1, Sides: 6}},
		{input: "1d6", want: Request{Count: 1, Sides: 6}},
		{input: "3d6+0", want: Request{Count: 3, Sides: 6}},
		{input: "010d08", want: Request{Count: 10, Sides: 8}},
		{input: "0d6", wantErr: ErrInvalidCount},
		{input: "00d6", wantErr: ErrInvalidCount},
		{input: "2d0", wantErr: ErrInvalidSides},
		{input: "0d0", wantErr: ErrInvalidCount},
		{input: "abc", wantErr: ErrInvalidFormat},
		{input: "foo", wantErr: ErrInvalidFormat},
		{input: "2dX", wantErr: ErrInvalidFormat},
		{input: "d", wantErr: ErrInvalidFormat},
		{input: "", wantErr: ErrInvalidFormat},
		{input: "2D20", wantErr: ErrInvalidFormat},
		{input: "-1d6", wantErr: ErrInvalidFormat},
		{input: "2d-6", wantErr: ErrInvalidFormat},
		{input: "2d20+", wantErr: ErrInvalidFormat},
		{input: "2d20+-5", wantErr: ErrInvalidFormat},
		{input: "2d20+5-", wantErr: ErrInvalidFormat},
		{input: " 2d20", wantErr: ErrInvalidFormat},
		{input: "99999999999999999999d6", wantErr: ErrInvalidFormat},
		{input: "1d99999999999999999999", wantErr: ErrInvalidFormat},
		{input: "1d1+" + strconv.Itoa(math.MaxInt), wantErr: ErrInvalidFormat},
		{input: "2d1+" + strconv.Itoa(math.MaxInt-1), wantErr: ErrInvalidFormat},
		{input: "1d1-" + strconv.Itoa(math.MaxInt), wantErr: ErrInvalidFormat},
		{input: strconv.Itoa(math.MaxInt/2+1) + "d2", wantErr: ErrInvalidFormat},
		{input: "1d1+" + strconv.Itoa(math.MaxInt-1), want: Request{Count: 1, Sides: 1, Modifier: math.MaxInt - 1}},
		{input: "1d1-" + strconv.Itoa(math.MaxInt-1), want: Request{Count: 1, Sides: 1, Modifier: -(math.MaxInt - 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoll(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, req := range []Request{
		{Count: 1, Sides: 1},
		{Count: 3, Sides: 6, Modifier: 2},
		{Count: 10, Sides: 20, Modifier: -5},
		{Count: 50, Sides: 2},
	} {
		res := Roll(rng, req)
		require.Len(t, res.Rolls, req.Count)

		sum := 0
		for _, v := range res.Rolls {
			assert.GreaterOrEqual(t, v, 1)
			assert.LessOrEqual(t, v, req.Sides)
			sum += v
		}
		assert.Equal(t, sum, res.Sum)
		assert.Equal(t, sum+req.Modifier, res.Total)
		assert.Equal(t, req, res.Request)
	}
}

func TestRollCoversEveryFace(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	res := Roll(rng, Request{Count: 600, Sides: 6})

	seen := make(map[int]int)
	for _, v := range res.Rolls {
		seen[v]++
	}
	for face := 1; face <= 6; face++ {
		assert.Positive(t, seen[face], "face %d never rolled", face)
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "no modifier",
			res:  Result{Request: Request{Count: 2, Sides: 20}, Rolls: []int{3, 17}, Sum: 20, Total: 20},
			want: "🎲 Rolling 2d20: [3 + 17] = 20",
		},
		{
			name: "positive modifier",
			res:  Result{Request: Request{Count: 2, Sides: 20, Modifier: 5}, Rolls: []int{3, 17}, Sum: 20, Total: 25},
			want: "🎲 Rolling 2d20+5: [3 + 17] + 5 = 25",
		},
		{
			name: "negative modifier",
			res:  Result{Request: Request{Count: 2, Sides: 20, Modifier: -5}, Rolls: []int{3, 17}, Sum: 20, Total: 15},
			want: "🎲 Rolling 2d20-5: [3 + 17] - 5 = 15",
		},
		{
			name: "negative total",
			res:  Result{Request: Request{Count: 1, Sides: 4, Modifier: -10}, Rolls: []int{2}, Sum: 2, Total: -8},
			want: "🎲 Rolling 1d4-10: [2] - 10 = -8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.String())
		})
	}
}

var reply = regexp.MustCompile(`^🎲 Rolling (\d+)d(\d+)(?:([+-])(\d+))?: \[([\d + ]+)\](?: ([+-]) (\d+))? = (-?\d+)$`)

// checkReply parses a success reply and verifies its arithmetic.
func checkReply(t *testing.T, out string, count, sides, modifier int) {
	t.Helper()

	m := reply.FindStringSubmatch(out)
	require.NotNil(t, m, "unexpected reply %q", out)
	assert.Equal(t, strconv.Itoa(count), m[1])
	assert.Equal(t, strconv.Itoa(sides), m[2])

	parts := strings.Split(m[5], " + ")
	require.Len(t, parts, count)
	sum := 0
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, sides)
		sum += v
	}

	switch {
	case modifier > 0:
		assert.Equal(t, "+", m[3])
		assert.Equal(t, "+", m[6])
		assert.Equal(t, strconv.Itoa(modifier), m[7])
	case modifier < 0:
		assert.Equal(t, "-", m[3])
		assert.Equal(t, "-", m[6])
		assert.Equal(t, strconv.Itoa(-modifier), m[7])
	default:
		assert.Empty(t, m[3])
		assert.Empty(t, m[6])
	}

	total, err := strconv.Atoi(m[8])
	require.NoError(t, err)
	assert.Equal(t, sum+modifier, total)
}

func TestEvaluate(t *testing.T) {
	t.Run("1d1 is fixed", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			assert.Equal(t, "🎲 Rolling 1d1: [1] = 1", Evaluate("1d1"))
		}
	})

	t.Run("errors", func(t *testing.T) {
		assert.Equal(t, "Invalid number of dice. You can't roll 0 or negative dice.", Evaluate("0d6"))
		assert.Equal(t, "Invalid number of sides on the dice. The dice gotta have at least 1 side.", Evaluate("2d0"))
		assert.Equal(t, "Invalid dice roll format. Use format like '2d20+5' or '2d20-5'", Evaluate("foo"))
		for _, in := range []string{"abc", "2dX", "d", "2d20*3", "2d20-5x"} {
			assert.Equal(t, ErrInvalidFormat.Error(), Evaluate(in), in)
		}
	})

	t.Run("large modifiers", func(t *testing.T) {
		assert.Equal(t, ErrInvalidFormat.Error(), Evaluate("1d1+"+strconv.Itoa(math.MaxInt)))
		assert.Equal(t, ErrInvalidFormat.Error(), Evaluate("2d1+"+strconv.Itoa(math.MaxInt-1)))

		res, err := (&Evaluator{}).EvaluateRoll("1d1+" + strconv.Itoa(math.MaxInt-1))
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt, res.Total)
		assert.Equal(t, res.Sum+res.Modifier, res.Total)
	})

	t.Run("shapes", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			checkReply(t, Evaluate("3d6+2"), 3, 6, 2)
			checkReply(t, Evaluate("4d8-3"), 4, 8, -3)
			checkReply(t, Evaluate("2d20"), 2, 20, 0)
			checkReply(t, Evaluate("d6"), 1, 6, 0)
			checkReply(t, Evaluate("5d10+0"), 5, 10, 0)
		}
	})
}

func TestEvaluatorDefaultCount(t *testing.T) {
	e := &Evaluator{NewRand: seeded(99)}
	assert.Equal(t, e.Evaluate("1d6"), e.Evaluate("d6"))
}

func TestEvaluatorLimits(t *testing.T) {
	e := NewEvaluator(Limits{MaxCount: 10, MaxSides: 100})

	_, err := e.EvaluateRoll("11d6")
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "count", limitErr.Field)
	assert.Equal(t, "Too many dice. You can roll at most 10 dice at once.", e.Evaluate("11d6"))
	assert.Equal(t, "Too many sides on the dice. The dice can have at most 100 sides.", e.Evaluate("1d101"))

	// Grammar errors win over limits.
	assert.Equal(t, ErrInvalidCount.Error(), e.Evaluate("0d1000"))

	res, err := e.EvaluateRoll("10d100-1")
	require.NoError(t, err)
	assert.Len(t, res.Rolls, 10)
}

func TestEvaluateConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				checkReply(t, Evaluate("2d12+1"), 2, 12, 1)
			}
		}()
	}
	wg.Wait()
}

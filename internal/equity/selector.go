package equity

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Method is the computation strategy.
type Method int

const (
	MethodAuto Method = iota
	MethodExact
	MethodMonteCarlo
)

func (m Method) String() string {
	switch m {
	case MethodAuto:
		return "auto"
	case MethodExact:
		return "exact"
	case MethodMonteCarlo:
		return "monte-carlo"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod accepts "auto", "exact" and "monte-carlo" (or "mc").
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MethodAuto, nil
	case "exact":
		return MethodExact, nil
	case "monte-carlo", "montecarlo", "mc":
		return MethodMonteCarlo, nil
	}
	return MethodAuto, fmt.Errorf("%w: unknown method %q", ErrInvalidRequest, s)
}

// MaxExactMissing is the most board cards exact enumeration will complete.
const MaxExactMissing = 2

// Selection is the outcome of method selection.
type Selection struct {
	Method   Method
	Estimate uint64
	Ceiling  uint64
	// Reason explains a Monte Carlo choice. Empty when exact was chosen.
	Reason string
}

// SelectMethod picks exact enumeration when the board needs at most two
// cards and the scenario count fits under ceiling. The count includes the
// pairing factor of ScenarioCount, so with two or more unknown opponents it
// is larger than C(deck, missing)·C(deck-missing, 2u) and falls back to
// Monte Carlo sooner. That is the number of deals exact mode really visits.
func SelectMethod(deckSize, missing, unknown int, ceiling uint64) Selection {
	sel := Selection{
		Method:   MethodExact,
		Estimate: ScenarioCount(deckSize, missing, unknown),
		Ceiling:  ceiling,
	}
	switch {
	case missing > MaxExactMissing:
		sel.Method = MethodMonteCarlo
		sel.Reason = fmt.Sprintf("too many missing board cards (%d > %d)", missing, MaxExactMissing)
	case sel.Estimate > ceiling:
		sel.Method = MethodMonteCarlo
		sel.Reason = fmt.Sprintf("scenario count exceeds ceiling: estimated %d vs. limit %d", sel.Estimate, ceiling)
	}
	return sel
}

// ScenarioCount is the number of deals exact enumeration visits:
// C(deck, missing) board completions, times C(deck-missing, 2u) opponent
// card sets, times the (2u-1)!! ways to pair those cards into hands.
// The result saturates at math.MaxUint64.
func ScenarioCount(deckSize, missing, unknown int) uint64 {
	if missing < 0 || unknown < 0 || missing+2*unknown > deckSize {
		return 0
	}
	n := mulSat(Binomial(deckSize, missing), Binomial(deckSize-missing, 2*unknown))
	return mulSat(n, Pairings(unknown))
}

// Binomial returns C(n, k), saturating at math.MaxUint64.
func Binomial(n, k int) uint64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := uint64(1)
	for i := 1; i <= k; i++ {
		// result*(n-k+i) is divisible by i at every step.
		hi, lo := bits.Mul64(result, uint64(n-k+i))
		if hi != 0 {
			return math.MaxUint64
		}
		result = lo / uint64(i)
	}
	return result
}

// Pairings returns (2u-1)!!, the number of ways to split 2u cards into u
// unordered hands.
func Pairings(u int) uint64 {
	result := uint64(1)
	for i := 2*u - 1; i > 1; i -= 2 {
		result = mulSat(result, uint64(i))
	}
	return result
}

func mulSat(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

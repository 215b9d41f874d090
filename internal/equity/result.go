package equity

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/lox/holdem-equity/internal/statistics"
	"github.com/lox/holdem-equity/poker"
)

// maxExamples is how many winning holdings are kept per loss category.
const maxExamples = 3

// ExampleHand is a starting hand that beat Hero and how often it did.
type ExampleHand struct {
	Hand  string
	Count int64
}

// LossBreakdown describes the scenarios Hero lost.
type LossBreakdown struct {
	// ByCategory counts the winning opponent's hand category.
	ByCategory [poker.NumHandTypes]int64
	// ByArchetype counts losses per opponent label ("known:<id>" or "unknown").
	ByArchetype map[string]int64
	// Examples lists the most frequent winning holdings per category.
	Examples [poker.NumHandTypes][]ExampleHand
}

// TieBreakdown describes the scenarios Hero tied.
type TieBreakdown struct {
	ByCategory [poker.NumHandTypes]int64
	// ByPlayers counts ties by the number of players sharing the pot,
	// Hero included.
	ByPlayers map[int]int64
	// BoardDetermined counts ties where Hero's best hand was the board.
	BoardDetermined int64
}

// Result is the outcome of an equity computation.
type Result struct {
	Method         Method
	FallbackReason string
	Stage          Stage
	Warning        string
	Advisory       string

	Outcomes statistics.Outcomes
	WinPct   float64
	TiePct   float64
	LossPct  float64
	Equity   float64

	// Intervals is set for sampled results only.
	Intervals *statistics.OutcomeIntervals

	HeroCategories    [poker.NumHandTypes]int64
	HeroWinCategories [poker.NumHandTypes]int64

	// Loss and Tie are nil when no breakdown was collected.
	Loss *LossBreakdown
	Tie  *TieBreakdown

	Iterations          int64
	Elapsed             time.Duration
	IterationsPerSecond float64
	Budget              time.Duration
	Workers             int
	ScenarioEstimate    uint64
	Cached              bool
}

// MostLikely returns Hero's most frequent final category. Ties between
// counts go to the stronger category.
func (r *Result) MostLikely() (poker.HandType, bool) {
	return mostFrequent(r.HeroCategories[:])
}

// MostLikelyWin returns the category Hero most often wins with.
func (r *Result) MostLikelyWin() (poker.HandType, bool) {
	return mostFrequent(r.HeroWinCategories[:])
}

func mostFrequent(counts []int64) (poker.HandType, bool) {
	best := -1
	for i := len(counts) - 1; i >= 0; i-- {
		if counts[i] > 0 && (best < 0 || counts[i] > counts[best]) {
			best = i
		}
	}
	if best < 0 {
		return poker.HighCard, false
	}
	return poker.HandType(best), true
}

func newResult(t *tally) *Result {
	r := &Result{
		Outcomes:          t.outcomes,
		WinPct:            t.outcomes.Percent(t.outcomes.Wins),
		TiePct:            t.outcomes.Percent(t.outcomes.Ties),
		LossPct:           t.outcomes.Percent(t.outcomes.Losses),
		Equity:            t.outcomes.Equity(),
		HeroCategories:    t.hero,
		HeroWinCategories: t.heroWins,
		Iterations:        t.outcomes.Total(),
	}
	if !t.detailed {
		return r
	}

	r.Loss = &LossBreakdown{
		ByCategory:  t.lossCategory,
		ByArchetype: maps.Clone(t.lossBy),
	}
	for i, examples := range t.lossExamples {
		r.Loss.Examples[i] = topExamples(examples, maxExamples)
	}

	r.Tie = &TieBreakdown{
		ByCategory:      t.tieCategory,
		ByPlayers:       make(map[int]int64),
		BoardDetermined: t.boardTies,
	}
	for players, n := range t.tiePlayers {
		if n > 0 {
			r.Tie.ByPlayers[players] = n
		}
	}
	return r
}

// topExamples returns the n most frequent hands, most frequent first, with
// equal counts ordered by name.
func topExamples(counts map[string]int64, n int) []ExampleHand {
	out := make([]ExampleHand, 0, len(counts))
	for hand, count := range counts {
		out = append(out, ExampleHand{Hand: hand, Count: count})
	}
	slices.SortFunc(out, func(a, b ExampleHand) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Hand, b.Hand)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// clone copies r so cached results are never shared with callers.
func (r *Result) clone() *Result {
	c := *r
	if r.Intervals != nil {
		iv := *r.Intervals
		c.Intervals = &iv
	}
	if r.Loss != nil {
		loss := *r.Loss
		loss.ByArchetype = maps.Clone(r.Loss.ByArchetype)
		for i := range loss.Examples {
			loss.Examples[i] = slices.Clone(r.Loss.Examples[i])
		}
		c.Loss = &loss
	}
	if r.Tie != nil {
		tie := *r.Tie
		tie.ByPlayers = maps.Clone(r.Tie.ByPlayers)
		c.Tie = &tie
	}
	return &c
}

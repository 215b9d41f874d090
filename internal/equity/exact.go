package equity

import (
	"context"
	"fmt"

	"github.com/lox/holdem-equity/poker"
)

// cancelCheckInterval is how many board completions pass between context
// checks during enumeration.
const cancelCheckInterval = 64

// enumerate visits every board completion and, for each, every way to deal
// the unknown opponents' hands from the remaining cards. It returns the
// filled tally and the number of scenarios visited.
func (s *spot) enumerate(ctx context.Context) (tally, int64, error) {
	t := newTally(true)
	holes := make([]hole, s.unknown)
	rest := make([]poker.Card, 0, len(s.deck))
	var visited int64
	var full poker.Hand
	var boardRank poker.HandRank
	var buf [5]poker.Card

	var deal func(k int, taken uint64, first int)
	deal = func(k int, taken uint64, first int) {
		if k == len(holes) {
			s.showdown(full, boardRank, holes, &t)
			visited++
			return
		}
		// Pairs are generated with strictly increasing first cards so each
		// unordered set of hands appears once.
		for a := first; a < len(rest); a++ {
			if taken&(1<<a) != 0 {
				continue
			}
			for b := a + 1; b < len(rest); b++ {
				if taken&(1<<b) != 0 {
					continue
				}
				holes[k] = hole{
					cards: [2]poker.Card{rest[a], rest[b]},
					hand:  poker.NewHand(rest[a], rest[b]),
				}
				deal(k+1, taken|1<<a|1<<b, a+1)
			}
		}
	}

	completions := 0
	visit := func(runout ...poker.Card) error {
		if completions%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		completions++
		dealt := poker.NewHand(runout...)
		full = s.boardHand | dealt
		boardRank = s.boardRank(runout, &buf)
		rest = rest[:0]
		for _, c := range s.deck {
			if !dealt.HasCard(c) {
				rest = append(rest, c)
			}
		}
		deal(0, 0, 0)
		return nil
	}

	var err error
	switch s.missing {
	case 0:
		err = visit()
	case 1:
		for _, c := range s.deck {
			if err = visit(c); err != nil {
				break
			}
		}
	case 2:
	outer:
		for i := range s.deck {
			for j := i + 1; j < len(s.deck); j++ {
				if err = visit(s.deck[i], s.deck[j]); err != nil {
					break outer
				}
			}
		}
	default:
		return t, 0, fmt.Errorf("%w: %d missing board cards", ErrExactModeUnsupported, s.missing)
	}
	return t, visited, err
}

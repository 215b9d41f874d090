package equity

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/lox/holdem-equity/poker"
)

// MaxOpponents is the most opponents a full board still leaves cards for.
const MaxOpponents = 22

// UnknownArchetype labels losses to opponents whose cards were dealt at random.
const UnknownArchetype = "unknown"

// KnownOpponent is an opponent whose hole cards are fixed.
type KnownOpponent struct {
	ID   int
	Hand [2]poker.Card
}

// Label is the archetype name used in loss breakdowns.
func (k KnownOpponent) Label() string {
	return "known:" + strconv.Itoa(k.ID)
}

// Request describes one equity computation.
type Request struct {
	Method Method

	Hero  [2]poker.Card
	Board []poker.Card

	KnownOpponents   []KnownOpponent
	UnknownOpponents int
	// TotalOpponents is derived from the known and unknown counts when zero.
	TotalOpponents int

	// Budget bounds Monte Carlo wall time. Zero uses the configured default.
	Budget time.Duration
	// CollectBreakdown selects the analysis sampler for Monte Carlo runs.
	CollectBreakdown bool

	Parallel bool
	Workers  int

	// Seeds fixes the random sources, one per worker.
	Seeds []uint64
	// Iterations switches Monte Carlo to a fixed sample count instead of a
	// time budget.
	Iterations int64
}

// Stage names the street implied by the board size.
type Stage string

const (
	StagePreflop Stage = "preflop"
	StageFlop    Stage = "flop"
	StageTurn    Stage = "turn"
	StageRiver   Stage = "river"
	StagePartial Stage = "partial"
)

// StageForBoard maps a board size to its street. One or two cards are not a
// legal street and report StagePartial.
func StageForBoard(n int) Stage {
	switch n {
	case 0:
		return StagePreflop
	case 3:
		return StageFlop
	case 4:
		return StageTurn
	case 5:
		return StageRiver
	}
	return StagePartial
}

// hole is one opponent's cards in both forms the showdown needs.
type hole struct {
	cards [2]poker.Card
	hand  poker.Hand
}

// spot is a validated request reduced to what the enumerator and sampler use.
type spot struct {
	hero      poker.Hand
	heroCards [2]poker.Card
	board     []poker.Card
	boardHand poker.Hand

	known  []hole
	labels []string

	unknown int
	missing int
	deck    []poker.Card
}

// need is the number of cards dealt per scenario.
func (s *spot) need() int {
	return s.missing + 2*s.unknown
}

func (s *spot) opponents() int {
	return len(s.known) + s.unknown
}

// prepare validates r and builds a spot against deck.
func prepare(r Request, deck *poker.Deck) (*spot, error) {
	if len(r.Board) > 5 {
		return nil, fmt.Errorf("%w: board has %d cards, at most 5 allowed", ErrInvalidRequest, len(r.Board))
	}
	if r.UnknownOpponents < 0 {
		return nil, fmt.Errorf("%w: negative unknown opponent count %d", ErrInvalidOpponentCount, r.UnknownOpponents)
	}

	known := len(r.KnownOpponents)
	total := r.TotalOpponents
	if total == 0 {
		total = known + r.UnknownOpponents
	}
	if known > total {
		return nil, fmt.Errorf("%w: %d known opponents exceed total of %d", ErrInvalidOpponentCount, known, total)
	}
	if r.TotalOpponents != 0 && known+r.UnknownOpponents != total {
		return nil, fmt.Errorf("%w: %d known + %d unknown != total %d",
			ErrInvalidOpponentCount, known, r.UnknownOpponents, total)
	}
	if total < 1 || total > MaxOpponents {
		return nil, fmt.Errorf("%w: %d opponents, want 1-%d", ErrInvalidOpponentCount, total, MaxOpponents)
	}

	opponents := slices.Clone(r.KnownOpponents)
	slices.SortStableFunc(opponents, func(a, b KnownOpponent) int { return a.ID - b.ID })
	for i := 1; i < len(opponents); i++ {
		if opponents[i].ID == opponents[i-1].ID {
			return nil, fmt.Errorf("%w: opponent id %d used twice", ErrInvalidRequest, opponents[i].ID)
		}
	}

	var seen poker.Hand
	add := func(c poker.Card) error {
		if !c.Valid() {
			return fmt.Errorf("%w: card value %#x", ErrInvalidCardFormat, uint64(c))
		}
		if seen.HasCard(c) {
			return &DuplicateCardError{Card: c}
		}
		seen.AddCard(c)
		return nil
	}

	s := &spot{
		heroCards: r.Hero,
		board:     slices.Clone(r.Board),
		unknown:   r.UnknownOpponents,
		missing:   5 - len(r.Board),
	}
	for _, c := range r.Hero {
		if err := add(c); err != nil {
			return nil, err
		}
		s.hero.AddCard(c)
	}
	for _, c := range r.Board {
		if err := add(c); err != nil {
			return nil, err
		}
		s.boardHand.AddCard(c)
	}
	for _, o := range opponents {
		h := hole{cards: o.Hand}
		for _, c := range o.Hand {
			if err := add(c); err != nil {
				return nil, err
			}
			h.hand.AddCard(c)
		}
		s.known = append(s.known, h)
		s.labels = append(s.labels, o.Label())
	}

	s.deck = deck.Without(seen)
	if s.need() > len(s.deck) {
		return nil, fmt.Errorf("%w: need %d cards, %d remain", ErrInsufficientDeck, s.need(), len(s.deck))
	}
	return s, nil
}

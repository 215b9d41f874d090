package equity

import (
	"github.com/lox/holdem-equity/internal/statistics"
	"github.com/lox/holdem-equity/poker"
)

// tally accumulates showdown results. The category histograms are always
// kept; the loss and tie detail only when detailed is set.
type tally struct {
	outcomes statistics.Outcomes

	hero     [poker.NumHandTypes]int64
	heroWins [poker.NumHandTypes]int64

	detailed     bool
	lossCategory [poker.NumHandTypes]int64
	lossBy       map[string]int64
	lossExamples [poker.NumHandTypes]map[string]int64
	tieCategory  [poker.NumHandTypes]int64
	tiePlayers   [MaxOpponents + 2]int64
	boardTies    int64
}

func newTally(detailed bool) tally {
	t := tally{detailed: detailed}
	if detailed {
		t.lossBy = make(map[string]int64)
		for i := range t.lossExamples {
			t.lossExamples[i] = make(map[string]int64)
		}
	}
	return t
}

func (t *tally) merge(o *tally) {
	t.outcomes.Add(o.outcomes)
	for i := range t.hero {
		t.hero[i] += o.hero[i]
		t.heroWins[i] += o.heroWins[i]
	}
	if !t.detailed || !o.detailed {
		return
	}
	for i := range t.lossCategory {
		t.lossCategory[i] += o.lossCategory[i]
		t.tieCategory[i] += o.tieCategory[i]
		for hand, n := range o.lossExamples[i] {
			t.lossExamples[i][hand] += n
		}
	}
	for label, n := range o.lossBy {
		t.lossBy[label] += n
	}
	for i := range t.tiePlayers {
		t.tiePlayers[i] += o.tiePlayers[i]
	}
	t.boardTies += o.boardTies
}

// validate checks the tally against the number of scenarios visited.
func (t *tally) validate(visited int64) error {
	hists := []statistics.Histogram{
		{Name: "hero categories", Counts: t.hero[:], Want: visited},
		{Name: "hero winning categories", Counts: t.heroWins[:], Want: t.outcomes.Wins},
	}
	if t.detailed {
		var byOpponent []int64
		for _, n := range t.lossBy {
			byOpponent = append(byOpponent, n)
		}
		hists = append(hists,
			statistics.Histogram{Name: "loss categories", Counts: t.lossCategory[:], Want: t.outcomes.Losses},
			statistics.Histogram{Name: "loss archetypes", Counts: byOpponent, Want: t.outcomes.Losses},
			statistics.Histogram{Name: "tie categories", Counts: t.tieCategory[:], Want: t.outcomes.Ties},
			statistics.Histogram{Name: "tie player counts", Counts: t.tiePlayers[:], Want: t.outcomes.Ties},
		)
	}
	return t.outcomes.Validate(visited, hists...)
}

// boardRank ranks the board completed by runout on its own five cards.
func (s *spot) boardRank(runout []poker.Card, buf *[5]poker.Card) poker.HandRank {
	board := append(buf[:0], s.board...)
	board = append(board, runout...)
	rank, _ := poker.BoardRank(board)
	return rank
}

// showdown scores one completed deal into t. full is the five-card board,
// boardRank its own rank and holes the unknown opponents' cards for this
// deal. boardRank is read only for detailed tallies.
func (s *spot) showdown(full poker.Hand, boardRank poker.HandRank, holes []hole, t *tally) {
	heroRank := poker.Evaluate7(s.hero | full)

	var best poker.HandRank
	winner := -1
	tied := 0
	score := func(i int, h poker.Hand) {
		r := poker.Evaluate7(h | full)
		if winner < 0 || r > best {
			best, winner = r, i
		}
		if r == heroRank {
			tied++
		}
	}
	for i := range s.known {
		score(i, s.known[i].hand)
	}
	for j := range holes {
		score(len(s.known)+j, holes[j].hand)
	}

	category := heroRank.Type()
	t.hero[category]++

	switch {
	case heroRank > best:
		t.outcomes.Wins++
		t.heroWins[category]++
	case heroRank == best:
		t.outcomes.Ties++
		if t.detailed {
			t.tieCategory[category]++
			t.tiePlayers[1+tied]++
			if heroRank == boardRank {
				t.boardTies++
			}
		}
	default:
		t.outcomes.Losses++
		if t.detailed {
			var cards [2]poker.Card
			label := UnknownArchetype
			if winner < len(s.known) {
				cards = s.known[winner].cards
				label = s.labels[winner]
			} else {
				cards = holes[winner-len(s.known)].cards
			}
			bestCategory := best.Type()
			t.lossCategory[bestCategory]++
			t.lossBy[label]++
			t.lossExamples[bestCategory][poker.StartingHand(cards[0], cards[1])]++
		}
	}
}

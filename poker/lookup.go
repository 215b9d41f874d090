package poker

import (
	"fmt"
	"sync"
)

// rankPrimes maps each rank to a prime so that the product over a 5-card
// hand identifies its rank multiset regardless of card order.
var rankPrimes = [13]uint32{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41}

type lookupTables struct {
	flush   [1 << 13]HandRank
	product map[uint32]HandRank
}

var (
	tables     *lookupTables
	tablesOnce sync.Once
)

func loadTables() *lookupTables {
	tablesOnce.Do(func() {
		tables = buildTables()
	})
	return tables
}

// buildTables fills the 5-card lookups from the mask evaluator: one entry per
// suited rank set and one per rank multiset (6175 of them).
func buildTables() *lookupTables {
	t := &lookupTables{product: make(map[uint32]HandRank, 6175)}

	var counts [13]uint8
	var walk func(rank uint8, left uint8)
	walk = func(rank uint8, left uint8) {
		if left == 0 {
			t.addMultiset(&counts)
			return
		}
		if rank == 13 {
			return
		}
		for n := uint8(0); n <= left && n <= 4; n++ {
			counts[rank] = n
			walk(rank+1, left-n)
		}
		counts[rank] = 0
	}
	walk(0, 5)

	return t
}

func (t *lookupTables) addMultiset(counts *[13]uint8) {
	var suitMasks [4]uint16
	var rankMask uint16
	product := uint32(1)
	distinct := true
	pos := 0
	for rank, n := range counts {
		if n > 1 {
			distinct = false
		}
		for range n {
			// Consecutive positions mod 4 never repeat a suit within a rank
			// and never put all five cards in one suit.
			suitMasks[pos%4] |= 1 << rank
			rankMask |= 1 << rank
			product *= rankPrimes[rank]
			pos++
		}
	}

	t.product[product] = rankFromMasks(suitMasks, rankMask)
	if distinct {
		t.flush[rankMask] = rankFromMasks([4]uint16{rankMask}, rankMask)
	}
}

func (t *lookupTables) rank5(a, b, c, d, e Card) HandRank {
	if a.Suit() == b.Suit() && a.Suit() == c.Suit() && a.Suit() == d.Suit() && a.Suit() == e.Suit() {
		mask := uint16(1)<<a.Rank() | uint16(1)<<b.Rank() | uint16(1)<<c.Rank() |
			uint16(1)<<d.Rank() | uint16(1)<<e.Rank()
		return t.flush[mask]
	}
	key := rankPrimes[a.Rank()] * rankPrimes[b.Rank()] * rankPrimes[c.Rank()] *
		rankPrimes[d.Rank()] * rankPrimes[e.Rank()]
	return t.product[key]
}

// Evaluate returns the best 5-card rank from 5 to 7 cards by checking every
// 5-card subset against the precomputed lookups. The input order does not
// matter. It panics for fewer than 5 or more than 7 cards.
func Evaluate(cards ...Card) HandRank {
	n := len(cards)
	if n < 5 || n > 7 {
		panic(fmt.Sprintf("poker: Evaluate needs 5 to 7 cards, got %d", n))
	}

	t := loadTables()
	var best HandRank
	for i := 0; i < n-4; i++ {
		for j := i + 1; j < n-3; j++ {
			for k := j + 1; k < n-2; k++ {
				for l := k + 1; l < n-1; l++ {
					for m := l + 1; m < n; m++ {
						if r := t.rank5(cards[i], cards[j], cards[k], cards[l], cards[m]); r > best {
							best = r
						}
					}
				}
			}
		}
	}
	return best
}

// BoardRank returns the rank of the board's own best five cards. Boards with
// fewer than five cards have no rank and return 0, false.
func BoardRank(board []Card) (HandRank, bool) {
	if len(board) < 5 {
		return 0, false
	}
	return Evaluate(board...), true
}

package poker

import "sync"

// Deck is the ordered table of all 52 cards. Ranks ascend from Two to Ace and
// within a rank the suits run spades, hearts, diamonds, clubs.
type Deck struct {
	cards [52]Card
}

var (
	standardDeck     *Deck
	standardDeckOnce sync.Once
)

// StandardDeck returns the shared deck table. It is built once and must not
// be modified.
func StandardDeck() *Deck {
	standardDeckOnce.Do(func() {
		standardDeck = buildDeck()
	})
	return standardDeck
}

func buildDeck() *Deck {
	d := &Deck{}
	i := 0
	for rank := range uint8(13) {
		for _, suit := range [...]uint8{Spades, Hearts, Diamonds, Clubs} {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}
	return d
}

// Cards returns a copy of the deck order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards[:])
	return out
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Without returns the cards not present in known, keeping deck order.
func (d *Deck) Without(known Hand) []Card {
	out := make([]Card, 0, len(d.cards)-known.CountCards())
	for _, c := range d.cards {
		if !known.HasCard(c) {
			out = append(out, c)
		}
	}
	return out
}

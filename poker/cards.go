package poker

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Ranks, 0-based from Two.
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Suits.
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

// ErrInvalidCardFormat is returned when a card token cannot be parsed.
var ErrInvalidCardFormat = errors.New("invalid card format")

const rankChars = "23456789TJQKA"
const suitChars = "cdhs"

// Card is a single bit in a 52-bit field at position suit*13 + rank.
type Card uint64

// Hand is a set of cards packed into the same 52-bit field.
type Hand uint64

// NewCard creates a card from a rank (0-12) and suit (0-3).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (uint(suit)*13 + uint(rank))
}

// CardFromIndex returns the card at bit index 0-51.
func CardFromIndex(idx int) Card {
	return Card(1) << uint(idx)
}

// Index returns the bit position of the card (0-51).
func (c Card) Index() int {
	return bits.TrailingZeros64(uint64(c))
}

// Rank returns the 0-based rank.
func (c Card) Rank() uint8 {
	return uint8(c.Index() % 13)
}

// Suit returns the suit.
func (c Card) Suit() uint8 {
	return uint8(c.Index() / 13)
}

// Valid reports whether c is exactly one of the 52 cards.
func (c Card) Valid() bool {
	return bits.OnesCount64(uint64(c)) == 1 && c.Index() < 52
}

// String returns the canonical notation, uppercase rank and lowercase suit.
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string([]byte{rankChars[c.Rank()], suitChars[c.Suit()]})
}

// ParseCard parses a token such as "As", "td" or "10h".
func ParseCard(s string) (Card, error) {
	token := strings.TrimSpace(s)
	if len(token) < 2 || len(token) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCardFormat, s)
	}

	rankToken := strings.ToUpper(token[:len(token)-1])
	if rankToken == "10" {
		rankToken = "T"
	}
	if len(rankToken) != 1 {
		return 0, fmt.Errorf("%w: %q: unknown rank", ErrInvalidCardFormat, s)
	}
	rank := strings.IndexByte(rankChars, rankToken[0])
	if rank < 0 {
		return 0, fmt.Errorf("%w: %q: unknown rank", ErrInvalidCardFormat, s)
	}

	suit := strings.IndexByte(suitChars, lower(token[len(token)-1]))
	if suit < 0 {
		return 0, fmt.Errorf("%w: %q: unknown suit", ErrInvalidCardFormat, s)
	}

	return NewCard(uint8(rank), uint8(suit)), nil
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// ParseCards parses a list of cards separated by spaces or commas. A token
// without separators is read as concatenated cards ("AsKd", "10sJd"), each
// ending at its suit letter.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})

	var cards []Card
	for _, field := range fields {
		if len(field) <= 3 {
			card, err := ParseCard(field)
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
			continue
		}
		start := 0
		for i := 1; i < len(field); i++ {
			if strings.IndexByte(suitChars, lower(field[i])) < 0 {
				continue
			}
			card, err := ParseCard(field[start : i+1])
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
			start = i + 1
			i++
		}
		if start != len(field) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCardFormat, field)
		}
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

// FormatCards joins cards with spaces.
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// NewHand builds a hand from cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard reports whether the card is in the hand.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns the 13-bit rank mask for one suit.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16((uint64(h) >> (uint(suit) * 13)) & 0x1FFF)
}

// Cards returns the cards in bit order.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.CountCards())
	for v := uint64(h); v != 0; v &= v - 1 {
		out = append(out, Card(v&-v))
	}
	return out
}

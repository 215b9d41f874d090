package poker

// HoleCardCategory represents the strength category of hole cards
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// CategorizeHoleCards provides a simple preflop hand categorization.
// Categories: Premium (JJ+, AK), Strong (TT, AQ/AJ), Medium (77-99, suited broadway),
// Weak (small pairs, suited connectors), Trash (everything else).
func CategorizeHoleCards(card1, card2 Card) HoleCardCategory {
	if card1 == card2 || card1.Index() >= 52 || card2.Index() >= 52 {
		return CategoryUnknown
	}

	small, big := card1.Rank(), card2.Rank()
	if small > big {
		small, big = big, small
	}
	suited := card1.Suit() == card2.Suit()
	isPair := small == big

	switch {
	case isPair && small >= Jack, small == King && big == Ace:
		return CategoryPremium
	case isPair && small == Ten, big == Ace && (small == Queen || small == Jack):
		return CategoryStrong
	case isPair && small >= Seven, suited && small >= Ten:
		return CategoryMedium
	case isPair, suited && big-small <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}

// StartingHand returns the 169-class notation for two hole cards, such as
// "AKs", "T9o" or "QQ". The higher rank comes first.
func StartingHand(card1, card2 Card) string {
	hi, lo := card1.Rank(), card2.Rank()
	if lo > hi {
		hi, lo = lo, hi
	}
	out := []byte{rankChars[hi], rankChars[lo]}
	switch {
	case hi == lo:
	case card1.Suit() == card2.Suit():
		out = append(out, 's')
	default:
		out = append(out, 'o')
	}
	return string(out)
}

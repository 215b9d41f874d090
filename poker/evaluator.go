package poker

import (
	"math/bits"
)

// HandRank represents the strength of a poker hand. Higher values are
// stronger and equal values tie. The category is implied by the value range,
// so ordering by value is the same as ordering by (category, strength).
type HandRank uint16

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// NumHandTypes is the number of hand categories.
const NumHandTypes = 9

const (
	highCardCount      = 1277
	onePairCount       = 13 * 220
	twoPairCount       = 78 * 11
	threeOfAKindCount  = 13 * 66
	straightCount      = 10
	flushCount         = 1277
	fullHouseCount     = 13 * 12
	fourOfAKindCount   = 13 * 12
	straightFlushCount = 10
)

const (
	baseHighCard      = 0
	baseOnePair       = baseHighCard + highCardCount
	baseTwoPair       = baseOnePair + onePairCount
	baseThreeOfAKind  = baseTwoPair + twoPairCount
	baseStraight      = baseThreeOfAKind + threeOfAKindCount
	baseFlush         = baseStraight + straightCount
	baseFullHouse     = baseFlush + flushCount
	baseFourOfAKind   = baseFullHouse + fullHouseCount
	baseStraightFlush = baseFourOfAKind + fourOfAKindCount

	// DistinctRanks is the number of distinct 5-card hand strengths.
	DistinctRanks = baseStraightFlush + straightFlushCount
)

// handTypeFloors holds the lowest rank of each category, indexed by HandType.
var handTypeFloors = [NumHandTypes]HandRank{
	baseHighCard,
	baseOnePair,
	baseTwoPair,
	baseThreeOfAKind,
	baseStraight,
	baseFlush,
	baseFullHouse,
	baseFourOfAKind,
	baseStraightFlush,
}

// Type returns the category of the hand.
func (hr HandRank) Type() HandType {
	for t := StraightFlush; t > HighCard; t-- {
		if hr >= handTypeFloors[t] {
			return t
		}
	}
	return HighCard
}

// String returns the category name.
func (hr HandRank) String() string {
	return hr.Type().String()
}

// Compare returns 1 if hr is stronger than other, -1 if weaker, 0 for a tie.
func (hr HandRank) Compare(other HandRank) int {
	switch {
	case hr > other:
		return 1
	case hr < other:
		return -1
	}
	return 0
}

// String returns a human-readable category name.
func (t HandType) String() string {
	switch t {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Evaluate7 evaluates the best 5-card hand from a packed hand of 5 to 7
// cards. Returns 0 for hands outside that size.
func Evaluate7(hand Hand) HandRank {
	if n := hand.CountCards(); n < 5 || n > 7 {
		return 0
	}
	return evaluateMasks(hand)
}

func evaluateMasks(hand Hand) HandRank {
	var suitMasks [4]uint16
	var rankMask uint16
	for suit := uint8(0); suit < 4; suit++ {
		mask := hand.GetSuitMask(suit)
		suitMasks[suit] = mask
		rankMask |= mask
	}

	return rankFromMasks(suitMasks, rankMask)
}

// rankFromMasks classifies at most seven cards. With seven or fewer cards at
// most one suit can hold five, and a flush excludes quads and full houses.
func rankFromMasks(suitMasks [4]uint16, rankMask uint16) HandRank {
	for _, suitMask := range suitMasks {
		if bits.OnesCount16(suitMask) < 5 {
			continue
		}
		if high := straightHighMask(suitMask); high > 0 {
			return HandRank(baseStraightFlush + straightIndex(high))
		}
		return HandRank(baseFlush + fiveRankIndex(topRanks(suitMask, 5)))
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]

	quadsMask := s0 & s1 & s2 & s3
	tripCandidates := (s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)
	tripsMask := tripCandidates &^ quadsMask
	pairsMask := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ tripCandidates

	if quad := highestRank(quadsMask); quad >= 0 {
		q := uint8(quad)
		kicker := uint8(highestRank(rankMask &^ (1 << q)))
		idx := uint16(q)*12 + uint16(ordinalExcluding(kicker, 1<<q))
		return HandRank(baseFourOfAKind + idx)
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		t := uint8(trip)
		if pair := highestRank(pairsMask | (tripsMask &^ (1 << t))); pair >= 0 {
			idx := uint16(t)*12 + uint16(ordinalExcluding(uint8(pair), 1<<t))
			return HandRank(baseFullHouse + idx)
		}
	}

	if high := straightHighMask(rankMask); high > 0 {
		return HandRank(baseStraight + straightIndex(high))
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		t := uint8(trip)
		used := uint16(1) << t
		kickers := compressMask(topRanks(rankMask&^used, 2), used)
		idx := uint16(t)*66 + colexIndex(kickers)
		return HandRank(baseThreeOfAKind + idx)
	}

	if high := highestRank(pairsMask); high >= 0 {
		hp := uint8(high)
		if low := highestRank(pairsMask &^ (1 << hp)); low >= 0 {
			lp := uint8(low)
			used := uint16(1)<<hp | uint16(1)<<lp
			kicker := uint8(highestRank(rankMask &^ used))
			idx := colexIndex(used)*11 + uint16(ordinalExcluding(kicker, used))
			return HandRank(baseTwoPair + idx)
		}
		used := uint16(1) << hp
		kickers := compressMask(topRanks(rankMask&^used, 3), used)
		idx := uint16(hp)*220 + colexIndex(kickers)
		return HandRank(baseOnePair + idx)
	}

	return HandRank(baseHighCard + fiveRankIndex(topRanks(rankMask, 5)))
}

// highestRank returns the highest rank present in the bitmask (or -1 when empty).
func highestRank(mask uint16) int {
	if mask == 0 {
		return -1
	}
	return bits.Len16(mask) - 1
}

// topRanks keeps the n highest set bits of mask.
func topRanks(mask uint16, n int) uint16 {
	var out uint16
	for i := 0; i < n && mask != 0; i++ {
		top := uint16(1) << (bits.Len16(mask) - 1)
		out |= top
		mask &^= top
	}
	return out
}

// ordinalExcluding returns rank's position once the excluded ranks are
// removed from the ladder.
func ordinalExcluding(rank uint8, excluded uint16) uint8 {
	below := excluded & (uint16(1)<<rank - 1)
	return rank - uint8(bits.OnesCount16(below))
}

// compressMask renumbers the bits of mask after deleting the excluded ranks.
func compressMask(mask, excluded uint16) uint16 {
	var out uint16
	for m := mask; m != 0; m &= m - 1 {
		r := uint8(bits.TrailingZeros16(m))
		out |= 1 << ordinalExcluding(r, excluded)
	}
	return out
}

var binomial = func() [16][6]uint16 {
	var t [16][6]uint16
	for n := 0; n < 16; n++ {
		t[n][0] = 1
		for k := 1; k < 6 && k <= n; k++ {
			t[n][k] = t[n-1][k-1]
			if k < n {
				t[n][k] += t[n-1][k]
			}
		}
	}
	return t
}()

// colexIndex ranks a k-subset among all k-subsets of the same universe in
// colexicographic order, which for rank masks is the order of their integer
// values and therefore the order of kicker strength.
func colexIndex(mask uint16) uint16 {
	var idx uint16
	i := 1
	for m := mask; m != 0; m &= m - 1 {
		idx += binomial[bits.TrailingZeros16(m)][i]
		i++
	}
	return idx
}

// straightMasks lists the ten straights in ascending strength.
var straightMasks = func() [10]uint16 {
	var arr [10]uint16
	arr[0] = 0x100F // wheel
	for high := 4; high <= 12; high++ {
		arr[high-3] = 0x1F << (high - 4)
	}
	return arr
}()

// fiveRankIndex ranks five distinct non-straight ranks among the 1277 such
// sets.
func fiveRankIndex(mask uint16) uint16 {
	idx := colexIndex(mask)
	for _, s := range straightMasks {
		if s < mask {
			idx--
		}
	}
	return idx
}

func straightIndex(high uint8) uint16 {
	if high == Five { // wheel
		return 0
	}
	return uint16(high - Five)
}

// straightHighMask returns the high-card rank of the best straight present in the mask (0 if none).
// The mask uses rank bits 0-12 for deuce through ace.
func straightHighMask(mask uint16) uint8 {
	const wheelMask = 0x100F // Ace + 2-3-4-5
	mask &= 0x1FFF

	// Bitwise cascade identifies consecutive sequences in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		low := uint8(bits.Len16(seq) - 1)
		return low + 4
	}

	if mask&wheelMask == wheelMask {
		return Five
	}
	return 0
}

// Package statistics holds the outcome tallies produced by equity runs and
// the interval estimates derived from them.
package statistics

import (
	"fmt"
	"math"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// Outcomes counts showdown results from Hero's point of view.
type Outcomes struct {
	Wins   int64
	Ties   int64
	Losses int64
}

// Total returns the number of scenarios counted.
func (o Outcomes) Total() int64 {
	return o.Wins + o.Ties + o.Losses
}

// Add merges another tally into o.
func (o *Outcomes) Add(other Outcomes) {
	o.Wins += other.Wins
	o.Ties += other.Ties
	o.Losses += other.Losses
}

// Percent returns count as a percentage of the total (0 when empty).
func (o Outcomes) Percent(count int64) float64 {
	total := o.Total()
	if total == 0 {
		return 0
	}
	return 100 * float64(count) / float64(total)
}

// Equity returns win share plus half the tie share, as a percentage.
func (o Outcomes) Equity() float64 {
	total := o.Total()
	if total == 0 {
		return 0
	}
	return 100 * (float64(o.Wins) + float64(o.Ties)/2) / float64(total)
}

// Interval is a confidence interval around a point estimate, in percent.
type Interval struct {
	Point float64
	Low   float64
	High  float64
}

// Width returns High - Low.
func (i Interval) Width() float64 {
	return i.High - i.Low
}

// Contains reports whether v lies within the interval.
func (i Interval) Contains(v float64) bool {
	return v >= i.Low && v <= i.High
}

// String formats the interval for display.
func (i Interval) String() string {
	return fmt.Sprintf("%.2f%% [%.2f%%, %.2f%%]", i.Point, i.Low, i.High)
}

// Interval95 returns the normal-approximation 95% interval for count
// successes out of n samples, clamped to [0, 100]. n == 0 yields a zero
// interval.
func Interval95(count, n int64) Interval {
	if n <= 0 {
		return Interval{}
	}
	p := float64(count) / float64(n)
	se := math.Sqrt(p * (1 - p) / float64(n))
	margin := z95 * se
	return Interval{
		Point: 100 * p,
		Low:   100 * clamp01(p-margin),
		High:  100 * clamp01(p+margin),
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// OutcomeIntervals carries one interval per outcome.
type OutcomeIntervals struct {
	Win  Interval
	Tie  Interval
	Loss Interval
}

// Intervals95 computes the 95% interval for each outcome of o.
func (o Outcomes) Intervals95() OutcomeIntervals {
	n := o.Total()
	return OutcomeIntervals{
		Win:  Interval95(o.Wins, n),
		Tie:  Interval95(o.Ties, n),
		Loss: Interval95(o.Losses, n),
	}
}

// MarginForSamples returns the worst-case (p = 0.5) 95% half-width, in
// percent, after n samples.
func MarginForSamples(n int64) float64 {
	if n <= 0 {
		return 100
	}
	return 100 * z95 * math.Sqrt(0.25/float64(n))
}

// Validate checks that the tally matches an independently counted total and
// that every histogram sums to its expected total.
func (o Outcomes) Validate(total int64, histograms ...Histogram) error {
	if o.Wins < 0 || o.Ties < 0 || o.Losses < 0 {
		return fmt.Errorf("negative outcome count: wins=%d ties=%d losses=%d", o.Wins, o.Ties, o.Losses)
	}
	if o.Total() != total {
		return fmt.Errorf("outcome mismatch: wins=%d + ties=%d + losses=%d != total=%d",
			o.Wins, o.Ties, o.Losses, total)
	}
	for _, h := range histograms {
		if sum := h.Sum(); sum != h.Want {
			return fmt.Errorf("histogram %s sums to %d, want %d", h.Name, sum, h.Want)
		}
	}
	return nil
}

// Histogram names a count slice and the total it must add up to.
type Histogram struct {
	Name   string
	Counts []int64
	Want   int64
}

// Sum adds up the counts.
func (h Histogram) Sum() int64 {
	var sum int64
	for _, c := range h.Counts {
		sum += c
	}
	return sum
}

package equity

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-equity/internal/randutil"
	"github.com/lox/holdem-equity/poker"
)

// worker samples deals for one spot from a private shuffled deck. A worker
// is owned by one goroutine at a time.
type worker struct {
	spot  *spot
	rng   *rand.Rand
	deck  []poker.Card
	holes []hole
}

func newWorker(s *spot, rng *rand.Rand) *worker {
	deck := make([]poker.Card, len(s.deck))
	copy(deck, s.deck)
	return &worker{
		spot:  s,
		rng:   rng,
		deck:  deck,
		holes: make([]hole, s.unknown),
	}
}

// run samples n deals into a fresh tally.
func (w *worker) run(n int64, detailed bool) tally {
	t := newTally(detailed)
	s := w.spot
	need := s.need()
	deck := w.deck
	var buf [5]poker.Card
	for range n {
		// Partial Fisher-Yates: only the first need positions are drawn.
		for i := 0; i < need; i++ {
			j := i + w.rng.IntN(len(deck)-i)
			deck[i], deck[j] = deck[j], deck[i]
		}
		full := s.boardHand
		for _, c := range deck[:s.missing] {
			full |= poker.Hand(c)
		}
		for k := range w.holes {
			a, b := deck[s.missing+2*k], deck[s.missing+2*k+1]
			w.holes[k] = hole{cards: [2]poker.Card{a, b}, hand: poker.NewHand(a, b)}
		}
		var boardRank poker.HandRank
		if detailed {
			boardRank = s.boardRank(deck[:s.missing], &buf)
		}
		s.showdown(full, boardRank, w.holes, &t)
	}
	return t
}

// sampleOptions controls one Monte Carlo run.
type sampleOptions struct {
	Detailed   bool
	Budget     time.Duration
	Workers    int
	Seeds      []uint64
	Iterations int64
}

// runStats describes how a run went.
type runStats struct {
	Iterations int64
	Elapsed    time.Duration
	Budget     time.Duration
	Workers    int
}

// sampler draws random deals. Elapsed time is checked only between batches.
type sampler struct {
	clock     quartz.Clock
	batchSize int64
	logger    *log.Logger
}

func (m *sampler) rngFor(opts sampleOptions, slot int) *rand.Rand {
	if slot < len(opts.Seeds) {
		return randutil.New(opts.Seeds[slot])
	}
	return randutil.NewEntropy()
}

func (m *sampler) sample(ctx context.Context, s *spot, opts sampleOptions) (tally, runStats, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Iterations > 0 {
		return m.fixed(ctx, s, opts)
	}
	if opts.Workers == 1 {
		return m.timed(ctx, s, opts)
	}
	return m.pooled(ctx, s, opts)
}

// fixed runs an exact number of iterations split across one slot per seed,
// or one per worker when unseeded. The clock plays no part, so seeded runs
// are reproducible whatever the worker count.
func (m *sampler) fixed(ctx context.Context, s *spot, opts sampleOptions) (tally, runStats, error) {
	slots := opts.Workers
	if len(opts.Seeds) > 0 {
		slots = len(opts.Seeds)
	}
	start := m.clock.Now()
	results := make([]tally, slots)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for slot := range slots {
		share := opts.Iterations / int64(slots)
		if int64(slot) < opts.Iterations%int64(slots) {
			share++
		}
		w := newWorker(s, m.rngFor(opts, slot))
		g.Go(func() error {
			results[slot] = newTally(opts.Detailed)
			for done := int64(0); done < share; {
				if err := gctx.Err(); err != nil {
					return err
				}
				n := min(m.batchSize, share-done)
				batch := w.run(n, opts.Detailed)
				results[slot].merge(&batch)
				done += n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tally{}, runStats{}, err
	}

	total := newTally(opts.Detailed)
	for i := range results {
		total.merge(&results[i])
	}
	return total, runStats{
		Iterations: total.outcomes.Total(),
		Elapsed:    m.clock.Now().Sub(start),
		Workers:    min(opts.Workers, slots),
	}, nil
}

// timed samples on the calling goroutine until the budget is spent. At least
// one batch always runs.
func (m *sampler) timed(ctx context.Context, s *spot, opts sampleOptions) (tally, runStats, error) {
	w := newWorker(s, m.rngFor(opts, 0))
	total := newTally(opts.Detailed)
	start := m.clock.Now()
	deadline := start.Add(opts.Budget)
	for {
		batch := w.run(m.batchSize, opts.Detailed)
		total.merge(&batch)
		if ctx.Err() != nil || !m.clock.Now().Before(deadline) {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return tally{}, runStats{}, err
	}
	return total, runStats{
		Iterations: total.outcomes.Total(),
		Elapsed:    m.clock.Now().Sub(start),
		Budget:     opts.Budget,
		Workers:    1,
	}, nil
}

type batchResult struct {
	slot  int
	tally tally
}

// pooled keeps one batch in flight per worker slot, resubmitting each slot as
// its batch completes until the budget is spent, then folds in every batch
// still outstanding.
func (m *sampler) pooled(ctx context.Context, s *spot, opts sampleOptions) (tally, runStats, error) {
	workers := make([]*worker, opts.Workers)
	for slot := range workers {
		workers[slot] = newWorker(s, m.rngFor(opts, slot))
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	// One batch per slot at most, so sends never block.
	done := make(chan batchResult, opts.Workers)
	submit := func(slot int) {
		w := workers[slot]
		g.Go(func() error {
			done <- batchResult{slot: slot, tally: w.run(m.batchSize, opts.Detailed)}
			return nil
		})
	}

	start := m.clock.Now()
	deadline := start.Add(opts.Budget)
	for slot := range workers {
		submit(slot)
	}

	total := newTally(opts.Detailed)
	batches := 0
	for outstanding := len(workers); outstanding > 0; {
		res := <-done
		outstanding--
		batches++
		total.merge(&res.tally)
		if ctx.Err() == nil && m.clock.Now().Before(deadline) {
			submit(res.slot)
			outstanding++
		}
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return tally{}, runStats{}, err
	}

	m.logger.Debug("Sampling pool drained", "workers", opts.Workers, "batches", batches)
	return total, runStats{
		Iterations: total.outcomes.Total(),
		Elapsed:    m.clock.Now().Sub(start),
		Budget:     opts.Budget,
		Workers:    opts.Workers,
	}, nil
}

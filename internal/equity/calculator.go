// Package equity computes Hold'em showdown equity for a Hero hand against
// known and unknown opponents, by exact enumeration where that is tractable
// and by time-budgeted sampling otherwise.
package equity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lox/holdem-equity/internal/statistics"
	"github.com/lox/holdem-equity/poker"
)

// Settings tunes the engine.
type Settings struct {
	ScenarioCeiling      uint64
	BatchSize            int
	Workers              int // 0 means runtime.NumCPU
	DefaultBudget        time.Duration
	AnalysisBudgetCap    time.Duration
	PreflopMinIterations int64
	CacheSize            int // 0 disables the exact-result cache
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		ScenarioCeiling:      2_000_000,
		BatchSize:            2048,
		DefaultBudget:        time.Second,
		AnalysisBudgetCap:    2 * time.Second,
		PreflopMinIterations: 20_000,
		CacheSize:            256,
	}
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock replaces the wall clock used for sampling deadlines.
func WithClock(clock quartz.Clock) Option {
	return func(c *Calculator) { c.clock = clock }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Calculator) { c.logger = logger }
}

// Calculator runs equity computations. It is safe for concurrent use.
type Calculator struct {
	settings Settings
	deck     *poker.Deck
	clock    quartz.Clock
	logger   *log.Logger
	cache    *lru.Cache[cacheKey, *Result]
}

// NewCalculator creates a calculator with the given settings.
func NewCalculator(settings Settings, opts ...Option) (*Calculator, error) {
	c := &Calculator{
		settings: settings,
		deck:     poker.StandardDeck(),
		clock:    quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.settings.BatchSize <= 0 {
		c.settings.BatchSize = DefaultSettings().BatchSize
	}
	if settings.CacheSize > 0 {
		cache, err := lru.New[cacheKey, *Result](settings.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// ComputeEquity validates the request, picks a method and runs it.
func (c *Calculator) ComputeEquity(ctx context.Context, req Request) (*Result, error) {
	s, err := prepare(req, c.deck)
	if err != nil {
		return nil, err
	}

	sel := SelectMethod(len(s.deck), s.missing, s.unknown, c.settings.ScenarioCeiling)
	c.logger.Debug("Selected method",
		"requested", req.Method, "selected", sel.Method,
		"estimate", sel.Estimate, "ceiling", sel.Ceiling)

	var res *Result
	switch req.Method {
	case MethodExact:
		if s.missing > MaxExactMissing {
			return nil, fmt.Errorf("%w: %s", ErrExactModeUnsupported, sel.Reason)
		}
		fallthrough
	case MethodAuto:
		res, err = c.exact(ctx, s, sel)
		if errors.Is(err, ErrScenarioCountExceeded) || errors.Is(err, ErrExactModeUnsupported) {
			c.logger.Debug("Falling back to Monte Carlo", "reason", sel.Reason)
			res, err = c.monteCarlo(ctx, s, req)
			if res != nil {
				res.FallbackReason = sel.Reason
			}
		}
	case MethodMonteCarlo:
		res, err = c.monteCarlo(ctx, s, req)
	default:
		return nil, fmt.Errorf("%w: unknown method %v", ErrInvalidRequest, req.Method)
	}
	if err != nil {
		return nil, err
	}

	res.ScenarioEstimate = sel.Estimate
	res.Stage = StageForBoard(len(s.board))
	if res.Stage == StagePartial {
		res.Warning = fmt.Sprintf("board has %d cards; streets deal 0, 3, 4 or 5", len(s.board))
	}
	if res.Method == MethodMonteCarlo && len(s.board) == 0 {
		res.Advisory = c.preflopAdvisory(s, res.Iterations)
	}
	return res, nil
}

// exact enumerates every scenario, or returns ErrScenarioCountExceeded or
// ErrExactModeUnsupported without doing any work.
func (c *Calculator) exact(ctx context.Context, s *spot, sel Selection) (*Result, error) {
	if s.missing > MaxExactMissing {
		return nil, fmt.Errorf("%w: %s", ErrExactModeUnsupported, sel.Reason)
	}
	if sel.Estimate > c.settings.ScenarioCeiling {
		return nil, fmt.Errorf("%w: %s", ErrScenarioCountExceeded, sel.Reason)
	}

	key := s.cacheKey()
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.logger.Debug("Exact result cache hit", "scenarios", cached.Iterations)
			res := cached.clone()
			res.Cached = true
			return res, nil
		}
	}

	start := c.clock.Now()
	t, visited, err := s.enumerate(ctx)
	if err != nil {
		return nil, err
	}
	if uint64(visited) != sel.Estimate {
		return nil, fmt.Errorf("%w: visited %d scenarios, estimated %d", ErrConsistencyViolation, visited, sel.Estimate)
	}
	if err := t.validate(visited); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConsistencyViolation, err)
	}

	res := newResult(&t)
	res.Method = MethodExact
	res.Elapsed = c.clock.Now().Sub(start)
	res.IterationsPerSecond = perSecond(res.Iterations, res.Elapsed)
	res.Workers = 1
	c.logger.Debug("Exact enumeration complete", "scenarios", visited, "elapsed", res.Elapsed)

	if c.cache != nil {
		c.cache.Add(key, res.clone())
	}
	return res, nil
}

func (c *Calculator) monteCarlo(ctx context.Context, s *spot, req Request) (*Result, error) {
	budget := req.Budget
	if budget <= 0 {
		budget = c.settings.DefaultBudget
	}
	if req.CollectBreakdown && c.settings.AnalysisBudgetCap > 0 {
		budget = min(budget, c.settings.AnalysisBudgetCap)
	}

	workers := 1
	if req.Parallel {
		workers = req.Workers
		if workers <= 0 {
			workers = c.settings.Workers
		}
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
	}

	m := &sampler{
		clock:     c.clock,
		batchSize: int64(c.settings.BatchSize),
		logger:    c.logger,
	}
	t, stats, err := m.sample(ctx, s, sampleOptions{
		Detailed:   req.CollectBreakdown,
		Budget:     budget,
		Workers:    workers,
		Seeds:      req.Seeds,
		Iterations: req.Iterations,
	})
	if err != nil {
		return nil, err
	}
	if err := t.validate(stats.Iterations); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConsistencyViolation, err)
	}

	res := newResult(&t)
	res.Method = MethodMonteCarlo
	intervals := t.outcomes.Intervals95()
	res.Intervals = &intervals
	res.Elapsed = stats.Elapsed
	res.IterationsPerSecond = perSecond(stats.Iterations, stats.Elapsed)
	res.Budget = stats.Budget
	res.Workers = stats.Workers
	c.logger.Debug("Monte Carlo run complete",
		"iterations", stats.Iterations, "workers", stats.Workers,
		"elapsed", stats.Elapsed, "budget", stats.Budget)
	return res, nil
}

// preflopAdvisory recommends a minimum sample count for preflop estimates.
// Strong starting hands facing three or more opponents get double the base
// recommendation. Returns "" when the run already met it.
func (c *Calculator) preflopAdvisory(s *spot, iterations int64) string {
	recommended := c.settings.PreflopMinIterations
	if recommended <= 0 {
		return ""
	}
	switch poker.CategorizeHoleCards(s.heroCards[0], s.heroCards[1]) {
	case poker.CategoryPremium, poker.CategoryStrong:
		if s.opponents() >= 3 {
			recommended *= 2
		}
	}
	if iterations >= recommended {
		return ""
	}
	return fmt.Sprintf("preflop estimate from %d samples (±%.2f%%); at least %d recommended",
		iterations, statistics.MarginForSamples(iterations), recommended)
}

func perSecond(n int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}

// cacheKey identifies an exact computation. Card order within the hero,
// board and known hands does not affect exact results.
type cacheKey struct {
	hero    poker.Hand
	board   poker.Hand
	known   string
	unknown int
}

func (s *spot) cacheKey() cacheKey {
	var known strings.Builder
	for i, h := range s.known {
		known.WriteString(s.labels[i])
		known.WriteByte('=')
		known.WriteString(strconv.FormatUint(uint64(h.hand), 16))
		known.WriteByte(';')
	}
	return cacheKey{
		hero:    s.hero,
		board:   s.boardHand,
		known:   known.String(),
		unknown: s.unknown,
	}
}

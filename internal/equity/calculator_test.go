package equity

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-equity/poker"
)

func newTestCalculator(t *testing.T, settings Settings, opts ...Option) *Calculator {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	calc, err := NewCalculator(settings, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return calc
}

func pair(s string) [2]poker.Card {
	cards := poker.MustParseCards(s)
	return [2]poker.Card{cards[0], cards[1]}
}

func sumCounts(counts []int64) int64 {
	var n int64
	for _, c := range counts {
		n += c
	}
	return n
}

func requireConsistent(t *testing.T, res *Result) {
	t.Helper()
	total := res.Outcomes.Total()
	require.Equal(t, res.Iterations, total)
	require.Equal(t, total, sumCounts(res.HeroCategories[:]))
	require.Equal(t, res.Outcomes.Wins, sumCounts(res.HeroWinCategories[:]))
	assert.InDelta(t, 100.0, res.WinPct+res.TiePct+res.LossPct, 1e-9)
	if res.Loss != nil {
		require.Equal(t, res.Outcomes.Losses, sumCounts(res.Loss.ByCategory[:]))
		var byArchetype int64
		for _, n := range res.Loss.ByArchetype {
			byArchetype += n
		}
		require.Equal(t, res.Outcomes.Losses, byArchetype)
	}
	if res.Tie != nil {
		require.Equal(t, res.Outcomes.Ties, sumCounts(res.Tie.ByCategory[:]))
		var byPlayers int64
		for _, n := range res.Tie.ByPlayers {
			byPlayers += n
		}
		require.Equal(t, res.Outcomes.Ties, byPlayers)
		require.LessOrEqual(t, res.Tie.BoardDetermined, res.Outcomes.Ties)
	}
}

func TestComputeEquity_TurnHeadsUpIsExact(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	res, err := calc.ComputeEquity(context.Background(), Request{
		Hero:             pair("As Ad"),
		Board:            poker.MustParseCards("Ks Qs 2d 2c"),
		UnknownOpponents: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, MethodExact, res.Method)
	assert.Empty(t, res.FallbackReason)
	assert.Equal(t, StageTurn, res.Stage)
	assert.Equal(t, int64(46*990), res.Iterations)
	assert.Equal(t, uint64(46*990), res.ScenarioEstimate)
	assert.Nil(t, res.Intervals, "exact results carry no intervals")
	require.NotNil(t, res.Loss)
	require.NotNil(t, res.Tie)
	assert.Greater(t, res.Equity, 75.0)
	requireConsistent(t, res)

	_, ok := res.MostLikely()
	assert.True(t, ok)
}

func TestComputeEquity_PreflopFallsBackToMonteCarlo(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	res, err := calc.ComputeEquity(context.Background(), Request{
		Hero:             pair("Ah Kd"),
		UnknownOpponents: 1,
		Seeds:            []uint64{1},
		Iterations:       30_000,
	})
	require.NoError(t, err)

	assert.Equal(t, MethodMonteCarlo, res.Method)
	assert.Equal(t, "too many missing board cards (5 > 2)", res.FallbackReason)
	assert.Equal(t, StagePreflop, res.Stage)
	assert.Equal(t, int64(30_000), res.Iterations)
	require.NotNil(t, res.Intervals)
	assert.True(t, res.Intervals.Win.Contains(res.WinPct))
	assert.InDelta(t, 65.0, res.Equity, 3.0)
	requireConsistent(t, res)
}

func TestComputeEquity_WeakHandLosesToPremium(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	run := func(hero string) float64 {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Method:           MethodMonteCarlo,
			Hero:             pair(hero),
			UnknownOpponents: 1,
			Seeds:            []uint64{7},
			Iterations:       20_000,
		})
		require.NoError(t, err)
		return res.Equity
	}

	weak := run("7c 2d")
	strong := run("As Ah")
	assert.Less(t, weak, strong)
	assert.InDelta(t, 85.0, strong, 3.0)
	assert.InDelta(t, 35.0, weak, 3.0)
}

func TestComputeEquity_WeakHandLosesToPremiumOnRiver(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())
	board := poker.MustParseCards("Kc 9h 5s 3c Jd")

	run := func(hero string) *Result {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Method:           MethodExact,
			Hero:             pair(hero),
			Board:            board,
			UnknownOpponents: 1,
		})
		require.NoError(t, err)
		require.Equal(t, MethodExact, res.Method)
		require.Equal(t, int64(990), res.Iterations)
		requireConsistent(t, res)
		return res
	}

	weak := run("7s 2d")
	strong := run("As Ah")
	assert.Less(t, weak.Equity, strong.Equity)
	assert.Less(t, weak.Equity, 15.0)
	assert.Greater(t, strong.Equity, 80.0)
}

func TestComputeEquity_BoardDeterminedTies(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	t.Run("exact river", func(t *testing.T) {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Hero:             pair("2s 3d"),
			Board:            poker.MustParseCards("As Ks Qd Jc Th"),
			UnknownOpponents: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, MethodExact, res.Method)
		assert.Equal(t, int64(990), res.Outcomes.Ties)
		require.NotNil(t, res.Tie)
		assert.Equal(t, int64(990), res.Tie.BoardDetermined)
		assert.Equal(t, map[int]int64{2: 990}, res.Tie.ByPlayers)
	})

	t.Run("sampled river", func(t *testing.T) {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Method:           MethodMonteCarlo,
			Hero:             pair("2s 3d"),
			Board:            poker.MustParseCards("As Ks Qd Jc Th"),
			UnknownOpponents: 2,
			CollectBreakdown: true,
			Seeds:            []uint64{9},
			Iterations:       3_000,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3_000), res.Outcomes.Ties)
		require.NotNil(t, res.Tie)
		assert.Equal(t, int64(3_000), res.Tie.BoardDetermined)
	})

	t.Run("exact turn", func(t *testing.T) {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Hero:             pair("2s 3d"),
			Board:            poker.MustParseCards("Ah Kh Qd Jc"),
			UnknownOpponents: 1,
		})
		require.NoError(t, err)
		requireConsistent(t, res)
		require.NotNil(t, res.Tie)
		// Any of the four tens completes a Broadway board that both players play.
		assert.Positive(t, res.Tie.BoardDetermined)
		assert.LessOrEqual(t, res.Tie.BoardDetermined, res.Outcomes.Ties)
	})
}

func TestComputeEquity_Validation(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{
			name: "board too long",
			req:  Request{Hero: pair("As Ad"), Board: poker.MustParseCards("2c 3c 4c 5c 6c 7c"), UnknownOpponents: 1},
			want: ErrInvalidRequest,
		},
		{
			name: "known exceed total",
			req: Request{
				Hero: pair("As Ad"),
				KnownOpponents: []KnownOpponent{
					{ID: 1, Hand: pair("Kc Kd")},
					{ID: 2, Hand: pair("Qc Qd")},
				},
				UnknownOpponents: 1,
				TotalOpponents:   1,
			},
			want: ErrInvalidOpponentCount,
		},
		{
			name: "counts disagree with total",
			req:  Request{Hero: pair("As Ad"), UnknownOpponents: 1, TotalOpponents: 3},
			want: ErrInvalidOpponentCount,
		},
		{
			name: "no opponents",
			req:  Request{Hero: pair("As Ad")},
			want: ErrInvalidOpponentCount,
		},
		{
			name: "too many opponents",
			req:  Request{Hero: pair("As Ad"), UnknownOpponents: MaxOpponents + 1},
			want: ErrInvalidOpponentCount,
		},
		{
			name: "negative unknown",
			req:  Request{Hero: pair("As Ad"), UnknownOpponents: -1, TotalOpponents: 1},
			want: ErrInvalidOpponentCount,
		},
		{
			name: "hero card on board",
			req:  Request{Hero: pair("As Kd"), Board: poker.MustParseCards("As 7h 2c"), UnknownOpponents: 1},
			want: ErrDuplicateCard,
		},
		{
			name: "known opponent holds hero card",
			req: Request{
				Hero:           pair("As Kd"),
				KnownOpponents: []KnownOpponent{{ID: 1, Hand: pair("Kd Qc")}},
			},
			want: ErrDuplicateCard,
		},
		{
			name: "missing hero card",
			req:  Request{Hero: [2]poker.Card{poker.NewCard(poker.Ace, poker.Spades)}, UnknownOpponents: 1},
			want: ErrInvalidCardFormat,
		},
		{
			name: "opponent id reused",
			req: Request{
				Hero: pair("As Ad"),
				KnownOpponents: []KnownOpponent{
					{ID: 3, Hand: pair("Kc Kd")},
					{ID: 3, Hand: pair("Qc Qd")},
				},
			},
			want: ErrInvalidRequest,
		},
		{
			name: "exact preflop",
			req:  Request{Method: MethodExact, Hero: pair("As Ad"), UnknownOpponents: 1},
			want: ErrExactModeUnsupported,
		},
		{
			name: "unknown method",
			req:  Request{Method: Method(42), Hero: pair("As Ad"), UnknownOpponents: 1},
			want: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := calc.ComputeEquity(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestComputeEquity_DuplicateCardNamed(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	_, err := calc.ComputeEquity(context.Background(), Request{
		Hero:             pair("As Kd"),
		Board:            poker.MustParseCards("As 7h 2c"),
		UnknownOpponents: 1,
	})

	var dup *DuplicateCardError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "As", dup.Card.String())
	assert.Contains(t, err.Error(), "As")
}

func TestComputeEquity_ExactOverCeilingFallsBack(t *testing.T) {
	t.Parallel()
	settings := DefaultSettings()
	settings.ScenarioCeiling = 10
	calc := newTestCalculator(t, settings)

	res, err := calc.ComputeEquity(context.Background(), Request{
		Method:           MethodExact,
		Hero:             pair("Qh Qd"),
		Board:            poker.MustParseCards("2c 7s Jd"),
		UnknownOpponents: 1,
		Seeds:            []uint64{3},
		Iterations:       5_000,
	})
	require.NoError(t, err)

	assert.Equal(t, MethodMonteCarlo, res.Method)
	assert.Equal(t, "scenario count exceeds ceiling: estimated 1070190 vs. limit 10", res.FallbackReason)
	assert.Equal(t, StageFlop, res.Stage)
	requireConsistent(t, res)
}

func TestComputeEquity_ExplicitMonteCarloHasNoFallbackReason(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	res, err := calc.ComputeEquity(context.Background(), Request{
		Method:           MethodMonteCarlo,
		Hero:             pair("Qh Qd"),
		Board:            poker.MustParseCards("2c 7s Jd 9h"),
		UnknownOpponents: 1,
		Seeds:            []uint64{3},
		Iterations:       2_000,
	})
	require.NoError(t, err)
	assert.Equal(t, MethodMonteCarlo, res.Method)
	assert.Empty(t, res.FallbackReason)
}

func TestComputeEquity_MonteCarloConvergesOnExact(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	req := Request{
		Hero:             pair("Ah Kh"),
		Board:            poker.MustParseCards("2h 7h 9c"),
		KnownOpponents:   []KnownOpponent{{ID: 1, Hand: pair("Qc Qd")}},
		UnknownOpponents: 0,
	}
	exact, err := calc.ComputeEquity(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, MethodExact, exact.Method)
	assert.Equal(t, int64(990), exact.Iterations)

	req.Method = MethodMonteCarlo
	req.Seeds = []uint64{11, 12}
	req.Iterations = 40_000
	req.CollectBreakdown = true
	sampled, err := calc.ComputeEquity(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, MethodMonteCarlo, sampled.Method)
	requireConsistent(t, sampled)

	assert.InDelta(t, exact.Equity, sampled.Equity, 1.5)
	assert.InDelta(t, exact.WinPct, sampled.WinPct, 1.5)
}

func TestComputeEquity_RiverKnownOnly(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	t.Run("win", func(t *testing.T) {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Hero:           pair("As Ad"),
			Board:          poker.MustParseCards("2c 7h 9d Jc 3s"),
			KnownOpponents: []KnownOpponent{{ID: 1, Hand: pair("Ks Kd")}},
		})
		require.NoError(t, err)
		assert.Equal(t, StageRiver, res.Stage)
		assert.Equal(t, int64(1), res.Iterations)
		assert.Equal(t, int64(1), res.Outcomes.Wins)
		assert.Equal(t, 100.0, res.Equity)
		cat, ok := res.MostLikelyWin()
		require.True(t, ok)
		assert.Equal(t, poker.Pair, cat)
	})

	t.Run("board plays", func(t *testing.T) {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Hero:           pair("2c 3d"),
			Board:          poker.MustParseCards("As Ks Qs Js Ts"),
			KnownOpponents: []KnownOpponent{{ID: 1, Hand: pair("4h 5c")}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Outcomes.Ties)
		assert.Equal(t, 50.0, res.Equity)
		require.NotNil(t, res.Tie)
		assert.Equal(t, int64(1), res.Tie.BoardDetermined)
		assert.Equal(t, map[int]int64{2: 1}, res.Tie.ByPlayers)
		assert.Equal(t, int64(1), res.Tie.ByCategory[poker.StraightFlush])
	})

	t.Run("loss", func(t *testing.T) {
		res, err := calc.ComputeEquity(context.Background(), Request{
			Hero:  pair("2c 3d"),
			Board: poker.MustParseCards("Ac Kd 8s 9h 4c"),
			KnownOpponents: []KnownOpponent{
				{ID: 7, Hand: pair("Ah Ad")},
				{ID: 2, Hand: pair("Qh Jh")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Outcomes.Losses)
		require.NotNil(t, res.Loss)
		assert.Equal(t, map[string]int64{"known:7": 1}, res.Loss.ByArchetype)
		assert.Equal(t, int64(1), res.Loss.ByCategory[poker.ThreeOfAKind])
		assert.Equal(t, []ExampleHand{{Hand: "AA", Count: 1}}, res.Loss.Examples[poker.ThreeOfAKind])
	})
}

func TestComputeEquity_ExactWithTwoUnknownOpponents(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	res, err := calc.ComputeEquity(context.Background(), Request{
		Hero:             pair("9s 9d"),
		Board:            poker.MustParseCards("9c 5h 2d Kc 7s"),
		UnknownOpponents: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, MethodExact, res.Method)
	assert.Equal(t, int64(148995*3), res.Iterations)
	requireConsistent(t, res)
	assert.Equal(t, []string{UnknownArchetype}, keys(res.Loss.ByArchetype))
	assert.Greater(t, res.Equity, 90.0)
	for players := range res.Tie.ByPlayers {
		assert.True(t, players == 2 || players == 3)
	}
}

func keys(m map[string]int64) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestComputeEquity_SeededRunsReproduce(t *testing.T) {
	t.Parallel()

	req := Request{
		Hero:             pair("Jh Tc"),
		Board:            poker.MustParseCards("9d 8c"),
		UnknownOpponents: 3,
		CollectBreakdown: true,
		Parallel:         true,
		Workers:          4,
		Seeds:            []uint64{1, 2, 3, 4},
		Iterations:       10_001,
	}

	a, err := newTestCalculator(t, DefaultSettings()).ComputeEquity(context.Background(), req)
	require.NoError(t, err)
	req.Workers = 2
	b, err := newTestCalculator(t, DefaultSettings()).ComputeEquity(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StagePartial, a.Stage)
	assert.NotEmpty(t, a.Warning)
	assert.Equal(t, int64(10_001), a.Iterations)
	assert.Equal(t, a.Outcomes, b.Outcomes)
	assert.Equal(t, a.HeroCategories, b.HeroCategories)
	assert.Equal(t, a.Loss, b.Loss)
	assert.Equal(t, a.Tie, b.Tie)
	requireConsistent(t, a)
}

func TestComputeEquity_CachesExactResults(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())
	req := Request{
		Hero:             pair("Ah Kh"),
		Board:            poker.MustParseCards("2h 7h 9c Td"),
		UnknownOpponents: 1,
	}

	first, err := calc.ComputeEquity(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	first.Loss.ByArchetype[UnknownArchetype] = -1

	req.Hero = pair("Kh Ah")
	req.Board = poker.MustParseCards("Td 9c 7h 2h")
	second, err := calc.ComputeEquity(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Outcomes, second.Outcomes)
	assert.Equal(t, second.Outcomes.Losses, second.Loss.ByArchetype[UnknownArchetype])
}

func TestComputeEquity_ExactRepeatsIdentically(t *testing.T) {
	t.Parallel()
	settings := DefaultSettings()
	settings.CacheSize = 0
	req := Request{
		Hero:             pair("As Ad"),
		Board:            poker.MustParseCards("Ks Qs 2d 2c"),
		UnknownOpponents: 1,
	}

	run := func() *Result {
		res, err := newTestCalculator(t, settings).ComputeEquity(context.Background(), req)
		require.NoError(t, err)
		require.False(t, res.Cached)
		res.Elapsed = 0
		res.IterationsPerSecond = 0
		return res
	}

	a, b := run(), run()
	assert.Equal(t, MethodExact, a.Method)
	assert.Equal(t, int64(45540), a.Iterations)
	assert.Equal(t, a, b)
}

func TestComputeEquity_PreflopAdvisory(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())

	res, err := calc.ComputeEquity(context.Background(), Request{
		Hero:             pair("As Ah"),
		UnknownOpponents: 3,
		Seeds:            []uint64{5},
		Iterations:       1_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "preflop estimate from 1000 samples (±3.10%); at least 40000 recommended", res.Advisory)

	res, err = calc.ComputeEquity(context.Background(), Request{
		Hero:             pair("7c 2d"),
		UnknownOpponents: 1,
		Seeds:            []uint64{5},
		Iterations:       20_000,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Advisory)
}

func TestComputeEquity_Cancelled(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t, DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := calc.ComputeEquity(ctx, Request{
		Hero:             pair("As Ah"),
		Board:            poker.MustParseCards("2c 7d 9h"),
		UnknownOpponents: 1,
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = calc.ComputeEquity(ctx, Request{
		Hero:             pair("As Ah"),
		UnknownOpponents: 1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStageForBoard(t *testing.T) {
	t.Parallel()
	want := []Stage{StagePreflop, StagePartial, StagePartial, StageFlop, StageTurn, StageRiver}
	for n, stage := range want {
		assert.Equal(t, stage, StageForBoard(n), "board of %d", n)
	}
}

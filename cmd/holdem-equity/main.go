package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/holdem-equity/internal/config"
	"github.com/lox/holdem-equity/internal/equity"
	"github.com/lox/holdem-equity/poker"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `help:"Show version"`

	Hero       string        `arg:"" help:"Hero hole cards, e.g. 'AsKd'"`
	Board      string        `short:"b" help:"Community cards, e.g. 'Td7s8h'"`
	Known      []string      `short:"k" help:"Known opponent as id=cards, e.g. '1=QhQd' (repeatable)"`
	Unknown    int           `short:"u" help:"Opponents with unknown cards (1 when no known opponents are given)"`
	Opponents  int           `short:"n" help:"Total opponents, checked against known + unknown"`
	Method     string        `short:"m" default:"auto" enum:"auto,exact,monte-carlo,mc" help:"auto, exact or monte-carlo"`
	Budget     time.Duration `short:"t" help:"Monte Carlo time budget (config default when unset)"`
	Breakdown  bool          `short:"d" help:"Collect loss and tie breakdowns"`
	Parallel   bool          `short:"p" help:"Sample on multiple workers"`
	Workers    int           `short:"w" help:"Worker count for --parallel (config default when unset)"`
	Seed       []uint64      `help:"Seeds for reproducible sampling, one per worker"`
	Iterations int64         `short:"i" help:"Fixed Monte Carlo iteration count instead of a time budget"`
	Config     string        `short:"c" default:"holdem-equity.hcl" help:"HCL config file"`
	NoColor    bool          `help:"Disable colored output"`
	Verbose    bool          `short:"v" help:"Verbose logging"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem-equity"),
		kong.Description("Texas Hold'em equity calculator"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)

	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	cfg, err := config.Load(cli.Config)
	ctx.FatalIfErrorf(err)
	settings, err := cfg.Settings()
	ctx.FatalIfErrorf(err)

	level := cfg.Level()
	if cli.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	req, err := cli.request()
	if err != nil {
		logger.Error("Invalid input", "error", err)
		os.Exit(2)
	}

	calc, err := equity.NewCalculator(settings, equity.WithLogger(logger))
	ctx.FatalIfErrorf(err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := calc.ComputeEquity(runCtx, req)
	if err != nil {
		logger.Error("Equity computation failed", "error", err)
		stop()
		os.Exit(1)
	}

	render(os.Stdout, req, res)
}

// request turns the flags into an equity request.
func (c *CLI) request() (equity.Request, error) {
	var req equity.Request

	hero, err := poker.ParseCards(c.Hero)
	if err != nil {
		return req, fmt.Errorf("hero: %w", err)
	}
	if len(hero) != 2 {
		return req, fmt.Errorf("hero: must contain exactly 2 cards, got %d", len(hero))
	}
	req.Hero = [2]poker.Card{hero[0], hero[1]}

	if req.Board, err = poker.ParseCards(c.Board); err != nil {
		return req, fmt.Errorf("board: %w", err)
	}

	for _, spec := range c.Known {
		known, err := parseKnown(spec)
		if err != nil {
			return req, err
		}
		req.KnownOpponents = append(req.KnownOpponents, known)
	}

	req.UnknownOpponents = c.Unknown
	if req.UnknownOpponents == 0 && len(req.KnownOpponents) == 0 && c.Opponents == 0 {
		req.UnknownOpponents = 1
	}
	req.TotalOpponents = c.Opponents

	if req.Method, err = equity.ParseMethod(c.Method); err != nil {
		return req, err
	}
	req.Budget = c.Budget
	req.CollectBreakdown = c.Breakdown
	req.Parallel = c.Parallel || c.Workers > 1
	req.Workers = c.Workers
	req.Seeds = c.Seed
	req.Iterations = c.Iterations
	return req, nil
}

// parseKnown reads "id=cards". The id may be omitted ("QhQd"), in which case
// it is 0.
func parseKnown(spec string) (equity.KnownOpponent, error) {
	var known equity.KnownOpponent
	cardPart := spec
	if idPart, rest, ok := strings.Cut(spec, "="); ok {
		id, err := strconv.Atoi(strings.TrimSpace(idPart))
		if err != nil {
			return known, fmt.Errorf("known opponent %q: bad id: %w", spec, err)
		}
		known.ID = id
		cardPart = rest
	}

	cards, err := poker.ParseCards(cardPart)
	if err != nil {
		return known, fmt.Errorf("known opponent %q: %w", spec, err)
	}
	if len(cards) != 2 {
		return known, fmt.Errorf("known opponent %q: must contain exactly 2 cards, got %d", spec, len(cards))
	}
	known.Hand = [2]poker.Card{cards[0], cards[1]}
	return known, nil
}

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/holdem-equity/internal/equity"
	"github.com/lox/holdem-equity/internal/statistics"
	"github.com/lox/holdem-equity/poker"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	noteStyle = lipgloss.NewStyle().
			Faint(true)
)

func render(w io.Writer, req equity.Request, res *equity.Result) {
	hero := req.Hero[:]
	fmt.Fprintf(w, "%s  %s  %s\n", headerStyle.Render("hero"),
		handStyle.Render(poker.FormatCards(hero)),
		noteStyle.Render(string(poker.CategorizeHoleCards(req.Hero[0], req.Hero[1]))))
	if len(req.Board) > 0 {
		fmt.Fprintf(w, "%s  %s  %s\n", headerStyle.Render("board"),
			poker.FormatCards(req.Board), noteStyle.Render(string(res.Stage)))
	}
	fmt.Fprintf(w, "%s  %s\n\n", headerStyle.Render("opponents"), describeOpponents(req))

	renderOutcomes(w, res)

	if res.Iterations > 0 {
		fmt.Fprintln(w)
		renderCategories(w, res)
	}
	if res.Loss != nil && res.Outcomes.Losses > 0 {
		fmt.Fprintln(w)
		renderLosses(w, res)
	}
	if res.Tie != nil && res.Outcomes.Ties > 0 {
		fmt.Fprintln(w)
		renderTies(w, res)
	}

	fmt.Fprintln(w)
	for _, note := range []string{res.FallbackReason, res.Warning, res.Advisory} {
		if note != "" {
			fmt.Fprintln(w, noteStyle.Render("note: "+note))
		}
	}
	fmt.Fprintln(w, footer(res))
}

func describeOpponents(req equity.Request) string {
	var parts []string
	for _, k := range req.KnownOpponents {
		parts = append(parts, fmt.Sprintf("%s %s", k.Label(), poker.FormatCards(k.Hand[:])))
	}
	if req.UnknownOpponents > 0 {
		parts = append(parts, fmt.Sprintf("%d unknown", req.UnknownOpponents))
	}
	return strings.Join(parts, ", ")
}

func renderOutcomes(w io.Writer, res *equity.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		headerStyle.Render("outcome"),
		headerStyle.Render("pct"),
		headerStyle.Render("95% interval"))

	rows := []struct {
		name  string
		style lipgloss.Style
		pct   float64
		iv    func(*statistics.OutcomeIntervals) statistics.Interval
	}{
		{"win", winStyle, res.WinPct, func(o *statistics.OutcomeIntervals) statistics.Interval { return o.Win }},
		{"tie", tieStyle, res.TiePct, func(o *statistics.OutcomeIntervals) statistics.Interval { return o.Tie }},
		{"loss", lossStyle, res.LossPct, func(o *statistics.OutcomeIntervals) statistics.Interval { return o.Loss }},
	}
	for _, row := range rows {
		interval := "exact"
		if res.Intervals != nil {
			iv := row.iv(res.Intervals)
			interval = fmt.Sprintf("[%.2f%%, %.2f%%]", iv.Low, iv.High)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.name,
			row.style.Render(fmt.Sprintf("%.2f%%", row.pct)), interval)
	}
	fmt.Fprintf(tw, "%s\t%s\t\n", headerStyle.Render("equity"),
		handStyle.Render(fmt.Sprintf("%.2f%%", res.Equity)))
	tw.Flush()
}

func renderCategories(w io.Writer, res *equity.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		categoryStyle.Render("hand"),
		headerStyle.Render("made"),
		headerStyle.Render("won with"))

	total := float64(res.Iterations)
	for i := poker.NumHandTypes - 1; i >= 0; i-- {
		made := res.HeroCategories[i]
		if made == 0 {
			continue
		}
		won := res.HeroWinCategories[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			categoryStyle.Render(poker.HandType(i).String()),
			fmt.Sprintf("%.1f%%", 100*float64(made)/total),
			winStyle.Render(fmt.Sprintf("%.1f%%", 100*float64(won)/total)))
	}
	tw.Flush()

	if cat, ok := res.MostLikely(); ok {
		fmt.Fprintf(w, "most likely: %s", cat)
		if win, ok := res.MostLikelyWin(); ok {
			fmt.Fprintf(w, ", most winning: %s", win)
		}
		fmt.Fprintln(w)
	}
}

func renderLosses(w io.Writer, res *equity.Result) {
	fmt.Fprintln(w, headerStyle.Render("losses"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	losses := float64(res.Outcomes.Losses)
	for i := poker.NumHandTypes - 1; i >= 0; i-- {
		n := res.Loss.ByCategory[i]
		if n == 0 {
			continue
		}
		var examples []string
		for _, ex := range res.Loss.Examples[i] {
			examples = append(examples, ex.Hand)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			categoryStyle.Render(poker.HandType(i).String()),
			lossStyle.Render(fmt.Sprintf("%.1f%%", 100*float64(n)/losses)),
			strings.Join(examples, " "))
	}
	tw.Flush()

	labels := make([]string, 0, len(res.Loss.ByArchetype))
	for label := range res.Loss.ByArchetype {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	var parts []string
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", label, 100*float64(res.Loss.ByArchetype[label])/losses))
	}
	fmt.Fprintf(w, "beaten by: %s\n", strings.Join(parts, ", "))
}

func renderTies(w io.Writer, res *equity.Result) {
	fmt.Fprintln(w, headerStyle.Render("ties"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	ties := float64(res.Outcomes.Ties)
	for i := poker.NumHandTypes - 1; i >= 0; i-- {
		n := res.Tie.ByCategory[i]
		if n == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n",
			categoryStyle.Render(poker.HandType(i).String()),
			tieStyle.Render(fmt.Sprintf("%.1f%%", 100*float64(n)/ties)))
	}
	tw.Flush()

	players := make([]int, 0, len(res.Tie.ByPlayers))
	for p := range res.Tie.ByPlayers {
		players = append(players, p)
	}
	slices.Sort(players)
	var parts []string
	for _, p := range players {
		parts = append(parts, fmt.Sprintf("%d-way %.1f%%", p, 100*float64(res.Tie.ByPlayers[p])/ties))
	}
	fmt.Fprintf(w, "split: %s; board plays %.1f%%\n", strings.Join(parts, ", "),
		100*float64(res.Tie.BoardDetermined)/ties)
}

func footer(res *equity.Result) string {
	unit := "iterations"
	if res.Method == equity.MethodExact {
		unit = "scenarios"
	}
	line := fmt.Sprintf("%s: %d %s in %v", res.Method, res.Iterations, unit, res.Elapsed.Truncate(time.Millisecond))
	if res.IterationsPerSecond > 0 {
		line += fmt.Sprintf(" (%.0f/s)", res.IterationsPerSecond)
	}
	if res.Method == equity.MethodMonteCarlo {
		line += fmt.Sprintf(", %d workers", res.Workers)
		if res.Budget > 0 {
			line += fmt.Sprintf(", budget %v", res.Budget)
		}
	}
	if res.Cached {
		line += ", cached"
	}
	return line
}

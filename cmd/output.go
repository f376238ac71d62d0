package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/report"
)

var (
	headingColor = color.New(color.FgHiBlue, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
	warnColor    = color.New(color.FgRed, color.Bold)
)

const rule = "─"

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// severityColor picks a terminal color for band: green for the lowest band,
// red for the two highest, yellow in between.
func severityColor(s *instrument.Schema, band instrument.Band) *color.Color {
	switch {
	case band.Rank == 0:
		return color.New(color.FgGreen)
	case band.Rank >= len(s.Bands)-2:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}

// printRows writes one line per result with its colored severity, followed by
// the band advice when withAdvice is set.
func printRows(w io.Writer, rows []report.Row, withAdvice bool) {
	for _, row := range rows {
		fmt.Fprintf(w, "%-8s %2d / %-2d  ", row.ShortName, row.Score, row.MaxScore)
		severityColor(instrument.MustLookup(row.ScaleID), row.Band).Fprintln(w, row.Band.Level)
		if withAdvice {
			dimColor.Fprintf(w, "         %s\n", row.Band.Advice)
		}
	}
}

// printAdvisory writes the analysis of r, or its fallback message.
func printAdvisory(w io.Writer, r *report.Report) {
	if notice, ok := r.CrisisNotice(); ok {
		fmt.Fprintln(w)
		warnColor.Fprintln(w, report.CrisisTitle)
		fmt.Fprintln(w, notice)
	}

	a := r.Analysis()
	if a == nil {
		if r.AdvisoryState() == report.AdvisoryUnavailable {
			fmt.Fprintln(w)
			dimColor.Fprintln(w, r.FallbackMessage())
		}
		return
	}

	fmt.Fprintln(w)
	headingColor.Fprintln(w, "AI 分析")
	fmt.Fprintln(w, a.Summary)
	for i, s := range a.CopingStrategies {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}
	dimColor.Fprintln(w, report.AIDisclaimer)
}

func printRule(w io.Writer, n int) {
	fmt.Fprintln(w, strings.Repeat(rule, n))
}

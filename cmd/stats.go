package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show de-identified aggregate statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		hist, err := st.ResultRepo().ScoreHistogram(cmd.Context())
		if err != nil {
			return fmt.Errorf("query score histogram: %w", err)
		}
		stats := report.ComputeStats(hist)

		out := cmd.OutOrStdout()
		dimColor.Fprintln(out, report.AdminNotice)
		fmt.Fprintln(out)

		phq := stats.Scale(instrument.PHQ9)
		fmt.Fprintf(out, "%-12s %d\n", "总测评数", stats.Total)
		fmt.Fprintf(out, "%-12s %.1f\n", "PHQ-9 平均分", phq.Average)
		fmt.Fprintf(out, "%-12s ", "标记为高风险")
		warnColor.Fprintln(out, stats.HighRisk)

		for _, s := range instrument.All() {
			sc := stats.Scale(s.ID)
			fmt.Fprintln(out)
			headingColor.Fprintf(out, "%s  (%d 次, 平均 %.1f)\n", s.ShortName, sc.Count, sc.Average)
			printRule(out, 36)
			for i, band := range s.Bands {
				n := 0
				if i < len(sc.Bands) {
					n = sc.Bands[i]
				}
				severityColor(s, band).Fprintf(out, "%-10s", band.Level)
				fmt.Fprintf(out, " %d\n", n)
			}
		}
		return nil
	},
}

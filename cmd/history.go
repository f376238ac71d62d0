package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
	"github.com/mindharmony/mindharmony/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past results (score summaries only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		scale, _ := cmd.Flags().GetString("scale")

		opts := store.QueryOpts{Limit: limit}
		if scale != "" {
			id, err := instrument.ParseScaleID(scale)
			if err != nil {
				return err
			}
			opts.ScaleID = string(id)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.ResultRepo().ListResults(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "暂无历史记录。")
			return nil
		}

		headingColor.Fprintf(out, "%-16s  %-8s  %-7s  %-10s  %s\n", "时间", "量表", "得分", "报告", "严重程度")
		printRule(out, 64)
		for _, rec := range recs {
			fmt.Fprintf(out, "%-16s  %-8s  %3d/%-3d  %-10s  ",
				humanize.Time(rec.CreatedAt), rec.ScaleID, rec.Score, rec.MaxScore, shortID(rec.ReportID))

			s, err := instrument.Lookup(instrument.ScaleID(rec.ScaleID))
			if err != nil {
				fmt.Fprintln(out, "?")
				continue
			}
			band, err := scoring.Classify(s, rec.Score)
			if err != nil {
				fmt.Fprintln(out, "?")
				continue
			}
			severityColor(s, band).Fprintln(out, band.Level)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of results to show")
	historyCmd.Flags().StringP("scale", "s", "", "Only show one questionnaire (PHQ-9 or GAD-7)")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/profile"
	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show or export a stored report",
}

var reportShowCmd = &cobra.Command{
	Use:   "show [report-id]",
	Short: "Show a stored report (the latest by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		rep, err := loadReport(cmd.Context(), st, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		headingColor.Fprintf(out, "报告 %s\n", rep.CycleID)
		dimColor.Fprintf(out, "用户：%s\n\n", rep.Owner)
		printRows(out, rep.Rows(), true)
		return nil
	},
}

var reportExportCmd = &cobra.Command{
	Use:   "export [report-id]",
	Short: "Export a stored report as JSON, Markdown or HTML",
	Long: "Export a stored report. Only score summaries are kept on disk, so the\n" +
		"exported results carry no answers and no AI analysis.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		f, err := report.ParseFormat(format)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		rep, err := loadReport(ctx, st, args)
		if err != nil {
			return err
		}

		path, err := report.Export(ctx, rep, cfg.ExportDir, f, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "报告已导出：%s\n", path)
		return nil
	},
}

func init() {
	reportExportCmd.Flags().StringP("format", "f", "json", "Export format: json, md or html")
	reportExportCmd.Flags().String("dir", "", "Directory for the exported file")

	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportExportCmd)
}

// loadReport rebuilds the report named by args[0], or the most recent one.
func loadReport(ctx context.Context, st *store.Store, args []string) (*report.Report, error) {
	recs, err := st.ResultRepo().ListResults(ctx, store.QueryOpts{})
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if len(recs) == 0 {
		return nil, errors.New("no stored results yet")
	}

	id := recs[0].ReportID
	if len(args) > 0 {
		id = args[0]
	}

	owner := ""
	if p, err := profile.NewService(st.ProfileRepo()).Load(ctx); err != nil {
		return nil, err
	} else if p != nil {
		owner = p.Nickname
	}
	return report.FromRecords(owner, id, recs)
}

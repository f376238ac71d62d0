package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/advisory"
	"github.com/mindharmony/mindharmony/internal/app"
	"github.com/mindharmony/mindharmony/internal/config"
	"github.com/mindharmony/mindharmony/internal/llm"
	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/selfupdate"
	"github.com/mindharmony/mindharmony/internal/store"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	reports := report.NewStore()
	client, configured := newAdvisoryClient(ctx, cfg, st.EventRepo())
	advisor := newAdvisor(cfg, client, reports)
	defer advisor.Close()

	return app.Run(app.Deps{
		Store:              st,
		Reports:            reports,
		Advisor:            advisor,
		AdvisoryConfigured: configured,
		ExportDir:          cfg.ExportDir,
		LatestVersion:      latestVersion(ctx),
	})
}

// newAdvisoryClient builds the client selected by c.Advisory.Provider. The
// second result is false when analysis is unavailable; the client then
// answers every request with advisory.ErrNotConfigured.
func newAdvisoryClient(ctx context.Context, c *config.Config, events store.EventRepo) (advisory.Client, bool) {
	switch c.Advisory.Provider {
	case config.AdvisoryNone:
		return advisory.Unconfigured{}, false
	case config.AdvisoryHTTP:
		return advisory.NewHTTPClient(c.Advisory.Endpoint, c.Advisory.Timeout), true
	}

	provider, err := llm.NewProviderFromEnv(ctx, events)
	if err != nil {
		slog.Info("LLM provider not configured, analysis unavailable", "error", err)
		return advisory.Unconfigured{}, false
	}
	lc := advisory.DefaultLLMConfig()
	lc.MaxTokens = c.Advisory.MaxTokens
	return advisory.NewLLMClient(provider, lc), true
}

// newAdvisor builds the fetch-once advisor for reports, bounding each request
// by c.Advisory.Timeout.
func newAdvisor(c *config.Config, client advisory.Client, reports *report.Store) *report.Advisor {
	return report.NewAdvisor(client,
		report.WithStore(reports),
		report.WithTimeout(c.Advisory.Timeout),
	)
}

// latestVersion returns a newer release tag, or "" when there is none or the
// check fails. Development builds are never checked.
func latestVersion(ctx context.Context) string {
	if version == devVersion {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := selfupdate.NewChecker(selfupdate.WithTimeout(2*time.Second)).
		Check(ctx, &selfupdate.CheckInput{Version: version})
	if err != nil {
		slog.Debug("update check failed", "error", err)
		return ""
	}
	if !res.UpdateAvailable {
		return ""
	}
	return res.LatestVersion
}

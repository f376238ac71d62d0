package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/config"
	"github.com/mindharmony/mindharmony/internal/logging"
	"github.com/mindharmony/mindharmony/internal/store"
)

// cfg is resolved once per invocation by the root pre-run hook.
var (
	cfg      *config.Config
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "mindharmony",
	Short: "PHQ-9 / GAD-7 mental health self-screening",
	Long: "MindHarmony is a terminal app for self-screening with the PHQ-9 and GAD-7 questionnaires.\n" +
		"It scores answers locally, explains the severity band, and can ask an LLM for supportive suggestions.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (overrides MINDHARMONY_CONFIG env var)")
	pf.String("db", "", "Path to SQLite database file (overrides MINDHARMONY_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(advisoryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration with flags applied last and installs the
// file logger. Logs never go to stdout, which the TUI owns.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var f config.Flags
	f.DBPath, _ = cmd.Flags().GetString("db")
	f.LogLevel, _ = cmd.Flags().GetString("log-level")
	if cmd.Flags().Lookup("dir") != nil {
		f.ExportDir, _ = cmd.Flags().GetString("dir")
	}
	if err := c.ApplyFlags(f); err != nil {
		return err
	}

	closer, err := logging.Setup(c.LogPath(), c.LogLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	cfg, closeLog = c, closer
	slog.Debug("config loaded", "command", cmd.Name(), "db", c.ResolvedDBPath())
	return nil
}

// openStore opens the database named by the resolved configuration.
func openStore() (*store.Store, error) {
	path := cfg.ResolvedDBPath()
	if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

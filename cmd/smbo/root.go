package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	logger   = slog.New(slog.NewJSONHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "smbo",
	Short: "Sequential model-based optimization with a DACE surrogate",
	Long: `smbo minimizes benchmark functions by alternating a DACE surrogate fit
with expected-improvement maximization, checkpointing every iteration so runs
can be resumed.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		opts := &slog.HandlerOptions{Level: parseLevel(logLevel)}
		handler := slog.NewJSONHandler(os.Stderr, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

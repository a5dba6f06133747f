package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subimg",
	Short: "Exhaustive sub-image localization",
	Long: `subimg finds where a template image sits inside a larger reference image.
Every offset is scored under one of six criteria (gray SAD, color SAD,
correlation, gradient angle, gradient magnitude, histogram) and the best
offset wins.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		handler, err := newLogHandler(os.Stderr, logLevel, logFormat)
		if err != nil {
			return err
		}
		logger = slog.New(handler)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// newLogHandler builds the slog handler selected by the logging flags.
// Logs go to stderr so match output on stdout stays machine-readable.
func newLogHandler(w io.Writer, level, format string) (slog.Handler, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text", "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide logger. Debug output is gated
// behind the verbose flag so scrapers can dump request traffic without
// drowning normal runs.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
	"github.com/Sumatoshi-tech/removestar/pkg/version"
)

// initObservability sets up telemetry for one run of the binary with logs
// written to logOut. The command line only logs warnings unless debug is set.
func initObservability(
	mode observability.AppMode, logOut io.Writer, logJSON, debug bool,
) (observability.Providers, error) {
	cfg := observability.DefaultConfig().WithEnv()
	cfg.ServiceVersion = version.Version
	cfg.Mode = mode
	cfg.LogJSON = logJSON

	if mode == observability.ModeCLI {
		cfg.LogLevel = slog.LevelWarn
	}

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.InitWithWriter(cfg, logOut)
}

func shutdownObservability(providers observability.Providers) {
	shutdownErr := providers.Shutdown(context.Background())
	if shutdownErr != nil {
		providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

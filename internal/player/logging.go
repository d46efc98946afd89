package player

import (
	"log/slog"
	"sync"

	"github.com/tphakala/voicenote-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the player service logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("player")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "player")
		}
	})
	return serviceLogger
}

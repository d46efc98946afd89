package app

import (
	"log/slog"
	"sync"

	"github.com/tphakala/voicenote-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the app service logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("app")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "app")
		}
	})
	return serviceLogger
}

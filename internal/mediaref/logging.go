package mediaref

import (
	"log/slog"
	"sync"

	"github.com/tphakala/voicenote-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the mediaref service logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("mediaref")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "mediaref")
		}
	})
	return serviceLogger
}

package notestore

import (
	"log/slog"
	"sync"

	"github.com/tphakala/voicenote-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the notestore service logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("notestore")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "notestore")
		}
	})
	return serviceLogger
}

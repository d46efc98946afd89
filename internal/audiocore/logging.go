package audiocore

import (
	"log/slog"
	"sync"

	"github.com/tphakala/voicenote-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the audiocore service logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("audiocore")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "audiocore")
		}
	})
	return serviceLogger
}

package account

import (
	"log/slog"
	"sync"

	"github.com/tphakala/voicenote-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the account service logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("account")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "account")
		}
	})
	return serviceLogger
}

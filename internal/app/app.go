// Package app wires the application services together for the CLI: settings,
// metrics, the note store with its resolver, the audio device and the
// notification center.
package app

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/voicenote-go/internal/audiocore"
	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/logging"
	"github.com/tphakala/voicenote-go/internal/mediaref"
	"github.com/tphakala/voicenote-go/internal/notestore"
	"github.com/tphakala/voicenote-go/internal/notification"
	"github.com/tphakala/voicenote-go/internal/observability"
)

// App holds the wired application services.
type App struct {
	Settings *conf.Settings
	Registry *prometheus.Registry
	Notifier *notification.Service
	Resolver *mediaref.Resolver
	Backend  notestore.Interface
	Store    *notestore.Store
	Device   *audiocore.Device

	StoreMetrics  *observability.StoreMetrics
	PlayerMetrics *observability.PlayerMetrics
}

// New builds the application from settings and opens the note database.
func New(settings *conf.Settings) (*App, error) {
	registry := prometheus.NewRegistry()
	storeMetrics := observability.NewStoreMetrics(registry)
	playerMetrics := observability.NewPlayerMetrics(registry)

	notifier := notification.NewService(&notification.ServiceConfig{Debug: settings.Debug}, logging.Structured())

	backend, err := notestore.New(settings)
	if err != nil {
		return nil, err
	}
	if err := backend.Open(); err != nil {
		return nil, err
	}

	resolver := mediaref.New(os.TempDir())
	store := notestore.NewStore(backend, resolver, storeMetrics, notestore.Options{
		EmbedPayload: settings.Audio.EmbedPayload,
	})

	return &App{
		Settings:      settings,
		Registry:      registry,
		Notifier:      notifier,
		Resolver:      resolver,
		Backend:       backend,
		Store:         store,
		Device:        audiocore.NewDevice(settings),
		StoreMetrics:  storeMetrics,
		PlayerMetrics: playerMetrics,
	}, nil
}

// Close releases all playable handles and closes the database.
func (a *App) Close() {
	a.Resolver.ReleaseAll()
	if err := a.Backend.Close(); err != nil {
		getLogger().Warn("failed to close note database", "error", err)
	}
}

// DrainNotifications prints pending user-facing notifications and marks them
// read. The CLI calls this after an operation so failures surface the way the
// notification center would in a UI.
func (a *App) DrainNotifications(ctx context.Context, out func(format string, args ...any)) {
	for _, n := range a.Notifier.List() {
		if n.Read {
			continue
		}
		out("[%s] %s: %s\n", n.Type, n.Title, n.Message)
	}
	a.Notifier.MarkAllRead()
}

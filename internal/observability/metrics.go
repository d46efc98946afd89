// Package observability provides prometheus metric bundles for the note
// store and the player. Metric structs are injected where needed; a nil
// bundle disables collection.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks note collection operations.
type StoreMetrics struct {
	SavesTotal      prometheus.Counter
	DeletesTotal    prometheus.Counter
	LoadsTotal      prometheus.Counter
	OperationErrors *prometheus.CounterVec
	NotesInStore    prometheus.Gauge
}

// NewStoreMetrics creates and registers store metrics on the given registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		SavesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenote_store_saves_total",
			Help: "Total number of notes saved to the collection",
		}),
		DeletesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenote_store_deletes_total",
			Help: "Total number of notes deleted from the collection",
		}),
		LoadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenote_store_loads_total",
			Help: "Total number of collection loads from durable storage",
		}),
		OperationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicenote_store_operation_errors_total",
			Help: "Store operation failures by operation",
		}, []string{"operation"}),
		NotesInStore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voicenote_store_notes",
			Help: "Current number of notes in the in-memory collection",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SavesTotal, m.DeletesTotal, m.LoadsTotal, m.OperationErrors, m.NotesInStore)
	}
	return m
}

// RecordError increments the error counter for an operation, nil-safe.
func (m *StoreMetrics) RecordError(operation string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(operation).Inc()
}

// PlayerMetrics tracks audio session lifecycle.
type PlayerMetrics struct {
	SessionsLoaded      prometheus.Counter
	ActiveSessions      prometheus.Gauge
	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	DeviceErrors        prometheus.Counter
}

// NewPlayerMetrics creates and registers player metrics on the given registerer.
func NewPlayerMetrics(reg prometheus.Registerer) *PlayerMetrics {
	m := &PlayerMetrics{
		SessionsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenote_player_sessions_loaded_total",
			Help: "Total number of playback sessions loaded",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voicenote_player_active_sessions",
			Help: "Currently loaded audio sessions",
		}),
		RecordingsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenote_player_recordings_started_total",
			Help: "Total number of capture sessions started",
		}),
		RecordingsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenote_player_recordings_completed_total",
			Help: "Total number of capture sessions finalized into notes",
		}),
		DeviceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenote_player_device_errors_total",
			Help: "Audio device failures caught at the player boundary",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SessionsLoaded, m.ActiveSessions, m.RecordingsStarted, m.RecordingsCompleted, m.DeviceErrors)
	}
	return m
}

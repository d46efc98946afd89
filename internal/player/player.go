package player

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/errors"
	"github.com/tphakala/voicenote-go/internal/mediaref"
	"github.com/tphakala/voicenote-go/internal/notestore"
	"github.com/tphakala/voicenote-go/internal/notification"
	"github.com/tphakala/voicenote-go/internal/observability"
)

// State is the transport state of a player instance.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StateRecording
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// Sentinel errors for player operations
var (
	ErrPermissionDenied      = errors.Newf("microphone permission denied").Component("player").Category(errors.CategoryPermission).Build()
	ErrNoRecordingActive     = errors.Newf("no recording in progress").Component("player").Category(errors.CategoryState).Build()
	ErrMissingAudioReference = errors.Newf("capture finalized with no usable audio reference").Component("player").Category(errors.CategoryValidation).Build()
	ErrCaptureSessionActive  = errors.Newf("a capture session is active").Component("player").Category(errors.CategoryState).Build()
	ErrPlaybackSessionActive = errors.Newf("a playback session is active").Component("player").Category(errors.CategoryState).Build()
)

// Player coordinates at most one loaded audio session and its transport
// state. A player is bound to one note for playback; recording players are
// created without a note. Operations are serialized: a play request issued
// while a load is still in flight is ignored rather than allowed to open a
// second session.
type Player struct {
	device   Device
	resolver *mediaref.Resolver
	notifier *notification.Service
	metrics  *observability.PlayerMetrics

	note    notestore.Note
	hasNote bool

	mu       sync.Mutex
	state    State
	inFlight bool
	tornDown bool
	session  Session
	handle   *mediaref.Handle

	capture       CaptureSession
	recordSeconds atomic.Int64
	recordDone    chan struct{}

	positionSeconds float64
	durationSeconds float64
}

// New creates a playback player bound to the given note. notifier and
// metrics may be nil.
func New(device Device, resolver *mediaref.Resolver, notifier *notification.Service, metrics *observability.PlayerMetrics, note notestore.Note) *Player {
	return &Player{
		device:   device,
		resolver: resolver,
		notifier: notifier,
		metrics:  metrics,
		note:     note,
		hasNote:  true,
	}
}

// NewRecorder creates a player used only for capturing a new recording.
func NewRecorder(device Device, resolver *mediaref.Resolver, notifier *notification.Service, metrics *observability.PlayerMetrics) *Player {
	return &Player{
		device:   device,
		resolver: resolver,
		notifier: notifier,
		metrics:  metrics,
	}
}

// State returns the current transport state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the live playback position in seconds.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionSeconds
}

// Duration returns the loaded session duration in seconds, falling back to
// the note's recorded duration before a session is loaded.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.durationSeconds > 0 {
		return p.durationSeconds
	}
	return float64(p.note.DurationSeconds)
}

// PlayPause toggles transport. With no session loaded it resolves the note's
// handle, loads it and starts playing; while a load is in flight further
// calls are ignored. A playing session pauses; a paused session at or past
// its end restarts from position zero.
func (p *Player) PlayPause(ctx context.Context) error {
	p.mu.Lock()

	if p.inFlight {
		// Only one load may be in flight per player
		p.mu.Unlock()
		return nil
	}

	if p.capture != nil {
		p.mu.Unlock()
		return ErrCaptureSessionActive
	}

	if p.session == nil {
		if !p.hasNote {
			p.mu.Unlock()
			return errors.Newf("player has no note to play").Component("player").Category(errors.CategoryState).Build()
		}
		p.inFlight = true
		p.tornDown = false
		p.state = StateLoading
		p.mu.Unlock()
		return p.loadAndPlay(ctx)
	}
	defer p.mu.Unlock()

	switch p.state {
	case StatePlaying:
		if err := p.session.Pause(ctx); err != nil {
			return p.deviceFailureLocked("pause", err)
		}
		p.state = StateReady
		return nil

	case StateReady:
		st, err := p.session.Status(ctx)
		if err != nil {
			return p.deviceFailureLocked("status", err)
		}
		if st.DurationSeconds > 0 && st.PositionSeconds >= st.DurationSeconds {
			if err := p.session.Seek(ctx, 0); err != nil {
				return p.deviceFailureLocked("seek", err)
			}
			p.positionSeconds = 0
		}
		if err := p.session.Play(ctx); err != nil {
			return p.deviceFailureLocked("play", err)
		}
		p.state = StatePlaying
		return nil

	default:
		return nil
	}
}

// loadAndPlay resolves the note's handle, loads a session and starts
// transport. Called with inFlight set and the mutex released.
func (p *Player) loadAndPlay(ctx context.Context) error {
	handle, err := p.resolver.ResolvePlayable(ctx, p.note.ID, p.note.Audio())
	if err != nil {
		return p.loadFailed("resolve", nil, err)
	}

	session, err := p.device.Load(ctx, handle, p.HandleStatus)
	if err != nil {
		return p.loadFailed("load", handle, err)
	}

	if err := session.Play(ctx); err != nil {
		_ = session.Unload(ctx)
		return p.loadFailed("play", handle, err)
	}

	st, err := session.Status(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if p.tornDown {
		// Unload ran while the load was in flight. The fresh session must
		// not outlive the teardown, so it is dropped instead of installed.
		_ = session.Unload(context.Background())
		p.resolver.Release(handle)
		getLogger().Debug("session discarded after teardown", "note_id", p.note.ID)
		return nil
	}
	p.session = session
	p.handle = handle
	p.state = StatePlaying
	if err == nil && st.DurationSeconds > 0 {
		p.durationSeconds = st.DurationSeconds
	}
	if p.metrics != nil {
		p.metrics.SessionsLoaded.Inc()
		p.metrics.ActiveSessions.Inc()
	}
	getLogger().Debug("session loaded", "note_id", p.note.ID, "duration_s", p.durationSeconds)
	return nil
}

// loadFailed resets the player to idle after a failed load. The player is
// never left in a loaded-but-broken state.
func (p *Player) loadFailed(operation string, handle *mediaref.Handle, err error) error {
	p.resolver.Release(handle)

	p.mu.Lock()
	p.inFlight = false
	p.session = nil
	p.handle = nil
	p.state = StateIdle
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.DeviceErrors.Inc()
	}
	p.notify(notification.TypeError, "Failed to play audio file")
	getLogger().Error("playback failed", "note_id", p.note.ID, "operation", operation, "error", err)

	return errors.New(err).
		Component("player").
		Category(errors.CategoryAudioDevice).
		NoteContext(p.note.ID, p.note.RefKind).
		Context("operation", operation).
		Build()
}

// deviceFailureLocked handles a device failure on a loaded session: the
// session is dropped and the player reset to idle. Caller holds the mutex.
func (p *Player) deviceFailureLocked(operation string, err error) error {
	if p.session != nil {
		_ = p.session.Unload(context.Background())
		if p.metrics != nil {
			p.metrics.ActiveSessions.Dec()
		}
	}
	p.resolver.Release(p.handle)
	p.session = nil
	p.handle = nil
	p.state = StateIdle
	p.positionSeconds = 0

	if p.metrics != nil {
		p.metrics.DeviceErrors.Inc()
	}
	p.notify(notification.TypeError, "Failed to play audio file")
	getLogger().Error("device operation failed", "note_id", p.note.ID, "operation", operation, "error", err)

	return errors.New(err).
		Component("player").
		Category(errors.CategoryAudioDevice).
		Context("operation", operation).
		Build()
}

// HandleStatus consumes one transport tick from the device. On natural
// completion the player returns to ready at position zero and the session is
// rewound so the next play starts from the beginning.
func (p *Player) HandleStatus(status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !status.IsLoaded || p.session == nil {
		return
	}

	p.positionSeconds = status.PositionSeconds
	if status.DurationSeconds > 0 {
		p.durationSeconds = status.DurationSeconds
	}

	if status.DidJustFinish {
		p.state = StateReady
		p.positionSeconds = 0
		if err := p.session.Seek(context.Background(), 0); err != nil {
			getLogger().Warn("failed to rewind session after completion", "note_id", p.note.ID, "error", err)
		}
	}
}

// Unload stops transport, releases the device session and the resolver
// handle. A load still in flight is discarded when it completes. Unload must
// be called on every exit path; calling it repeatedly or with nothing loaded
// is harmless.
func (p *Player) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
}

func (p *Player) unloadLocked() {
	p.tornDown = true

	if p.recordDone != nil {
		close(p.recordDone)
		p.recordDone = nil
	}
	p.capture = nil

	if p.session != nil {
		if p.state == StatePlaying {
			_ = p.session.Pause(context.Background())
		}
		if err := p.session.Unload(context.Background()); err != nil {
			getLogger().Warn("failed to unload session", "error", err)
		}
		if p.metrics != nil {
			p.metrics.ActiveSessions.Dec()
		}
		p.session = nil
	}

	p.resolver.Release(p.handle)
	p.handle = nil
	p.state = StateIdle
	p.positionSeconds = 0
}

// StartRecording requests microphone permission, configures the device for
// capture and begins recording with the given preset. A duration counter
// ticks once per elapsed second for live display.
func (p *Player) StartRecording(ctx context.Context, preset conf.CapturePreset) error {
	p.mu.Lock()
	if p.capture != nil {
		p.mu.Unlock()
		return ErrCaptureSessionActive
	}
	if p.session != nil || p.inFlight {
		p.mu.Unlock()
		return ErrPlaybackSessionActive
	}
	p.mu.Unlock()

	granted, err := p.device.RequestPermission(ctx)
	if err != nil {
		return p.recordingFailed("permission", err)
	}
	if !granted {
		p.notify(notification.TypeWarning, "Please grant microphone permission to record audio")
		return ErrPermissionDenied
	}

	if err := p.device.ConfigureMode(ctx, ModeOptions{AllowCapture: true}); err != nil {
		return p.recordingFailed("configure", err)
	}

	capture, err := p.device.StartCapture(ctx, preset)
	if err != nil {
		return p.recordingFailed("capture", err)
	}

	p.mu.Lock()
	p.capture = capture
	p.state = StateRecording
	p.recordSeconds.Store(0)
	p.recordDone = make(chan struct{})
	done := p.recordDone
	p.mu.Unlock()

	go p.countRecordingSeconds(done)

	if p.metrics != nil {
		p.metrics.RecordingsStarted.Inc()
	}
	getLogger().Info("recording started", "sample_rate", preset.SampleRate, "channels", preset.NumChannels)
	return nil
}

// countRecordingSeconds increments the live duration counter once per second
// until the recording stops.
func (p *Player) countRecordingSeconds(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.recordSeconds.Add(1)
		}
	}
}

// RecordingDuration returns the elapsed recording time in seconds for live
// display. The finalized note carries the authoritative duration reported by
// the capture session.
func (p *Player) RecordingDuration() int {
	return int(p.recordSeconds.Load())
}

// StopRecording stops and finalizes the capture and returns a fully
// populated note ready for saving.
func (p *Player) StopRecording(ctx context.Context) (notestore.Note, error) {
	p.mu.Lock()
	capture := p.capture
	if capture == nil {
		p.mu.Unlock()
		return notestore.Note{}, ErrNoRecordingActive
	}
	if p.recordDone != nil {
		close(p.recordDone)
		p.recordDone = nil
	}
	p.capture = nil
	p.state = StateIdle
	p.mu.Unlock()

	ref, durationSeconds, err := capture.Stop(ctx)
	if err != nil {
		return notestore.Note{}, p.recordingFailed("stop", err)
	}
	if ref.IsZero() {
		p.notify(notification.TypeError, "Failed to stop recording")
		return notestore.Note{}, ErrMissingAudioReference
	}

	now := time.Now()
	note := notestore.Note{
		ID:              notestore.NewNoteID(),
		Title:           notestore.DefaultTitle(now),
		CreatedAt:       now,
		DurationSeconds: durationSeconds,
	}
	note.SetAudio(ref)

	if p.metrics != nil {
		p.metrics.RecordingsCompleted.Inc()
	}
	getLogger().Info("recording finalized", "note_id", note.ID, "duration_s", durationSeconds)
	return note, nil
}

// recordingFailed resets the player to idle after a capture failure.
func (p *Player) recordingFailed(operation string, err error) error {
	p.mu.Lock()
	if p.recordDone != nil {
		close(p.recordDone)
		p.recordDone = nil
	}
	p.capture = nil
	p.state = StateIdle
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.DeviceErrors.Inc()
	}
	p.notify(notification.TypeError, "Failed to record audio")
	getLogger().Error("recording failed", "operation", operation, "error", err)

	return errors.New(err).
		Component("player").
		Category(errors.CategoryAudioDevice).
		Context("operation", operation).
		Build()
}

// notify publishes a user-facing notification, nil-safe.
func (p *Player) notify(notifType notification.Type, message string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Publish(notifType, notification.PriorityHigh, "Voice Notes", message)
}

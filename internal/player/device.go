// Package player manages at most one loaded audio session per instance,
// either a playback session for a persisted note or a capture session for a
// new recording, and drives its transport state machine.
package player

import (
	"context"

	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/mediaref"
)

// Status is one transport tick reported by an audio session.
type Status struct {
	IsLoaded        bool
	IsPlaying       bool
	PositionSeconds float64
	DurationSeconds float64
	// DidJustFinish is set on the tick where playback reached its natural end.
	DidJustFinish bool
}

// StatusCallback receives transport status ticks from a loaded session.
type StatusCallback func(Status)

// ModeOptions configures the device before a session starts.
type ModeOptions struct {
	// AllowCapture prepares the device for recording rather than playback.
	AllowCapture bool
}

// Session is a loaded playback session owned by exactly one player.
type Session interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, positionSeconds float64) error
	Status(ctx context.Context) (Status, error)
	Unload(ctx context.Context) error
}

// CaptureSession is an active recording owned by exactly one player.
type CaptureSession interface {
	// Stop finalizes the capture and returns the resulting audio reference
	// together with the captured duration in whole seconds.
	Stop(ctx context.Context) (mediaref.AudioReference, int, error)
}

// Device is the platform audio capability the player drives. Implementations
// live in audiocore; tests feed the player a scripted fake.
type Device interface {
	// RequestPermission asks for microphone access. Platforms with implicit
	// permission return true without prompting.
	RequestPermission(ctx context.Context) (bool, error)
	ConfigureMode(ctx context.Context, opts ModeOptions) error
	StartCapture(ctx context.Context, preset conf.CapturePreset) (CaptureSession, error)
	Load(ctx context.Context, handle *mediaref.Handle, cb StatusCallback) (Session, error)
}

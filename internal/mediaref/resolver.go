package mediaref

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/tphakala/voicenote-go/internal/errors"
)

// Sentinel errors for resolver operations
var (
	ErrAudioFileMissing = errors.Newf("referenced audio file no longer exists").Component("mediaref").Category(errors.CategoryAudioMissing).Build()
	ErrEmptyReference   = errors.Newf("audio reference is empty").Component("mediaref").Category(errors.CategoryValidation).Build()
)

// Handle is a transient, process-lifetime playable resource derived from a
// durable reference. Callers must Release a handle exactly once after its
// last use; Release is idempotent so double release is harmless.
type Handle struct {
	id     string
	noteID string
	path   string
	// owned is true when the file behind path was materialized by the
	// resolver and must be removed on release.
	owned bool

	mu       sync.Mutex
	released bool
}

// ID returns the registry identifier of the handle.
func (h *Handle) ID() string { return h.id }

// NoteID returns the id of the note the handle was resolved for.
func (h *Handle) NoteID() string { return h.noteID }

// Path returns the playable file path behind the handle.
func (h *Handle) Path() string { return h.path }

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Resolver materializes playable handles from durable audio references and
// reclaims them. Safe for concurrent use.
type Resolver struct {
	registry *gocache.Cache
	tempDir  string
}

// New creates a Resolver. tempDir is the directory for materialized payloads;
// empty means the system temp directory.
func New(tempDir string) *Resolver {
	return &Resolver{
		// Handles never expire on their own, release is explicit
		registry: gocache.New(gocache.NoExpiration, 0),
		tempDir:  tempDir,
	}
}

// ResolvePlayable turns a durable reference into a playable handle. Path-kind
// references are validated and returned as-is; payload-kind references are
// decoded into a process-scoped temp file. Each call produces a new handle
// and the caller owns its release.
func (r *Resolver) ResolvePlayable(ctx context.Context, noteID string, ref AudioReference) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.IsZero() {
		return nil, ErrEmptyReference
	}

	switch ref.Kind {
	case KindFilePath:
		if _, err := os.Stat(ref.Path); err != nil {
			getLogger().Warn("audio file missing", "note_id", noteID, "path", ref.Path)
			return nil, errors.New(ErrAudioFileMissing).
				Component("mediaref").
				Category(errors.CategoryAudioMissing).
				NoteContext(noteID, string(ref.Kind)).
				Build()
		}
		h := &Handle{id: uuid.NewString(), noteID: noteID, path: ref.Path, owned: false}
		r.registry.Set(h.id, h, gocache.NoExpiration)
		return h, nil

	case KindEncodedPayload:
		f, err := os.CreateTemp(r.tempDir, "voicenote-*.wav")
		if err != nil {
			return nil, errors.New(err).
				Component("mediaref").
				Category(errors.CategoryFileIO).
				NoteContext(noteID, string(ref.Kind)).
				Build()
		}
		if _, err := f.Write(ref.Payload); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, errors.New(err).
				Component("mediaref").
				Category(errors.CategoryFileIO).
				NoteContext(noteID, string(ref.Kind)).
				Build()
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return nil, errors.New(err).
				Component("mediaref").
				Category(errors.CategoryFileIO).
				NoteContext(noteID, string(ref.Kind)).
				Build()
		}
		h := &Handle{id: uuid.NewString(), noteID: noteID, path: f.Name(), owned: true}
		r.registry.Set(h.id, h, gocache.NoExpiration)
		getLogger().Debug("materialized payload", "note_id", noteID, "handle_id", h.id, "bytes", len(ref.Payload))
		return h, nil

	default:
		return nil, errors.Newf("unknown audio reference kind %q", ref.Kind).
			Component("mediaref").
			Category(errors.CategoryValidation).
			Build()
	}
}

// ToDurable reads the transient resource behind the handle fully and encodes
// it into a self-contained payload reference, the inverse of ResolvePlayable
// on payload platforms.
func (r *Resolver) ToDurable(ctx context.Context, h *Handle) (AudioReference, error) {
	if err := ctx.Err(); err != nil {
		return AudioReference{}, err
	}
	if h == nil {
		return AudioReference{}, ErrEmptyReference
	}

	data, err := os.ReadFile(h.Path())
	if err != nil {
		return AudioReference{}, errors.New(err).
			Component("mediaref").
			Category(errors.CategoryFileIO).
			FileContext(h.Path(), 0).
			Build()
	}
	return NewEncodedPayload(data), nil
}

// Release reclaims the transient resource behind the handle. Releasing a nil,
// never-resolved or already-released handle is a no-op.
func (r *Resolver) Release(h *Handle) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true

	if h.owned {
		if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
			getLogger().Warn("failed to remove transient audio file", "handle_id", h.id, "error", err)
		}
	}
	r.registry.Delete(h.id)
}

// ReleaseForNote releases every live handle resolved for the given note.
// Called before the note record is deleted.
func (r *Resolver) ReleaseForNote(noteID string) {
	for _, item := range r.registry.Items() {
		if h, ok := item.Object.(*Handle); ok && h.noteID == noteID {
			r.Release(h)
		}
	}
}

// ReleaseAll releases every handle still registered. Used at teardown so no
// transient file outlives the process on a clean exit.
func (r *Resolver) ReleaseAll() {
	for _, item := range r.registry.Items() {
		if h, ok := item.Object.(*Handle); ok {
			r.Release(h)
		}
	}
}

// ActiveHandles returns the number of unreleased handles.
func (r *Resolver) ActiveHandles() int {
	return r.registry.ItemCount()
}

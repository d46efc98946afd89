package notestore

import (
	"context"
	"os"
	"slices"
	"sync"

	"github.com/tphakala/voicenote-go/internal/errors"
	"github.com/tphakala/voicenote-go/internal/mediaref"
	"github.com/tphakala/voicenote-go/internal/observability"
)

// Sentinel errors for store operations
var (
	ErrDuplicateNoteID = errors.Newf("note id already exists in collection").Component("notestore").Category(errors.CategoryConflict).Build()
	ErrMissingAudio    = errors.Newf("note has no audio reference").Component("notestore").Category(errors.CategoryValidation).Build()
	ErrNoteNotFound    = errors.Newf("note not found").Component("notestore").Category(errors.CategoryNotFound).Build()
)

// Options configures store behavior.
type Options struct {
	// EmbedPayload converts freshly recorded file references into
	// self-contained payloads before persisting, for storage without durable
	// file handles.
	EmbedPayload bool
}

// Store is the single source of truth for the note collection. It keeps an
// in-memory cache consistent with durable storage: a failed durable write
// always rolls the cache back so the two never diverge. All mutations are
// serialized through one mutex.
type Store struct {
	backend  Interface
	resolver *mediaref.Resolver
	metrics  *observability.StoreMetrics
	opts     Options

	mu     sync.Mutex
	cache  []Note
	loaded bool
}

// NewStore creates a Store on top of an opened backend. metrics may be nil.
func NewStore(backend Interface, resolver *mediaref.Resolver, metrics *observability.StoreMetrics, opts Options) *Store {
	return &Store{
		backend:  backend,
		resolver: resolver,
		metrics:  metrics,
		opts:     opts,
	}
}

// Load reads the full durable collection, replaces the in-memory cache with
// it and returns a snapshot. On read failure the previous cache is kept and a
// storage-read error reported. Safe to call repeatedly.
func (s *Store) Load(ctx context.Context) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.backend.GetAllNotes()
	if err != nil {
		s.metrics.RecordError("load")
		getLogger().Error("failed to load note collection", "error", err)
		return nil, errors.New(err).
			Component("notestore").
			Category(errors.CategoryStorageRead).
			Build()
	}

	s.cache = notes
	s.loaded = true
	if s.metrics != nil {
		s.metrics.LoadsTotal.Inc()
		s.metrics.NotesInStore.Set(float64(len(s.cache)))
	}
	return s.snapshotLocked(), nil
}

// Save appends the note to the collection and persists it. The returned note
// is the persisted form, which carries an embedded payload when the store is
// configured without durable file handles. On durable-write failure the
// in-memory append is rolled back.
func (s *Store) Save(ctx context.Context, note Note) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}

	if note.ID == "" {
		note.ID = NewNoteID()
	}
	note.Normalize()
	if note.Audio().IsZero() {
		return Note{}, ErrMissingAudio
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return Note{}, err
	}

	if s.indexLocked(note.ID) >= 0 {
		return Note{}, ErrDuplicateNoteID
	}

	var capturePath string
	if s.opts.EmbedPayload {
		path, err := s.embedPayloadLocked(ctx, &note)
		if err != nil {
			return Note{}, err
		}
		capturePath = path
	}

	s.cache = append(s.cache, note)
	if err := s.backend.Save(&note); err != nil {
		// Roll the append back so the cache never drifts ahead of storage.
		// The capture file is kept so the save can be retried.
		s.cache = s.cache[:len(s.cache)-1]
		s.metrics.RecordError("save")
		getLogger().Error("failed to persist note", "note_id", note.ID, "error", err)
		return Note{}, errors.New(err).
			Component("notestore").
			Category(errors.CategoryStorageWrite).
			NoteContext(note.ID, note.RefKind).
			Build()
	}

	// The capture file is transient once its bytes are durably embedded
	if capturePath != "" {
		if err := os.Remove(capturePath); err != nil && !os.IsNotExist(err) {
			getLogger().Warn("failed to remove capture file after embedding", "note_id", note.ID, "path", capturePath, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.SavesTotal.Inc()
		s.metrics.NotesInStore.Set(float64(len(s.cache)))
	}
	getLogger().Info("note saved", "note_id", note.ID, "title", note.Title, "duration_s", note.DurationSeconds)
	return note, nil
}

// Delete removes the note with the given id. It returns false when the id is
// not present (no side effects) and false with an error when the durable
// removal fails, in which case the cache entry is restored at its original
// position.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return false, err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return false, nil
	}
	note := s.cache[idx]

	// Reclaim transient handles before the record goes away
	s.resolver.ReleaseForNote(id)

	s.cache = slices.Delete(s.cache, idx, idx+1)
	if err := s.backend.Delete(id); err != nil {
		// Restore the entry at its original index so in-memory and durable
		// state stay consistent after the failed delete. The clip file is
		// untouched at this point, so the restored note still plays.
		s.cache = slices.Insert(s.cache, idx, note)
		s.metrics.RecordError("delete")
		getLogger().Error("failed to delete note", "note_id", id, "error", err)
		return false, errors.New(err).
			Component("notestore").
			Category(errors.CategoryStorageWrite).
			NoteContext(id, note.RefKind).
			Build()
	}

	// Remove the clip file for path-kind references only after the record is
	// durably gone. Best effort, a leftover file is preferable to a live note
	// without audio.
	if mediaref.Kind(note.RefKind) == mediaref.KindFilePath && note.RefPath != "" {
		if err := os.Remove(note.RefPath); err != nil && !os.IsNotExist(err) {
			getLogger().Warn("failed to remove clip file", "note_id", id, "path", note.RefPath, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.DeletesTotal.Inc()
		s.metrics.NotesInStore.Set(float64(len(s.cache)))
	}
	getLogger().Info("note deleted", "note_id", id)
	return true, nil
}

// Get returns the cached note with the given id.
func (s *Store) Get(ctx context.Context, id string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return Note{}, err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return Note{}, errors.New(ErrNoteNotFound).
			Component("notestore").
			Category(errors.CategoryNotFound).
			Context("note_id", id).
			Build()
	}
	return s.cache[idx], nil
}

// Search returns notes whose title contains the query.
func (s *Store) Search(ctx context.Context, query string) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes, err := s.backend.SearchNotes(query)
	if err != nil {
		s.metrics.RecordError("search")
		return nil, errors.New(err).
			Component("notestore").
			Category(errors.CategoryStorageRead).
			Build()
	}
	return notes, nil
}

// Len returns the current size of the in-memory collection.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// embedPayloadLocked converts a path-kind reference into a self-contained
// payload. It returns the capture file path so the caller can remove it once
// the payload is durably persisted.
func (s *Store) embedPayloadLocked(ctx context.Context, note *Note) (string, error) {
	ref := note.Audio()
	if ref.Kind != mediaref.KindFilePath {
		return "", nil
	}

	h, err := s.resolver.ResolvePlayable(ctx, note.ID, ref)
	if err != nil {
		return "", err
	}
	defer s.resolver.Release(h)

	durable, err := s.resolver.ToDurable(ctx, h)
	if err != nil {
		return "", err
	}
	note.SetAudio(durable)
	return ref.Path, nil
}

// ensureLoadedLocked lazily populates the cache on first use.
func (s *Store) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}
	notes, err := s.backend.GetAllNotes()
	if err != nil {
		s.metrics.RecordError("load")
		return errors.New(err).
			Component("notestore").
			Category(errors.CategoryStorageRead).
			Build()
	}
	s.cache = notes
	s.loaded = true
	return nil
}

// indexLocked returns the cache index of the note with the given id, -1 when
// absent.
func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.cache, func(n Note) bool { return n.ID == id })
}

// snapshotLocked returns a copy of the cache so callers cannot mutate it.
func (s *Store) snapshotLocked() []Note {
	return slices.Clone(s.cache)
}

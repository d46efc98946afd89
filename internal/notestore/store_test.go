package notestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/voicenote-go/internal/errors"
	"github.com/tphakala/voicenote-go/internal/mediaref"
)

// stubBackend is an in-memory Interface implementation with failure
// injection for exercising rollback paths.
type stubBackend struct {
	notes      []Note
	failSave   bool
	failDelete bool
	failGetAll bool
}

func (b *stubBackend) Open() error  { return nil }
func (b *stubBackend) Close() error { return nil }

func (b *stubBackend) Save(note *Note) error {
	if b.failSave {
		return fmt.Errorf("disk full")
	}
	b.notes = append(b.notes, *note)
	return nil
}

func (b *stubBackend) Delete(id string) error {
	if b.failDelete {
		return fmt.Errorf("database is locked")
	}
	for i, n := range b.notes {
		if n.ID == id {
			b.notes = append(b.notes[:i], b.notes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (b *stubBackend) Get(id string) (Note, error) {
	for _, n := range b.notes {
		if n.ID == id {
			return n, nil
		}
	}
	return Note{}, fmt.Errorf("not found")
}

func (b *stubBackend) GetAllNotes() ([]Note, error) {
	if b.failGetAll {
		return nil, fmt.Errorf("read error")
	}
	out := make([]Note, len(b.notes))
	copy(out, b.notes)
	return out, nil
}

func (b *stubBackend) SearchNotes(query string) ([]Note, error) {
	var out []Note
	for _, n := range b.notes {
		if strings.Contains(n.Title, query) {
			out = append(out, n)
		}
	}
	return out, nil
}

func newTestStore(t *testing.T, backend *stubBackend, opts Options) (*Store, *mediaref.Resolver) {
	t.Helper()
	resolver := mediaref.New(t.TempDir())
	return NewStore(backend, resolver, nil, opts), resolver
}

func payloadNote(id, title string) Note {
	n := Note{
		ID:              id,
		Title:           title,
		CreatedAt:       time.Now(),
		DurationSeconds: 3,
	}
	n.SetAudio(mediaref.NewEncodedPayload([]byte("pcm bytes for " + id)))
	return n
}

func TestSaveThenLoad(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	saved, err := store.Save(ctx, payloadNote("", "First"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.NotEmpty(t, saved.RefPayload)
	assert.Equal(t, 3, saved.DurationSeconds)

	notes, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, saved.ID, notes[0].ID)
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		saved, err := store.Save(ctx, payloadNote("", "note"))
		require.NoError(t, err)
		assert.False(t, seen[saved.ID], "duplicate id %s", saved.ID)
		seen[saved.ID] = true
	}
}

func TestSaveRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	_, err := store.Save(ctx, payloadNote("1700000000000", "a"))
	require.NoError(t, err)

	_, err = store.Save(ctx, payloadNote("1700000000000", "b"))
	assert.ErrorIs(t, err, ErrDuplicateNoteID)
	assert.Equal(t, 1, store.Len())
}

func TestSaveRejectsEmptyAudio(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	n := Note{Title: "no audio", CreatedAt: time.Now()}

	_, err := store.Save(context.Background(), n)
	assert.ErrorIs(t, err, ErrMissingAudio)
	assert.Equal(t, 0, store.Len())
}

func TestSaveRollbackOnWriteFailure(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	store, _ := newTestStore(t, backend, Options{})
	ctx := context.Background()

	_, err := store.Save(ctx, payloadNote("", "keep"))
	require.NoError(t, err)

	backend.failSave = true
	_, err = store.Save(ctx, payloadNote("", "lost"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStorageWrite))

	// Cache must equal its pre-append state
	assert.Equal(t, 1, store.Len())
	notes, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "keep", notes[0].Title)
}

func TestDeleteAbsentID(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	_, err := store.Save(ctx, payloadNote("", "stays"))
	require.NoError(t, err)

	ok, err := store.Delete(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestDeleteRollbackOnWriteFailure(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	store, _ := newTestStore(t, backend, Options{})
	ctx := context.Background()

	first, err := store.Save(ctx, payloadNote("", "first"))
	require.NoError(t, err)
	second, err := store.Save(ctx, payloadNote("", "second"))
	require.NoError(t, err)
	third, err := store.Save(ctx, payloadNote("", "third"))
	require.NoError(t, err)

	backend.failDelete = true
	ok, err := store.Delete(ctx, second.ID)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.IsCategory(err, errors.CategoryStorageWrite))

	// The note must be restored at its original position
	backend.failDelete = false
	backend.failGetAll = true // force the next read to come from the cache
	got, err := store.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)
	assert.Equal(t, 3, store.Len())
	_ = first
	_ = third
}

func TestDeleteRemovesNoteAndReleasesHandles(t *testing.T) {
	t.Parallel()

	store, resolver := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	saved, err := store.Save(ctx, payloadNote("", "doomed"))
	require.NoError(t, err)

	h, err := resolver.ResolvePlayable(ctx, saved.ID, saved.Audio())
	require.NoError(t, err)

	ok, err := store.Delete(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, h.Released(), "delete must release the note's transient handles")
	assert.Equal(t, 0, store.Len())
}

func TestDeleteRemovesClipFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.wav")
	require.NoError(t, os.WriteFile(clip, []byte("RIFF"), 0o644))

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	n := Note{ID: NewNoteID(), Title: "on disk", CreatedAt: time.Now()}
	n.SetAudio(mediaref.NewFilePath(clip))
	saved, err := store.Save(ctx, n)
	require.NoError(t, err)

	ok, err := store.Delete(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = os.Stat(clip)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteFailureKeepsClipFilePlayable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.wav")
	require.NoError(t, os.WriteFile(clip, []byte("RIFF"), 0o644))

	backend := &stubBackend{}
	store, resolver := newTestStore(t, backend, Options{})
	ctx := context.Background()

	n := Note{ID: NewNoteID(), Title: "survives", CreatedAt: time.Now()}
	n.SetAudio(mediaref.NewFilePath(clip))
	saved, err := store.Save(ctx, n)
	require.NoError(t, err)

	backend.failDelete = true
	ok, err := store.Delete(ctx, saved.ID)
	require.Error(t, err)
	assert.False(t, ok)

	// The clip file must survive the failed delete so the restored note
	// still resolves to playable audio
	_, err = os.Stat(clip)
	require.NoError(t, err)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	h, err := resolver.ResolvePlayable(ctx, got.ID, got.Audio())
	require.NoError(t, err)
	resolver.Release(h)
}

func TestSaveFailureKeepsCaptureFileWhenEmbedding(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clip := filepath.Join(dir, "capture.wav")
	content := []byte("captured pcm data")
	require.NoError(t, os.WriteFile(clip, content, 0o644))

	backend := &stubBackend{failSave: true}
	store, _ := newTestStore(t, backend, Options{EmbedPayload: true})
	ctx := context.Background()

	n := Note{ID: NewNoteID(), Title: "retryable", CreatedAt: time.Now(), DurationSeconds: 2}
	n.SetAudio(mediaref.NewFilePath(clip))

	_, err := store.Save(ctx, n)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStorageWrite))
	assert.Equal(t, 0, store.Len())

	// The capture file must survive so the save can be retried
	data, err := os.ReadFile(clip)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	backend.failSave = false
	saved, err := store.Save(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, content, saved.RefPayload)
	_, err = os.Stat(clip)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadFailureKeepsPreviousCache(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	store, _ := newTestStore(t, backend, Options{})
	ctx := context.Background()

	saved, err := store.Save(ctx, payloadNote("", "cached"))
	require.NoError(t, err)

	backend.failGetAll = true
	_, err = store.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStorageRead))

	// Previous cache is still served
	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Title)
}

func TestCollectionOrderIsInsertionOrder(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	titles := []string{"one", "two", "three", "four"}
	for _, title := range titles {
		_, err := store.Save(ctx, payloadNote("", title))
		require.NoError(t, err)
	}

	notes, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, notes, len(titles))
	for i, title := range titles {
		assert.Equal(t, title, notes[i].Title)
	}
}

func TestSaveEmbedsPayloadWhenConfigured(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clip := filepath.Join(dir, "capture.wav")
	content := []byte("captured pcm data")
	require.NoError(t, os.WriteFile(clip, content, 0o644))

	store, _ := newTestStore(t, &stubBackend{}, Options{EmbedPayload: true})
	ctx := context.Background()

	n := Note{ID: NewNoteID(), Title: "embedded", CreatedAt: time.Now(), DurationSeconds: 2}
	n.SetAudio(mediaref.NewFilePath(clip))

	saved, err := store.Save(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, string(mediaref.KindEncodedPayload), saved.RefKind)
	assert.Equal(t, content, saved.RefPayload)

	// The capture file is transient once embedded
	_, err = os.Stat(clip)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadIsIdempotent(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	_, err := store.Save(ctx, payloadNote("", "stable"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		notes, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, notes, 1)
	}
}

func TestGetReturnsCachedNote(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubBackend{}, Options{})
	ctx := context.Background()

	saved, err := store.Save(ctx, payloadNote("", "findable"))
	require.NoError(t, err)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "findable", got.Title)

	_, err = store.Get(ctx, "absent-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.True(t, errors.IsNotFound(err))
}

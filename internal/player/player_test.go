package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/errors"
	"github.com/tphakala/voicenote-go/internal/mediaref"
	"github.com/tphakala/voicenote-go/internal/notestore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSession struct {
	mu       sync.Mutex
	playing  bool
	position float64
	duration float64
	seeks    []float64
	unloaded bool
	failPlay error
}

func (s *fakeSession) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPlay != nil {
		return s.failPlay
	}
	s.playing = true
	return nil
}

func (s *fakeSession) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	return nil
}

func (s *fakeSession) Seek(ctx context.Context, pos float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeks = append(s.seeks, pos)
	s.position = pos
	return nil
}

func (s *fakeSession) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		IsLoaded:        !s.unloaded,
		IsPlaying:       s.playing,
		PositionSeconds: s.position,
		DurationSeconds: s.duration,
	}, nil
}

func (s *fakeSession) Unload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloaded = true
	s.playing = false
	return nil
}

type fakeCapture struct {
	ref      mediaref.AudioReference
	duration int
	stopErr  error
}

func (c *fakeCapture) Stop(ctx context.Context) (mediaref.AudioReference, int, error) {
	if c.stopErr != nil {
		return mediaref.AudioReference{}, 0, c.stopErr
	}
	return c.ref, c.duration, nil
}

type fakeDevice struct {
	mu          sync.Mutex
	loads       int
	loadEntered chan struct{}
	loadGate    chan struct{}
	loadErr     error
	session     *fakeSession

	permissionGranted bool
	permissionErr     error
	captureErr        error
	capture           *fakeCapture
	configured        []ModeOptions
}

func (d *fakeDevice) RequestPermission(ctx context.Context) (bool, error) {
	return d.permissionGranted, d.permissionErr
}

func (d *fakeDevice) ConfigureMode(ctx context.Context, opts ModeOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configured = append(d.configured, opts)
	return nil
}

func (d *fakeDevice) StartCapture(ctx context.Context, preset conf.CapturePreset) (CaptureSession, error) {
	if d.captureErr != nil {
		return nil, d.captureErr
	}
	return d.capture, nil
}

func (d *fakeDevice) Load(ctx context.Context, handle *mediaref.Handle, cb StatusCallback) (Session, error) {
	if d.loadEntered != nil {
		close(d.loadEntered)
		d.loadEntered = nil
	}
	if d.loadGate != nil {
		<-d.loadGate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	d.loads++
	if d.session == nil {
		d.session = &fakeSession{duration: 3}
	}
	return d.session, nil
}

func (d *fakeDevice) loadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loads
}

func testNote(t *testing.T) notestore.Note {
	t.Helper()
	n := notestore.Note{
		ID:              notestore.NewNoteID(),
		Title:           "test note",
		CreatedAt:       time.Now(),
		DurationSeconds: 3,
	}
	n.SetAudio(mediaref.NewEncodedPayload([]byte("fake wav bytes")))
	return n
}

func newTestPlayer(t *testing.T, device Device) (*Player, *mediaref.Resolver) {
	t.Helper()
	resolver := mediaref.New(t.TempDir())
	p := New(device, resolver, nil, nil, testNote(t))
	t.Cleanup(p.Unload)
	return p, resolver
}

func TestPlayPauseLoadsAndPlays(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{}
	p, _ := newTestPlayer(t, device)

	require.Equal(t, StateIdle, p.State())
	require.NoError(t, p.PlayPause(context.Background()))

	assert.Equal(t, StatePlaying, p.State())
	assert.Equal(t, 1, device.loadCount())
	assert.True(t, device.session.playing)
	assert.InDelta(t, 3.0, p.Duration(), 0.01)
}

func TestPlayPauseTogglesToPaused(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{}
	p, _ := newTestPlayer(t, device)
	ctx := context.Background()

	require.NoError(t, p.PlayPause(ctx))
	require.Equal(t, StatePlaying, p.State())

	require.NoError(t, p.PlayPause(ctx))
	assert.Equal(t, StateReady, p.State())
	assert.False(t, device.session.playing)

	require.NoError(t, p.PlayPause(ctx))
	assert.Equal(t, StatePlaying, p.State())
}

// A second play request while the first load is still in flight must not
// open a second session.
func TestConcurrentPlayPauseSingleSession(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{
		loadEntered: make(chan struct{}),
		loadGate:    make(chan struct{}),
	}
	entered := device.loadEntered
	p, _ := newTestPlayer(t, device)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.PlayPause(ctx))
	}()

	<-entered
	assert.Equal(t, StateLoading, p.State())

	// Second call while loading is ignored
	require.NoError(t, p.PlayPause(ctx))

	close(device.loadGate)
	wg.Wait()

	assert.Equal(t, StatePlaying, p.State())
	assert.Equal(t, 1, device.loadCount())
}

func TestNaturalCompletionResetsToStart(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{}
	p, _ := newTestPlayer(t, device)
	ctx := context.Background()

	require.NoError(t, p.PlayPause(ctx))

	p.HandleStatus(Status{IsLoaded: true, IsPlaying: true, PositionSeconds: 1.5, DurationSeconds: 3})
	assert.InDelta(t, 1.5, p.Position(), 0.01)

	p.HandleStatus(Status{IsLoaded: true, PositionSeconds: 3, DurationSeconds: 3, DidJustFinish: true})
	assert.Equal(t, StateReady, p.State())
	assert.Zero(t, p.Position())
	require.NotEmpty(t, device.session.seeks)
	assert.Zero(t, device.session.seeks[len(device.session.seeks)-1])

	// Subsequent play restarts from position zero
	require.NoError(t, p.PlayPause(ctx))
	assert.Equal(t, StatePlaying, p.State())
	assert.Zero(t, device.session.position)
}

func TestPausedAtEndRestartsFromZero(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{}
	p, _ := newTestPlayer(t, device)
	ctx := context.Background()

	require.NoError(t, p.PlayPause(ctx))
	require.NoError(t, p.PlayPause(ctx)) // pause

	device.session.position = 3 // at end

	require.NoError(t, p.PlayPause(ctx))
	assert.Equal(t, StatePlaying, p.State())
	require.NotEmpty(t, device.session.seeks)
	assert.Zero(t, device.session.seeks[len(device.session.seeks)-1])
}

func TestLoadFailureResetsToIdle(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{loadErr: fmt.Errorf("device busy")}
	p, resolver := newTestPlayer(t, device)

	err := p.PlayPause(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAudioDevice))
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, 0, resolver.ActiveHandles(), "failed load must release its handle")
}

func TestResolveFailureResetsToIdle(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{}
	resolver := mediaref.New(t.TempDir())
	n := notestore.Note{ID: "x", Title: "broken", CreatedAt: time.Now()}
	n.SetAudio(mediaref.NewFilePath("/nonexistent/clip.wav"))
	p := New(device, resolver, nil, nil, n)
	t.Cleanup(p.Unload)

	err := p.PlayPause(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, 0, device.loadCount())
}

func TestUnloadReleasesSessionAndHandle(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{}
	p, resolver := newTestPlayer(t, device)

	require.NoError(t, p.PlayPause(context.Background()))
	require.Equal(t, 1, resolver.ActiveHandles())

	p.Unload()
	assert.Equal(t, StateIdle, p.State())
	assert.True(t, device.session.unloaded)
	assert.Equal(t, 0, resolver.ActiveHandles())

	// Unload is safe to call again
	p.Unload()
}

// Teardown during an in-flight load must win: the late-arriving session is
// dropped and its handle released instead of being installed.
func TestUnloadDuringLoadDiscardsFreshSession(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{
		loadEntered: make(chan struct{}),
		loadGate:    make(chan struct{}),
	}
	entered := device.loadEntered
	p, resolver := newTestPlayer(t, device)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.PlayPause(ctx))
	}()

	<-entered
	p.Unload()
	require.Equal(t, StateIdle, p.State())

	close(device.loadGate)
	wg.Wait()

	assert.Equal(t, StateIdle, p.State())
	assert.True(t, device.session.unloaded, "late session must be unloaded")
	assert.Equal(t, 0, resolver.ActiveHandles(), "late session's handle must be released")
}

func TestStartRecordingPermissionDenied(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{permissionGranted: false}
	resolver := mediaref.New(t.TempDir())
	p := NewRecorder(device, resolver, nil, nil)

	err := p.StartRecording(context.Background(), conf.PresetFor(true))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, device.configured, "denied permission must not configure the device")
}

func TestRecordingLifecycle(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{
		permissionGranted: true,
		capture: &fakeCapture{
			ref:      mediaref.NewFilePath("/tmp/capture.wav"),
			duration: 3,
		},
	}
	resolver := mediaref.New(t.TempDir())
	p := NewRecorder(device, resolver, nil, nil)
	ctx := context.Background()

	require.NoError(t, p.StartRecording(ctx, conf.PresetFor(true)))
	assert.Equal(t, StateRecording, p.State())

	note, err := p.StopRecording(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, p.State())

	assert.NotEmpty(t, note.ID)
	assert.NotEmpty(t, note.Title)
	assert.False(t, note.CreatedAt.IsZero())
	assert.Equal(t, 3, note.DurationSeconds)
	assert.Equal(t, mediaref.KindFilePath, note.Audio().Kind)
}

func TestStopRecordingWithoutStart(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{permissionGranted: true}
	p := NewRecorder(device, mediaref.New(t.TempDir()), nil, nil)

	_, err := p.StopRecording(context.Background())
	assert.ErrorIs(t, err, ErrNoRecordingActive)
}

func TestStopRecordingWithoutReference(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{
		permissionGranted: true,
		capture:           &fakeCapture{ref: mediaref.AudioReference{}},
	}
	p := NewRecorder(device, mediaref.New(t.TempDir()), nil, nil)
	ctx := context.Background()

	require.NoError(t, p.StartRecording(ctx, conf.PresetFor(false)))
	_, err := p.StopRecording(ctx)
	assert.ErrorIs(t, err, ErrMissingAudioReference)
	assert.Equal(t, StateIdle, p.State())
}

func TestStartRecordingWhileRecording(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{
		permissionGranted: true,
		capture:           &fakeCapture{ref: mediaref.NewFilePath("/tmp/a.wav"), duration: 1},
	}
	p := NewRecorder(device, mediaref.New(t.TempDir()), nil, nil)
	ctx := context.Background()

	require.NoError(t, p.StartRecording(ctx, conf.PresetFor(true)))
	err := p.StartRecording(ctx, conf.PresetFor(true))
	assert.ErrorIs(t, err, ErrCaptureSessionActive)

	_, err = p.StopRecording(ctx)
	require.NoError(t, err)
}

func TestPlayPauseWhileRecording(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{
		permissionGranted: true,
		capture:           &fakeCapture{ref: mediaref.NewFilePath("/tmp/a.wav"), duration: 1},
	}
	resolver := mediaref.New(t.TempDir())
	p := New(device, resolver, nil, nil, testNote(t))
	ctx := context.Background()

	require.NoError(t, p.StartRecording(ctx, conf.PresetFor(true)))
	err := p.PlayPause(ctx)
	assert.ErrorIs(t, err, ErrCaptureSessionActive)

	_, err = p.StopRecording(ctx)
	require.NoError(t, err)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "recording", StateRecording.String())
	assert.Equal(t, "unknown", State(42).String())
}

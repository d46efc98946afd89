package audiocore

import (
	"context"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/errors"
	"github.com/tphakala/voicenote-go/internal/mediaref"
	"github.com/tphakala/voicenote-go/internal/player"
)

// Load decodes the handle's WAV file and opens a playback session for it.
// Status ticks are delivered to cb until the session is unloaded.
func (d *Device) Load(ctx context.Context, handle *mediaref.Handle, cb player.StatusCallback) (player.Session, error) {
	info, pcm, err := readWAVFile(handle.Path())
	if err != nil {
		return nil, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudio).
			FileContext(handle.Path(), int64(len(pcm))).
			Context("operation", "decode_wav").
			Build()
	}

	malgoCtx, err := initContext(d.settings.Debug)
	if err != nil {
		return nil, err
	}

	session := &playbackSession{
		malgoCtx: malgoCtx,
		info:     info,
		pcm:      pcm,
		cb:       cb,
		done:     make(chan struct{}),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(info.NumChannels) //nolint:gosec // validated by readWAVInfo
	deviceConfig.SampleRate = uint32(info.SampleRate)         //nolint:gosec // validated by readWAVInfo
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: session.feedFrames,
	})
	if err != nil {
		malgoCtx.Uninit() //nolint:errcheck
		return nil, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_playback_device").
			Build()
	}
	session.device = device

	go session.statusLoop()

	getLogger().Debug("playback session loaded",
		"path", handle.Path(),
		"sample_rate", info.SampleRate,
		"channels", info.NumChannels,
		"duration_s", info.durationSeconds())
	return session, nil
}

// playbackSession plays decoded PCM through a miniaudio playback device and
// reports transport status on a fixed interval.
type playbackSession struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	info     wavInfo
	pcm      []byte
	cb       player.StatusCallback
	done     chan struct{}

	mu          sync.Mutex
	cursor      int
	playing     bool
	justEnded   bool
	unloaded    bool
	unloadOnce  sync.Once
	stopPending bool
}

// feedFrames copies PCM into the device buffer. Runs on the miniaudio
// callback thread, so it must never touch the device itself.
func (s *playbackSession) feedFrames(pOutput, pInput []byte, framecount uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(pOutput, s.pcm[s.cursor:])
	s.cursor += n

	// Zero-fill the remainder so a drained buffer plays silence
	for i := n; i < len(pOutput); i++ {
		pOutput[i] = 0
	}

	if s.cursor >= len(s.pcm) && s.playing {
		s.playing = false
		s.justEnded = true
		s.stopPending = true
	}
}

// statusLoop reports transport status until the session is unloaded. It also
// stops the device after natural completion, which cannot be done from the
// data callback.
func (s *playbackSession) statusLoop() {
	ticker := time.NewTicker(conf.DefaultStatusIntervalMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			status := s.statusLocked()
			stop := s.stopPending
			s.stopPending = false
			s.justEnded = false
			s.mu.Unlock()

			if stop {
				if err := s.device.Stop(); err != nil {
					getLogger().Warn("failed to stop device after playback completed", "error", err)
				}
			}
			if s.cb != nil {
				s.cb(status)
			}
		}
	}
}

func (s *playbackSession) bytesPerSecond() int {
	return s.info.SampleRate * s.info.NumChannels * (conf.BitDepth / 8)
}

func (s *playbackSession) statusLocked() player.Status {
	bps := s.bytesPerSecond()
	var position float64
	if bps > 0 {
		position = float64(s.cursor) / float64(bps)
	}
	var duration float64
	if s.info.SampleRate > 0 {
		duration = float64(s.info.TotalSamples) / float64(s.info.SampleRate)
	}
	return player.Status{
		IsLoaded:        !s.unloaded,
		IsPlaying:       s.playing,
		PositionSeconds: position,
		DurationSeconds: duration,
		DidJustFinish:   s.justEnded,
	}
}

func (s *playbackSession) Play(ctx context.Context) error {
	s.mu.Lock()
	if s.unloaded {
		s.mu.Unlock()
		return errors.Newf("session is unloaded").Component("audiocore").Category(errors.CategoryState).Build()
	}
	s.playing = true
	s.mu.Unlock()

	if err := s.device.Start(); err != nil {
		s.mu.Lock()
		s.playing = false
		s.mu.Unlock()
		return errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "start_playback").
			Build()
	}
	return nil
}

func (s *playbackSession) Pause(ctx context.Context) error {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()

	if err := s.device.Stop(); err != nil {
		return errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "pause_playback").
			Build()
	}
	return nil
}

func (s *playbackSession) Seek(ctx context.Context, positionSeconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if positionSeconds < 0 {
		positionSeconds = 0
	}
	offset := int(positionSeconds * float64(s.bytesPerSecond()))

	// Align to a whole frame so channels stay in phase
	frameSize := s.info.NumChannels * (conf.BitDepth / 8)
	if frameSize > 0 {
		offset -= offset % frameSize
	}
	if offset > len(s.pcm) {
		offset = len(s.pcm)
	}
	s.cursor = offset
	return nil
}

func (s *playbackSession) Status(ctx context.Context) (player.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(), nil
}

func (s *playbackSession) Unload(ctx context.Context) error {
	s.unloadOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.unloaded = true
		s.playing = false
		s.mu.Unlock()

		_ = s.device.Stop()
		s.device.Uninit()
		s.malgoCtx.Uninit() //nolint:errcheck
	})
	return nil
}

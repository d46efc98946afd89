// Package audiocore implements the platform audio capability behind the
// player: microphone capture to WAV files and WAV playback sessions, both
// driven through miniaudio.
package audiocore

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/errors"
	"github.com/tphakala/voicenote-go/internal/mediaref"
	"github.com/tphakala/voicenote-go/internal/player"
)

// captureSource holds information about a selected audio capture source.
type captureSource struct {
	Name string
	ID   string
	info malgo.DeviceInfo
}

// Device drives miniaudio for capture and playback. One device serves one
// player at a time.
type Device struct {
	settings *conf.Settings

	mu          sync.Mutex
	captureMode bool
}

// NewDevice creates a device bound to the application settings.
func NewDevice(settings *conf.Settings) *Device {
	return &Device{settings: settings}
}

// RequestPermission checks that the host exposes at least one capture device.
// Desktop platforms grant microphone access implicitly, so a present device
// means recording can proceed.
func (d *Device) RequestPermission(ctx context.Context) (bool, error) {
	malgoCtx, err := initContext(d.settings.Debug)
	if err != nil {
		return false, err
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return false, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "enumerate_capture_devices").
			Build()
	}
	return len(infos) > 0, nil
}

// ConfigureMode switches the device between playback and capture use.
func (d *Device) ConfigureMode(ctx context.Context, opts player.ModeOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.captureMode = opts.AllowCapture
	return nil
}

// StartCapture opens the configured capture source and begins accumulating
// PCM frames with the given preset.
func (d *Device) StartCapture(ctx context.Context, preset conf.CapturePreset) (player.CaptureSession, error) {
	malgoCtx, err := initContext(d.settings.Debug)
	if err != nil {
		return nil, err
	}

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		malgoCtx.Uninit() //nolint:errcheck
		return nil, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "enumerate_capture_devices").
			Build()
	}

	source, err := selectCaptureSource(d.settings.Audio.Source, infos)
	if err != nil {
		malgoCtx.Uninit() //nolint:errcheck
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(preset.NumChannels) //nolint:gosec // preset channels are small constants
	deviceConfig.SampleRate = uint32(preset.SampleRate)        //nolint:gosec // preset rates are small constants
	deviceConfig.Alsa.NoMMap = 1
	deviceConfig.Capture.DeviceID = source.info.ID.Pointer()

	session := &captureSession{
		malgoCtx:   malgoCtx,
		preset:     preset,
		exportPath: d.settings.Audio.Export.Path,
	}

	onReceiveFrames := func(pOutput, pSamples []byte, framecount uint32) {
		session.appendFrames(pSamples)
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onReceiveFrames,
	})
	if err != nil {
		malgoCtx.Uninit() //nolint:errcheck
		return nil, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_capture_device").
			Context("source", source.Name).
			Build()
	}
	session.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		malgoCtx.Uninit() //nolint:errcheck
		return nil, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "start_capture_device").
			Context("source", source.Name).
			Build()
	}

	getLogger().Info("capture started",
		"source", source.Name,
		"sample_rate", preset.SampleRate,
		"channels", preset.NumChannels)
	return session, nil
}

// captureSession accumulates PCM frames until Stop finalizes them to a WAV
// file in the export directory.
type captureSession struct {
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	preset     conf.CapturePreset
	exportPath string

	mu      sync.Mutex
	pcm     []byte
	stopped bool
}

func (s *captureSession) appendFrames(samples []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pcm = append(s.pcm, samples...)
}

// Stop halts capture, writes the accumulated PCM to a timestamped WAV file
// and returns a durable reference together with the captured duration.
func (s *captureSession) Stop(ctx context.Context) (mediaref.AudioReference, int, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return mediaref.AudioReference{}, 0, errors.Newf("capture already stopped").
			Component("audiocore").
			Category(errors.CategoryState).
			Build()
	}
	s.stopped = true
	pcm := s.pcm
	s.pcm = nil
	s.mu.Unlock()

	_ = s.device.Stop()
	s.device.Uninit()
	s.malgoCtx.Uninit() //nolint:errcheck

	bytesPerSecond := s.preset.SampleRate * s.preset.NumChannels * (conf.BitDepth / 8)
	durationSeconds := 0
	if bytesPerSecond > 0 {
		durationSeconds = (len(pcm) + bytesPerSecond - 1) / bytesPerSecond
	}

	outputPath := filepath.Join(s.exportPath, fmt.Sprintf("voicenote_%s.wav", time.Now().Format("20060102_150405")))
	if err := savePCMToWAV(outputPath, pcm, s.preset.SampleRate, s.preset.NumChannels); err != nil {
		return mediaref.AudioReference{}, 0, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryFileIO).
			FileContext(outputPath, int64(len(pcm))).
			Context("operation", "save_capture_wav").
			Build()
	}

	getLogger().Info("capture finalized", "path", outputPath, "duration_s", durationSeconds, "pcm_bytes", len(pcm))
	return mediaref.NewFilePath(outputPath), durationSeconds, nil
}

// initContext initializes a miniaudio context with the platform backend.
func initContext(debug bool) (*malgo.AllocatedContext, error) {
	// On Linux prefer ALSA, else let miniaudio pick the platform backend
	var backends []malgo.Backend
	switch runtime.GOOS {
	case "linux":
		backends = []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		backends = []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		backends = []malgo.Backend{malgo.BackendCoreaudio}
	}

	malgoCtx, err := malgo.InitContext(backends, malgo.ContextConfig{}, func(message string) {
		if debug {
			getLogger().Debug("miniaudio", "message", strings.TrimSpace(message))
		}
	})
	if err != nil {
		return nil, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_context").
			Build()
	}
	return malgoCtx, nil
}

// selectCaptureSource selects a capture device matching the configured source
// name or ID.
func selectCaptureSource(audioSource string, infos []malgo.DeviceInfo) (captureSource, error) {
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			getLogger().Warn("failed to decode device ID", "index", i, "error", err)
			continue
		}

		if matchesDeviceSettings(decodedID, info, audioSource) {
			return captureSource{
				Name: info.Name(),
				ID:   decodedID,
				info: info,
			}, nil
		}
	}

	return captureSource{}, errors.Newf("no suitable capture source found for device setting %s", audioSource).
		Component("audiocore").
		Category(errors.CategoryAudioMissing).
		Context("source", audioSource).
		Build()
}

// matchesDeviceSettings checks if the device matches the configured source.
func matchesDeviceSettings(decodedID string, info malgo.DeviceInfo, audioSource string) bool {
	if runtime.GOOS == "windows" && audioSource == "sysdefault" {
		// On Windows there is no "sysdefault" device, use the default device instead
		return info.IsDefault == 1
	}
	return decodedID == audioSource || strings.Contains(info.Name(), audioSource)
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

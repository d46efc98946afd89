package audiocore

import (
	"github.com/gen2brain/malgo"

	"github.com/tphakala/voicenote-go/internal/errors"
)

// DeviceInfo holds information about an audio device.
type DeviceInfo struct {
	Index     int
	Name      string
	ID        string
	IsDefault bool
}

// ListCaptureDevices returns the available audio capture devices.
func ListCaptureDevices(debug bool) ([]DeviceInfo, error) {
	malgoCtx, err := initContext(debug)
	if err != nil {
		return nil, err
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("audiocore").
			Category(errors.CategoryAudioDevice).
			Context("operation", "enumerate_capture_devices").
			Build()
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			getLogger().Warn("failed to decode device ID", "index", i, "error", err)
			continue
		}

		devices = append(devices, DeviceInfo{
			Index:     i,
			Name:      info.Name(),
			ID:        decodedID,
			IsDefault: info.IsDefault == 1,
		})
	}

	return devices, nil
}

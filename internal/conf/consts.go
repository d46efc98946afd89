// conf/consts.go hard coded constants
package conf

const (
	BitDepth = 16 // Bit depth of captured PCM audio

	// High quality capture preset
	HighQualitySampleRate = 44100  // Hz
	HighQualityBitRate    = 128000 // bits per second
	HighQualityChannels   = 2

	// Reduced quality capture preset
	ReducedQualitySampleRate = 22050 // Hz
	ReducedQualityBitRate    = 64000 // bits per second
	ReducedQualityChannels   = 2

	// DefaultStatusInterval is how often a playback session reports transport status
	DefaultStatusIntervalMs = 500
)

// Log rotation types
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// CapturePreset describes the fixed capture settings selected by the
// highquality toggle.
type CapturePreset struct {
	SampleRate  int
	NumChannels int
	BitRate     int
	BitDepth    int
}

// PresetFor returns the capture preset for the given quality selection.
func PresetFor(highQuality bool) CapturePreset {
	if highQuality {
		return CapturePreset{
			SampleRate:  HighQualitySampleRate,
			NumChannels: HighQualityChannels,
			BitRate:     HighQualityBitRate,
			BitDepth:    BitDepth,
		}
	}
	return CapturePreset{
		SampleRate:  ReducedQualitySampleRate,
		NumChannels: ReducedQualityChannels,
		BitRate:     ReducedQualityBitRate,
		BitDepth:    BitDepth,
	}
}

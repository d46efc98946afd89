package audiocore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/voicenote-go/internal/conf"
)

// wavInfo describes a decoded WAV file.
type wavInfo struct {
	SampleRate   int
	NumChannels  int
	BitDepth     int
	TotalSamples int
}

// durationSeconds returns the clip length in whole seconds, rounded up so a
// sub-second clip never reports zero.
func (i wavInfo) durationSeconds() int {
	if i.SampleRate <= 0 || i.TotalSamples <= 0 {
		return 0
	}
	return (i.TotalSamples + i.SampleRate - 1) / i.SampleRate
}

// savePCMToWAV saves raw signed 16-bit little-endian PCM as a WAV file at the
// specified filePath.
func savePCMToWAV(filePath string, pcmData []byte, sampleRate, numChannels int) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	outFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	enc := wav.NewEncoder(outFile, sampleRate, conf.BitDepth, numChannels, 1)

	intSamples := byteSliceToInts(pcmData)

	if err := enc.Write(&audio.IntBuffer{Data: intSamples, Format: &audio.Format{SampleRate: sampleRate, NumChannels: numChannels}}); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	// Close finalizes the RIFF header
	return enc.Close()
}

// byteSliceToInts converts a byte slice to a slice of integers. Each pair of
// bytes is treated as a single 16-bit sample.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	buf := bytes.NewBuffer(pcmData)

	for {
		var sample int16
		if err := binary.Read(buf, binary.LittleEndian, &sample); err != nil {
			break
		}
		samples = append(samples, int(sample))
	}

	return samples
}

// intsToByteSlice converts decoded integer samples back to signed 16-bit
// little-endian PCM bytes.
func intsToByteSlice(samples []int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(samples)*2))
	for _, s := range samples {
		_ = binary.Write(buf, binary.LittleEndian, int16(s)) //nolint:gosec // samples originate from a 16-bit decoder
	}
	return buf.Bytes()
}

// readWAVInfo validates the file header and returns its format description.
func readWAVInfo(file *os.File) (wavInfo, error) {
	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return wavInfo{}, fmt.Errorf("invalid WAV file format")
	}

	if decoder.BitDepth != 16 && decoder.BitDepth != 24 && decoder.BitDepth != 32 {
		return wavInfo{}, fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth)
	}

	if decoder.NumChans != 1 && decoder.NumChans != 2 {
		return wavInfo{}, fmt.Errorf("unsupported number of channels: %d", decoder.NumChans)
	}

	dur, err := decoder.Duration()
	if err != nil {
		return wavInfo{}, fmt.Errorf("failed to read duration: %w", err)
	}
	totalSamples := int(dur.Seconds() * float64(decoder.SampleRate))

	return wavInfo{
		SampleRate:   int(decoder.SampleRate),
		NumChannels:  int(decoder.NumChans),
		BitDepth:     int(decoder.BitDepth),
		TotalSamples: totalSamples,
	}, nil
}

// readWAVFile decodes the whole file into format info and raw 16-bit PCM.
func readWAVFile(path string) (wavInfo, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return wavInfo{}, nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	info, err := readWAVInfo(file)
	if err != nil {
		return wavInfo{}, nil, err
	}

	if _, err := file.Seek(0, 0); err != nil {
		return wavInfo{}, nil, err
	}

	decoder := wav.NewDecoder(file)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return wavInfo{}, nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}

	info.TotalSamples = len(buf.Data) / info.NumChannels
	return info, intsToByteSlice(buf.Data), nil
}

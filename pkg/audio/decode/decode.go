// Package decode turns raw uploaded audio bytes into mono float64 PCM
// suitable for feature extraction. WAV is parsed directly; MP3 goes through
// hajimehoshi/go-mp3. Multi-channel input keeps the first channel only.
package decode

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"path/filepath"
	"strings"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// PCM holds decoded single-channel samples at native sample rate
type PCM struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration returns the signal duration in seconds
func (p *PCM) Duration() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// Decode sniffs the container format and decodes to mono PCM. The filename
// is a hint only; the byte signature wins when they disagree.
func Decode(data []byte, filename string) (*PCM, error) {
	if len(data) == 0 {
		return nil, NewDecodeError(ErrCodeEmptyInput, "empty audio payload", nil)
	}

	switch {
	case isWAV(data):
		return decodeWAV(data)
	case isMP3(data):
		return decodeMP3(data)
	}

	// Fall back to the extension hint for headerless payloads
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return decodeWAV(data)
	case ".mp3":
		return decodeMP3(data)
	}

	return nil, NewDecodeError(ErrCodeUnsupported, "unrecognized audio format", nil)
}

func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")) {
		return true
	}
	// MPEG frame sync: 11 set bits
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// decodeWAV parses RIFF/WAVE with PCM (8/16/32-bit) or IEEE float32 data
func decodeWAV(data []byte) (*PCM, error) {
	if len(data) < 44 {
		return nil, NewDecodeError(ErrCodeCorrupt, "wav header truncated", nil)
	}

	var (
		audioFormat   uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		sampleData    []byte
		haveFmt       bool
	)

	// Walk RIFF chunks; fmt must precede data
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body > len(data) {
			return nil, NewDecodeError(ErrCodeCorrupt, "wav chunk overruns file", nil)
		}
		end := body + chunkSize
		if end > len(data) {
			end = len(data)
		}

		switch chunkID {
		case "fmt ":
			if end-body < 16 {
				return nil, NewDecodeError(ErrCodeCorrupt, "wav fmt chunk too short", nil)
			}
			audioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			sampleData = data[body:end]
		}

		// Chunks are word-aligned
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt || sampleData == nil {
		return nil, NewDecodeError(ErrCodeCorrupt, "wav missing fmt or data chunk", nil)
	}
	if channels == 0 || sampleRate == 0 {
		return nil, NewDecodeError(ErrCodeCorrupt, "wav reports zero channels or sample rate", nil)
	}

	const (
		formatPCM   = 1
		formatFloat = 3
	)

	var samples []float64
	switch {
	case audioFormat == formatPCM && bitsPerSample == 16:
		samples = convertS16(sampleData, int(channels))
	case audioFormat == formatPCM && bitsPerSample == 8:
		samples = convertU8(sampleData, int(channels))
	case audioFormat == formatPCM && bitsPerSample == 32:
		samples = convertS32(sampleData, int(channels))
	case audioFormat == formatFloat && bitsPerSample == 32:
		samples = convertFloat32(sampleData, int(channels))
	default:
		return nil, NewDecodeError(ErrCodeUnsupported, "unsupported wav sample format", nil)
	}

	if len(samples) == 0 {
		return nil, NewDecodeError(ErrCodeCorrupt, "wav contains no samples", nil)
	}

	return &PCM{
		Samples:    samples,
		SampleRate: int(sampleRate),
		Channels:   int(channels),
	}, nil
}

// decodeMP3 decodes through go-mp3, which always emits 16-bit stereo LE
func decodeMP3(data []byte) (*PCM, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, NewDecodeError(ErrCodeCorrupt, "mp3 decode failed", err)
	}

	var samples []float64
	buf := make([]byte, 4096)
	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			// Frames are L16/R16 pairs; keep the left channel
			for i := 0; i+3 < n; i += 4 {
				sample := int16(binary.LittleEndian.Uint16(buf[i : i+2]))
				samples = append(samples, float64(sample)/32768.0)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, NewDecodeError(ErrCodeCorrupt, "mp3 read failed", err)
		}
	}

	if len(samples) == 0 {
		return nil, NewDecodeError(ErrCodeCorrupt, "mp3 contains no samples", nil)
	}

	return &PCM{
		Samples:    samples,
		SampleRate: decoder.SampleRate(),
		Channels:   2,
	}, nil
}

// Interleaved sample conversion, first channel only

func convertS16(data []byte, channels int) []float64 {
	frame := 2 * channels
	samples := make([]float64, 0, len(data)/frame)
	for i := 0; i+frame <= len(data); i += frame {
		sample := int16(binary.LittleEndian.Uint16(data[i : i+2]))
		samples = append(samples, float64(sample)/32768.0)
	}
	return samples
}

func convertU8(data []byte, channels int) []float64 {
	frame := channels
	samples := make([]float64, 0, len(data)/frame)
	for i := 0; i+frame <= len(data); i += frame {
		samples = append(samples, (float64(data[i])-128.0)/128.0)
	}
	return samples
}

func convertS32(data []byte, channels int) []float64 {
	frame := 4 * channels
	samples := make([]float64, 0, len(data)/frame)
	for i := 0; i+frame <= len(data); i += frame {
		sample := int32(binary.LittleEndian.Uint32(data[i : i+4]))
		samples = append(samples, float64(sample)/2147483648.0)
	}
	return samples
}

func convertFloat32(data []byte, channels int) []float64 {
	frame := 4 * channels
	samples := make([]float64, 0, len(data)/frame)
	for i := 0; i+frame <= len(data); i += frame {
		bits := binary.LittleEndian.Uint32(data[i : i+4])
		f := float64(math.Float32frombits(bits))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		samples = append(samples, f)
	}
	return samples
}

package features

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineWAV builds a mono 16-bit PCM WAV file with a sine tone
func sineWAV(t *testing.T, freq float64, sampleRate int, seconds float64) []byte {
	t.Helper()

	n := int(float64(sampleRate) * seconds)
	dataSize := n * 2
	buf := make([]byte, 0, 44+dataSize)

	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate*2))
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	for i := 0; i < n; i++ {
		sample := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
	}
	return buf
}

func TestMockFeatureSet(t *testing.T) {
	mock := MockFeatureSet()

	assert.True(t, mock.Degraded)
	assert.Equal(t, 180.0, mock.Basic.Duration)
	assert.Equal(t, 44100, mock.Basic.SampleRate)
	assert.Equal(t, 120.0, mock.Basic.Tempo)
	assert.Equal(t, 240, mock.Basic.BeatsCount)

	require.Len(t, mock.FeatureVector, VectorDim)
	for _, v := range mock.FeatureVector {
		assert.Equal(t, 0.5, v)
	}

	assert.Len(t, mock.MFCC.Mean, 13)
	assert.Len(t, mock.Chroma.Mean, 12)
	assert.Len(t, mock.Contrast.Mean, 7)
	assert.Len(t, mock.Tonnetz.Mean, 6)
}

func TestExtractRealAudio(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	defer e.Close()

	audio := sineWAV(t, 440, 8000, 2.0)
	fs := e.Extract(context.Background(), audio, "tone.wav")

	assert.False(t, fs.Degraded)
	assert.InDelta(t, 2.0, fs.Basic.Duration, 1e-6)
	assert.Equal(t, 8000, fs.Basic.SampleRate)
	require.Len(t, fs.FeatureVector, VectorDim)

	for i, v := range fs.FeatureVector {
		assert.False(t, math.IsNaN(v), "vector index %d is NaN", i)
		assert.False(t, math.IsInf(v, 0), "vector index %d is infinite", i)
	}
}

func TestExtractDeterminism(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	defer e.Close()

	audio := sineWAV(t, 440, 8000, 1.0)
	first := e.Extract(context.Background(), audio, "tone.wav")
	second := e.Extract(context.Background(), audio, "tone.wav")

	assert.Equal(t, first.FeatureVector, second.FeatureVector)
	assert.Equal(t, first.Basic, second.Basic)
	assert.Equal(t, first.Spectral, second.Spectral)
}

func TestExtractEmptyInputDegrades(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	defer e.Close()

	fs := e.Extract(context.Background(), nil, "missing.wav")

	assert.True(t, fs.Degraded)
	assert.Equal(t, 120.0, fs.Basic.Tempo)
	require.Len(t, fs.FeatureVector, VectorDim)
	for _, v := range fs.FeatureVector {
		assert.Equal(t, 0.5, v)
	}
}

func TestExtractGarbageDegrades(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	defer e.Close()

	fs := e.Extract(context.Background(), []byte("not audio at all"), "junk.bin")
	assert.True(t, fs.Degraded)
}

func TestExtractCancelledContext(t *testing.T) {
	e := NewExtractor(Config{Workers: 1, QueueSize: 1})
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fs := e.Extract(ctx, sineWAV(t, 440, 8000, 1.0), "tone.wav")
	assert.True(t, fs.Degraded)
}

func TestExtractConcurrent(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	defer e.Close()

	audio := sineWAV(t, 440, 8000, 0.5)

	var wg sync.WaitGroup
	results := make([]*FeatureSet, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Extract(context.Background(), audio, "tone.wav")
		}(i)
	}
	wg.Wait()

	for _, fs := range results {
		require.NotNil(t, fs)
		assert.False(t, fs.Degraded)
		assert.Equal(t, results[0].FeatureVector, fs.FeatureVector)
	}
}

// Package analysis provides FFT-based spectral analysis of PCM signals:
// STFT spectrograms, frame-level spectral descriptors, MFCC, chroma,
// spectral contrast, tempo estimation and tonnetz projection.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/soundrooms/resonance/internal/logging"
)

// SpectralAnalyzer provides core FFT and spectral analysis functionality
type SpectralAnalyzer struct {
	windowGenerator *WindowGenerator
	sampleRate      int
	logger          logging.Logger
}

// SpectrogramResult holds the result of STFT analysis
type SpectrogramResult struct {
	Magnitude      [][]float64 `json:"magnitude"`       // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// FrameFeatures holds frequency domain characteristics of a single frame
type FrameFeatures struct {
	SpectralCentroid  float64 `json:"spectral_centroid"`
	SpectralRolloff   float64 `json:"spectral_rolloff"`
	SpectralBandwidth float64 `json:"spectral_bandwidth"`
	ZeroCrossingRate  float64 `json:"zero_crossing_rate"`
	Energy            float64 `json:"energy"`
}

// NewSpectralAnalyzer creates a new spectral analyzer
func NewSpectralAnalyzer(sampleRate int) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		windowGenerator: NewWindowGenerator(),
		sampleRate:      sampleRate,
		logger: logging.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"sample_rate": sampleRate,
		}),
	}
}

// FFT computes the Fast Fourier Transform using mjibson/go-dsp
func (sa *SpectralAnalyzer) FFT(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	// go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeSTFT computes a short-time Fourier transform magnitude spectrogram
// with a Hann window. Signals shorter than one window are analyzed as a
// single zero-padded frame.
func (sa *SpectralAnalyzer) ComputeSTFT(signal []float64, windowSize, hopSize int) (*SpectrogramResult, error) {
	if len(signal) == 0 {
		return nil, NewAnalysisError("empty signal")
	}
	if windowSize <= 0 {
		windowSize = 2048
	}
	if hopSize <= 0 {
		hopSize = windowSize / 4
	}

	if len(signal) < windowSize {
		padded := make([]float64, windowSize)
		copy(padded, signal)
		signal = padded
	}

	numFrames := 1 + (len(signal)-windowSize)/hopSize
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		start := t * hopSize
		frame := sa.windowGenerator.Apply(signal[start:start+windowSize], WindowHann)

		spectrum := sa.FFT(frame)
		magnitude[t] = make([]float64, freqBins)
		for f := 0; f < freqBins && f < len(spectrum); f++ {
			magnitude[t][f] = cmplx.Abs(spectrum[f])
		}
	}

	result := &SpectrogramResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sa.sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sa.sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sa.sampleRate),
	}

	sa.logger.Debug("STFT computed", logging.Fields{
		"time_frames": result.TimeFrames,
		"freq_bins":   result.FreqBins,
	})

	return result, nil
}

// GetFrequencyBins returns frequency values for each FFT bin
func (sa *SpectralAnalyzer) GetFrequencyBins(numBins int) []float64 {
	freqs := make([]float64, numBins)
	for i := range numBins {
		freqs[i] = float64(i) * float64(sa.sampleRate) / float64((numBins-1)*2)
	}
	return freqs
}

// ExtractFrameFeatures extracts frequency domain features from a single
// magnitude spectrum frame
func (sa *SpectralAnalyzer) ExtractFrameFeatures(magnitudeSpectrum []float64) *FrameFeatures {
	features := &FrameFeatures{}
	if len(magnitudeSpectrum) == 0 {
		return features
	}

	freqs := sa.GetFrequencyBins(len(magnitudeSpectrum))

	features.SpectralCentroid = sa.calculateSpectralCentroid(magnitudeSpectrum, freqs)
	features.SpectralRolloff = sa.calculateSpectralRolloff(magnitudeSpectrum, freqs, 0.85)
	features.SpectralBandwidth = sa.calculateSpectralBandwidth(magnitudeSpectrum, freqs, features.SpectralCentroid)
	features.Energy = sa.calculateEnergy(magnitudeSpectrum)

	return features
}

// calculateSpectralCentroid computes the center of spectral mass
func (sa *SpectralAnalyzer) calculateSpectralCentroid(spectrum, freqs []float64) float64 {
	if len(spectrum) != len(freqs) {
		return 0
	}

	numerator := 0.0
	denominator := 0.0
	for i := range spectrum {
		numerator += freqs[i] * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// calculateSpectralRolloff computes the frequency below which the given
// fraction of spectral energy is contained
func (sa *SpectralAnalyzer) calculateSpectralRolloff(spectrum, freqs []float64, threshold float64) float64 {
	totalEnergy := 0.0
	for _, mag := range spectrum {
		totalEnergy += mag * mag
	}
	if totalEnergy == 0 {
		return 0
	}

	targetEnergy := threshold * totalEnergy
	cumulativeEnergy := 0.0
	for i := range spectrum {
		cumulativeEnergy += spectrum[i] * spectrum[i]
		if cumulativeEnergy >= targetEnergy {
			if i < len(freqs) {
				return freqs[i]
			}
			break
		}
	}

	if len(freqs) > 0 {
		return freqs[len(freqs)-1]
	}
	return 0
}

// calculateSpectralBandwidth computes the spread around the centroid
func (sa *SpectralAnalyzer) calculateSpectralBandwidth(spectrum, freqs []float64, centroid float64) float64 {
	if len(spectrum) != len(freqs) {
		return 0
	}

	numerator := 0.0
	denominator := 0.0
	for i := range spectrum {
		diff := freqs[i] - centroid
		numerator += diff * diff * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}
	return math.Sqrt(numerator / denominator)
}

// calculateEnergy computes total spectral energy
func (sa *SpectralAnalyzer) calculateEnergy(spectrum []float64) float64 {
	energy := 0.0
	for _, mag := range spectrum {
		energy += mag * mag
	}
	return energy
}

// ZeroCrossingRate computes the zero crossing rate of a signal frame.
// High ZCR indicates noisy/high-frequency content, low ZCR tonal content.
func ZeroCrossingRate(pcm []float64) float64 {
	if len(pcm) <= 1 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(pcm); i++ {
		if (pcm[i-1] >= 0 && pcm[i] < 0) || (pcm[i-1] < 0 && pcm[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(pcm)-1)
}

// AnalysisError represents a spectral analysis failure
type AnalysisError struct {
	Message string `json:"message"`
}

func (e *AnalysisError) Error() string {
	return e.Message
}

// NewAnalysisError creates a new analysis error
func NewAnalysisError(message string) *AnalysisError {
	return &AnalysisError{Message: message}
}

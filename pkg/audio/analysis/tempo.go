package analysis

import "math"

// TempoResult holds the beat tracking outcome
type TempoResult struct {
	BPM       float64 `json:"bpm"`
	BeatCount int     `json:"beat_count"`
}

// EstimateTempo estimates tempo by autocorrelating an onset-strength
// envelope built from frame energies. Flat or too-short signals fall back
// to 120 BPM with beats derived from the duration.
func EstimateTempo(pcm []float64, sampleRate int) *TempoResult {
	const fallbackBPM = 120.0

	duration := float64(len(pcm)) / float64(sampleRate)
	fallback := &TempoResult{
		BPM:       fallbackBPM,
		BeatCount: int(duration * fallbackBPM / 60.0),
	}
	if sampleRate <= 0 || len(pcm) == 0 {
		return &TempoResult{BPM: fallbackBPM}
	}

	// 50ms frames with 50% overlap
	frameSize := sampleRate / 20
	if frameSize == 0 {
		return fallback
	}
	hopSize := frameSize / 2

	var energies []float64
	for i := 0; i+frameSize <= len(pcm); i += hopSize {
		sum := 0.0
		for j := 0; j < frameSize; j++ {
			sum += pcm[i+j] * pcm[i+j]
		}
		energies = append(energies, math.Sqrt(sum/float64(frameSize)))
	}
	if len(energies) < 8 {
		return fallback
	}

	// Onset strength: positive energy increases only
	onsets := make([]float64, len(energies)-1)
	for i := 1; i < len(energies); i++ {
		diff := energies[i] - energies[i-1]
		if diff > 0 {
			onsets[i-1] = diff
		}
	}

	frameRate := float64(sampleRate) / float64(hopSize)

	// Search lags covering 60-200 BPM
	minLag := int(frameRate * 60.0 / 200.0)
	maxLag := int(frameRate * 60.0 / 60.0)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if minLag >= maxLag {
		return fallback
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		for i := 0; i+lag < len(onsets); i++ {
			corr += onsets[i] * onsets[i+lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr == 0 {
		return fallback
	}

	bpm := 60.0 * frameRate / float64(bestLag)
	return &TempoResult{
		BPM:       bpm,
		BeatCount: countEnergyPeaks(energies),
	}
}

// countEnergyPeaks counts local maxima above the mean energy level
func countEnergyPeaks(energies []float64) int {
	if len(energies) < 3 {
		return 0
	}

	mean := 0.0
	for _, e := range energies {
		mean += e
	}
	mean /= float64(len(energies))

	peaks := 0
	for i := 1; i < len(energies)-1; i++ {
		if energies[i] > energies[i-1] && energies[i] > energies[i+1] && energies[i] > mean {
			peaks++
		}
	}
	return peaks
}

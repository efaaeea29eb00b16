package analysis

import "math"

// MFCCAnalyzer computes mel-frequency cepstral coefficients from a
// magnitude spectrogram using a triangular mel filter bank and a DCT-II.
type MFCCAnalyzer struct {
	numCoefficients int
	numMelFilters   int
	lowFreq         float64
}

// NewMFCCAnalyzer creates an analyzer for the given coefficient count.
// 13 coefficients and 26 filters are the standard configuration.
func NewMFCCAnalyzer(numCoefficients int) *MFCCAnalyzer {
	if numCoefficients <= 0 {
		numCoefficients = 13
	}
	return &MFCCAnalyzer{
		numCoefficients: numCoefficients,
		numMelFilters:   26,
		lowFreq:         80,
	}
}

// Compute returns per-frame MFCC vectors for the spectrogram
func (ma *MFCCAnalyzer) Compute(spectrogram *SpectrogramResult) [][]float64 {
	highFreq := float64(spectrogram.SampleRate) / 2
	filterBank := ma.createMelFilterBank(ma.numMelFilters, ma.lowFreq, highFreq, spectrogram.FreqBins)

	mfcc := make([][]float64, spectrogram.TimeFrames)
	for t := range spectrogram.TimeFrames {
		melSpectrum := ma.applyMelFilters(spectrogram.Magnitude[t], filterBank)

		logMelSpectrum := make([]float64, len(melSpectrum))
		for i, val := range melSpectrum {
			if val > 1e-10 {
				logMelSpectrum[i] = math.Log(val)
			} else {
				logMelSpectrum[i] = math.Log(1e-10) // Floor value
			}
		}

		mfcc[t] = ma.applyDCT(logMelSpectrum, ma.numCoefficients)
	}

	return mfcc
}

// createMelFilterBank builds triangular filters equally spaced on the mel scale
func (ma *MFCCAnalyzer) createMelFilterBank(numFilters int, lowFreq, highFreq float64, freqBins int) [][]float64 {
	lowMel := 2595.0 * math.Log10(1.0+lowFreq/700.0)
	highMel := 2595.0 * math.Log10(1.0+highFreq/700.0)

	melPoints := make([]float64, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range melPoints {
		melPoints[i] = lowMel + float64(i)*melStep
	}

	freqPoints := make([]float64, len(melPoints))
	for i, mel := range melPoints {
		freqPoints[i] = 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
	}

	filterBank := make([][]float64, numFilters)
	for i := range numFilters {
		filter := make([]float64, freqBins)

		leftFreq := freqPoints[i]
		centerFreq := freqPoints[i+1]
		rightFreq := freqPoints[i+2]

		for j := range freqBins {
			freq := float64(j) * highFreq / float64(freqBins-1)

			if freq >= leftFreq && freq <= rightFreq {
				if freq <= centerFreq {
					if centerFreq > leftFreq {
						filter[j] = (freq - leftFreq) / (centerFreq - leftFreq)
					}
				} else {
					if rightFreq > centerFreq {
						filter[j] = (rightFreq - freq) / (rightFreq - centerFreq)
					}
				}
			}
		}

		filterBank[i] = filter
	}

	return filterBank
}

func (ma *MFCCAnalyzer) applyMelFilters(magnitude []float64, filterBank [][]float64) []float64 {
	melSpectrum := make([]float64, len(filterBank))
	for i, filter := range filterBank {
		sum := 0.0
		for j, coeff := range filter {
			if j < len(magnitude) {
				sum += magnitude[j] * coeff
			}
		}
		melSpectrum[i] = sum
	}
	return melSpectrum
}

// applyDCT computes a type-II discrete cosine transform
func (ma *MFCCAnalyzer) applyDCT(logMelSpectrum []float64, numCoeffs int) []float64 {
	mfcc := make([]float64, numCoeffs)
	N := float64(len(logMelSpectrum))

	for k := range numCoeffs {
		sum := 0.0
		for n := range logMelSpectrum {
			sum += logMelSpectrum[n] * math.Cos(math.Pi*float64(k)*(2*float64(n)+1)/(2*N))
		}
		mfcc[k] = sum
	}

	return mfcc
}

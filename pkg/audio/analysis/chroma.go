package analysis

import "math"

// ChromaBins is the standard 12-semitone chromagram size
const ChromaBins = 12

// ComputeChroma maps the spectrogram into per-frame 12-bin pitch-class
// energy vectors. Frequencies outside 80-8000 Hz are ignored, and each
// frame is peak-normalized.
func ComputeChroma(spectrogram *SpectrogramResult) [][]float64 {
	chroma := make([][]float64, spectrogram.TimeFrames)

	freqs := make([]float64, spectrogram.FreqBins)
	for i := range spectrogram.FreqBins {
		freqs[i] = float64(i) * float64(spectrogram.SampleRate) / float64((spectrogram.FreqBins-1)*2)
	}

	for t := range spectrogram.TimeFrames {
		chroma[t] = make([]float64, ChromaBins)
		magnitude := spectrogram.Magnitude[t]

		for f := range magnitude {
			freq := freqs[f]
			if freq < 80 || freq > 8000 {
				continue
			}

			// MIDI note = 12 * log2(freq/440) + 69, then fold to pitch class
			midiNote := 12*math.Log2(freq/440.0) + 69
			if midiNote < 0 {
				continue
			}
			chromaClass := int(math.Round(midiNote)) % ChromaBins
			if chromaClass >= 0 && chromaClass < ChromaBins {
				chroma[t][chromaClass] += magnitude[f]
			}
		}

		maxVal := 0.0
		for i := range chroma[t] {
			if chroma[t][i] > maxVal {
				maxVal = chroma[t][i]
			}
		}
		if maxVal > 0 {
			for i := range chroma[t] {
				chroma[t][i] /= maxVal
			}
		}
	}

	return chroma
}

package analysis

import "math"

// TonnetzDims is the dimensionality of the tonal centroid projection
const TonnetzDims = 6

// ComputeTonnetz projects per-frame chroma vectors onto the 6-dimensional
// tonal centroid space (fifths, minor thirds and major thirds circles).
func ComputeTonnetz(chroma [][]float64) [][]float64 {
	// Circle radii follow the standard harmonic network transformation
	const (
		rFifths      = 1.0
		rMinorThirds = 1.0
		rMajorThirds = 0.5
	)

	tonnetz := make([][]float64, len(chroma))
	for t, frame := range chroma {
		tonnetz[t] = make([]float64, TonnetzDims)
		if len(frame) == 0 {
			continue
		}

		total := 0.0
		for _, v := range frame {
			total += v
		}
		if total == 0 {
			continue
		}

		for pc, v := range frame {
			w := v / total
			p := float64(pc)

			// Circle of fifths: 7 semitone steps
			tonnetz[t][0] += w * rFifths * math.Sin(p*7*math.Pi/6)
			tonnetz[t][1] += w * rFifths * math.Cos(p*7*math.Pi/6)
			// Circle of minor thirds: 3 semitone steps
			tonnetz[t][2] += w * rMinorThirds * math.Sin(p*3*math.Pi/2)
			tonnetz[t][3] += w * rMinorThirds * math.Cos(p*3*math.Pi/2)
			// Circle of major thirds: 4 semitone steps
			tonnetz[t][4] += w * rMajorThirds * math.Sin(p*2*math.Pi/3)
			tonnetz[t][5] += w * rMajorThirds * math.Cos(p*2*math.Pi/3)
		}
	}

	return tonnetz
}

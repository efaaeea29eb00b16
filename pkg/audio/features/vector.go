package features

import (
	"gonum.org/v1/gonum/stat"
)

// Fixed normalization constants of the v2 vector layout. Reconstruction in
// the similarity engine relies on these staying in sync; values above the
// denominator are deliberately not clamped.
const (
	TempoScale     = 200.0
	DurationScale  = 300.0
	CentroidScale  = 8000.0
	RolloffScale   = 8000.0
	BandwidthScale = 4000.0

	// 240 BPM = 4 beats per second, the densest plausible steady tempo
	BeatDensityScale = 4.0

	zScoreEpsilon = 1e-8
)

// BuildVector assembles the 45-dimension normalized feature vector from the
// aggregated feature groups. Order is fixed: 6 scaled basic/spectral
// scalars, 13 z-scored MFCC means, 12 chroma means, 7 contrast band means,
// 6 tonnetz means, then beat density. Reordering breaks every stored
// vector, so the layout only ever grows at the tail under a new
// AnalysisVersion.
func BuildVector(fs *FeatureSet) []float64 {
	vector := make([]float64, 0, VectorDim)

	vector = append(vector,
		fs.Basic.Tempo/TempoScale,
		fs.Basic.Duration/DurationScale,
		fs.Spectral.CentroidMean/CentroidScale,
		fs.Spectral.RolloffMean/RolloffScale,
		fs.Spectral.BandwidthMean/BandwidthScale,
		fs.Spectral.ZCRMean,
	)

	vector = append(vector, zScore(padTo(fs.MFCC.Mean, 13))...)
	vector = append(vector, padTo(fs.Chroma.Mean, 12)...)
	vector = append(vector, padTo(fs.Contrast.Mean, 7)...)
	vector = append(vector, padTo(fs.Tonnetz.Mean, 6)...)
	vector = append(vector, beatDensity(fs))

	return vector
}

// beatDensity scales beats-per-second against a 240 BPM ceiling
func beatDensity(fs *FeatureSet) float64 {
	if fs.Basic.Duration <= 0 {
		return 0
	}
	return float64(fs.Basic.BeatsCount) / fs.Basic.Duration / BeatDensityScale
}

// zScore normalizes values to zero mean and unit variance across the slice
func zScore(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	mean := stat.Mean(values, nil)
	std := stat.PopStdDev(values, nil)

	normalized := make([]float64, len(values))
	for i, v := range values {
		normalized[i] = (v - mean) / (std + zScoreEpsilon)
	}
	return normalized
}

// padTo truncates or zero-pads a slice to exactly n entries
func padTo(values []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, values)
	return out
}

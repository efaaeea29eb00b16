// Package features extracts the fixed-layout acoustic descriptor set and
// the 45-dimension feature vector used by similarity and recommendation
// scoring. Extraction degrades to a deterministic placeholder record on any
// decode or processing failure; it never fails the caller.
package features

// AnalysisVersion tags the extraction pipeline that produced a record
const AnalysisVersion = "v2.0"

// VectorDim is the fixed feature vector length of the v2 pipeline:
// 6 basic/spectral scalars + 13 MFCC means + 12 chroma means + 7 contrast
// band means + 6 tonnetz means + 1 beat density. Downstream similarity and
// storage assume exactly this layout.
const VectorDim = 45

// BasicFeatures holds signal-level properties
type BasicFeatures struct {
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	Tempo      float64 `json:"tempo"`
	BeatsCount int     `json:"beats_count"`
}

// SpectralStats holds whole-signal aggregates of frame spectral descriptors
type SpectralStats struct {
	CentroidMean  float64 `json:"centroid_mean"`
	CentroidStd   float64 `json:"centroid_std"`
	RolloffMean   float64 `json:"rolloff_mean"`
	RolloffStd    float64 `json:"rolloff_std"`
	BandwidthMean float64 `json:"bandwidth_mean"`
	BandwidthStd  float64 `json:"bandwidth_std"`
	ZCRMean       float64 `json:"zcr_mean"`
	ZCRStd        float64 `json:"zcr_std"`
	ContrastMean  float64 `json:"contrast_mean"`
	ContrastStd   float64 `json:"contrast_std"`
}

// StatPair holds per-band mean and standard deviation aggregates
type StatPair struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FeatureSet is the complete extraction result for one audio item
type FeatureSet struct {
	Basic         BasicFeatures `json:"basic"`
	Spectral      SpectralStats `json:"spectral"`
	MFCC          StatPair      `json:"mfcc"`
	Chroma        StatPair      `json:"chroma"`
	Contrast      StatPair      `json:"contrast"`
	Tonnetz       StatPair      `json:"tonnetz"`
	FeatureVector []float64     `json:"feature_vector"`

	// Degraded marks the placeholder record produced when decoding or
	// analysis failed. The record is still shape-valid for all consumers.
	Degraded bool `json:"degraded,omitempty"`
}

func constantSlice(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// MockFeatureSet returns the fixed placeholder record used when audio
// cannot be decoded or analyzed. Values are semantically neutral: mid-scale
// spectral statistics, zero-mean/unit-std coefficient groups and a uniform
// 0.5 vector of the fixed dimension.
func MockFeatureSet() *FeatureSet {
	return &FeatureSet{
		Basic: BasicFeatures{
			Duration:   180.0,
			SampleRate: 44100,
			Tempo:      120.0,
			BeatsCount: 240,
		},
		Spectral: SpectralStats{
			CentroidMean:  2000.0,
			CentroidStd:   500.0,
			RolloffMean:   4000.0,
			RolloffStd:    800.0,
			BandwidthMean: 1500.0,
			BandwidthStd:  300.0,
			ZCRMean:       0.1,
			ZCRStd:        0.05,
			ContrastMean:  20.0,
			ContrastStd:   5.0,
		},
		MFCC:          StatPair{Mean: constantSlice(13, 0), Std: constantSlice(13, 1)},
		Chroma:        StatPair{Mean: constantSlice(12, 0), Std: constantSlice(12, 1)},
		Contrast:      StatPair{Mean: constantSlice(7, 0), Std: constantSlice(7, 1)},
		Tonnetz:       StatPair{Mean: constantSlice(6, 0), Std: constantSlice(6, 1)},
		FeatureVector: constantSlice(VectorDim, 0.5),
		Degraded:      true,
	}
}

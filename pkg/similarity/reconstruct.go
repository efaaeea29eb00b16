package similarity

// StoredFeatures is the sparse persisted view of an audio item used when
// the precomputed full vector is missing. Nil pointers mean the field was
// never stored.
type StoredFeatures struct {
	Tempo        *float64
	Duration     *float64
	Energy       *float64
	Loudness     *float64
	Valence      *float64
	Danceability *float64

	MFCCMeans []float64

	CentroidMean  *float64
	RolloffMean   *float64
	BandwidthMean *float64
}

// ReconstructedDim is the fixed length of a reconstructed comparison
// vector in the v2 layout: 6 scalars, 10 MFCC coefficients, 3 spectral
// scalars.
const ReconstructedDim = 19

// Default scalars substituted for missing stored fields
const (
	defaultTempo        = 120.0
	defaultDuration     = 180.0
	defaultEnergy       = 0.5
	defaultLoudness     = 0.0
	defaultValence      = 0.5
	defaultDanceability = 0.5
)

// Reconstruct builds a comparison vector from sparse stored features using
// the same normalization constants as extraction, substituting documented
// defaults for missing fields and padding or truncating the MFCC subset to
// a fixed count. Pure and deterministic given its inputs.
func Reconstruct(sf *StoredFeatures) []float64 {
	vector := make([]float64, 0, ReconstructedDim)

	vector = append(vector,
		orDefault(sf.Tempo, defaultTempo)/200.0,
		orDefault(sf.Duration, defaultDuration)/300.0,
		orDefault(sf.Energy, defaultEnergy),                 // already normalized
		(orDefault(sf.Loudness, defaultLoudness)+60.0)/60.0, // -60dB..0dB scale
		orDefault(sf.Valence, defaultValence),
		orDefault(sf.Danceability, defaultDanceability),
	)

	// First 10 MFCC coefficients, zero-padded
	mfcc := make([]float64, 10)
	copy(mfcc, sf.MFCCMeans)
	vector = append(vector, mfcc...)

	if sf.CentroidMean != nil || sf.RolloffMean != nil || sf.BandwidthMean != nil {
		vector = append(vector,
			orDefault(sf.CentroidMean, 2000.0)/8000.0,
			orDefault(sf.RolloffMean, 4000.0)/8000.0,
			orDefault(sf.BandwidthMean, 1500.0)/4000.0,
		)
	} else {
		// Mid-scale stand-ins when no spectral stats were stored
		vector = append(vector, 0.25, 0.5, 0.375)
	}

	return vector
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

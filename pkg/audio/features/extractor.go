package features

import (
	"context"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/pkg/audio/analysis"
	"github.com/soundrooms/resonance/pkg/audio/decode"
)

// Config controls the extraction pipeline
type Config struct {
	Workers          int `mapstructure:"workers"`
	QueueSize        int `mapstructure:"queue_size"`
	WindowSize       int `mapstructure:"window_size"`
	HopSize          int `mapstructure:"hop_size"`
	MFCCCoefficients int `mapstructure:"mfcc_coefficients"`
	ContrastBands    int `mapstructure:"contrast_bands"`
}

// DefaultConfig returns the standard extraction configuration
func DefaultConfig() Config {
	return Config{
		Workers:          4,
		QueueSize:        16,
		WindowSize:       2048,
		HopSize:          512,
		MFCCCoefficients: 13,
		ContrastBands:    7,
	}
}

// Extractor runs CPU-bound feature extraction on a bounded worker pool so
// concurrent uploads cannot unbind processing load. Extract never returns
// an error: undecodable input degrades to the mock record.
type Extractor struct {
	cfg       Config
	jobs      chan extractJob
	wg        sync.WaitGroup
	closeOnce sync.Once
	logger    logging.Logger
}

type extractJob struct {
	data     []byte
	filename string
	result   chan *FeatureSet
}

// NewExtractor creates an extractor and starts its worker pool
func NewExtractor(cfg Config) *Extractor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	e := &Extractor{
		cfg:  cfg,
		jobs: make(chan extractJob, cfg.QueueSize),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
			"workers":   cfg.Workers,
		}),
	}

	for i := 0; i < cfg.Workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for job := range e.jobs {
				job.result <- e.extractSync(job.data, job.filename)
			}
		}()
	}

	return e
}

// Close drains the queue and stops the workers
func (e *Extractor) Close() {
	e.closeOnce.Do(func() {
		close(e.jobs)
		e.wg.Wait()
	})
}

// Extract queues the audio for analysis and awaits the result. Cancelling
// the context abandons the wait and degrades to the mock record; the
// in-flight computation finishes in the background and is discarded.
func (e *Extractor) Extract(ctx context.Context, audio []byte, filename string) *FeatureSet {
	job := extractJob{
		data:     audio,
		filename: filename,
		result:   make(chan *FeatureSet, 1),
	}

	select {
	case e.jobs <- job:
	case <-ctx.Done():
		e.logger.Warn("extraction abandoned before dispatch", logging.Fields{
			"filename": filename,
		})
		return MockFeatureSet()
	}

	select {
	case fs := <-job.result:
		return fs
	case <-ctx.Done():
		e.logger.Warn("extraction abandoned while processing", logging.Fields{
			"filename": filename,
		})
		return MockFeatureSet()
	}
}

// extractSync performs the full analysis pipeline on the calling goroutine
func (e *Extractor) extractSync(audio []byte, filename string) (fs *FeatureSet) {
	logger := e.logger.WithFields(logging.Fields{
		"function": "extractSync",
		"filename": filename,
	})

	// Extraction must degrade, not propagate, whatever the input does
	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis panic, returning placeholder features", logging.Fields{
				"panic": r,
			})
			fs = MockFeatureSet()
		}
	}()

	pcm, err := decode.Decode(audio, filename)
	if err != nil {
		logger.Warn("decode failed, returning placeholder features", logging.Fields{
			"error": err.Error(),
		})
		return MockFeatureSet()
	}

	analyzer := analysis.NewSpectralAnalyzer(pcm.SampleRate)
	spectrogram, err := analyzer.ComputeSTFT(pcm.Samples, e.cfg.WindowSize, e.cfg.HopSize)
	if err != nil {
		logger.Warn("spectral analysis failed, returning placeholder features", logging.Fields{
			"error": err.Error(),
		})
		return MockFeatureSet()
	}

	// Frame-level spectral descriptors
	centroids := make([]float64, spectrogram.TimeFrames)
	rolloffs := make([]float64, spectrogram.TimeFrames)
	bandwidths := make([]float64, spectrogram.TimeFrames)
	for t := 0; t < spectrogram.TimeFrames; t++ {
		frame := analyzer.ExtractFrameFeatures(spectrogram.Magnitude[t])
		centroids[t] = frame.SpectralCentroid
		rolloffs[t] = frame.SpectralRolloff
		bandwidths[t] = frame.SpectralBandwidth
	}

	zcrs := frameZCR(pcm.Samples, e.cfg.WindowSize, e.cfg.HopSize)

	mfccFrames := analysis.NewMFCCAnalyzer(e.cfg.MFCCCoefficients).Compute(spectrogram)
	chromaFrames := analysis.ComputeChroma(spectrogram)
	contrastFrames := analysis.ComputeSpectralContrast(spectrogram, e.cfg.ContrastBands)
	tonnetzFrames := analysis.ComputeTonnetz(chromaFrames)
	tempo := analysis.EstimateTempo(pcm.Samples, pcm.SampleRate)

	mfccMean, mfccStd := columnStats(mfccFrames)
	chromaMean, chromaStd := columnStats(chromaFrames)
	contrastMean, contrastStd := columnStats(contrastFrames)
	tonnetzMean, tonnetzStd := columnStats(tonnetzFrames)

	contrastAll := flatten(contrastFrames)

	fs = &FeatureSet{
		Basic: BasicFeatures{
			Duration:   pcm.Duration(),
			SampleRate: pcm.SampleRate,
			Tempo:      tempo.BPM,
			BeatsCount: tempo.BeatCount,
		},
		Spectral: SpectralStats{
			CentroidMean:  stat.Mean(centroids, nil),
			CentroidStd:   stat.PopStdDev(centroids, nil),
			RolloffMean:   stat.Mean(rolloffs, nil),
			RolloffStd:    stat.PopStdDev(rolloffs, nil),
			BandwidthMean: stat.Mean(bandwidths, nil),
			BandwidthStd:  stat.PopStdDev(bandwidths, nil),
			ZCRMean:       stat.Mean(zcrs, nil),
			ZCRStd:        stat.PopStdDev(zcrs, nil),
			ContrastMean:  stat.Mean(contrastAll, nil),
			ContrastStd:   stat.PopStdDev(contrastAll, nil),
		},
		MFCC:     StatPair{Mean: mfccMean, Std: mfccStd},
		Chroma:   StatPair{Mean: chromaMean, Std: chromaStd},
		Contrast: StatPair{Mean: contrastMean, Std: contrastStd},
		Tonnetz:  StatPair{Mean: tonnetzMean, Std: tonnetzStd},
	}
	fs.FeatureVector = BuildVector(fs)

	logger.Debug("features extracted", logging.Fields{
		"duration":    fs.Basic.Duration,
		"tempo":       fs.Basic.Tempo,
		"sample_rate": fs.Basic.SampleRate,
		"frames":      spectrogram.TimeFrames,
	})

	return fs
}

// frameZCR computes zero crossing rate over sliding signal frames
func frameZCR(pcm []float64, windowSize, hopSize int) []float64 {
	if len(pcm) == 0 || windowSize <= 0 || hopSize <= 0 {
		return []float64{0}
	}
	if len(pcm) < windowSize {
		return []float64{analysis.ZeroCrossingRate(pcm)}
	}

	var zcrs []float64
	for i := 0; i+windowSize <= len(pcm); i += hopSize {
		zcrs = append(zcrs, analysis.ZeroCrossingRate(pcm[i:i+windowSize]))
	}
	return zcrs
}

// columnStats aggregates per-column mean and population std over frames
func columnStats(frames [][]float64) ([]float64, []float64) {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return nil, nil
	}

	cols := len(frames[0])
	means := make([]float64, cols)
	stds := make([]float64, cols)

	column := make([]float64, len(frames))
	for c := 0; c < cols; c++ {
		for t, frame := range frames {
			if c < len(frame) {
				column[t] = frame[c]
			} else {
				column[t] = 0
			}
		}
		means[c] = stat.Mean(column, nil)
		stds[c] = stat.PopStdDev(column, nil)
	}

	return means, stds
}

func flatten(frames [][]float64) []float64 {
	var out []float64
	for _, frame := range frames {
		out = append(out, frame...)
	}
	if len(out) == 0 {
		out = []float64{0}
	}
	return out
}

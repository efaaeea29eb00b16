package cmd

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/soundrooms/resonance/configs"
	"github.com/soundrooms/resonance/pkg/audio/features"
)

// analyzeCmd extracts features from a local audio file
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Extract audio features from a local file",
	Long: `Analyze a local WAV or MP3 file and print its extracted feature
set: tempo, spectral statistics, MFCC/chroma/contrast summaries and the
feature vector used for similarity. Undecodable input degrades to the
fixed placeholder record instead of failing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	cfg, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	extractor := features.NewExtractor(features.Config{
		Workers:          cfg.Extractor.Workers,
		QueueSize:        cfg.Extractor.QueueSize,
		WindowSize:       cfg.Extractor.WindowSize,
		HopSize:          cfg.Extractor.HopSize,
		MFCCCoefficients: cfg.Extractor.MFCCCoefficients,
		ContrastBands:    cfg.Extractor.ContrastBands,
	})
	defer extractor.Close()

	set := extractor.Extract(cmd.Context(), audio, path)

	var output []byte
	switch viper.GetString("output_format") {
	case "yaml":
		output, err = yaml.Marshal(set)
	default:
		output, err = json.MarshalIndent(set, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to format analysis: %w", err)
	}

	fmt.Println(string(output))
	return nil
}

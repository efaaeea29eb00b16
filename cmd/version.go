package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/soundrooms/resonance/pkg/audio/features"
)

// Build metadata, set via -ldflags at release time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("resonance %s\n", version)
		fmt.Printf("  commit:           %s\n", commit)
		fmt.Printf("  built:            %s\n", date)
		fmt.Printf("  analysis version: %s\n", features.AnalysisVersion)
		fmt.Printf("  go:               %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

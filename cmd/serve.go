package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundrooms/resonance/configs"
	"github.com/soundrooms/resonance/internal/app"
)

var serveAddr string

// serveCmd runs the HTTP service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis and recommendation HTTP service",
	Long: `Start the HTTP service: audio feature extraction and storage,
similarity matrices, room recommendations, user preferences and
interaction tracking. The service runs until interrupted and shuts
down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		viper.Set("server.addr", serveAddr)
	}

	cfg, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	if err := application.Run(ctx); err != nil && !isCanceled(err) {
		return fmt.Errorf("service failed: %w", err)
	}
	return nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

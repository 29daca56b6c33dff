package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/api"
)

var (
	flagServeAddr string
	flagServeJSON bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calculators over a JSON HTTP API",
	Long: "Serve POST /v1/tax and POST /v1/savings, plus GET /v1/jurisdictions,\n" +
		"/healthz, and /metrics. Case files are not read.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "127.0.0.1:8798", "HTTP listen address")
	serveCmd.Flags().BoolVar(&flagServeJSON, "log-json", false, "Write logs as JSON")
	rootCmd.AddCommand(serveCmd)
}

func newLogger(jsonOutput bool) *slog.Logger {
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := newLogger(flagServeJSON)
	srv := api.New(api.Options{
		IncludeFederal: includeFederal(),
		Logger:         logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("  estateplan API listening on http://%s\n", flagServeAddr)
	if err := srv.ListenAndServe(ctx, flagServeAddr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

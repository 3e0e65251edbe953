package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/okdaichi/transfork/transfork"
	"github.com/spf13/cobra"
)

// addClientFlags registers the flags shared by client commands.
func addClientFlags(cmd *cobra.Command, cfg *config) {
	cmd.Flags().StringVar(&cfg.Fingerprint, "fingerprint", cfg.Fingerprint, "URL serving the server certificate fingerprint (TRANSFORK_FINGERPRINT)")
}

func dial(ctx context.Context, cfg *config, url string) (*transfork.Connection, error) {
	logger := cfg.logger()

	client := &transfork.Client{
		FingerprintURL: cfg.Fingerprint,
		Config: &transfork.Config{
			Logger: logger,
		},
	}

	return client.Dial(ctx, url)
}

// parsePath splits a slash separated track path.
func parsePath(s string) transfork.Path {
	var path transfork.Path
	for _, part := range strings.Split(s, "/") {
		if part != "" {
			path = append(path, part)
		}
	}
	return path
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// config holds the settings shared by every command. Values come from the
// environment first and command-line flags override them.
type config struct {
	Addr        string `env:"TRANSFORK_ADDR" envDefault:"localhost:4443"`
	Cert        string `env:"TRANSFORK_CERT" envDefault:"localhost.pem"`
	Key         string `env:"TRANSFORK_KEY" envDefault:"localhost-key.pem"`
	HTTPAddr    string `env:"TRANSFORK_HTTP_ADDR" envDefault:"localhost:4443"`
	Fingerprint string `env:"TRANSFORK_FINGERPRINT"`
	Debug       bool   `env:"TRANSFORK_DEBUG"`
}

// loadConfig reads a .env file in the working directory, if any, and then
// the environment. Variables already set are not overridden by the file.
func loadConfig() (*config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

func (cfg *config) logger() *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "transfork",
		Short: "Publish and subscribe to MoQ transfork tracks",
		Long: `transfork runs a small relay and its clients.

Examples:
  transfork serve --addr=localhost:4443
  transfork publish https://localhost:4443 room1/cam < frames.txt
  transfork subscribe https://localhost:4443 room1/cam`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging (TRANSFORK_DEBUG)")

	rootCmd.AddCommand(
		serveCmd(cfg),
		publishCmd(cfg),
		subscribeCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "myquant"
	version = "v2.0.0"
)

func main() {
	// Optional .env for DSNs and provider keys; secrets never live in source.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "A-share market scanner: snapshot store + pool classifier",
		Version: version,
		Long: `myquant scans a universe of A-share instruments, classifies each into
opportunity / watchlist / blacklist pools and persists immutable, versioned
market snapshots that every downstream tool reads.`,
	}
	rootCmd.PersistentFlags().String("config", "", "classifier config YAML (default: built-in)")
	rootCmd.PersistentFlags().String("data-dir", "data/snapshots", "snapshot document directory")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newReportCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/providers"
	"github.com/Stuuu223/myquanttool/internal/store"
	"github.com/Stuuu223/myquanttool/internal/store/postgres"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one market scan and persist the snapshot",
		RunE:  runScan,
	}
	cmd.Flags().String("mode", "intraday", "Scan mode (premarket|intraday|rebuild)")
	cmd.Flags().String("date", "", "Trade date YYYYMMDD (default: today)")
	cmd.Flags().String("universe", "", "Comma-separated instrument codes, e.g. 603607.SH,000001.SZ")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	modeStr, _ := cmd.Flags().GetString("mode")
	mode := snapshot.Mode(modeStr)
	switch mode {
	case snapshot.ModePremarket, snapshot.ModeIntraday, snapshot.ModeRebuild:
	default:
		return fmt.Errorf("unknown mode %q", modeStr)
	}

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("20060102")
	}
	universeStr, _ := cmd.Flags().GetString("universe")
	universe := parseUniverse(universeStr)
	if len(universe) == 0 {
		return fmt.Errorf("--universe is required")
	}

	reg, _, err := newMetrics()
	if err != nil {
		return err
	}
	scanner, err := buildScanner(cmd, reg)
	if err != nil {
		return err
	}

	snap, err := scanner.Run(cmd.Context(), date, mode, universe)
	if err != nil {
		return err
	}

	fmt.Printf("snapshot %s written: %d opportunities, %d watchlist, %d blacklist\n",
		snap.Key(), snap.Summary.Opportunities, snap.Summary.Watchlist, snap.Summary.Blacklist)

	if mode == snapshot.ModePremarket {
		if err := captureAuction(cmd, date); err != nil {
			return err
		}
	}
	return nil
}

// captureAuction samples the pre-open auction and appends the rows when a
// database is configured. Premarket scans only; the sample is meaningless
// once continuous trading starts.
func captureAuction(cmd *cobra.Command, date string) error {
	dsn := os.Getenv(envPostgresDSN)
	if dsn == "" {
		return nil
	}
	db, err := postgres.Connect(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.EnsureSchema(cmd.Context(), db); err != nil {
		return err
	}

	em := providers.NewEastmoney(providers.DefaultEastmoneyConfig())
	rows, err := em.FetchAuction(cmd.Context(), date)
	if err != nil {
		return fmt.Errorf("fetch auction samples: %w", err)
	}

	repo := postgres.NewAuctionRepo(db, 10*time.Second)
	if err := repo.InsertBatch(cmd.Context(), rows); err != nil {
		if store.IsConflict(err) {
			fmt.Println("auction sample already captured for this time, skipping")
			return nil
		}
		return err
	}
	fmt.Printf("captured %d auction rows for %s\n", len(rows), date)
	return nil
}

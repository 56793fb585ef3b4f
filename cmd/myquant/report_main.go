package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/reports"
	"github.com/Stuuu223/myquanttool/internal/store"
	"github.com/Stuuu223/myquanttool/internal/store/postgres"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export Excel reports",
	}

	tradesCmd := &cobra.Command{
		Use:   "trades",
		Short: "Export backtest trades for a buy-date range",
		RunE:  runReportTrades,
	}
	tradesCmd.Flags().String("from", "", "Range start YYYYMMDD")
	tradesCmd.Flags().String("to", "", "Range end YYYYMMDD")
	tradesCmd.Flags().String("out", "trades.xlsx", "Output file")

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Export one pool of a snapshot",
		RunE:  runReportPool,
	}
	poolCmd.Flags().String("date", "", "Trade date YYYYMMDD")
	poolCmd.Flags().String("pool", "opportunity", "Pool (opportunity|watchlist|blacklist)")
	poolCmd.Flags().String("out", "pool.xlsx", "Output file")

	cmd.AddCommand(tradesCmd, poolCmd)
	return cmd
}

func runReportTrades(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	out, _ := cmd.Flags().GetString("out")
	if from == "" || to == "" {
		return fmt.Errorf("--from and --to are required")
	}

	dsn := os.Getenv(envPostgresDSN)
	if dsn == "" {
		return fmt.Errorf("%s is not set", envPostgresDSN)
	}
	db, err := postgres.Connect(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewTradesRepo(db, 10*time.Second)
	trades, err := repo.ListRange(cmd.Context(), store.DateRange{From: from, To: to})
	if err != nil {
		return err
	}

	wb, err := reports.TradesWorkbook(trades)
	if err != nil {
		return err
	}
	if err := wb.SaveAs(out); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Printf("wrote %d trades to %s\n", len(trades), out)
	return nil
}

func runReportPool(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	poolName, _ := cmd.Flags().GetString("pool")
	out, _ := cmd.Flags().GetString("out")
	if date == "" {
		return fmt.Errorf("--date is required")
	}

	st, err := buildSnapshotStore(cmd)
	if err != nil {
		return err
	}
	snap, err := st.ReadSnapshot(cmd.Context(), date, "", "")
	if err != nil {
		return err
	}

	wb, err := reports.PoolWorkbook(snap, snapshot.Pool(poolName))
	if err != nil {
		return err
	}
	if err := wb.SaveAs(out); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Printf("wrote %s pool of %s to %s\n", poolName, snap.Key(), out)
	return nil
}

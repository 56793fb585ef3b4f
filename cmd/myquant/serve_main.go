package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/Stuuu223/myquanttool/internal/interfaces/http"
	"github.com/Stuuu223/myquanttool/internal/store"
	"github.com/Stuuu223/myquanttool/internal/store/postgres"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only snapshot/auction API",
		RunE:  runServe,
	}
	cmd.Flags().String("host", "127.0.0.1", "Bind host")
	cmd.Flags().Int("port", 8080, "Bind port")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	snapshots, err := buildSnapshotStore(cmd)
	if err != nil {
		return err
	}

	var auction store.AuctionRepo
	if dsn := os.Getenv(envPostgresDSN); dsn != "" {
		db, err := postgres.Connect(cmd.Context(), dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(cmd.Context(), db); err != nil {
			return err
		}
		auction = postgres.NewAuctionRepo(db, 5*time.Second)
	}

	_, promReg, err := newMetrics()
	if err != nil {
		return err
	}

	cfg := httpapi.DefaultServerConfig()
	cfg.Host, _ = cmd.Flags().GetString("host")
	cfg.Port, _ = cmd.Flags().GetInt("port")
	server := httpapi.NewServer(cfg, snapshots, auction, promReg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run or inspect scheduled scan jobs",
	}
	cmd.PersistentFlags().String("jobs", "conf/scheduler.yaml", "Scheduler job config")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured jobs and their next run times",
		RunE:  runScheduleList,
	}
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler until interrupted",
		RunE:  runScheduleStart,
	}
	runCmd := &cobra.Command{
		Use:   "run [job]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runScheduleRun,
	}
	cmd.AddCommand(listCmd, startCmd, runCmd)
	return cmd
}

func loadScheduler(cmd *cobra.Command) (*scheduler.Scheduler, error) {
	path, _ := cmd.Flags().GetString("jobs")
	cfg, err := scheduler.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	reg, _, err := newMetrics()
	if err != nil {
		return nil, err
	}
	scanner, err := buildScanner(cmd, reg)
	if err != nil {
		return nil, err
	}

	runner := func(ctx context.Context, job scheduler.Job) error {
		universe := job.Universe
		if len(universe) == 0 {
			universe = cfg.Global.Universe
		}
		if len(universe) == 0 {
			return fmt.Errorf("job %q has no universe", job.Name)
		}
		date := time.Now().Format("20060102")
		_, err := scanner.Run(ctx, date, snapshot.Mode(job.Mode), universe)
		return err
	}
	return scheduler.New(cfg, runner), nil
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("jobs")
	cfg, err := scheduler.LoadConfig(path)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, j := range cfg.Jobs {
		state := "enabled"
		if !j.Enabled {
			state = "disabled"
		}
		fmt.Printf("%-20s %-10s %-9s next: %s\n", j.Name, j.Mode, state, j.NextRun(now).Format(time.RFC3339))
	}
	return nil
}

func runScheduleStart(cmd *cobra.Command, args []string) error {
	sched, err := loadScheduler(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = sched.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runScheduleRun(cmd *cobra.Command, args []string) error {
	sched, err := loadScheduler(cmd)
	if err != nil {
		return err
	}
	return sched.RunJobNow(cmd.Context(), args[0])
}

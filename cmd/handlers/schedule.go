package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"inboxbrief/internal/logger"
	"inboxbrief/internal/scheduler"
)

// NewScheduleCmd creates the schedule command
func NewScheduleCmd() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the digest on a cron schedule until interrupted",
		Long: `Start a long-running process that triggers a digest run on the cron
expression in schedule.cron (default "0 7 * * *"), evaluated in
schedule.timezone. A run still in progress when the next one is due causes
that tick to be skipped.`,
		Run: func(cmd *cobra.Command, args []string) {
			nextOnly, _ := cmd.Flags().GetBool("next")
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runSchedule(ctx, nextOnly); err != nil {
				logger.Error("Scheduler failed", err)
				os.Exit(1)
			}
		},
	}

	scheduleCmd.Flags().Bool("next", false, "Print the next activation time and exit")
	return scheduleCmd
}

func runSchedule(ctx context.Context, nextOnly bool) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	if nextOnly {
		loc, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			return fmt.Errorf("loading timezone %q: %w", cfg.Schedule.Timezone, err)
		}
		next, err := scheduler.NextAfter(cfg.Schedule.Cron, time.Now(), loc)
		if err != nil {
			return err
		}
		fmt.Printf("⏰ Next run: %s\n", next.Format("Mon Jan 2 15:04 MST"))
		return nil
	}

	// Fail fast on missing credentials instead of at the first tick.
	if err := cfg.ValidateForRun(false); err != nil {
		return err
	}

	s, err := scheduler.New(ctx, cfg.Schedule.Timezone)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		p, cleanup, err := buildPipeline(ctx, cfg, false, false)
		if err != nil {
			return err
		}
		defer cleanup()
		_, err = p.Run(ctx)
		return err
	}
	if err := s.Schedule(cfg.Schedule.Cron, job); err != nil {
		return err
	}

	s.Start()
	logger.Info("Scheduler started", "cron", cfg.Schedule.Cron, "next", s.Next().Format(time.RFC3339))

	<-ctx.Done()
	logger.Info("Shutting down scheduler")
	s.Stop()
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dannyswat/outreach/internal/email"
	"github.com/dannyswat/outreach/internal/service"
	"github.com/dannyswat/outreach/internal/validation"
)

var (
	dryRun    bool
	batchSize string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Schedule all batches and send them as they come due",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log emails instead of sending them")
	runCmd.Flags().StringVar(&batchSize, "batch-size", "", "override outreach.batch_size")
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchSize != "" {
		n, err := validation.ValidateBatchSize(batchSize)
		if err != nil {
			return err
		}
		cfg.Outreach.BatchSize = n
	}

	a, err := newAppWithConfig(cfg)
	if err != nil {
		return err
	}
	defer a.closeLog()

	log := a.log.WithComponent("cli")
	log.Info().
		Str("version", version).
		Str("transport", cfg.Email.Transport).
		Str("sender", cfg.Sender.String()).
		Bool("dry_run", dryRun).
		Msg("starting outreach run")

	var sender email.Sender
	if dryRun {
		sender = email.NewLogSender(a.log)
	} else {
		sender, err = buildSender(ctx, cfg, a.log)
		if err != nil {
			return fmt.Errorf("failed to create email sender: %w", err)
		}
	}

	svc, err := a.newService(sender)
	if err != nil {
		return err
	}

	if _, err := svc.ScheduleEmails(ctx); err != nil {
		log.Error().Err(err).Msg("scheduling failed")
		return err
	}

	runErr := svc.Run(ctx)

	report := svc.Report()
	path, err := service.WriteReport(cfg.Paths.LogsDir, report)
	if err != nil {
		log.Error().Err(err).Msg("failed to write run report")
	} else {
		log.Info().Str("path", path).Msg("run report written")
	}

	log.Info().
		Int("sent", len(report.Sent)).
		Int("failed_recipients", len(report.Failures)).
		Int("pending", len(report.Pending)).
		Msg("outreach run finished")

	if errors.Is(runErr, context.Canceled) {
		log.Warn().Msg("interrupted, pending emails were not sent")
		return nil
	}
	return runErr
}

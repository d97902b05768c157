package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/config"
)

var (
	workerMode bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Refresh the status of donations still open on the gateway",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"reconcile",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.RefreshInterval },
			func(s *service.DonationService, ctx context.Context) (logrus.Fields, error) {
				report, err := s.RefreshPendingStatuses(ctx)
				if err != nil {
					return nil, err
				}
				return logrus.Fields{"checked": report.Checked, "updated": report.Updated, "failed": report.Failed}, nil
			},
		)
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Insert recent gateway PIX payments that have no local donation",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"backfill",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.BackfillInterval },
			func(s *service.DonationService, ctx context.Context) (logrus.Fields, error) {
				report, err := s.BackfillMissingDonations(ctx)
				if err != nil {
					return nil, err
				}
				return logrus.Fields{"scanned": report.Scanned, "inserted": report.Inserted, "failed": report.Failed}, nil
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(backfillCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

type jobFunc func(s *service.DonationService, ctx context.Context) (logrus.Fields, error)

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn jobFunc,
) {
	cfg, svc, cleanup := mustCreateServices()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), svc.donations, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() (logrus.Fields, error) { return fn(svc.donations, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	donationService *service.DonationService,
	fn jobFunc,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() (logrus.Fields, error) { return fn(donationService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() (logrus.Fields, error) { return fn(donationService, ctx) })
		}
	}
}

func runJob(name string, fn func() (logrus.Fields, error)) {
	start := time.Now()
	fields, err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithFields(fields).WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ogurasousui/employee-delta-sync/internal/platform/scheduler"
	"github.com/ogurasousui/employee-delta-sync/internal/platform/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and health check server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			sched := scheduler.New(a.recorder, a.logger)
			if a.cfg.Scheduler.Enabled {
				if err := registerJobs(a, sched); err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			} else {
				a.logger.Info("scheduler disabled, serving health checks only")
			}

			srv := server.New(a.cfg.Server.ListenAddr)
			srv.SetServing(true)
			a.logger.Info("server listening", "addr", a.cfg.Server.ListenAddr)
			return srv.Run(ctx)
		},
	}
}

func registerJobs(a *app, sched *scheduler.Scheduler) error {
	jobs := []scheduler.Job{
		{
			Name: "employee-ingest-sweep",
			Spec: a.cfg.Scheduler.IngestCron,
			Run: func(ctx context.Context) error {
				_, err := a.ingest.SweepDirectory(ctx)
				return err
			},
		},
		{
			Name: "employee-extract",
			Spec: a.cfg.Scheduler.ExtractCron,
			Run: func(ctx context.Context) error {
				_, err := a.extract.ExtractToDirectory(ctx)
				return err
			},
		},
		{
			Name: "delta-report",
			Spec: a.cfg.Scheduler.ReportCron,
			Run: func(ctx context.Context) error {
				_, err := a.report.WriteLatest(ctx)
				return err
			},
		},
	}

	for _, j := range jobs {
		if err := sched.Register(j); err != nil {
			return err
		}
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/server"
	"github.com/Mohammedmarzuk17/EduShield/internal/bootstrap"
	"github.com/Mohammedmarzuk17/EduShield/internal/scheduler"
)

func newScheduleCommand() *cobra.Command {
	var (
		cronSpec   string
		runOnStart bool
		watch      bool
		statusAddr string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a schedule until interrupted",
		Long: `Run the pipeline on a cron schedule. With --watch, a change to the
uploads folder also triggers a run. A trigger that arrives while a run is
in progress is skipped. With a status address, /metrics, /healthz and
/readyz are served while the scheduler runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			if cmd.Flags().Changed("cron") {
				cfg.Schedule.Cron = cronSpec
			}
			if cmd.Flags().Changed("run-on-start") {
				cfg.Schedule.RunOnStart = runOnStart
			}
			if cmd.Flags().Changed("watch") {
				cfg.Schedule.WatchUploads = watch
			}
			if statusAddr != "" {
				cfg.Status.Address = statusAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := bootstrap.NewPipeline(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			sched, err := scheduler.New(cfg.Schedule.Cron, func(ctx context.Context) error {
				_, runErr := p.Run(ctx)
				return runErr
			}, log)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return sched.Run(gctx) })

			if cfg.Schedule.WatchUploads && !cfg.Uploads.Disabled {
				g.Go(func() error {
					return scheduler.WatchDir(gctx, cfg.Uploads.Dir, cfg.Schedule.WatchDebounce, func() {
						sched.Trigger(gctx, scheduler.ReasonUploads)
					}, log)
				})
			}

			if cfg.Status.Address != "" {
				srv := server.New(cfg.Status, p.StatusHandler())
				g.Go(func() error { return server.Run(gctx, srv, log, cfg.Status.ShutdownTimeout) })
			}

			if cfg.Schedule.RunOnStart {
				sched.Trigger(gctx, scheduler.ReasonStartup)
			}

			err = g.Wait()
			sched.Wait()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			log.Info("Shutdown complete", logger.String("schedule", cfg.Schedule.Cron))
			return nil
		},
	}

	cmd.Flags().StringVar(&cronSpec, "cron", "", "cron expression or descriptor (overrides schedule.cron)")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run once immediately")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run when the uploads folder changes")
	cmd.Flags().StringVar(&statusAddr, "status-address", "", "serve /metrics, /healthz and /readyz on this address")

	return cmd
}

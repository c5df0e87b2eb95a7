package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hcal/internal/backup"
	appLog "hcal/internal/log"
	"hcal/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the HTTP API and the backup scheduler",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := app.cfg
		// --listen overrides config file listen if provided.
		if serveListen != "" {
			conf.Listen = serveListen
		}

		appLog.Info("hcal starting", "version", version)
		appLog.Info("effective config",
			"listen", conf.Listen,
			"timezone", conf.Timezone,
			"storage_driver", conf.Storage.Driver,
			"storage_key", conf.Storage.Key,
			"week_slots", conf.WeekSlots,
			"nats", conf.NATSURL != "",
			"backup_cron", conf.Backup.Cron,
		)

		// Root context with cancellation on SIGINT/SIGTERM.
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case sig := <-sigCh:
				appLog.Info("signal received, shutting down", "signal", sig.String())
				cancel()
			case <-ctx.Done():
			}
		}()

		if conf.Backup.Cron != "" {
			sched, err := backup.NewScheduler(conf.Backup.Cron, backup.NewRunner(app.store, conf.Backup.Path, app.loc))
			if err != nil {
				return err
			}
			sched.Start()
			appLog.Info("next backup", "at", sched.Next().Format(time.RFC3339))
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer stopCancel()
				sched.Stop(stopCtx)
			}()
		}

		srv := web.NewServer(conf, app.store, app.proj)
		err := srv.ListenAndServe(ctx)

		appLog.Info("hcal exiting")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hcal/internal/blob"
	"hcal/internal/config"
	"hcal/internal/events"
	"hcal/internal/grid"
	appLog "hcal/internal/log"
	"hcal/internal/store"
)

const version = "0.1.0"

var (
	configPath string
	jsonOutput bool

	app *appEnv
)

// appEnv holds everything a command needs once config is loaded.
type appEnv struct {
	cfg     *config.Config
	loc     *time.Location
	store   *store.Store
	proj    *grid.Projector
	closers []io.Closer
}

func (r *appEnv) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			appLog.Warn("close failed", "err", err.Error())
		}
	}
	appLog.Sync()
}

func defaultConfigPath() string {
	if p := os.Getenv("HCAL_CONFIG"); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/hcal/config.yaml"
	}
	return "./hcal.yaml"
}

var rootCmd = &cobra.Command{
	Use:           "hcal <command>",
	Short:         "Personal calendar: month, week and year grids over a local event store",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config %s: %w", configPath, err)
		}
		level, err := appLog.ParseLevel(cfg.Log.Level)
		if err != nil {
			appLog.Warn("invalid log level; using info", "level", cfg.Log.Level)
			level = appLog.LevelInfo
		}
		appLog.Configure(level, appLog.Format(cfg.Log.Format))

		r, err := openRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		app = r
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "events", Title: "Events:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	rootCmd.AddCommand(monthCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(yearCmd)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(rmCmd)

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
}

// openRuntime wires storage, notifications and the projector from cfg.
func openRuntime(ctx context.Context, cfg *config.Config) (*appEnv, error) {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", cfg.Timezone)
	}

	r := &appEnv{cfg: cfg, loc: loc}

	b, closer, err := openBlob(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		r.closers = append(r.closers, closer)
	}

	pub, err := openPublisher(cfg)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.closers = append(r.closers, pub)

	r.store = store.New(b, store.WithKey(cfg.Storage.Key), store.WithPublisher(pub))
	r.proj = grid.NewProjector(loc, cfg.WeekSlots)
	return r, nil
}

// openBlob selects the storage medium named by storage.driver.
func openBlob(ctx context.Context, cfg *config.Config) (blob.Store, io.Closer, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return blob.NewMemory(), nil, nil
	case config.DriverS3:
		s, err := blob.NewS3(ctx, blob.S3Options{
			Bucket:   cfg.Storage.S3.Bucket,
			Region:   cfg.Storage.S3.Region,
			Endpoint: cfg.Storage.S3.Endpoint,
			Prefix:   cfg.Storage.S3.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening s3 storage: %w", err)
		}
		return s, nil, nil
	case config.DriverPostgres:
		p, err := blob.NewPostgres(cfg.Storage.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres storage: %w", err)
		}
		return p, p, nil
	case config.DriverFile, "":
		return blob.NewFile(cfg.Storage.Dir), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// openPublisher returns a NATS publisher when nats_url is set.
func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return pub, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

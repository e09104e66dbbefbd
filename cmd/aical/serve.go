package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aical/internal/capture"
	"aical/internal/config"
	"aical/internal/format"
	"aical/internal/ics"
	"aical/internal/importer"
	appLog "aical/internal/log"
	"aical/internal/retry"
	"aical/internal/store"
	"aical/internal/subscribe"
	"aical/internal/view"
	"aical/internal/web"
)

type serveFlags struct {
	configPath string
	listen     string
	once       bool
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calendar web server and subscription refresher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "/etc/aical/config.yaml", "Path to config file")
	cmd.Flags().StringVar(&f.listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&f.once, "once", false, "Refresh subscriptions once, print the result and exit")
	return cmd
}

func runServe(parent context.Context, f serveFlags) error {
	conf, err := config.Load(f.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", f.configPath)
		return err
	}
	if f.listen != "" {
		conf.Listen = f.listen
	}
	appLog.Configure(os.Stderr, appLog.ParseLevel(conf.LogLevel), conf.LogPretty)
	appLog.Info("aical starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"clock", conf.Clock,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"backfill_days", conf.BackfillDays,
		"ics_count", len(conf.ICS),
		"import_model", conf.Import.Model,
		"capture", conf.Capture.Enabled,
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := store.New()
	refresher := subscribe.NewRefresher(
		ics.NewFetcher(ics.FetchOptions{
			CacheDir: conf.CacheDir,
			Retry:    retry.Policy{MaxRetries: conf.FetchRetries},
		}),
		events,
		subscribe.Options{
			Sources:         icsSources(conf),
			DisplayLocation: conf.Location(),
			BackfillDays:    conf.BackfillDays,
			HorizonDays:     conf.HorizonDays,
		},
	)

	if f.once {
		res, err := refresher.Refresh(ctx)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	}

	if len(conf.ICS) > 0 {
		if err := refresher.Start(ctx, conf.RefreshCron); err != nil {
			return err
		}
	}

	deps := web.Deps{
		Store:      events,
		Controller: view.NewController(events, format.ParseClock(conf.Clock), time.Now),
		Importer:   newImporter(conf, events),
		Refresher:  refresher,
	}
	if conf.Capture.Enabled {
		deps.Capturer = newCapturer(conf)
	}

	err = web.StartServer(ctx, conf, deps)
	appLog.Info("aical exiting")
	return err
}

func icsSources(conf *config.Config) []ics.Source {
	out := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		out = append(out, ics.Source{ID: c.ID, URL: c.URL})
	}
	return out
}

func newImporter(conf *config.Config, events *store.Store) *importer.Importer {
	parser := importer.NewOpenAIParser(importer.OpenAIConfig{
		Endpoint:    conf.Import.Endpoint,
		APIKey:      conf.Import.APIKey,
		Model:       conf.Import.Model,
		Temperature: conf.Import.Temperature,
		MaxTokens:   conf.Import.MaxTokens,
		MaxRetries:  conf.Import.MaxRetries,
	})
	return importer.New(parser, events, conf.ImportTimeout())
}

func newCapturer(conf *config.Config) capture.Capturer {
	opts := capture.CaptureOptions{
		OutputPath: conf.Capture.Output,
		Width:      conf.Capture.Width,
		Height:     conf.Capture.Height,
		Timeout:    time.Duration(conf.Capture.TimeoutSeconds) * time.Second,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	return capture.Capturer{Defaults: opts}
}

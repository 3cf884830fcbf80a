// Package main is the entry point for the feedwatchd daemon.
// feedwatchd keeps the per-scope event caches warm: it refreshes every
// configured scope on an interval, tops up short filter categories from
// history, and publishes cache-change notifications.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okholm/feedwatch/internal/client"
	"github.com/okholm/feedwatch/internal/config"
	"github.com/okholm/feedwatch/internal/engine"
	"github.com/okholm/feedwatch/internal/events"
	"github.com/okholm/feedwatch/internal/feed"
	"github.com/okholm/feedwatch/internal/filter"
	"github.com/okholm/feedwatch/internal/logging"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configFile := flag.String("config", "", "config file (default is $HOME/.config/feedwatch/config.yaml)")
	logLevel := flag.String("log-level", "", "override logging level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "override logging format (json, console)")
	flag.Parse()

	cfg, loader, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("feedwatchd")

	if cfgUsed := loader.ConfigFileUsed(); cfgUsed != "" {
		logger.Debug().Str("config_file", cfgUsed).Msg("loaded config file")
	}

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("built", date).
		Msg("feedwatchd starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := client.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	store := feed.NewStore(cfg.Sync.CacheCap, cfg.Sync.PageSize)
	notifier := events.NewNotifier()

	orch := engine.New(engine.Config{
		PageSize:        cfg.Sync.PageSize,
		RetryAttempts:   cfg.Sync.RetryAttempts,
		RetryBackoff:    cfg.Sync.RetryBackoff,
		RetryBackoffCap: cfg.Sync.RetryBackoffCap,
	}, fetcher, store, notifier)
	orch.SetAccount(cfg.Account.Name)
	orch.SetScopes(cfg.Scopes())

	sufficiency := filter.NewSufficiency(filter.SufficiencyConfig{
		MinVisible: cfg.Sync.MinVisible,
		RetryDelay: cfg.Sync.SufficiencyRetryDelay,
	}, store, filter.OlderLoaderFunc(orch.LoadOlderOnce), orch.Account)

	// Every cache change re-runs the sufficiency check for that scope, so
	// short categories keep topping up until history is exhausted.
	err = notifier.Subscribe("sufficiency", events.Filter{}, func(scopeID string) {
		go func() {
			_ = sufficiency.Ensure(ctx, scopeID)
		}()
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to subscribe sufficiency check")
		os.Exit(1)
	}

	if err := orch.RefreshAll(ctx, ""); err != nil && ctx.Err() == nil {
		logger.Warn().Err(err).Msg("initial refresh failed")
	}

	poller := engine.NewPoller(engine.PollerConfig{
		Interval: cfg.Sync.RefreshInterval,
	}, orch, nil)
	if err := poller.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to start refresh poller")
		os.Exit(1)
	}

	logger.Info().
		Int("scopes", len(orch.Scopes())).
		Dur("refresh_interval", cfg.Sync.RefreshInterval).
		Msg("feedwatchd ready")

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if err := poller.Stop(); err != nil {
		logger.Warn().Err(err).Msg("poller stop failed")
	}
	notifier.Close()
	logger.Info().Msg("feedwatchd stopped")
}

func loadConfig(path string) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	if path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

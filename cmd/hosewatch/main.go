package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gabapcia/hosewatch/internal/addresswatch"
	"github.com/gabapcia/hosewatch/internal/config"
	"github.com/gabapcia/hosewatch/internal/fleet"
	"github.com/gabapcia/hosewatch/internal/handlers/cli"
	"github.com/gabapcia/hosewatch/internal/infra/feed/websocket"
	"github.com/gabapcia/hosewatch/internal/infra/notify/discord"
	"github.com/gabapcia/hosewatch/internal/infra/pricing/coinmarketcap"
	"github.com/gabapcia/hosewatch/internal/infra/storage/memory"
	"github.com/gabapcia/hosewatch/internal/infra/storage/redis"
	"github.com/gabapcia/hosewatch/internal/pkg/logger"
	"github.com/gabapcia/hosewatch/internal/pkg/telemetry"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	env, err := config.LoadEnv(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading environment: %v\n", err)
		return 1
	}

	if env.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, telemetry.ServiceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error initializing telemetry: %v\n", err)
			return 1
		}
		defer shutdown(context.WithoutCancel(ctx))
	}

	log, err := logger.New(logger.WithLevel(env.LogLevel), logger.WithName(telemetry.ServiceName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	var closers []func() error
	defer func() {
		for _, closer := range closers {
			if err := closer(); err != nil {
				log.Warnw("error releasing resource", "error", err)
			}
		}
	}()

	newFleet := func(ctx context.Context) (fleet.Service, error) {
		if err := env.RequireCredentials(); err != nil {
			return nil, fmt.Errorf("error loading credentials: %w", err)
		}

		settings, err := config.LoadSettings(env.SettingsPath)
		if err != nil {
			return nil, err
		}

		var journal addresswatch.NotificationJournal
		if env.RedisAddr != "" {
			client, err := redis.NewClient(ctx, env.RedisAddr, env.RedisUsername, env.RedisPassword, env.RedisDB)
			if err != nil {
				return nil, fmt.Errorf("error connecting to redis: %w", err)
			}
			closers = append(closers, client.Close)
			journal = client
		}

		return fleet.New(buildWatchers(env, settings, journal, log), fleet.WithLogger(log)), nil
	}

	if err := cli.Run(ctx, env.SettingsPath, newFleet); err != nil {
		log.Errorw("hosewatch failed", "error", err)
		return 1
	}
	return 0
}

// buildWatchers wires one isolated watcher per configured network.
func buildWatchers(env config.Env, settings config.Settings, journal addresswatch.NotificationJournal, log *zap.SugaredLogger) []fleet.Watcher {
	storeOpts := []memory.Option{memory.WithTTL(settings.Tracker.TTL.Std())}
	if settings.Tracker.Capacity != nil {
		storeOpts = append(storeOpts, memory.WithCapacity(*settings.Tracker.Capacity))
	}

	watchers := make([]fleet.Watcher, 0, len(settings.Networks))
	for _, n := range settings.Networks {
		networkLog := log.With("network", n.Name)

		feed := websocket.New(websocket.Config{
			URL:           n.APIURL,
			Network:       n.Name,
			Address:       n.Address,
			PingInterval:  n.PingInterval.Duration(),
			RetryInterval: n.RetryInterval.Duration(),
		}, websocket.WithLogger(networkLog))

		opts := []addresswatch.Option{addresswatch.WithLogger(log)}
		if settings.Tracker.SightingsToSettle > 0 {
			opts = append(opts, addresswatch.WithSightingsToSettle(settings.Tracker.SightingsToSettle))
		}
		if journal != nil {
			opts = append(opts, addresswatch.WithJournal(journal))
		}

		watcher := addresswatch.New(
			addresswatch.Config{
				Network:          n.Name,
				Address:          n.Address,
				Symbol:           n.Symbol,
				BlockExplorerURL: n.BlockExplorerURL,
				IconURL:          n.NetworkIcon,
			},
			feed,
			memory.NewSightingStore(storeOpts...),
			coinmarketcap.NewClient(settings.PriceConversionAPI.URL, env.CoinMarketCapKey),
			discord.NewNotifier(env.DiscordWebhookURL, settings.WebhookTemplate),
			opts...,
		)

		watchers = append(watchers, fleet.Watcher{Network: n.Name, Service: watcher})
	}

	return watchers
}

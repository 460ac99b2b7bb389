package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/glossabot/glossa/internal/bot"
	"github.com/glossabot/glossa/internal/cli"
	"github.com/glossabot/glossa/internal/config"
	"github.com/glossabot/glossa/internal/discord"
	"github.com/glossabot/glossa/internal/logging"
	"github.com/glossabot/glossa/internal/store"
	"github.com/glossabot/glossa/internal/web"
)

func runBot(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if strings.TrimSpace(cfg.DiscordToken) == "" {
		fmt.Fprintln(os.Stderr, "DISCORD_TOKEN is required to run the bot")
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.LanguagesFile).Msg("language registry failed to load")
		fmt.Fprintf(os.Stderr, "Failed to load languages: %v\n", err)
		return 1
	}

	chain, azure := newChain(cfg, registry, logger)
	if chain.Len() == 0 {
		logger.Warn().Msg("no translation provider configured, every translation will fail")
	}
	detector := newDetector(azure, logger)

	var snapshotter store.Snapshotter
	if cfg.DatabaseURL != "" {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, pgErr := store.NewPostgresSnapshotter(dbCtx, cfg.DatabaseURL)
		dbCancel()
		if pgErr != nil {
			logger.Error().Err(pgErr).Msg("failed to connect to database")
			fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", pgErr)
			return 1
		}
		defer pg.Close()
		snapshotter = pg
		logger.Info().Msg("settings persisted to postgres")
	} else {
		snapshotter = store.NewFileSnapshotter(cfg.SnapshotFile)
		logger.Info().Str("path", cfg.SnapshotFile).Msg("settings persisted to file")
	}

	settings := store.New(snapshotter, logger)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := settings.Load(loadCtx); err != nil {
		logger.Warn().Err(err).Msg("could not load saved settings, starting fresh")
	}
	loadCancel()

	stats := bot.NewStats()
	pending := bot.NewPendingReplies(0, 0)
	resolver := bot.NewResolver(registry, settings)

	client, err := discord.NewClient(discord.ClientConfig{
		Token:  cfg.DiscordToken,
		Logger: logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to build gateway client")
		fmt.Fprintf(os.Stderr, "Failed to build gateway client: %v\n", err)
		return 1
	}

	dispatcher := bot.NewDispatcher(bot.DispatcherConfig{
		Gateway:  client.Gateway(),
		Chain:    chain,
		Detector: detector,
		Registry: registry,
		Resolver: resolver,
		Settings: settings,
		Stats:    stats,
		Pending:  pending,
		Logger:   logger,
		Options: bot.Options{
			TranslateTimeout: cfg.TranslateTimeout,
			FieldLimit:       cfg.FieldLimit,
			DedupRelease:     cfg.DedupRelease,
		},
	})
	client.SetDispatcher(dispatcher)
	client.SetCommands(discord.NewCommands(discord.CommandsConfig{
		Session:  client.Session(),
		Registry: registry,
		Chain:    chain,
		Settings: settings,
		Stats:    stats,
		Logger:   logger,
		Prefix:   cfg.CommandPrefix,
		Timeout:  cfg.TranslateTimeout,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		settings.RunAutosave(ctx, cfg.SnapshotInterval)
	}()

	statusSrv := web.NewServer(logger, stats, pending, chain, registry, web.Options{
		Host: cfg.StatusHost,
		Port: cfg.StatusPort,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := statusSrv.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("status server failed")
		}
	}()

	if err := client.Open(ctx); err != nil {
		logger.Error().Err(err).Msg("gateway connection failed")
		fmt.Fprintf(os.Stderr, "Gateway connection failed: %v\n", err)
		cancel()
		wg.Wait()
		return 1
	}
	logger.Info().
		Strs("providers", chain.Names()).
		Int("languages", len(registry.Codes())).
		Msg("glossa is running")

	<-ctx.Done()

	if err := client.Close(); err != nil {
		logger.Warn().Err(err).Msg("gateway close failed")
	}
	wg.Wait()
	logger.Info().Msg("glossa stopped")
	return 0
}

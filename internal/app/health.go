package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glossabot/glossa/internal/cli"
	"github.com/glossabot/glossa/internal/config"
	"github.com/glossabot/glossa/internal/store"
)

// runHealth checks the configuration a running bot would use: token
// presence, provider credentials, the language registry, and reachability of
// the settings store.
func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
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

	failed := false
	check := func(name string, ok bool, detail string) {
		state := "ok"
		if !ok {
			state = "FAIL"
			failed = true
		}
		if detail != "" {
			fmt.Printf("%-12s %-4s %s\n", name, state, detail)
		} else {
			fmt.Printf("%-12s %s\n", name, state)
		}
	}

	check("token", strings.TrimSpace(cfg.DiscordToken) != "", "")

	switch {
	case cfg.DeepLEnabled() && cfg.AzureEnabled():
		check("providers", true, "deepl + azure fallback")
	case cfg.DeepLEnabled():
		check("providers", true, "deepl only, offline detection")
	case cfg.AzureEnabled():
		check("providers", true, "azure only")
	default:
		check("providers", false, "no provider credentials configured")
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		check("languages", false, err.Error())
	} else {
		check("languages", true, fmt.Sprintf("%d languages", len(registry.Codes())))
	}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, pgErr := store.NewPostgresSnapshotter(ctx, cfg.DatabaseURL)
		if pgErr != nil {
			check("storage", false, pgErr.Error())
		} else {
			defer pg.Close()
			if pingErr := pg.Ping(ctx); pingErr != nil {
				check("storage", false, pingErr.Error())
			} else {
				check("storage", true, "postgres reachable")
			}
		}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, loadErr := store.NewFileSnapshotter(cfg.SnapshotFile).Load(ctx)
		if loadErr != nil {
			check("storage", false, loadErr.Error())
		} else {
			check("storage", true, "file snapshot "+cfg.SnapshotFile)
		}
	}

	if failed {
		return 1
	}
	return 0
}

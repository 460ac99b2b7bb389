package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/glossabot/glossa/internal/cli"
	"github.com/glossabot/glossa/internal/config"
	"github.com/glossabot/glossa/internal/lang"
	"github.com/glossabot/glossa/internal/logging"
	"github.com/glossabot/glossa/internal/translator"
)

// runTranslate performs a single translation from the command line, through
// the same provider chain the bot uses.
func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	to := fs.String("to", "", "Target language code (required)")
	from := fs.String("from", "", "Source language code (optional, detected otherwise)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *to == "" || text == "" {
		fmt.Fprintln(os.Stderr, "Usage: glossa translate --to <lang> [--from <lang>] <text>")
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

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load languages: %v\n", err)
		return 1
	}

	target, ok := registry.Lookup(lang.NormalizeTag(*to))
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown language %q; run \"glossa languages\" for the list\n", *to)
		return 2
	}
	source := ""
	if *from != "" {
		sourceLang, ok := registry.Lookup(lang.NormalizeTag(*from))
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown language %q; run \"glossa languages\" for the list\n", *from)
			return 2
		}
		source = sourceLang.Code
	}

	chain, _ := newChain(cfg, registry, logger)
	if chain.Len() == 0 {
		fmt.Fprintln(os.Stderr, "No translation provider configured; set DEEPL_KEY or AZURE_KEY")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TranslateTimeout)
	defer cancel()

	result, err := chain.Translate(ctx, translator.Request{
		Text:       text,
		SourceLang: source,
		TargetLang: target.Code,
	})
	if err != nil {
		if errors.Is(err, translator.ErrUnsupportedLanguage) {
			fmt.Fprintf(os.Stderr, "No provider supports %q\n", target.Code)
			return 2
		}
		fmt.Fprintf(os.Stderr, "Translation failed: %v\n", err)
		return 1
	}

	fmt.Println(result.Text)
	fmt.Fprintf(os.Stderr, "provider=%s latency=%dms cached=%v\n", result.ProviderName, result.LatencyMs, result.Cached)
	return 0
}

package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/glossabot/glossa/internal/cli"
	"github.com/glossabot/glossa/internal/config"
)

func runLanguages(args []string) int {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
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

	registry, err := newRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load languages: %v\n", err)
		return 1
	}

	fmt.Printf("%-8s %-4s %-16s %-8s %s\n", "CODE", "FLAG", "NAME", "DEEPL", "AZURE")
	for _, language := range registry.Languages() {
		fmt.Printf("%-8s %-4s %-16s %-8s %s\n",
			language.Code, language.Flag, language.Name, language.DeepLCode, language.AzureCode)
	}
	return 0
}

package app

import (
	"github.com/rs/zerolog"

	"github.com/glossabot/glossa/internal/config"
	"github.com/glossabot/glossa/internal/lang"
	"github.com/glossabot/glossa/internal/langdetect"
	"github.com/glossabot/glossa/internal/translator"
)

// newRegistry builds the language registry, from LANGUAGES_FILE when set and
// from the built-in table otherwise.
func newRegistry(cfg *config.Config) (*lang.Registry, error) {
	if cfg.LanguagesFile != "" {
		return lang.LoadRegistryFile(cfg.LanguagesFile)
	}
	return lang.NewRegistry(), nil
}

// newChain assembles the configured providers in fallback order: DeepL
// first, Azure second. Either may be absent.
func newChain(cfg *config.Config, registry *lang.Registry, logger zerolog.Logger) (*translator.Chain, *translator.Azure) {
	opts := translator.Options{
		Timeout:        cfg.TranslateTimeout,
		MaxInFlight:    cfg.MaxInFlight,
		CacheCapacity:  cfg.CacheCapacity,
		CacheKeyPrefix: cfg.CacheKeyPrefix,
	}

	var providers []translator.Provider
	if cfg.DeepLEnabled() {
		deeplOpts := opts
		deeplOpts.Endpoint = cfg.DeepLEndpoint
		providers = append(providers, translator.NewDeepL(cfg.DeepLKey, registry, deeplOpts))
	}

	var azure *translator.Azure
	if cfg.AzureEnabled() {
		azureOpts := opts
		azureOpts.Endpoint = cfg.AzureEndpoint
		azure = translator.NewAzure(cfg.AzureKey, cfg.AzureRegion, registry, azureOpts)
		providers = append(providers, azure)
	}

	chain := translator.NewChain(logger, providers...)
	return chain, azure
}

// newDetector prefers the Azure detector when that provider is configured
// and falls back to the offline model otherwise.
func newDetector(azure *translator.Azure, logger zerolog.Logger) translator.Detector {
	if azure != nil {
		return azure
	}
	logger.Info().Msg("azure not configured, using offline language detection")
	return langdetect.New()
}

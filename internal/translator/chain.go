package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Chain tries providers in a fixed preference order: the first provider
// that produces a result wins, and a provider's failure only moves the
// request along. Provider order is set at construction and never changes.
type Chain struct {
	providers []Provider
	logger    zerolog.Logger
}

// NewChain builds a chain trying providers in the given order.
func NewChain(logger zerolog.Logger, providers ...Provider) *Chain {
	kept := make([]Provider, 0, len(providers))
	for _, provider := range providers {
		if provider != nil {
			kept = append(kept, provider)
		}
	}
	return &Chain{providers: kept, logger: logger}
}

// Translate runs the request through the chain. ErrUnsupportedLanguage
// short-circuits: the registry is shared, so no later provider can accept a
// code the first one rejected.
func (c *Chain) Translate(ctx context.Context, req Request) (*Result, error) {
	if c == nil || len(c.providers) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	for _, provider := range c.providers {
		result, err := provider.Translate(ctx, req)
		if err == nil && result != nil {
			return result, nil
		}
		if errors.Is(err, ErrUnsupportedLanguage) {
			return nil, err
		}
		lastErr = err
		c.logger.Debug().
			Err(err).
			Str("provider", provider.Name()).
			Str("target_lang", req.TargetLang).
			Msg("provider yielded no result, trying next")
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// Names returns the provider names in preference order.
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.providers))
	for _, provider := range c.providers {
		names = append(names, provider.Name())
	}
	return names
}

// Len reports the number of configured providers.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.providers)
}

// CacheSizes reports per-provider cache entry counts for providers that
// expose one.
func (c *Chain) CacheSizes() map[string]int {
	if c == nil {
		return nil
	}
	sizes := make(map[string]int, len(c.providers))
	for _, provider := range c.providers {
		if counter, ok := provider.(interface{ CacheLen() int }); ok {
			sizes[provider.Name()] = counter.CacheLen()
		}
	}
	return sizes
}

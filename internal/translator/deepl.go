package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"

	"github.com/glossabot/glossa/internal/lang"
)

// DefaultDeepLEndpoint is the free-tier DeepL translate endpoint.
const DefaultDeepLEndpoint = "https://api-free.deepl.com/v2/translate"

// DeepL is the primary translation provider. It sends form-encoded requests
// with the API key in the body, the contract DeepL's v2 API uses.
type DeepL struct {
	apiKey   string
	endpoint string
	registry *lang.Registry
	client   *http.Client
	cache    *Cache
	inFlight *semaphore.Weighted
	breaker  *gobreaker.CircuitBreaker
}

// NewDeepL builds a DeepL adapter. The adapter owns its response cache and
// concurrency limiter; neither is shared with other providers.
func NewDeepL(apiKey string, registry *lang.Registry, opts Options) *DeepL {
	opts = opts.withDefaults()
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultDeepLEndpoint
	}
	return &DeepL{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: endpoint,
		registry: registry,
		client:   &http.Client{Timeout: opts.Timeout},
		cache:    NewCache(opts.CacheCapacity, opts.CacheKeyPrefix),
		inFlight: semaphore.NewWeighted(opts.MaxInFlight),
		breaker:  newProviderBreaker("deepl"),
	}
}

func (p *DeepL) Name() string {
	return "deepl"
}

// CacheLen reports the adapter's cache size, for stats reporting.
func (p *DeepL) CacheLen() int {
	if p == nil {
		return 0
	}
	return p.cache.Len()
}

func (p *DeepL) Translate(ctx context.Context, req Request) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("deepl provider is nil")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	target, ok := p.registry.Lookup(req.TargetLang)
	if !ok {
		return nil, fmt.Errorf("target %q: %w", req.TargetLang, ErrUnsupportedLanguage)
	}
	sourceLang := lang.NormalizeCode(req.SourceLang)

	key := p.cache.Key(text, target.Code, sourceLang)
	if cached, hit := p.cache.Get(key); hit {
		return &Result{
			Text:         cached,
			SourceLang:   sourceLang,
			TargetLang:   target.Code,
			ProviderName: p.Name(),
			Cached:       true,
		}, nil
	}

	if err := p.inFlight.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire deepl slot: %w", err)
	}
	defer p.inFlight.Release(1)

	started := time.Now()
	out, err := p.breaker.Execute(func() (any, error) {
		return p.call(ctx, text, target, sourceLang)
	})
	if err != nil {
		return nil, fmt.Errorf("deepl translate %s->%s: %w", sourceLang, target.Code, err)
	}

	translated := out.(string)
	p.cache.Put(key, translated)

	return &Result{
		Text:         translated,
		SourceLang:   sourceLang,
		TargetLang:   target.Code,
		ProviderName: p.Name(),
		LatencyMs:    time.Since(started).Milliseconds(),
	}, nil
}

func (p *DeepL) call(ctx context.Context, text string, target lang.Language, sourceLang string) (string, error) {
	form := url.Values{}
	form.Set("auth_key", p.apiKey)
	form.Set("text", text)
	form.Set("target_lang", target.DeepLCode)
	if source, ok := p.registry.Lookup(sourceLang); ok && source.DeepLCode != "" {
		// DeepL source codes never carry a regional variant.
		form.Set("source_lang", strings.SplitN(source.DeepLCode, "-", 2)[0])
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed deeplResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Translations) == 0 {
		return "", fmt.Errorf("response missing translations")
	}

	translated := strings.TrimSpace(parsed.Translations[0].Text)
	if translated == "" {
		return "", fmt.Errorf("response was empty")
	}
	return translated, nil
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// newProviderBreaker builds the circuit breaker every adapter wraps around
// its outbound call. An open breaker fails calls immediately, which the
// pipeline treats like any other soft provider failure.
func newProviderBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

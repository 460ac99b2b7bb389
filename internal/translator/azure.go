package translator

import (
	"bytes"
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

// DefaultAzureEndpoint is the global Azure Translator endpoint.
const DefaultAzureEndpoint = "https://api.cognitive.microsofttranslator.com"

const azureAPIVersion = "3.0"

// Azure is the fallback translation provider and the only one that can
// detect languages. Requests carry the key and region in headers with JSON
// bodies, per the Translator v3 contract.
type Azure struct {
	apiKey   string
	region   string
	endpoint string
	registry *lang.Registry
	client   *http.Client
	cache    *Cache
	inFlight *semaphore.Weighted
	breaker  *gobreaker.CircuitBreaker
}

// NewAzure builds an Azure Translator adapter.
func NewAzure(apiKey, region string, registry *lang.Registry, opts Options) *Azure {
	opts = opts.withDefaults()
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultAzureEndpoint
	}
	return &Azure{
		apiKey:   strings.TrimSpace(apiKey),
		region:   strings.TrimSpace(region),
		endpoint: endpoint,
		registry: registry,
		client:   &http.Client{Timeout: opts.Timeout},
		cache:    NewCache(opts.CacheCapacity, opts.CacheKeyPrefix),
		inFlight: semaphore.NewWeighted(opts.MaxInFlight),
		breaker:  newProviderBreaker("azure"),
	}
}

func (p *Azure) Name() string {
	return "azure"
}

// CacheLen reports the adapter's cache size, for stats reporting.
func (p *Azure) CacheLen() int {
	if p == nil {
		return 0
	}
	return p.cache.Len()
}

func (p *Azure) Translate(ctx context.Context, req Request) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("azure provider is nil")
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
		return nil, fmt.Errorf("acquire azure slot: %w", err)
	}
	defer p.inFlight.Release(1)

	query := url.Values{}
	query.Set("api-version", azureAPIVersion)
	query.Set("to", target.AzureCode)
	if source, ok := p.registry.Lookup(sourceLang); ok && source.AzureCode != "" {
		query.Set("from", source.AzureCode)
	}

	started := time.Now()
	out, err := p.breaker.Execute(func() (any, error) {
		body, callErr := p.call(ctx, p.endpoint+"/translate?"+query.Encode(), text)
		if callErr != nil {
			return nil, callErr
		}
		return parseAzureTranslation(body)
	})
	if err != nil {
		return nil, fmt.Errorf("azure translate %s->%s: %w", sourceLang, target.Code, err)
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

// Detect identifies the language of text. The provider's locale code is
// mapped back to a registry code by exact match on the registry's Azure
// codes; unmatched codes pass through unchanged.
func (p *Azure) Detect(ctx context.Context, text string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("azure provider is nil")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	key := p.cache.Key(text, "detect")
	if cached, hit := p.cache.Get(key); hit {
		return cached, nil
	}

	if err := p.inFlight.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire azure slot: %w", err)
	}
	defer p.inFlight.Release(1)

	out, err := p.breaker.Execute(func() (any, error) {
		body, callErr := p.call(ctx, p.endpoint+"/detect?api-version="+azureAPIVersion, text)
		if callErr != nil {
			return nil, callErr
		}
		return parseAzureDetection(body)
	})
	if err != nil {
		return "", fmt.Errorf("azure detect: %w", err)
	}

	detected := out.(string)
	if code, ok := p.registry.ByAzureCode(detected); ok {
		detected = code
	}
	p.cache.Put(key, detected)
	return detected, nil
}

func (p *Azure) call(ctx context.Context, endpoint, text string) ([]byte, error) {
	payload, err := json.Marshal([]azureTextItem{{Text: text}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)
	if p.region != "" {
		httpReq.Header.Set("Ocp-Apim-Subscription-Region", p.region)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

type azureTextItem struct {
	Text string `json:"Text"`
}

func parseAzureTranslation(body []byte) (string, error) {
	var parsed []struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed) == 0 || len(parsed[0].Translations) == 0 {
		return "", fmt.Errorf("response missing translations")
	}
	translated := strings.TrimSpace(parsed[0].Translations[0].Text)
	if translated == "" {
		return "", fmt.Errorf("response was empty")
	}
	return translated, nil
}

func parseAzureDetection(body []byte) (string, error) {
	var parsed []struct {
		Language string `json:"language"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed) == 0 || strings.TrimSpace(parsed[0].Language) == "" {
		return "", fmt.Errorf("response missing language")
	}
	return strings.TrimSpace(parsed[0].Language), nil
}

package translator

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnsupportedLanguage reports a target language that is not in the
	// registry. Manual commands surface it to the caller; the automatic
	// pipeline never requests unregistered languages.
	ErrUnsupportedLanguage = errors.New("language is not registered")
	// ErrNoProvider reports an empty provider chain.
	ErrNoProvider = errors.New("no translation provider is configured")
)

// Provider translates free-form text between languages. Transport errors,
// non-2xx statuses, and timeouts come back as plain errors; callers on the
// automatic path treat any error as a soft no-result.
type Provider interface {
	Translate(ctx context.Context, req Request) (*Result, error)
	Name() string
}

// Detector identifies the language of a text sample. An empty code with a
// nil error means the sample was undetectable, which is a normal outcome.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Request describes one translation request.
type Request struct {
	Text       string
	SourceLang string // registry code, may be empty
	TargetLang string // registry code
}

// Result contains translated text and provider metadata.
type Result struct {
	Text         string
	SourceLang   string
	TargetLang   string
	ProviderName string
	LatencyMs    int64
	Cached       bool
}

// Options tunes the shared adapter machinery. Zero values fall back to the
// reference defaults.
type Options struct {
	Endpoint       string
	Timeout        time.Duration
	MaxInFlight    int64
	CacheCapacity  int
	CacheKeyPrefix int
}

const (
	defaultTimeout        = 10 * time.Second
	defaultMaxInFlight    = 10
	defaultCacheCapacity  = 5000
	defaultCacheKeyPrefix = 50
)

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = defaultMaxInFlight
	}
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = defaultCacheCapacity
	}
	if o.CacheKeyPrefix <= 0 {
		o.CacheKeyPrefix = defaultCacheKeyPrefix
	}
	return o
}

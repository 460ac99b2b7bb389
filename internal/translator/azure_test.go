package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glossabot/glossa/internal/lang"
)

func newAzureTestServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "azkey" {
			t.Errorf("subscription key = %q", got)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Region"); got != "westeurope" {
			t.Errorf("region = %q", got)
		}
		if got := r.URL.Query().Get("api-version"); got != "3.0" {
			t.Errorf("api-version = %q", got)
		}

		var body []struct {
			Text string `json:"Text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) == 0 {
			t.Errorf("decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/detect"):
			_, _ = w.Write([]byte(`[{"language":"zh-Hans","score":0.98}]`))
		case strings.HasPrefix(r.URL.Path, "/translate"):
			_, _ = w.Write([]byte(`[{"translations":[{"text":"Hallo zusammen","to":"de"}]}]`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestAzureTranslate(t *testing.T) {
	t.Parallel()

	server := newAzureTestServer(t, nil)
	defer server.Close()

	provider := NewAzure("azkey", "westeurope", lang.NewRegistry(), Options{Endpoint: server.URL})
	result, err := provider.Translate(context.Background(), Request{
		Text:       "Hello everyone",
		SourceLang: "en",
		TargetLang: "de",
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Text != "Hallo zusammen" || result.ProviderName != "azure" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAzureDetectMapsRegistryCode(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := newAzureTestServer(t, &calls)
	defer server.Close()

	provider := NewAzure("azkey", "westeurope", lang.NewRegistry(), Options{Endpoint: server.URL})

	// zh-Hans is the Azure locale for the registered zh entry.
	code, err := provider.Detect(context.Background(), "你好，今天过得怎么样？")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if code != "zh" {
		t.Fatalf("Detect = %q, want zh", code)
	}

	// Detection results are cached by text prefix.
	if _, err := provider.Detect(context.Background(), "你好，今天过得怎么样？"); err != nil {
		t.Fatalf("cached Detect: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("outbound calls = %d, want 1", got)
	}
}

func TestAzureDetectPassesUnknownCodeThrough(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"language":"haw","score":0.71}]`))
	}))
	defer server.Close()

	provider := NewAzure("azkey", "westeurope", lang.NewRegistry(), Options{Endpoint: server.URL})
	code, err := provider.Detect(context.Background(), "aloha kakahiaka")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if code != "haw" {
		t.Fatalf("Detect = %q, want raw provider code haw", code)
	}
}

func TestAzureTranslateNon2xxIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewAzure("azkey", "westeurope", lang.NewRegistry(), Options{Endpoint: server.URL})
	if _, err := provider.Translate(context.Background(), Request{Text: "hello", TargetLang: "de"}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

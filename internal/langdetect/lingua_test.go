package langdetect

import (
	"context"
	"testing"
)

func TestDetectRejectsShortSamples(t *testing.T) {
	t.Parallel()

	detector := New()
	for _, sample := range []string{"", "   ", "ok", "👍👍👍", "a b c"} {
		code, err := detector.Detect(context.Background(), sample)
		if err != nil {
			t.Fatalf("Detect(%q): %v", sample, err)
		}
		if code != "" {
			t.Fatalf("Detect(%q) = %q, want empty", sample, code)
		}
	}
}

func TestDetectCommonLanguages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping model-backed detection in short mode")
	}
	t.Parallel()

	detector := New()
	cases := map[string]string{
		"Good morning everyone, how are you doing today?": "en",
		"Guten Morgen zusammen, wie geht es euch heute?":  "de",
	}
	for sample, want := range cases {
		code, err := detector.Detect(context.Background(), sample)
		if err != nil {
			t.Fatalf("Detect(%q): %v", sample, err)
		}
		if code != want {
			t.Fatalf("Detect(%q) = %q, want %q", sample, code, want)
		}
	}
}

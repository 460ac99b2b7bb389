// Package langdetect provides an offline language detector used when no
// detection-capable provider is configured.
package langdetect

import (
	"context"
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLetters guards against one-word messages and emoji spam, which the
// statistical models classify with near-random confidence.
const minLetters = 6

// Lingua detects the language of text with lingua-go. The models are large,
// so they are built once, lazily, and shared by every instance.
type Lingua struct{}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func New() *Lingua {
	return &Lingua{}
}

// Detect returns the ISO 639-1 code for text, or an empty code when the
// sample is too short or ambiguous. It never returns an error; failed
// detection is a normal outcome.
func (l *Lingua) Detect(_ context.Context, text string) (string, error) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return "", nil
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return "", nil
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return "", nil
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return "", nil
	}
	return code, nil
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}

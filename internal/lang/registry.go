package lang

import (
	"fmt"
	"sort"
	"strings"
)

// Language describes one registered language: its ISO 639-1 code, the
// human-readable name used for role matching, the flag glyph used for
// reaction affordances, and the locale codes each provider expects.
type Language struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Flag      string `json:"flag"`
	DeepLCode string `json:"deepl_code"`
	AzureCode string `json:"azure_code"`
}

// builtinLanguages mirrors the language set the bot has always shipped with.
var builtinLanguages = []Language{
	{Code: "en", Name: "English", Flag: "\U0001F1EC\U0001F1E7", DeepLCode: "EN", AzureCode: "en"},
	{Code: "es", Name: "Spanish", Flag: "\U0001F1EA\U0001F1F8", DeepLCode: "ES", AzureCode: "es"},
	{Code: "fr", Name: "French", Flag: "\U0001F1EB\U0001F1F7", DeepLCode: "FR", AzureCode: "fr"},
	{Code: "de", Name: "German", Flag: "\U0001F1E9\U0001F1EA", DeepLCode: "DE", AzureCode: "de"},
	{Code: "it", Name: "Italian", Flag: "\U0001F1EE\U0001F1F9", DeepLCode: "IT", AzureCode: "it"},
	{Code: "pt", Name: "Portuguese", Flag: "\U0001F1F5\U0001F1F9", DeepLCode: "PT-PT", AzureCode: "pt"},
	{Code: "ru", Name: "Russian", Flag: "\U0001F1F7\U0001F1FA", DeepLCode: "RU", AzureCode: "ru"},
	{Code: "ar", Name: "Arabic", Flag: "\U0001F1F8\U0001F1E6", DeepLCode: "AR", AzureCode: "ar"},
	{Code: "ja", Name: "Japanese", Flag: "\U0001F1EF\U0001F1F5", DeepLCode: "JA", AzureCode: "ja"},
	{Code: "zh", Name: "Chinese", Flag: "\U0001F1E8\U0001F1F3", DeepLCode: "ZH", AzureCode: "zh-Hans"},
	{Code: "nl", Name: "Dutch", Flag: "\U0001F1F3\U0001F1F1", DeepLCode: "NL", AzureCode: "nl"},
	{Code: "uk", Name: "Ukrainian", Flag: "\U0001F1FA\U0001F1E6", DeepLCode: "UK", AzureCode: "uk"},
	{Code: "pl", Name: "Polish", Flag: "\U0001F1F5\U0001F1F1", DeepLCode: "PL", AzureCode: "pl"},
	{Code: "tr", Name: "Turkish", Flag: "\U0001F1F9\U0001F1F7", DeepLCode: "TR", AzureCode: "tr"},
}

// Registry is the read-only language table. It is fully populated at
// construction and safe for concurrent use afterwards.
type Registry struct {
	byCode  map[string]Language
	byFlag  map[string]string
	byAzure map[string]string
	byRole  map[string]string
	codes   []string
}

// NewRegistry builds a registry from the built-in language table.
func NewRegistry() *Registry {
	registry, err := newRegistry(builtinLanguages)
	if err != nil {
		// The built-in table is validated by tests; a bad entry is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return registry
}

// NewRegistryFromLanguages builds a registry from an explicit language list,
// for example one loaded from a languages file.
func NewRegistryFromLanguages(languages []Language) (*Registry, error) {
	return newRegistry(languages)
}

func newRegistry(languages []Language) (*Registry, error) {
	if len(languages) == 0 {
		return nil, fmt.Errorf("language table is empty")
	}

	r := &Registry{
		byCode:  make(map[string]Language, len(languages)),
		byFlag:  make(map[string]string, len(languages)),
		byAzure: make(map[string]string, len(languages)),
		byRole:  make(map[string]string, 2*len(languages)),
		codes:   make([]string, 0, len(languages)),
	}

	for _, language := range languages {
		code := NormalizeCode(language.Code)
		if code == "" {
			return nil, fmt.Errorf("language code %q is invalid", language.Code)
		}
		if _, exists := r.byCode[code]; exists {
			return nil, fmt.Errorf("language code %q is registered twice", code)
		}
		if strings.TrimSpace(language.Name) == "" {
			return nil, fmt.Errorf("language %q has no display name", code)
		}
		language.Code = code

		r.byCode[code] = language
		r.codes = append(r.codes, code)
		if flag := strings.TrimSpace(language.Flag); flag != "" {
			r.byFlag[flag] = code
		}
		if azure := NormalizeTag(language.AzureCode); azure != "" {
			r.byAzure[azure] = code
		}
		r.byRole[strings.ToLower(strings.TrimSpace(language.Name))] = code
		r.byRole[code] = code
	}

	sort.Strings(r.codes)
	return r, nil
}

// Lookup resolves a language by its registry code.
func (r *Registry) Lookup(code string) (Language, bool) {
	if r == nil {
		return Language{}, false
	}
	language, ok := r.byCode[NormalizeCode(code)]
	return language, ok
}

// Codes returns all registered codes in sorted order.
func (r *Registry) Codes() []string {
	if r == nil {
		return nil
	}
	codes := make([]string, len(r.codes))
	copy(codes, r.codes)
	return codes
}

// Languages returns all registered languages ordered by code.
func (r *Registry) Languages() []Language {
	if r == nil {
		return nil
	}
	languages := make([]Language, 0, len(r.codes))
	for _, code := range r.codes {
		languages = append(languages, r.byCode[code])
	}
	return languages
}

// ByFlag resolves the language code for a flag glyph. Unknown glyphs return
// false so reaction handlers can ignore them.
func (r *Registry) ByFlag(glyph string) (string, bool) {
	if r == nil {
		return "", false
	}
	code, ok := r.byFlag[strings.TrimSpace(glyph)]
	return code, ok
}

// MatchRole resolves a role name to a language code. A role matches when it
// case-insensitively equals a registered code or display name.
func (r *Registry) MatchRole(roleName string) (string, bool) {
	if r == nil {
		return "", false
	}
	code, ok := r.byRole[strings.ToLower(strings.TrimSpace(roleName))]
	return code, ok
}

// ByAzureCode maps a locale code returned by the Azure detect endpoint back
// to a registry code. Unmatched codes return false; callers pass the raw
// provider code through in that case.
func (r *Registry) ByAzureCode(azureCode string) (string, bool) {
	if r == nil {
		return "", false
	}
	code, ok := r.byAzure[NormalizeTag(azureCode)]
	return code, ok
}

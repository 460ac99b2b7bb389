package discord

import (
	"strings"
	"testing"

	"github.com/glossabot/glossa/internal/bot"
	"github.com/glossabot/glossa/internal/lang"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		content string
		name    string
		args    []string
		rest    string
		ok      bool
	}{
		{"!translate es hello there", "translate", []string{"es", "hello", "there"}, "es hello there", true},
		{"!TR fr bonjour", "tr", []string{"fr", "bonjour"}, "fr bonjour", true},
		{"!languages", "languages", nil, "", true},
		{"!  ", "", nil, "", false},
		{"plain message", "", nil, "", false},
		{"?translate es hi", "", nil, "", false},
	}

	for _, tc := range cases {
		cmd, ok := parseCommand(tc.content, "!")
		if ok != tc.ok {
			t.Fatalf("parseCommand(%q) ok = %v, want %v", tc.content, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if cmd.Name != tc.name {
			t.Errorf("parseCommand(%q) name = %q, want %q", tc.content, cmd.Name, tc.name)
		}
		if len(cmd.Args) != len(tc.args) {
			t.Fatalf("parseCommand(%q) args = %v, want %v", tc.content, cmd.Args, tc.args)
		}
		for i := range tc.args {
			if cmd.Args[i] != tc.args[i] {
				t.Errorf("parseCommand(%q) args[%d] = %q, want %q", tc.content, i, cmd.Args[i], tc.args[i])
			}
		}
		if cmd.Rest != tc.rest {
			t.Errorf("parseCommand(%q) rest = %q, want %q", tc.content, cmd.Rest, tc.rest)
		}
	}
}

func TestParseConfigArgs(t *testing.T) {
	t.Parallel()

	key, enabled, usage := parseConfigArgs([]string{"auto", "off"})
	if usage != "" || key != "auto" || enabled {
		t.Fatalf("parseConfigArgs(auto off) = %q, %v, %q", key, enabled, usage)
	}

	key, enabled, usage = parseConfigArgs([]string{"REACTIONS", "ON"})
	if usage != "" || key != "reactions" || !enabled {
		t.Fatalf("parseConfigArgs(REACTIONS ON) = %q, %v, %q", key, enabled, usage)
	}

	for _, args := range [][]string{
		{"auto"},
		{"auto", "maybe"},
		{"volume", "on"},
		nil,
	} {
		if _, _, usage := parseConfigArgs(args); usage == "" {
			t.Errorf("parseConfigArgs(%v) accepted invalid input", args)
		}
	}
}

func TestFormatLanguagesListsEverything(t *testing.T) {
	t.Parallel()

	registry := lang.NewRegistry()
	out := formatLanguages(registry)
	for _, language := range registry.Languages() {
		if !strings.Contains(out, "`"+language.Code+"`") {
			t.Errorf("language list missing code %s", language.Code)
		}
		if !strings.Contains(out, language.Name) {
			t.Errorf("language list missing name %s", language.Name)
		}
	}
}

func TestFormatStats(t *testing.T) {
	t.Parallel()

	registry := lang.NewRegistry()
	stats := bot.NewStats()

	if got := formatStats(stats, registry); got != "No translations yet." {
		t.Fatalf("empty stats = %q", got)
	}

	stats.Inc("es")
	stats.Inc("es")
	stats.Inc("fr")

	out := formatStats(stats, registry)
	if !strings.Contains(out, "**3** translations") {
		t.Errorf("stats missing total: %q", out)
	}
	if !strings.Contains(out, "Spanish: 2") || !strings.Contains(out, "French: 1") {
		t.Errorf("stats missing per-language counts: %q", out)
	}
	if strings.Index(out, "Spanish") > strings.Index(out, "French") {
		t.Errorf("stats not sorted by count: %q", out)
	}
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/glossabot/glossa/internal/lang"
	"github.com/glossabot/glossa/internal/store"
	"github.com/glossabot/glossa/internal/translator"
)

type postedReply struct {
	to       Message
	sections []ReplySection
}

type sentDM struct {
	userID  string
	content string
}

type fakeGateway struct {
	mu           sync.Mutex
	participants []Participant
	replies      []postedReply
	reactions    []string
	dms          []sentDM
	dmErr        error
	reactErr     error
}

func (g *fakeGateway) BotUserID() string { return "bot-user" }

func (g *fakeGateway) Participants(_ context.Context, _, _ string) ([]Participant, error) {
	return g.participants, nil
}

func (g *fakeGateway) Reply(_ context.Context, to Message, sections []ReplySection) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, postedReply{to: to, sections: sections})
	return fmt.Sprintf("reply-%d", len(g.replies)), nil
}

func (g *fakeGateway) React(_ context.Context, _, _, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reactErr != nil {
		return g.reactErr
	}
	g.reactions = append(g.reactions, emoji)
	return nil
}

func (g *fakeGateway) DirectMessage(_ context.Context, userID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dmErr != nil {
		return g.dmErr
	}
	g.dms = append(g.dms, sentDM{userID: userID, content: content})
	return nil
}

func (g *fakeGateway) MessageLink(guildID, channelID, messageID string) string {
	return "https://chat.example/" + guildID + "/" + channelID + "/" + messageID
}

func (g *fakeGateway) replyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.replies)
}

// fakeTranslator translates by prefixing the target code; failLangs yield
// errors instead.
type fakeTranslator struct {
	mu        sync.Mutex
	failLangs map[string]bool
	calls     []string
}

func (f *fakeTranslator) Translate(_ context.Context, req translator.Request) (*translator.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.TargetLang)
	f.mu.Unlock()
	if f.failLangs[req.TargetLang] {
		return nil, errors.New("provider unavailable")
	}
	return &translator.Result{
		Text:         "[" + req.TargetLang + "] " + req.Text,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		ProviderName: "fake",
	}, nil
}

type fakeDetector struct {
	code string
}

func (f *fakeDetector) Detect(_ context.Context, _ string) (string, error) {
	return f.code, nil
}

type fakeSettings struct {
	settings store.GuildSettings
}

func (f *fakeSettings) Guild(_ string) store.GuildSettings { return f.settings }

type testPipeline struct {
	gateway    *fakeGateway
	translator *fakeTranslator
	detector   *fakeDetector
	settings   *fakeSettings
	stats      *Stats
	pending    *PendingReplies
	dispatcher *Dispatcher
}

func newTestPipeline(participants []Participant) *testPipeline {
	registry := lang.NewRegistry()
	gateway := &fakeGateway{participants: participants}
	chain := &fakeTranslator{}
	detector := &fakeDetector{code: "en"}
	settings := &fakeSettings{settings: store.DefaultGuildSettings()}
	stats := NewStats()
	pending := NewPendingReplies(16, time.Minute)

	dispatcher := NewDispatcher(DispatcherConfig{
		Gateway:  gateway,
		Chain:    chain,
		Detector: detector,
		Registry: registry,
		Resolver: NewResolver(registry, fakePreferences{}),
		Settings: settings,
		Stats:    stats,
		Pending:  pending,
		Logger:   zerolog.Nop(),
		Options:  Options{DedupRelease: time.Second},
	})

	return &testPipeline{
		gateway:    gateway,
		translator: chain,
		detector:   detector,
		settings:   settings,
		stats:      stats,
		pending:    pending,
		dispatcher: dispatcher,
	}
}

func spanishSpeaker(id string) Participant {
	return Participant{ID: id, Online: true, CanRead: true, Roles: []string{"Spanish"}}
}

func TestHandleMessageTranslatesForSpanishSpeaker(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{spanishSpeaker("u1")})
	p.dispatcher.HandleMessage(context.Background(), testMessage())

	if got := p.gateway.replyCount(); got != 1 {
		t.Fatalf("replies = %d, want 1", got)
	}
	reply := p.gateway.replies[0]
	if len(reply.sections) != 2 {
		t.Fatalf("sections = %d, want original + spanish", len(reply.sections))
	}
	if !strings.Contains(reply.sections[0].Label, "Original (en)") {
		t.Fatalf("first section label = %q", reply.sections[0].Label)
	}
	if !strings.Contains(reply.sections[1].Label, "Spanish") {
		t.Fatalf("second section label = %q", reply.sections[1].Label)
	}
	if reply.sections[1].Text == "" {
		t.Fatal("translated section is empty")
	}

	if got := p.stats.Snapshot()["es"]; got != 1 {
		t.Fatalf("es counter = %d, want 1", got)
	}
	if p.pending.Len() != 1 {
		t.Fatal("reply context was not retained")
	}

	// One flag reaction per translated language.
	spanish, _ := lang.NewRegistry().Lookup("es")
	if len(p.gateway.reactions) != 1 || p.gateway.reactions[0] != spanish.Flag {
		t.Fatalf("reactions = %v, want the Spanish flag", p.gateway.reactions)
	}
}

func TestHandleMessageNoReplyWhenEveryoneSpeaksSource(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{
		{ID: "u1", Online: true, CanRead: true, Roles: []string{"English"}},
	})
	p.dispatcher.HandleMessage(context.Background(), testMessage())

	if got := p.gateway.replyCount(); got != 0 {
		t.Fatalf("replies = %d, want 0", got)
	}
}

func TestHandleMessageDetectionFailureIsSilent(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{spanishSpeaker("u1")})
	p.detector.code = ""
	p.dispatcher.HandleMessage(context.Background(), testMessage())

	if got := p.gateway.replyCount(); got != 0 {
		t.Fatalf("replies = %d, want 0", got)
	}
	if len(p.translator.calls) != 0 {
		t.Fatal("no translation may be attempted without a source language")
	}
}

func TestHandleMessagePartialFailureDropsOnlyThatLanguage(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{
		spanishSpeaker("u1"),
		{ID: "u2", Online: true, CanRead: true, Roles: []string{"German"}},
	})
	p.translator.failLangs = map[string]bool{"de": true}
	p.dispatcher.HandleMessage(context.Background(), testMessage())

	if got := p.gateway.replyCount(); got != 1 {
		t.Fatalf("replies = %d, want 1", got)
	}
	reply := p.gateway.replies[0]
	if len(reply.sections) != 2 {
		t.Fatalf("sections = %d, want original + spanish only", len(reply.sections))
	}
	for _, section := range reply.sections {
		if strings.Contains(section.Label, "German") {
			t.Fatal("failed language must be absent from the reply")
		}
	}
	if got := p.stats.Snapshot()["de"]; got != 0 {
		t.Fatal("failed language must not be counted")
	}
}

func TestHandleMessageRespectsAutoToggle(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{spanishSpeaker("u1")})
	p.settings.settings.AutoTranslate = false
	p.dispatcher.HandleMessage(context.Background(), testMessage())

	if got := p.gateway.replyCount(); got != 0 {
		t.Fatalf("replies = %d, want 0", got)
	}
}

func TestHandleMessageSkipsReactionsWhenDisabled(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{spanishSpeaker("u1")})
	p.settings.settings.FlagReactions = false
	p.dispatcher.HandleMessage(context.Background(), testMessage())

	if got := p.gateway.replyCount(); got != 1 {
		t.Fatalf("replies = %d, want 1", got)
	}
	if len(p.gateway.reactions) != 0 {
		t.Fatalf("reactions = %v, want none", p.gateway.reactions)
	}
}

func TestHandleMessageDeduplicatesConcurrentEvents(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{spanishSpeaker("u1")})
	msg := testMessage()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.dispatcher.HandleMessage(context.Background(), msg)
		}()
	}
	wg.Wait()

	if got := p.gateway.replyCount(); got != 1 {
		t.Fatalf("replies = %d, want exactly 1 for duplicate events", got)
	}
}

func TestHandleMessageIgnoresBotsAndBlankContent(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{spanishSpeaker("u1")})

	fromBot := testMessage()
	fromBot.AuthorBot = true
	p.dispatcher.HandleMessage(context.Background(), fromBot)

	blank := testMessage()
	blank.ID = "m2"
	blank.Content = "   "
	p.dispatcher.HandleMessage(context.Background(), blank)

	direct := testMessage()
	direct.ID = "m3"
	direct.GuildID = ""
	p.dispatcher.HandleMessage(context.Background(), direct)

	if got := p.gateway.replyCount(); got != 0 {
		t.Fatalf("replies = %d, want 0", got)
	}
}

func TestHandleMessageTruncatesSections(t *testing.T) {
	t.Parallel()

	p := newTestPipeline([]Participant{spanishSpeaker("u1")})
	msg := testMessage()
	msg.Content = strings.Repeat("a", 5000)
	p.dispatcher.HandleMessage(context.Background(), msg)

	if got := p.gateway.replyCount(); got != 1 {
		t.Fatalf("replies = %d, want 1", got)
	}
	for _, section := range p.gateway.replies[0].sections {
		if n := len([]rune(section.Text)); n > 1024 {
			t.Fatalf("section length %d exceeds the field limit", n)
		}
	}
}

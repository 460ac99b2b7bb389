package bot

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/glossabot/glossa/internal/lang"
	"github.com/glossabot/glossa/internal/store"
	"github.com/glossabot/glossa/internal/translator"
)

// Translator is the dispatch side of the provider chain.
type Translator interface {
	Translate(ctx context.Context, req translator.Request) (*translator.Result, error)
}

// Settings supplies the per-guild toggles.
type Settings interface {
	Guild(guildID string) store.GuildSettings
}

// Options tunes the dispatcher. Zero values fall back to the reference
// defaults.
type Options struct {
	TranslateTimeout time.Duration // per-language call budget
	FieldLimit       int           // platform field-size limit
	DedupRelease     time.Duration // how long a processed message ID stays claimed
}

const (
	defaultTranslateTimeout = 10 * time.Second
	defaultFieldLimit       = 1024
	defaultDedupRelease     = 2 * time.Second
)

func (o Options) withDefaults() Options {
	if o.TranslateTimeout <= 0 {
		o.TranslateTimeout = defaultTranslateTimeout
	}
	if o.FieldLimit <= 0 {
		o.FieldLimit = defaultFieldLimit
	}
	if o.DedupRelease <= 0 {
		o.DedupRelease = defaultDedupRelease
	}
	return o
}

// DispatcherConfig wires the dispatcher's collaborators.
type DispatcherConfig struct {
	Gateway  Gateway
	Chain    Translator
	Detector translator.Detector
	Registry *lang.Registry
	Resolver *Resolver
	Settings Settings
	Stats    *Stats
	Pending  *PendingReplies
	Logger   zerolog.Logger
	Options  Options
}

// Dispatcher drives the translation pipeline for inbound messages and
// reaction events.
type Dispatcher struct {
	gateway  Gateway
	chain    Translator
	detector translator.Detector
	registry *lang.Registry
	resolver *Resolver
	settings Settings
	stats    *Stats
	pending  *PendingReplies
	logger   zerolog.Logger
	opts     Options

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		gateway:  cfg.Gateway,
		chain:    cfg.Chain,
		detector: cfg.Detector,
		registry: cfg.Registry,
		resolver: cfg.Resolver,
		settings: cfg.Settings,
		stats:    cfg.Stats,
		pending:  cfg.Pending,
		logger:   cfg.Logger,
		opts:     cfg.Options.withDefaults(),
		inFlight: make(map[string]struct{}),
	}
}

// HandleMessage runs the auto-translate pipeline for one inbound message.
// Every failure inside the pipeline is recovered locally; the only
// user-visible outcome of a failure is the absence of a reply.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg Message) {
	if msg.AuthorBot || msg.GuildID == "" || strings.TrimSpace(msg.Content) == "" {
		return
	}

	// The platform may deliver the same message twice in quick succession.
	if !d.claim(msg.ID) {
		d.logger.Debug().Str("message_id", msg.ID).Msg("duplicate event skipped")
		return
	}
	defer d.scheduleRelease(msg.ID)

	settings := d.settings.Guild(msg.GuildID)
	if !settings.AutoTranslate {
		return
	}

	sourceLang, err := d.detector.Detect(ctx, msg.Content)
	if err != nil || sourceLang == "" {
		// Failed detection ends processing; a fully normal outcome.
		d.logger.Debug().Err(err).Str("message_id", msg.ID).Msg("language detection yielded nothing")
		return
	}
	sourceLang = lang.NormalizeCode(sourceLang)

	participants, err := d.gateway.Participants(ctx, msg.GuildID, msg.ChannelID)
	if err != nil {
		d.logger.Warn().Err(err).Str("channel_id", msg.ChannelID).Msg("participant enumeration failed")
		return
	}

	resolution := d.resolver.Resolve(msg, sourceLang, participants, settings.OnlineOnly)
	targets := resolution.TargetList()
	if len(targets) == 0 {
		return
	}

	translations := d.translateAll(ctx, msg.Content, sourceLang, targets)
	if len(translations) == 0 {
		return
	}

	sections := d.buildSections(msg.Content, sourceLang, translations)
	replyID, err := d.gateway.Reply(ctx, msg, sections)
	if err != nil {
		d.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("posting translated reply failed")
		return
	}

	for code := range translations {
		d.stats.Inc(code)
	}

	d.pending.Put(replyID, &PendingReply{
		OriginalID:   msg.ID,
		GuildID:      msg.GuildID,
		ChannelID:    msg.ChannelID,
		SourceLang:   sourceLang,
		SourceText:   msg.Content,
		Translations: translations,
		Recipients:   resolution.Recipients,
	})

	if settings.FlagReactions {
		d.attachReactions(ctx, msg.ChannelID, replyID, translations)
	}

	d.logger.Info().
		Str("message_id", msg.ID).
		Str("source_lang", sourceLang).
		Int("languages", len(translations)).
		Msg("translated reply posted")
}

// translateAll issues one request per target language, in parallel. A
// per-language timeout or provider failure excludes only that language.
func (d *Dispatcher) translateAll(ctx context.Context, text, sourceLang string, targets []string) map[string]string {
	var mu sync.Mutex
	translations := make(map[string]string, len(targets))

	group, groupCtx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		group.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, d.opts.TranslateTimeout)
			defer cancel()

			result, err := d.chain.Translate(callCtx, translator.Request{
				Text:       text,
				SourceLang: sourceLang,
				TargetLang: target,
			})
			if err != nil {
				d.logger.Debug().Err(err).Str("target_lang", target).Msg("translation yielded no result")
				return nil
			}

			mu.Lock()
			translations[target] = result.Text
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return translations
}

func (d *Dispatcher) buildSections(original, sourceLang string, translations map[string]string) []ReplySection {
	sections := make([]ReplySection, 0, len(translations)+1)

	originalLabel := "Original (" + sourceLang + ")"
	if source, ok := d.registry.Lookup(sourceLang); ok {
		originalLabel = source.Flag + " " + originalLabel
	}
	sections = append(sections, ReplySection{
		Label: originalLabel,
		Text:  truncate(original, d.opts.FieldLimit),
	})

	for _, code := range sortedKeys(translations) {
		language, ok := d.registry.Lookup(code)
		if !ok {
			continue
		}
		sections = append(sections, ReplySection{
			Label: language.Flag + " " + language.Name,
			Text:  truncate(translations[code], d.opts.FieldLimit),
		})
	}

	return sections
}

// attachReactions adds one flag reaction per translated language so readers
// can request a private copy. Attachment failures are cosmetic and dropped.
func (d *Dispatcher) attachReactions(ctx context.Context, channelID, replyID string, translations map[string]string) {
	for _, code := range sortedKeys(translations) {
		language, ok := d.registry.Lookup(code)
		if !ok || language.Flag == "" {
			continue
		}
		if err := d.gateway.React(ctx, channelID, replyID, language.Flag); err != nil {
			d.logger.Debug().Err(err).Str("lang", code).Msg("reaction attach failed")
		}
	}
}

func (d *Dispatcher) claim(messageID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inFlight[messageID]; busy {
		return false
	}
	d.inFlight[messageID] = struct{}{}
	return true
}

// scheduleRelease frees the message ID after a short delay so late duplicate
// deliveries are still absorbed without holding the ID forever.
func (d *Dispatcher) scheduleRelease(messageID string) {
	time.AfterFunc(d.opts.DedupRelease, func() {
		d.mu.Lock()
		delete(d.inFlight, messageID)
		d.mu.Unlock()
	})
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package discord

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/glossabot/glossa/internal/bot"
	"github.com/glossabot/glossa/internal/lang"
	"github.com/glossabot/glossa/internal/store"
	"github.com/glossabot/glossa/internal/translator"
)

// command is a parsed prefix invocation.
type command struct {
	Name string
	Args []string
	// Rest is everything after the command name with original spacing.
	Rest string
}

// parseCommand splits a prefixed message into a command. The second return
// is false when content does not start with the prefix or names no command.
func parseCommand(content, prefix string) (command, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return command{}, false
	}
	body := strings.TrimSpace(content[len(prefix):])
	if body == "" {
		return command{}, false
	}
	fields := strings.Fields(body)
	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(body, fields[0]))
	return command{Name: name, Args: fields[1:], Rest: rest}, true
}

// Commands handles the prefix command surface.
type Commands struct {
	session  *discordgo.Session
	registry *lang.Registry
	chain    *translator.Chain
	settings *store.Store
	stats    *bot.Stats
	logger   zerolog.Logger
	prefix   string
	timeout  time.Duration
}

type CommandsConfig struct {
	Session  *discordgo.Session
	Registry *lang.Registry
	Chain    *translator.Chain
	Settings *store.Store
	Stats    *bot.Stats
	Logger   zerolog.Logger
	Prefix   string
	Timeout  time.Duration
}

func NewCommands(cfg CommandsConfig) *Commands {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Commands{
		session:  cfg.Session,
		registry: cfg.Registry,
		chain:    cfg.Chain,
		settings: cfg.Settings,
		stats:    cfg.Stats,
		logger:   cfg.Logger,
		prefix:   cfg.Prefix,
		timeout:  timeout,
	}
}

// Handle dispatches a prefixed message. It reports whether the message was
// consumed as a command so the caller can skip translation for it.
func (c *Commands) Handle(ctx context.Context, m *discordgo.MessageCreate) bool {
	cmd, ok := parseCommand(m.Content, c.prefix)
	if !ok {
		return false
	}

	switch cmd.Name {
	case "translate", "tr":
		c.handleTranslate(ctx, m, cmd)
	case "languages", "langs":
		c.reply(ctx, m, formatLanguages(c.registry))
	case "setlang":
		c.handleSetLang(ctx, m, cmd)
	case "config":
		c.handleConfig(ctx, m, cmd)
	case "stats":
		c.reply(ctx, m, formatStats(c.stats, c.registry))
	case "help":
		c.reply(ctx, m, formatHelp(c.prefix))
	default:
		return false
	}
	return true
}

func (c *Commands) handleTranslate(ctx context.Context, m *discordgo.MessageCreate, cmd command) {
	if len(cmd.Args) < 2 {
		c.reply(ctx, m, fmt.Sprintf("Usage: `%stranslate <lang> <text>`", c.prefix))
		return
	}

	code := lang.NormalizeTag(cmd.Args[0])
	language, ok := c.registry.Lookup(code)
	if !ok {
		c.reply(ctx, m, fmt.Sprintf("Unknown language `%s`. Try `%slanguages`.", cmd.Args[0], c.prefix))
		return
	}

	text := strings.TrimSpace(strings.TrimPrefix(cmd.Rest, cmd.Args[0]))
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	result, err := c.chain.Translate(tctx, translator.Request{Text: text, TargetLang: language.Code})
	if err != nil {
		switch {
		case errors.Is(err, translator.ErrUnsupportedLanguage):
			c.reply(ctx, m, fmt.Sprintf("No provider supports `%s`.", language.Code))
		case errors.Is(err, translator.ErrNoProvider):
			c.reply(ctx, m, "No translation provider is configured.")
		default:
			c.logger.Warn().Err(err).Str("lang", language.Code).Msg("manual translation failed")
			c.reply(ctx, m, "Translation failed, try again later.")
		}
		return
	}

	c.stats.Inc(language.Code)
	c.reply(ctx, m, fmt.Sprintf("%s **%s**\n%s", language.Flag, language.Name, result.Text))
}

func (c *Commands) handleSetLang(ctx context.Context, m *discordgo.MessageCreate, cmd command) {
	if len(cmd.Args) == 0 {
		c.settings.SetUserLanguages(m.Author.ID, nil)
		c.reply(ctx, m, "Cleared your language preferences.")
		return
	}

	codes := make([]string, 0, len(cmd.Args))
	for _, raw := range cmd.Args {
		language, ok := c.registry.Lookup(lang.NormalizeTag(raw))
		if !ok {
			c.reply(ctx, m, fmt.Sprintf("Unknown language `%s`. Try `%slanguages`.", raw, c.prefix))
			return
		}
		codes = append(codes, language.Code)
	}
	c.settings.SetUserLanguages(m.Author.ID, codes)
	c.reply(ctx, m, "Your languages are now: "+strings.Join(codes, ", "))
}

func (c *Commands) handleConfig(ctx context.Context, m *discordgo.MessageCreate, cmd command) {
	if m.GuildID == "" {
		c.reply(ctx, m, "Guild settings can only be changed inside a server.")
		return
	}
	perms, err := c.session.State.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil || perms&discordgo.PermissionManageServer == 0 {
		c.reply(ctx, m, "You need the Manage Server permission for that.")
		return
	}

	key, enabled, perr := parseConfigArgs(cmd.Args)
	if perr != "" {
		c.reply(ctx, m, perr)
		return
	}

	c.settings.UpdateGuild(m.GuildID, func(s *store.GuildSettings) {
		switch key {
		case "auto":
			s.AutoTranslate = enabled
		case "onlineonly":
			s.OnlineOnly = enabled
		case "reactions":
			s.FlagReactions = enabled
		}
	})

	state := "off"
	if enabled {
		state = "on"
	}
	c.reply(ctx, m, fmt.Sprintf("Setting `%s` is now **%s**.", key, state))
}

// parseConfigArgs validates `!config <key> <on|off>` arguments. A non-empty
// third return is the usage message to send back.
func parseConfigArgs(args []string) (key string, enabled bool, usage string) {
	const hint = "Usage: `config <auto|onlineonly|reactions> <on|off>`"
	if len(args) != 2 {
		return "", false, hint
	}
	key = strings.ToLower(args[0])
	switch key {
	case "auto", "onlineonly", "reactions":
	default:
		return "", false, hint
	}
	switch strings.ToLower(args[1]) {
	case "on", "true", "1":
		return key, true, ""
	case "off", "false", "0":
		return key, false, ""
	}
	return "", false, hint
}

func formatLanguages(registry *lang.Registry) string {
	var b strings.Builder
	b.WriteString("Supported languages:\n")
	for _, language := range registry.Languages() {
		fmt.Fprintf(&b, "%s **%s** (`%s`)\n", language.Flag, language.Name, language.Code)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStats(stats *bot.Stats, registry *lang.Registry) string {
	counts := stats.Snapshot()
	if len(counts) == 0 {
		return "No translations yet."
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "**%d** translations so far.\n", stats.Total())
	for _, code := range codes {
		label := code
		if language, ok := registry.Lookup(code); ok {
			label = fmt.Sprintf("%s %s", language.Flag, language.Name)
		}
		fmt.Fprintf(&b, "%s: %d\n", label, counts[code])
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHelp(prefix string) string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	fmt.Fprintf(&b, "`%stranslate <lang> <text>` translate text (alias `%str`)\n", prefix, prefix)
	fmt.Fprintf(&b, "`%slanguages` list supported languages (alias `%slangs`)\n", prefix, prefix)
	fmt.Fprintf(&b, "`%ssetlang <lang>...` set your languages, no args to clear\n", prefix)
	fmt.Fprintf(&b, "`%sconfig <auto|onlineonly|reactions> <on|off>` guild settings (Manage Server)\n", prefix)
	fmt.Fprintf(&b, "`%sstats` translation counts per language", prefix)
	return b.String()
}

func (c *Commands) reply(ctx context.Context, m *discordgo.MessageCreate, content string) {
	_, err := c.session.ChannelMessageSendReply(m.ChannelID, content, &discordgo.MessageReference{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		c.logger.Debug().Err(err).Str("channel", m.ChannelID).Msg("command reply failed")
	}
}

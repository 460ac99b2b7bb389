package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/glossabot/glossa/internal/bot"
)

// Client owns the gateway session and routes events into the translation
// pipeline and the command surface.
type Client struct {
	session    *discordgo.Session
	gateway    *Gateway
	dispatcher *bot.Dispatcher
	commands   *Commands
	logger     zerolog.Logger

	// ctx is the lifetime handed to Open; event handlers derive from it so
	// in-flight work is cancelled on shutdown.
	ctx context.Context
}

type ClientConfig struct {
	Token  string
	Logger zerolog.Logger
}

// NewClient builds a session with the intents the pipeline needs: message
// content for translation, members and presences for recipient resolution,
// and reactions for redelivery.
func NewClient(cfg ClientConfig) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Client{
		session: session,
		gateway: NewGateway(session, cfg.Logger),
		logger:  cfg.Logger,
	}, nil
}

// Session exposes the underlying session for command wiring.
func (c *Client) Session() *discordgo.Session { return c.session }

// Gateway returns the bot.Gateway adapter backed by this session.
func (c *Client) Gateway() *Gateway { return c.gateway }

// SetDispatcher installs the translation pipeline. Must be called before
// Open; the dispatcher itself needs this client's gateway, so it cannot be
// part of ClientConfig.
func (c *Client) SetDispatcher(dispatcher *bot.Dispatcher) { c.dispatcher = dispatcher }

// SetCommands installs the command handler. Must be called before Open.
func (c *Client) SetCommands(commands *Commands) { c.commands = commands }

// Open registers event handlers and connects to the gateway.
func (c *Client) Open(ctx context.Context) error {
	if c.dispatcher == nil {
		return fmt.Errorf("dispatcher not set")
	}
	c.ctx = ctx
	c.session.AddHandler(c.onReady)
	c.session.AddHandler(c.onMessageCreate)
	c.session.AddHandler(c.onReactionAdd)
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.logger.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("gateway session ready")
}

func (c *Client) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == c.gateway.BotUserID() {
		return
	}

	if c.commands != nil && c.commands.Handle(c.ctx, m) {
		return
	}

	msg := bot.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
	}
	go c.dispatcher.HandleMessage(c.ctx, msg)
}

func (c *Client) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	reaction := bot.Reaction{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
	}
	go c.dispatcher.HandleReaction(c.ctx, reaction)
}

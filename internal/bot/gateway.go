// Package bot implements the translation pipeline: recipient resolution,
// per-language dispatch, and reaction-triggered redelivery. The hosting
// platform is reached only through the Gateway port so the pipeline can be
// exercised against a fake.
package bot

import "context"

// Message is an inbound chat message as delivered by the gateway.
type Message struct {
	ID        string
	GuildID   string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
}

// Participant is one channel member with presence, role, and permission data
// already populated by the gateway.
type Participant struct {
	ID      string
	Bot     bool
	Online  bool // any non-offline presence counts as online
	CanRead bool
	Roles   []string // role display names
}

// Reaction is a reaction-added event.
type Reaction struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Emoji     string
}

// ReplySection is one labelled block of the translated reply.
type ReplySection struct {
	Label string
	Text  string
}

// Gateway is the hosting-platform port. Reply, React, and DirectMessage may
// fail for platform reasons (permissions, closed DMs); callers treat those
// failures as soft.
type Gateway interface {
	BotUserID() string
	Participants(ctx context.Context, guildID, channelID string) ([]Participant, error)
	Reply(ctx context.Context, to Message, sections []ReplySection) (replyID string, err error)
	React(ctx context.Context, channelID, messageID, emoji string) error
	DirectMessage(ctx context.Context, userID, content string) error
	MessageLink(guildID, channelID, messageID string) string
}

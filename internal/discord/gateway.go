// Package discord adapts the hosting-platform port onto a Discord gateway
// session. Everything the pipeline knows about Discord lives here.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/glossabot/glossa/internal/bot"
)

const embedColor = 0x3498DB

// Gateway implements bot.Gateway over a discordgo session.
type Gateway struct {
	session *discordgo.Session
	logger  zerolog.Logger
}

func NewGateway(session *discordgo.Session, logger zerolog.Logger) *Gateway {
	return &Gateway{session: session, logger: logger}
}

func (g *Gateway) BotUserID() string {
	if g.session.State == nil || g.session.State.User == nil {
		return ""
	}
	return g.session.State.User.ID
}

// Participants enumerates the guild's members with presence, role, and
// channel-permission data from the session state. Members without a cached
// presence count as offline.
func (g *Gateway) Participants(ctx context.Context, guildID, channelID string) ([]bot.Participant, error) {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("guild %s not in state: %w", guildID, err)
	}

	roleNames := make(map[string]string, len(guild.Roles))
	for _, role := range guild.Roles {
		roleNames[role.ID] = role.Name
	}
	presences := make(map[string]discordgo.Status, len(guild.Presences))
	for _, presence := range guild.Presences {
		if presence.User != nil {
			presences[presence.User.ID] = presence.Status
		}
	}

	members := guild.Members
	if len(members) == 0 {
		// State not chunked yet; fall back to one REST page.
		members, err = g.session.GuildMembers(guildID, "", 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list guild members: %w", err)
		}
	}

	participants := make([]bot.Participant, 0, len(members))
	for _, member := range members {
		if member.User == nil {
			continue
		}

		perms, permErr := g.session.State.UserChannelPermissions(member.User.ID, channelID)
		canRead := permErr == nil && perms&discordgo.PermissionViewChannel != 0

		status, seen := presences[member.User.ID]
		online := seen && status != discordgo.StatusOffline && status != discordgo.StatusInvisible

		roles := make([]string, 0, len(member.Roles))
		for _, roleID := range member.Roles {
			if name, ok := roleNames[roleID]; ok {
				roles = append(roles, name)
			}
		}

		participants = append(participants, bot.Participant{
			ID:      member.User.ID,
			Bot:     member.User.Bot,
			Online:  online,
			CanRead: canRead,
			Roles:   roles,
		})
	}

	return participants, nil
}

// Reply posts the sectioned translation embed as a threaded reply without
// pinging the author.
func (g *Gateway) Reply(ctx context.Context, to bot.Message, sections []bot.ReplySection) (string, error) {
	fields := make([]*discordgo.MessageEmbedField, 0, len(sections))
	for _, section := range sections {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  section.Label,
			Value: section.Text,
		})
	}

	msg, err := g.session.ChannelMessageSendComplex(to.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:  "Translations",
			Color:  embedColor,
			Fields: fields,
		}},
		Reference: &discordgo.MessageReference{
			MessageID: to.ID,
			ChannelID: to.ChannelID,
			GuildID:   to.GuildID,
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("post reply: %w", err)
	}
	return msg.ID, nil
}

func (g *Gateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	return g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (g *Gateway) DirectMessage(ctx context.Context, userID, content string) error {
	channel, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	if _, err := g.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

func (g *Gateway) MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

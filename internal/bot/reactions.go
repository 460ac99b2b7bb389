package bot

import (
	"context"

	"github.com/glossabot/glossa/internal/translator"
)

// HandleReaction serves a flag reaction on a translated reply by delivering
// that language privately to the reactor. Delivery is best effort: a user
// with closed DMs simply gets nothing, and nobody else is told.
func (d *Dispatcher) HandleReaction(ctx context.Context, reaction Reaction) {
	if reaction.UserID == d.gateway.BotUserID() {
		return
	}

	reply, ok := d.pending.Get(reaction.MessageID)
	if !ok {
		return
	}
	code, ok := d.registry.ByFlag(reaction.Emoji)
	if !ok {
		return
	}
	language, ok := d.registry.Lookup(code)
	if !ok {
		return
	}

	text, ok := reply.Translations[code]
	if !ok {
		// Not part of the original fan-out; compute it on demand from the
		// retained source text. The context itself stays unchanged.
		callCtx, cancel := context.WithTimeout(ctx, d.opts.TranslateTimeout)
		defer cancel()

		result, err := d.chain.Translate(callCtx, translator.Request{
			Text:       reply.SourceText,
			SourceLang: reply.SourceLang,
			TargetLang: code,
		})
		if err != nil {
			d.logger.Debug().Err(err).Str("target_lang", code).Msg("on-demand translation yielded no result")
			return
		}
		text = result.Text
		d.stats.Inc(code)
	}

	link := d.gateway.MessageLink(reply.GuildID, reply.ChannelID, reply.OriginalID)
	content := language.Flag + " **" + language.Name + "**\n" +
		truncate(text, d.opts.FieldLimit) + "\n" + link

	if err := d.gateway.DirectMessage(ctx, reaction.UserID, content); err != nil {
		d.logger.Debug().Err(err).Str("user_id", reaction.UserID).Msg("private delivery failed")
	}
}

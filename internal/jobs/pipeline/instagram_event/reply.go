package instagram_event

import (
	"context"
	"fmt"
	"strings"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/instagram"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/services"
)

const (
	ReplySourceTemplate = "template"
	ReplySourceAI       = "ai"
	ReplySourceDefault  = "default"
)

// SavedConfirmation is the fallback DM reply once a mention was saved.
func SavedConfirmation(name string) string {
	return fmt.Sprintf("Thanks for sharing! I've saved %s to your collection.", name)
}

func autoReplyEnabled(acct *types.InstagramAccount, interactionType string) bool {
	if acct == nil {
		return false
	}
	if interactionType == instagram.InteractionMessage {
		return acct.AutoReplyMessages
	}
	return acct.AutoReplyComments
}

// composeReply picks the first matching template, then an AI reply when the
// account enabled it, then the saved confirmation for DMs.
func (p *Pipeline) composeReply(ctx context.Context, acct *types.InstagramAccount, it *types.Interaction, saved *types.Restaurant) (string, string) {
	if p.templates != nil {
		tmpls, err := p.templates.ListByAccount(dbctx.Context{Ctx: ctx}, acct.ID, true)
		if err != nil {
			p.log.Warn("load response templates failed", "account_id", acct.ID, "error", err)
		}
		for _, t := range tmpls {
			if !t.Matches(it.Type, it.Content) {
				continue
			}
			if err := p.templates.IncrementUse(dbctx.Context{Ctx: ctx}, t.ID); err != nil {
				p.log.Warn("increment template use failed", "template_id", t.ID, "error", err)
			}
			return t.Content, ReplySourceTemplate
		}
	}
	if acct.AIRepliesEnabled && p.ai != nil {
		if text := p.ai.SuggestReply(ctx, acct.Username, it.Type, it.Content); text != "" {
			return text, ReplySourceAI
		}
	}
	if saved != nil && it.Type == instagram.InteractionMessage {
		return SavedConfirmation(saved.Name), ReplySourceDefault
	}
	return "", ""
}

// autoReply sends the composed reply. Send failures are logged and counted.
func (p *Pipeline) autoReply(ctx context.Context, acct *types.InstagramAccount, it *types.Interaction, evt services.InboundEvent, saved *types.Restaurant) (string, bool) {
	if !autoReplyEnabled(acct, it.Type) {
		return "", false
	}
	text, source := p.composeReply(ctx, acct, it, saved)
	if text == "" {
		return "", false
	}
	if p.ig == nil || strings.TrimSpace(acct.AccessToken) == "" {
		observability.Current().IncAutoReply(source, "not_configured")
		p.log.Debug("auto-reply skipped: instagram client or token missing", "account_id", acct.ID)
		return source, false
	}

	var err error
	if it.Type == instagram.InteractionMessage {
		_, err = p.ig.SendMessage(ctx, acct.AccessToken, acct.IGBusinessID, evt.SenderID, text)
	} else {
		_, err = p.ig.ReplyToComment(ctx, acct.AccessToken, evt.ExternalID, text)
	}
	if err != nil {
		observability.Current().IncAutoReply(source, "error")
		p.log.Warn("auto-reply send failed", "account_id", acct.ID, "interaction_id", it.ID, "type", it.Type, "error", err)
		return source, false
	}
	if err := p.interactions.MarkResponded(dbctx.Context{Ctx: ctx}, it.ID, text); err != nil {
		p.log.Warn("mark interaction responded failed", "interaction_id", it.ID, "error", err)
	}
	observability.Current().IncAutoReply(source, "sent")
	return source, true
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/unidine-backend/internal/domain/instagram"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/platform/openai"
)

// Analysis is the sentiment and intent of one inbound message.
type Analysis struct {
	Sentiment string `json:"sentiment"`
	Intent    string `json:"intent"`
}

// DefaultAnalysis is used whenever the model is unavailable or answers badly.
var DefaultAnalysis = Analysis{Sentiment: instagram.SentimentNeutral, Intent: instagram.IntentOther}

const maxReplyRunes = 300

type InteractionAI interface {
	// Analyze never fails; it degrades to DefaultAnalysis.
	Analyze(ctx context.Context, text string) Analysis
	// SuggestReply returns "" when no reply could be generated.
	SuggestReply(ctx context.Context, accountName, interactionType, text string) string
}

type interactionAI struct {
	log *logger.Logger
	ai  openai.Client
}

// NewInteractionAI wraps ai. A nil client yields defaults for every call.
func NewInteractionAI(log *logger.Logger, ai openai.Client) InteractionAI {
	return &interactionAI{log: log.With("service", "InteractionAI"), ai: ai}
}

var analysisSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"sentiment", "intent"},
	"properties": map[string]any{
		"sentiment": map[string]any{
			"type": "string",
			"enum": []string{instagram.SentimentPositive, instagram.SentimentNeutral, instagram.SentimentNegative},
		},
		"intent": map[string]any{
			"type": "string",
			"enum": []string{
				instagram.IntentRecommendation, instagram.IntentQuestion, instagram.IntentComplaint,
				instagram.IntentPraise, instagram.IntentOther,
			},
		},
	},
}

const analysisSystem = "You label messages sent to a food lover's Instagram account. " +
	"Classify sentiment and intent. A message that names or suggests a place to eat is a recommendation."

func (a *interactionAI) Analyze(ctx context.Context, text string) Analysis {
	if a == nil || a.ai == nil || strings.TrimSpace(text) == "" {
		return DefaultAnalysis
	}
	obj, err := a.ai.GenerateJSON(ctx, analysisSystem, text, "interaction_analysis", analysisSchema)
	if err != nil {
		a.log.Warn("interaction analysis failed", "error", err, "text_len", len(text))
		return DefaultAnalysis
	}
	return normalizeAnalysis(obj)
}

func normalizeAnalysis(obj map[string]any) Analysis {
	out := DefaultAnalysis
	if s, _ := obj["sentiment"].(string); s != "" {
		switch s = strings.ToLower(strings.TrimSpace(s)); s {
		case instagram.SentimentPositive, instagram.SentimentNeutral, instagram.SentimentNegative:
			out.Sentiment = s
		}
	}
	if s, _ := obj["intent"].(string); s != "" {
		switch s = strings.ToLower(strings.TrimSpace(s)); s {
		case instagram.IntentRecommendation, instagram.IntentQuestion, instagram.IntentComplaint, instagram.IntentPraise, instagram.IntentOther:
			out.Intent = s
		}
	}
	return out
}

func (a *interactionAI) SuggestReply(ctx context.Context, accountName, interactionType, text string) string {
	if a == nil || a.ai == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	name := strings.TrimSpace(accountName)
	if name == "" {
		name = "this account"
	}
	system := fmt.Sprintf("You reply on behalf of %s, an Instagram account that collects restaurant recommendations. "+
		"Be friendly and concise. Keep replies under 200 characters. Never invent facts about a restaurant.", name)
	user := fmt.Sprintf("Write a reply to this %s:\n%s", interactionType, text)
	out, err := a.ai.GenerateText(ctx, system, user)
	if err != nil {
		a.log.Warn("reply generation failed", "error", err, "text_len", len(text))
		return ""
	}
	out = strings.TrimSpace(out)
	if r := []rune(out); len(r) > maxReplyRunes {
		out = string(r[:maxReplyRunes])
	}
	return out
}

package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/domain/instagram"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const (
	EventKindComment   = "comment"
	EventKindMention   = "mention"
	EventKindMessage   = "message"
	EventKindReelShare = "reel_share"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// WebhookPayload is the envelope Instagram posts to the webhook.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID        string             `json:"id"`
	Time      int64              `json:"time"`
	Changes   []WebhookChange    `json:"changes"`
	Messaging []WebhookMessaging `json:"messaging"`
}

type WebhookChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type webhookUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type WebhookMessaging struct {
	Sender    webhookUser `json:"sender"`
	Recipient webhookUser `json:"recipient"`
	Timestamp int64       `json:"timestamp"`
	Message   *struct {
		MID         string `json:"mid"`
		Text        string `json:"text"`
		IsEcho      bool   `json:"is_echo"`
		Attachments []struct {
			Type    string `json:"type"`
			Payload struct {
				URL         string `json:"url"`
				Title       string `json:"title"`
				ReelVideoID string `json:"reel_video_id"`
			} `json:"payload"`
		} `json:"attachments"`
	} `json:"message"`
}

type commentValue struct {
	ID        string      `json:"id"`
	CommentID string      `json:"comment_id"`
	Text      string      `json:"text"`
	From      webhookUser `json:"from"`
	MediaID   string      `json:"media_id"`
	Media     struct {
		ID string `json:"id"`
	} `json:"media"`
}

// InboundEvent is one actionable webhook event; it is the instagram_event job payload.
type InboundEvent struct {
	Kind           string `json:"kind"`
	IGBusinessID   string `json:"ig_business_id"`
	ExternalID     string `json:"external_id"`
	MediaID        string `json:"media_id,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
	SenderUsername string `json:"sender_username,omitempty"`
	Text           string `json:"text"`
	MediaLink      string `json:"media_link,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}

// InteractionType maps the event kind to the stored interaction type.
func (e InboundEvent) InteractionType() string {
	switch e.Kind {
	case EventKindComment:
		return instagram.InteractionComment
	case EventKindMention:
		return instagram.InteractionMention
	default:
		return instagram.InteractionMessage
	}
}

// DedupKey identifies a delivery across webhook retries.
func (e InboundEvent) DedupKey() string {
	return e.IGBusinessID + ":" + e.Kind + ":" + e.ExternalID
}

func (e InboundEvent) Map() map[string]any {
	raw, _ := json.Marshal(e)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return out
}

func InboundEventFromMap(m map[string]any) (InboundEvent, error) {
	var e InboundEvent
	raw, err := json.Marshal(m)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, err
	}
	if e.IGBusinessID == "" || e.ExternalID == "" {
		return e, fmt.Errorf("%w: event missing ig_business_id or external_id", ErrInvalidPayload)
	}
	return e, nil
}

type Deduper interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
}

type noDedup struct{}

func (noDedup) FirstSeen(context.Context, string) (bool, error) { return true, nil }

type WebhookConfig struct {
	VerifyToken string
	AppSecret   string
}

type IngestResult struct {
	Events     int `json:"events"`
	Enqueued   int `json:"enqueued"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

type InstagramWebhookService interface {
	VerifySubscription(mode, token, challenge string) (string, bool)
	VerifySignature(body []byte, sha256Header, sha1Header string) error
	Parse(body []byte) (*WebhookPayload, error)
	Ingest(ctx context.Context, payload *WebhookPayload) IngestResult
}

type instagramWebhookService struct {
	log      *logger.Logger
	cfg      WebhookConfig
	accounts repos.InstagramAccountRepo
	jobs     JobService
	dedup    Deduper
}

func NewInstagramWebhookService(
	baseLog *logger.Logger,
	cfg WebhookConfig,
	accounts repos.InstagramAccountRepo,
	jobs JobService,
	dedup Deduper,
) InstagramWebhookService {
	if dedup == nil {
		dedup = noDedup{}
	}
	return &instagramWebhookService{
		log:      baseLog.With("service", "InstagramWebhookService"),
		cfg:      cfg,
		accounts: accounts,
		jobs:     jobs,
		dedup:    dedup,
	}
}

func (s *instagramWebhookService) VerifySubscription(mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || s.cfg.VerifyToken == "" {
		return "", false
	}
	if !hmac.Equal([]byte(token), []byte(s.cfg.VerifyToken)) {
		return "", false
	}
	return challenge, true
}

// VerifySignature checks X-Hub-Signature-256, falling back to the legacy sha1
// header. With no app secret configured every body is accepted.
func (s *instagramWebhookService) VerifySignature(body []byte, sha256Header, sha1Header string) error {
	if s.cfg.AppSecret == "" {
		return nil
	}
	if h := strings.TrimSpace(sha256Header); h != "" {
		if validSignature(sha256.New, s.cfg.AppSecret, body, h, "sha256=") {
			return nil
		}
		return ErrInvalidSignature
	}
	if h := strings.TrimSpace(sha1Header); h != "" {
		if validSignature(sha1.New, s.cfg.AppSecret, body, h, "sha1=") {
			return nil
		}
	}
	return ErrInvalidSignature
}

func validSignature(newHash func() hash.Hash, secret string, body []byte, header, prefix string) bool {
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign renders the X-Hub-Signature-256 value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (s *instagramWebhookService) Parse(body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &p, nil
}

// Events flattens a payload into actionable events. Echoes of the account's own
// messages and events without text are dropped.
func (p *WebhookPayload) Events() []InboundEvent {
	if p == nil {
		return nil
	}
	var out []InboundEvent
	for _, entry := range p.Entry {
		for _, ch := range entry.Changes {
			switch ch.Field {
			case "comments", "mentions":
				var v commentValue
				if err := json.Unmarshal(ch.Value, &v); err != nil {
					continue
				}
				evt := InboundEvent{
					Kind:           EventKindComment,
					IGBusinessID:   entry.ID,
					ExternalID:     firstNonEmpty(v.ID, v.CommentID),
					MediaID:        firstNonEmpty(v.Media.ID, v.MediaID),
					SenderID:       v.From.ID,
					SenderUsername: v.From.Username,
					Text:           v.Text,
					Timestamp:      entry.Time,
				}
				if ch.Field == "mentions" {
					evt.Kind = EventKindMention
				}
				if evt.ExternalID != "" && strings.TrimSpace(evt.Text) != "" {
					out = append(out, evt)
				}
			case "messages":
				var m WebhookMessaging
				if err := json.Unmarshal(ch.Value, &m); err != nil {
					continue
				}
				if evt, ok := messagingEvent(entry.ID, m); ok {
					out = append(out, evt)
				}
			}
		}
		for _, m := range entry.Messaging {
			if evt, ok := messagingEvent(entry.ID, m); ok {
				out = append(out, evt)
			}
		}
	}
	return out
}

func messagingEvent(entryID string, m WebhookMessaging) (InboundEvent, bool) {
	if m.Message == nil || m.Message.IsEcho || m.Message.MID == "" {
		return InboundEvent{}, false
	}
	evt := InboundEvent{
		Kind:         EventKindMessage,
		IGBusinessID: firstNonEmpty(m.Recipient.ID, entryID),
		ExternalID:   m.Message.MID,
		SenderID:     m.Sender.ID,
		Text:         m.Message.Text,
		Timestamp:    m.Timestamp,
	}
	for _, a := range m.Message.Attachments {
		if a.Type != "ig_reel" && a.Type != "reel" && a.Type != "share" {
			continue
		}
		evt.Kind = EventKindReelShare
		evt.MediaID = a.Payload.ReelVideoID
		evt.MediaLink = a.Payload.URL
		if strings.TrimSpace(evt.Text) == "" {
			evt.Text = a.Payload.Title
		}
		break
	}
	if strings.TrimSpace(evt.Text) == "" {
		return InboundEvent{}, false
	}
	return evt, true
}

// Ingest turns every new event into a queued instagram_event job. Failures are
// counted, never returned, so the webhook can always acknowledge.
func (s *instagramWebhookService) Ingest(ctx context.Context, payload *WebhookPayload) IngestResult {
	var res IngestResult
	for _, evt := range payload.Events() {
		res.Events++
		first, err := s.dedup.FirstSeen(ctx, evt.DedupKey())
		if err != nil {
			s.log.Warn("webhook dedup unavailable", "error", err)
			first = true
		}
		if !first {
			res.Duplicates++
			observability.Current().IncWebhookEvent(evt.Kind, "duplicate")
			continue
		}

		owner := uuid.Nil
		var accountID *uuid.UUID
		if s.accounts != nil {
			if acct, err := s.accounts.GetByIGBusinessID(dbctx.Context{Ctx: ctx}, evt.IGBusinessID); err == nil && acct != nil {
				owner = acct.UserID
				accountID = &acct.ID
			}
		}
		job, err := s.jobs.Enqueue(dbctx.Context{Ctx: ctx}, owner, JobTypeInstagramEvent, "instagram_account", accountID, evt.Map())
		if err != nil {
			res.Failed++
			observability.Current().IncWebhookEvent(evt.Kind, "enqueue_failed")
			s.log.Error("enqueue instagram event failed", "kind", evt.Kind, "error", err)
			continue
		}
		res.Enqueued++
		observability.Current().IncWebhookEvent(evt.Kind, "enqueued")
		s.log.Debug("instagram event enqueued", "job_id", job.ID, "kind", evt.Kind, "text_len", len(evt.Text))
	}
	return res
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/data/repos/testutil"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
)

type enqueued struct {
	owner   uuid.UUID
	jobType string
	payload map[string]any
}

type stubJobs struct {
	mu   sync.Mutex
	jobs []enqueued
	fail bool
}

func (s *stubJobs) Enqueue(_ dbctx.Context, owner uuid.UUID, jobType, _ string, _ *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("queue down")
	}
	s.jobs = append(s.jobs, enqueued{owner: owner, jobType: jobType, payload: payload})
	return &types.JobRun{ID: uuid.New(), OwnerUserID: owner, JobType: jobType}, nil
}

func (s *stubJobs) Dispatch(dbctx.Context, uuid.UUID) error { return nil }

func (s *stubJobs) GetByIDForRequestUser(dbctx.Context, uuid.UUID) (*types.JobRun, error) {
	return nil, nil
}

func (s *stubJobs) Temporal() bool { return false }

type memDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDedup) FirstSeen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

type downDedup struct{}

func (downDedup) FirstSeen(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

const samplePayload = `{
  "object": "instagram",
  "entry": [{
    "id": "17841400000000001",
    "time": 1700000000,
    "changes": [
      {"field": "comments", "value": {"id": "c-1", "text": "Pump House has amazing food!", "from": {"id": "u-9", "username": "foodie"}, "media": {"id": "m-1"}}},
      {"field": "mentions", "value": {"comment_id": "c-2", "text": "@unidine check Taco Palace in San Diego", "media_id": "m-2"}},
      {"field": "comments", "value": {"id": "c-3", "text": "   "}}
    ],
    "messaging": [
      {"sender": {"id": "u-1"}, "recipient": {"id": "17841400000000001"}, "timestamp": 1700000001,
       "message": {"mid": "mid-1", "text": "Try Sushi Spot in Tokyo"}},
      {"sender": {"id": "17841400000000001"}, "recipient": {"id": "u-1"},
       "message": {"mid": "mid-2", "text": "echo", "is_echo": true}},
      {"sender": {"id": "u-2"}, "recipient": {"id": "17841400000000001"},
       "message": {"mid": "mid-3", "attachments": [{"type": "ig_reel", "payload": {"url": "https://instagram.com/reel/abc", "title": "Burger Heaven is the best dinner", "reel_video_id": "r-1"}}]}}
    ]
  }]
}`

func TestWebhookVerifySignature(t *testing.T) {
	body := []byte(samplePayload)
	svc := NewInstagramWebhookService(testutil.Logger(t), WebhookConfig{AppSecret: "shh"}, nil, &stubJobs{}, nil)

	if err := svc.VerifySignature(body, Sign("shh", body), ""); err != nil {
		t.Fatalf("valid sha256 rejected: %v", err)
	}
	if err := svc.VerifySignature(body, Sign("other", body), ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("foreign signature accepted: %v", err)
	}
	if err := svc.VerifySignature(body, "", ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("missing signature accepted: %v", err)
	}
	if err := svc.VerifySignature(body, "sha256=zz", ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("malformed signature accepted: %v", err)
	}
	if err := svc.VerifySignature(body, "", "sha1=00"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("bad sha1 accepted: %v", err)
	}

	open := NewInstagramWebhookService(testutil.Logger(t), WebhookConfig{}, nil, &stubJobs{}, nil)
	if err := open.VerifySignature(body, "", ""); err != nil {
		t.Fatalf("no secret configured should accept: %v", err)
	}
}

func TestWebhookVerifySubscription(t *testing.T) {
	svc := NewInstagramWebhookService(testutil.Logger(t), WebhookConfig{VerifyToken: "tok"}, nil, &stubJobs{}, nil)
	if got, ok := svc.VerifySubscription("subscribe", "tok", "12345"); !ok || got != "12345" {
		t.Fatalf("expected challenge echo, got %q %v", got, ok)
	}
	if _, ok := svc.VerifySubscription("subscribe", "nope", "12345"); ok {
		t.Fatalf("wrong token accepted")
	}
	if _, ok := svc.VerifySubscription("unsubscribe", "tok", "12345"); ok {
		t.Fatalf("wrong mode accepted")
	}
}

func TestWebhookPayloadEvents(t *testing.T) {
	svc := NewInstagramWebhookService(testutil.Logger(t), WebhookConfig{}, nil, &stubJobs{}, nil)
	p, err := svc.Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	events := p.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	want := []struct{ kind, id string }{
		{EventKindComment, "c-1"},
		{EventKindMention, "c-2"},
		{EventKindMessage, "mid-1"},
		{EventKindReelShare, "mid-3"},
	}
	for i, w := range want {
		if events[i].Kind != w.kind || events[i].ExternalID != w.id {
			t.Fatalf("event %d: got %s/%s want %s/%s", i, events[i].Kind, events[i].ExternalID, w.kind, w.id)
		}
	}
	if events[0].MediaID != "m-1" || events[0].SenderUsername != "foodie" {
		t.Fatalf("comment fields not mapped: %+v", events[0])
	}
	reel := events[3]
	if reel.MediaLink != "https://instagram.com/reel/abc" || reel.Text != "Burger Heaven is the best dinner" {
		t.Fatalf("reel share not mapped: %+v", reel)
	}

	if _, err := svc.Parse([]byte("{not json")); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestInboundEventRoundTripsThroughJobPayload(t *testing.T) {
	evt := InboundEvent{Kind: EventKindComment, IGBusinessID: "ig", ExternalID: "c-1", Text: "hi"}
	got, err := InboundEventFromMap(evt.Map())
	if err != nil || got != evt {
		t.Fatalf("got %+v err %v", got, err)
	}
	if _, err := InboundEventFromMap(map[string]any{"kind": "comment"}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestWebhookIngestEnqueuesAndDedups(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := uuid.New()
	testutil.SeedInstagramAccount(t, ctx, db, owner, "17841400000000001")

	jobs := &stubJobs{}
	svc := NewInstagramWebhookService(log, WebhookConfig{}, repos.NewInstagramAccountRepo(db, log), jobs, &memDedup{})
	p, err := svc.Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	res := svc.Ingest(ctx, p)
	if res.Events != 4 || res.Enqueued != 4 || res.Duplicates != 0 || res.Failed != 0 {
		t.Fatalf("first delivery: %+v", res)
	}
	for _, j := range jobs.jobs {
		if j.owner != owner || j.jobType != JobTypeInstagramEvent {
			t.Fatalf("unexpected job: %+v", j)
		}
	}

	res = svc.Ingest(ctx, p)
	if res.Enqueued != 0 || res.Duplicates != 4 {
		t.Fatalf("redelivery should be deduplicated: %+v", res)
	}
}

func TestWebhookIngestCountsFailuresWithoutError(t *testing.T) {
	svc := NewInstagramWebhookService(testutil.Logger(t), WebhookConfig{}, nil, &stubJobs{fail: true}, nil)
	p, _ := svc.Parse([]byte(samplePayload))
	res := svc.Ingest(context.Background(), p)
	if res.Failed != 4 || res.Enqueued != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestWebhookIngestEnqueuesWhenDedupUnavailable(t *testing.T) {
	jobs := &stubJobs{}
	svc := NewInstagramWebhookService(testutil.Logger(t), WebhookConfig{}, nil, jobs, downDedup{})
	p, err := svc.Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := svc.Ingest(context.Background(), p)
	if res.Enqueued != 4 || res.Duplicates != 0 || res.Failed != 0 {
		t.Fatalf("events must be processed when dedup errors: %+v", res)
	}
	if len(jobs.jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs.jobs))
	}
}

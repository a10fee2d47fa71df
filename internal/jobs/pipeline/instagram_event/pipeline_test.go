package instagram_event

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/data/repos/testutil"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/instagram"
	"github.com/yungbote/unidine-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/unidine-backend/internal/jobs/runtime"
	"github.com/yungbote/unidine-backend/internal/modules/extraction"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	igclient "github.com/yungbote/unidine-backend/internal/platform/instagram"
	"github.com/yungbote/unidine-backend/internal/services"
)

type sent struct {
	kind, target, text string
}

type fakeGraph struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeGraph) ReplyToComment(_ context.Context, _, commentID, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{"comment", commentID, message})
	return "reply-1", nil
}

func (f *fakeGraph) SendMessage(_ context.Context, _, _, recipientID, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{"message", recipientID, message})
	return "mid-reply", nil
}

func (f *fakeGraph) GetMedia(context.Context, string, string) (*igclient.Media, error) {
	return nil, nil
}

type fixture struct {
	db       *gorm.DB
	pipeline *Pipeline
	jobs     repos.JobRunRepo
	rests    repos.RestaurantRepo
	tmpls    repos.ResponseTemplateRepo
	graph    *fakeGraph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rests := repos.NewRestaurantRepo(db, log)
	merge := services.NewMergeService(db, log, rests, nil, nil, services.MergeConfig{})
	ext := services.NewExtractionService(db, log, extraction.NewExtractor(nil), merge, repos.NewExtractionHistoryRepo(db, log))
	tmpls := repos.NewResponseTemplateRepo(db, log)
	graph := &fakeGraph{}
	p := New(db, log,
		repos.NewInstagramAccountRepo(db, log),
		repos.NewInteractionRepo(db, log),
		tmpls,
		ext,
		services.NewInteractionAI(log, nil),
		graph,
	)
	return &fixture{db: db, pipeline: p, jobs: repos.NewJobRunRepo(db, log), rests: rests, tmpls: tmpls, graph: graph}
}

func (f *fixture) run(t *testing.T, evt services.InboundEvent) (*types.JobRun, Summary) {
	t.Helper()
	ctx := context.Background()
	raw, _ := json.Marshal(evt.Map())
	job := &types.JobRun{
		JobType: services.JobTypeInstagramEvent,
		Status:  jobs.StatusRunning,
		Stage:   "queued",
		Payload: datatypes.JSON(raw),
		Result:  datatypes.JSON([]byte(`{}`)),
	}
	if _, err := f.jobs.Create(dbctx.Context{Ctx: ctx}, []*types.JobRun{job}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	jc := jobrt.NewContext(ctx, f.db, job, f.jobs, services.NewJobNotifier(testutil.Logger(t)))
	if err := f.pipeline.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}
	rows, err := f.jobs.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{job.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload job: %v", err)
	}
	var sum Summary
	if err := json.Unmarshal(rows[0].Result, &sum); err != nil {
		t.Fatalf("decode summary: %v (%s)", err, rows[0].Error)
	}
	return rows[0], sum
}

func TestDirectMessageSavesAndConfirms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	acct := testutil.SeedInstagramAccount(t, ctx, f.db, owner, "1784-dm")

	job, sum := f.run(t, services.InboundEvent{
		Kind:         services.EventKindMessage,
		IGBusinessID: acct.IGBusinessID,
		ExternalID:   "mid-1",
		SenderID:     "friend-1",
		Text:         "You should visit Sushi Spot in Tokyo, the omakase is incredible.",
	})
	if job.Status != jobs.StatusSucceeded || sum.Outcome != OutcomeProcessed {
		t.Fatalf("status=%s outcome=%s err=%s", job.Status, sum.Outcome, job.Error)
	}
	if !sum.Saved || sum.Restaurant != "Sushi Spot" {
		t.Fatalf("mention not saved: %+v", sum)
	}
	if sum.ReplySource != ReplySourceDefault || !sum.Replied {
		t.Fatalf("expected default reply, got %+v", sum)
	}
	if len(f.graph.sent) != 1 || f.graph.sent[0].kind != "message" || f.graph.sent[0].target != "friend-1" ||
		f.graph.sent[0].text != SavedConfirmation("Sushi Spot") {
		t.Fatalf("unexpected sends: %+v", f.graph.sent)
	}

	var it types.Interaction
	if err := f.db.Where("external_id = ?", "mid-1").First(&it).Error; err != nil {
		t.Fatalf("load interaction: %v", err)
	}
	if !it.Responded || it.RestaurantID == nil || it.RestaurantID.String() != sum.RestaurantID {
		t.Fatalf("interaction not linked or responded: %+v", it)
	}
	if it.Sentiment != instagram.SentimentNeutral || it.Intent != instagram.IntentOther {
		t.Fatalf("analysis defaults not applied: %s/%s", it.Sentiment, it.Intent)
	}
}

func TestRedeliveredEventIsNotMergedTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	acct := testutil.SeedInstagramAccount(t, ctx, f.db, owner, "1784-dup")

	evt := services.InboundEvent{
		Kind:         services.EventKindComment,
		IGBusinessID: acct.IGBusinessID,
		ExternalID:   "c-1",
		SenderID:     "u-1",
		Text:         "Burger Barn in Chicago has great burgers and milkshakes",
	}
	if _, sum := f.run(t, evt); sum.Outcome != OutcomeProcessed || !sum.Saved {
		t.Fatalf("first run: %+v", sum)
	}
	if _, sum := f.run(t, evt); sum.Outcome != OutcomeDuplicate || sum.Saved {
		t.Fatalf("second run should be a duplicate: %+v", sum)
	}

	rows, _, err := f.rests.List(dbctx.Context{Ctx: ctx}, owner, repos.RestaurantListFilter{})
	if err != nil || len(rows) != 1 || rows[0].Mentions != 1 {
		t.Fatalf("expected one record with one mention, got %d rows err=%v", len(rows), err)
	}
}

func TestCommentUsesMatchingTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	acct := testutil.SeedInstagramAccount(t, ctx, f.db, owner, "1784-tmpl")

	tmpl := &types.ResponseTemplate{
		AccountID: acct.ID,
		Name:      "menu",
		Triggers:  datatypes.NewJSONSlice([]string{"menu"}),
		Content:   "Our full menu is in the bio!",
		ForType:   instagram.InteractionComment,
		IsActive:  true,
	}
	if err := f.tmpls.Create(dbctx.Context{Ctx: ctx}, tmpl); err != nil {
		t.Fatalf("create template: %v", err)
	}

	_, sum := f.run(t, services.InboundEvent{
		Kind:         services.EventKindComment,
		IGBusinessID: acct.IGBusinessID,
		ExternalID:   "c-42",
		Text:         "Is the Pump House menu online?",
	})
	if sum.ReplySource != ReplySourceTemplate || !sum.Replied {
		t.Fatalf("expected template reply: %+v", sum)
	}
	if len(f.graph.sent) != 1 || f.graph.sent[0].kind != "comment" || f.graph.sent[0].target != "c-42" {
		t.Fatalf("unexpected sends: %+v", f.graph.sent)
	}
	var reloaded types.ResponseTemplate
	if err := f.db.First(&reloaded, "id = ?", tmpl.ID).Error; err != nil || reloaded.UseCount != 1 {
		t.Fatalf("use_count not incremented: %d err=%v", reloaded.UseCount, err)
	}
}

func TestUnknownAccountIsSkipped(t *testing.T) {
	f := newFixture(t)
	job, sum := f.run(t, services.InboundEvent{
		Kind:         services.EventKindMention,
		IGBusinessID: "not-connected",
		ExternalID:   "c-9",
		Text:         "Taco Palace in San Diego is the best dinner",
	})
	if job.Status != jobs.StatusSucceeded || sum.Outcome != OutcomeSkipped {
		t.Fatalf("status=%s outcome=%s", job.Status, sum.Outcome)
	}
	if len(f.graph.sent) != 0 {
		t.Fatalf("no reply expected")
	}
}

func TestMalformedPayloadFailsRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := &types.JobRun{
		JobType: services.JobTypeInstagramEvent,
		Status:  jobs.StatusRunning,
		Stage:   "queued",
		Payload: datatypes.JSON([]byte(`{"kind":"comment"}`)),
	}
	if _, err := f.jobs.Create(dbctx.Context{Ctx: ctx}, []*types.JobRun{job}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	jc := jobrt.NewContext(ctx, f.db, job, f.jobs, nil)
	if err := f.pipeline.Run(jc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if jc.Job.Status != jobs.StatusFailed || jc.Job.Stage != stageValidate {
		t.Fatalf("expected validate failure, got %s/%s", jc.Job.Status, jc.Job.Stage)
	}
}

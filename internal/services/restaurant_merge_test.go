package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/data/repos/testutil"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/modules/extraction"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/realtime/bus"
)

// racingRepo hides existing rows from the first n identity lookups, which is
// what a concurrent creator looks like from inside one transaction.
type racingRepo struct {
	repos.RestaurantRepo
	blind   int32
	lookups atomic.Int32
	creates atomic.Int32
}

func (r *racingRepo) FindByIdentity(dbc dbctx.Context, userID uuid.UUID, name, location string, lookup repos.IdentityLookup) (*types.Restaurant, error) {
	if r.lookups.Add(1) <= r.blind {
		return nil, nil
	}
	return r.RestaurantRepo.FindByIdentity(dbc, userID, name, location, lookup)
}

func (r *racingRepo) Create(dbc dbctx.Context, rec *types.Restaurant) error {
	r.creates.Add(1)
	return r.RestaurantRepo.Create(dbc, rec)
}

type stubEnricher struct {
	out *restaurants.Enrichment
	err error
}

func (s stubEnricher) Enrich(context.Context, string, string) (*restaurants.Enrichment, error) {
	return s.out, s.err
}

func newMergeFixture(t *testing.T, repo repos.RestaurantRepo, enricher Enricher, cfg MergeConfig) (MergeService, repos.RestaurantRepo, *bus.Recorder) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	base := repos.NewRestaurantRepo(db, log)
	if repo == nil {
		repo = base
	}
	if r, ok := repo.(*racingRepo); ok && r.RestaurantRepo == nil {
		r.RestaurantRepo = base
	}
	rec := &bus.Recorder{}
	return NewMergeService(db, log, repo, enricher, rec, cfg), base, rec
}

func mention(text string) *restaurants.Mention {
	res := extraction.Extract(text)
	if !res.Success {
		panic(fmt.Sprintf("fixture text is not a mention: %q", text))
	}
	return res.Restaurant
}

func TestMergeCreatesThenAccumulates(t *testing.T) {
	svc, _, rec := newMergeFixture(t, nil, nil, MergeConfig{})
	ctx := context.Background()
	userID := uuid.New()

	first := "You have to try Taco Palace in San Diego, the tacos are amazing!"
	second := "Taco Palace in San Diego again last night, great Mexican food."

	a, err := svc.Merge(ctx, mention(first), first, userID)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if a.Mentions != 1 || a.VisitStatus != restaurants.VisitWantToVisit || a.VisitDate != nil {
		t.Fatalf("unexpected new record: mentions=%d status=%q", a.Mentions, a.VisitStatus)
	}
	if !a.FirstMentioned.Equal(a.LastMentioned) {
		t.Fatalf("first and last mentioned should match on create")
	}

	b, err := svc.Merge(ctx, mention(second), second, userID)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if b.ID != a.ID {
		t.Fatalf("expected the same record, got %s and %s", a.ID, b.ID)
	}
	if b.Mentions != 2 {
		t.Fatalf("mentions: got %d want 2", b.Mentions)
	}
	if len(b.MentionTexts) != 2 || b.MentionTexts[0] != first || b.MentionTexts[1] != second {
		t.Fatalf("mention texts out of order: %v", b.MentionTexts)
	}
	if !b.FirstMentioned.Equal(a.FirstMentioned) {
		t.Fatalf("first_mentioned changed")
	}

	events := rec.Events()
	if len(events) != 2 || events[0].Type != bus.EventRestaurantCreated || events[1].Type != bus.EventRestaurantUpdated {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestMergeIsNotIdempotent(t *testing.T) {
	svc, repo, _ := newMergeFixture(t, nil, nil, MergeConfig{})
	ctx := context.Background()
	userID := uuid.New()
	text := "Pump House has great burgers, highly recommend!"
	m := mention(text)

	base, err := svc.Merge(ctx, m, text, userID)
	if err != nil {
		t.Fatalf("seed merge: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Merge(ctx, m, text, userID); err != nil {
			t.Fatalf("merge %d: %v", i, err)
		}
	}
	got, err := repo.GetByID(dbctx.Context{Ctx: ctx}, userID, base.ID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Mentions-base.Mentions != 2 {
		t.Fatalf("mentions grew by %d, want 2", got.Mentions-base.Mentions)
	}
	if len(got.MentionTexts)-len(base.MentionTexts) != 2 {
		t.Fatalf("mention texts grew by %d, want 2", len(got.MentionTexts)-len(base.MentionTexts))
	}
}

func TestMergeUnionsCuisineInOrder(t *testing.T) {
	svc, repo, _ := newMergeFixture(t, nil, nil, MergeConfig{})
	ctx := context.Background()
	userID := uuid.New()

	first := &restaurants.Mention{Name: "Fusion House", Location: "Tokyo", Cuisine: []string{"Japanese"}, Dishes: []string{"Ramen"}}
	second := &restaurants.Mention{Name: "Fusion House", Location: "Tokyo", Cuisine: []string{"Japanese", "Korean"}, Dishes: []string{"Ramen", "Bibimbap"}}

	a, err := svc.Merge(ctx, first, "one", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Merge(ctx, second, "two", userID); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetByID(dbctx.Context{Ctx: ctx}, userID, a.ID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if fmt.Sprint([]string(got.Cuisine)) != "[Japanese Korean]" {
		t.Fatalf("cuisine: %v", got.Cuisine)
	}
	if fmt.Sprint([]string(got.Dishes)) != "[Ramen Bibimbap]" {
		t.Fatalf("dishes: %v", got.Dishes)
	}
	if got.Mentions != 2 {
		t.Fatalf("mentions: %d", got.Mentions)
	}
}

func TestMergeDefaultsOnCreate(t *testing.T) {
	svc, _, _ := newMergeFixture(t, nil, nil, MergeConfig{})
	rec, err := svc.Merge(context.Background(), &restaurants.Mention{Name: "Socials"}, "Socials tonight", uuid.New())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if rec.Location != restaurants.UnknownLocation {
		t.Fatalf("location: %q", rec.Location)
	}
	if fmt.Sprint([]string(rec.Cuisine)) != "[Unknown]" || len(rec.Dishes) != 0 {
		t.Fatalf("defaults: cuisine=%v dishes=%v", rec.Cuisine, rec.Dishes)
	}
	if rec.PriceRange != restaurants.PriceUnknown {
		t.Fatalf("price range: %q", rec.PriceRange)
	}
}

func TestMergeRequiresNameAndUser(t *testing.T) {
	svc, _, _ := newMergeFixture(t, nil, nil, MergeConfig{})
	ctx := context.Background()
	cases := []struct {
		name   string
		m      *restaurants.Mention
		userID uuid.UUID
	}{
		{"nil mention", nil, uuid.New()},
		{"blank name", &restaurants.Mention{Name: "  "}, uuid.New()},
		{"no user", &restaurants.Mention{Name: "Pump House"}, uuid.Nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Merge(ctx, tc.m, "x", tc.userID)
			if !restaurants.IsCode(err, restaurants.CodeMissingData) {
				t.Fatalf("expected missing_data, got %v", err)
			}
		})
	}
}

func TestMergeRetriesConflictAsUpdate(t *testing.T) {
	racing := &racingRepo{blind: 1}
	svc, base, _ := newMergeFixture(t, racing, nil, MergeConfig{})
	ctx := context.Background()
	userID := uuid.New()

	existing := &types.Restaurant{
		UserID: userID, Name: "Burger Barn", Location: "Chicago",
		Cuisine: []string{"American"}, Dishes: []string{}, Mentions: 1,
		MentionTexts: []string{"earlier"}, VisitStatus: restaurants.VisitWantToVisit,
		PriceRange: restaurants.PriceUnknown, Source: restaurants.SourceManual,
	}
	if err := base.Create(dbctx.Context{Ctx: ctx}, existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec, err := svc.Merge(ctx, &restaurants.Mention{Name: "Burger Barn", Location: "Chicago"}, "later", userID)
	if err != nil {
		t.Fatalf("merge should recover from the conflict: %v", err)
	}
	if rec.ID != existing.ID || rec.Mentions != 2 {
		t.Fatalf("expected update of the existing row, got id=%s mentions=%d", rec.ID, rec.Mentions)
	}
	if racing.creates.Load() != 1 {
		t.Fatalf("expected one failed create, got %d", racing.creates.Load())
	}
}

func TestMergeConflictExhaustsAttempts(t *testing.T) {
	racing := &racingRepo{blind: 100}
	svc, base, _ := newMergeFixture(t, racing, nil, MergeConfig{MaxAttempts: 3})
	ctx := context.Background()
	userID := uuid.New()
	if err := base.Create(dbctx.Context{Ctx: ctx}, &types.Restaurant{
		UserID: userID, Name: "Sushi Spot", Location: "Tokyo", Mentions: 1,
		VisitStatus: restaurants.VisitWantToVisit, PriceRange: restaurants.PriceUnknown, Source: restaurants.SourceManual,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Merge(ctx, &restaurants.Mention{Name: "Sushi Spot", Location: "Tokyo"}, "again", userID)
	if !restaurants.IsCode(err, restaurants.CodePersistenceConflict) {
		t.Fatalf("expected persistence_conflict, got %v", err)
	}
	if racing.creates.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", racing.creates.Load())
	}
}

func TestMergeCaseInsensitivePolicy(t *testing.T) {
	svc, _, _ := newMergeFixture(t, nil, nil, MergeConfig{MatchPolicy: MatchPolicyCaseInsensitive})
	ctx := context.Background()
	userID := uuid.New()

	a, err := svc.Merge(ctx, &restaurants.Mention{Name: "Pump House", Location: "Bengaluru"}, "one", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := svc.Merge(ctx, &restaurants.Mention{Name: "pump house", Location: "BENGALURU"}, "two", userID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if a.ID != b.ID || b.Mentions != 2 {
		t.Fatalf("case-insensitive policy should merge: %s vs %s mentions=%d", a.ID, b.ID, b.Mentions)
	}
	if b.Name != "Pump House" {
		t.Fatalf("identity must keep the stored spelling, got %q", b.Name)
	}
}

func TestMergeCaseInsensitiveConcurrentCreates(t *testing.T) {
	svc, repo, _ := newMergeFixture(t, nil, nil, MergeConfig{MatchPolicy: MatchPolicyCaseInsensitive})
	ctx := context.Background()
	userID := uuid.New()
	spellings := []string{"Pump House", "pump house", "PUMP HOUSE", "Pump house", "pUMP hOUSE", "pump HOUSE"}

	var wg sync.WaitGroup
	errs := make(chan error, len(spellings))
	for i, name := range spellings {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, err := svc.Merge(ctx, &restaurants.Mention{Name: name, Location: "Bengaluru"}, fmt.Sprintf("mention %d", i), userID)
			errs <- err
		}(i, name)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("merge: %v", err)
		}
	}

	rows, total, err := repo.List(dbctx.Context{Ctx: ctx}, userID, repos.RestaurantListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("case variants should collapse into one record, got %d", total)
	}
	if rows[0].Mentions != len(spellings) {
		t.Fatalf("mentions: got %d want %d", rows[0].Mentions, len(spellings))
	}
}

func TestMergeConfidenceAndMediaLinkRules(t *testing.T) {
	svc, repo, _ := newMergeFixture(t, nil, nil, MergeConfig{})
	ctx := context.Background()
	userID := uuid.New()

	a, err := svc.Merge(ctx, &restaurants.Mention{
		Name:       "Green Leaf",
		Location:   "Brooklyn",
		Confidence: &restaurants.Confidence{Name: 1},
		MediaLink:  "m1",
	}, "first", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// No confidence and no media link: both stay as stored.
	if _, err := svc.Merge(ctx, &restaurants.Mention{Name: "Green Leaf", Location: "Brooklyn"}, "second", userID); err != nil {
		t.Fatalf("bare update: %v", err)
	}
	got, err := repo.GetByID(dbctx.Context{Ctx: ctx}, userID, a.ID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if c := got.ExtractionConfidence.Data(); c.Name != 1 {
		t.Fatalf("confidence should be kept, got %+v", c)
	}
	if got.MediaLink != "m1" {
		t.Fatalf("media link should be kept, got %q", got.MediaLink)
	}

	if _, err := svc.Merge(ctx, &restaurants.Mention{
		Name:       "Green Leaf",
		Location:   "Brooklyn",
		Confidence: &restaurants.Confidence{Name: 0.4},
		MediaLink:  " m2 ",
	}, "third", userID); err != nil {
		t.Fatalf("full update: %v", err)
	}
	got, err = repo.GetByID(dbctx.Context{Ctx: ctx}, userID, a.ID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if c := got.ExtractionConfidence.Data(); c.Name != 0.4 {
		t.Fatalf("confidence should be replaced, got %+v", c)
	}
	if got.MediaLink != "m2" {
		t.Fatalf("media link should be replaced and trimmed, got %q", got.MediaLink)
	}
	if got.Mentions != 3 {
		t.Fatalf("mentions: got %d want 3", got.Mentions)
	}
}

func TestMergeEnrichmentFailureKeepsRecord(t *testing.T) {
	svc, repo, _ := newMergeFixture(t, nil, stubEnricher{err: errors.New("places down")}, MergeConfig{})
	ctx := context.Background()
	userID := uuid.New()

	rec, err := svc.Merge(ctx, &restaurants.Mention{Name: "Burger Heaven", Location: "Los Angeles"}, "x", userID)
	if err != nil {
		t.Fatalf("enrichment failure must not fail the merge: %v", err)
	}
	if rec.EnrichedAt != nil || rec.GooglePlaceID != "" {
		t.Fatalf("record should be unenriched")
	}
	got, err := repo.GetByID(dbctx.Context{Ctx: ctx}, userID, rec.ID)
	if err != nil || got == nil {
		t.Fatalf("record not persisted: %v", err)
	}
}

func TestMergeEnrichmentPatchesNewRecord(t *testing.T) {
	lat, lng, rating := 32.71, -117.16, 4.6
	enricher := stubEnricher{out: &restaurants.Enrichment{
		PlaceID:          "places/abc",
		FormattedAddress: "1 Harbor Dr, San Diego",
		Latitude:         &lat,
		Longitude:        &lng,
		Rating:           &rating,
		PriceRange:       restaurants.PriceModerate,
	}}
	svc, repo, _ := newMergeFixture(t, nil, enricher, MergeConfig{})
	ctx := context.Background()
	userID := uuid.New()

	rec, err := svc.Merge(ctx, &restaurants.Mention{Name: "Taco Palace", Location: "San Diego"}, "x", userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	got, err := repo.GetByID(dbctx.Context{Ctx: ctx}, userID, rec.ID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if got.GooglePlaceID != "places/abc" || got.EnrichedAt == nil || got.PriceRange != restaurants.PriceModerate {
		t.Fatalf("enrichment not stored: place=%q enriched=%v price=%q", got.GooglePlaceID, got.EnrichedAt, got.PriceRange)
	}
	if got.Name != "Taco Palace" || got.Location != "San Diego" {
		t.Fatalf("enrichment must not touch identity: %q %q", got.Name, got.Location)
	}
	if rec.GooglePlaceID != "places/abc" {
		t.Fatalf("returned record should carry enrichment")
	}
}

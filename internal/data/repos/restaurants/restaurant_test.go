package restaurants

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	dbpkg "github.com/yungbote/unidine-backend/internal/data/db"
	"github.com/yungbote/unidine-backend/internal/data/repos/testutil"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
)

func TestRestaurantRepoIdentityLookup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRestaurantRepo(db, testutil.Logger(t))

	userID := uuid.New()
	seeded := testutil.SeedRestaurant(t, ctx, tx, userID, "Taco Palace", "San Diego", "Mexican")

	got, err := repo.FindByIdentity(dbc, userID, "Taco Palace", "San Diego", IdentityLookup{ForUpdate: true})
	if err != nil || got == nil || got.ID != seeded.ID {
		t.Fatalf("exact lookup: got=%v err=%v", got, err)
	}
	if got.NameKey != "taco palace" || got.LocationKey != "san diego" {
		t.Fatalf("fold keys not stored: %q %q", got.NameKey, got.LocationKey)
	}

	miss, err := repo.FindByIdentity(dbc, userID, "taco palace", "san diego", IdentityLookup{})
	if err != nil || miss != nil {
		t.Fatalf("exact lookup should be case-sensitive: got=%v err=%v", miss, err)
	}
	folded, err := repo.FindByIdentity(dbc, userID, "TACO  palace", "San diego", IdentityLookup{FoldCase: true})
	if err != nil || folded == nil || folded.ID != seeded.ID {
		t.Fatalf("folded lookup: got=%v err=%v", folded, err)
	}
	other, err := repo.FindByIdentity(dbc, uuid.New(), "Taco Palace", "San Diego", IdentityLookup{})
	if err != nil || other != nil {
		t.Fatalf("lookup must be scoped to user: got=%v err=%v", other, err)
	}
}

func TestRestaurantRepoUniqueIdentity(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewRestaurantRepo(db, testutil.Logger(t))
	userID := uuid.New()
	now := time.Now()

	mk := func() *types.Restaurant {
		return &types.Restaurant{
			UserID: userID, Name: "Pump House", Location: restaurants.UnknownLocation,
			Mentions: 1, VisitStatus: restaurants.VisitWantToVisit,
			FirstMentioned: now, LastMentioned: now, Source: restaurants.SourceManual,
		}
	}
	if err := repo.Create(dbctx.Context{Ctx: ctx}, mk()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.Create(dbctx.Context{Ctx: ctx}, mk())
	if err == nil {
		t.Fatalf("expected unique violation")
	}
	if !dbpkg.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestRestaurantRepoListStatsDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRestaurantRepo(db, testutil.Logger(t))

	userID := uuid.New()
	a := testutil.SeedRestaurant(t, ctx, tx, userID, "Sushi Spot", "Tokyo", "Japanese")
	testutil.SeedRestaurant(t, ctx, tx, userID, "Burger Barn", "Chicago", "American")
	testutil.SeedRestaurant(t, ctx, tx, userID, "Fusion Hut", "Chicago", "Japanese", "American", "Thai")
	testutil.SeedRestaurant(t, ctx, tx, uuid.New(), "Elsewhere", "Tokyo", "Japanese")

	if err := repo.UpdateFields(dbc, a.ID, map[string]interface{}{"visit_status": restaurants.VisitVisited}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	rows, total, err := repo.List(dbc, userID, ListFilter{})
	if err != nil || total != 3 || len(rows) != 3 {
		t.Fatalf("List all: total=%d len=%d err=%v", total, len(rows), err)
	}
	rows, total, err = repo.List(dbc, userID, ListFilter{Cuisine: "Japanese"})
	if err != nil || total != 2 {
		t.Fatalf("List cuisine: total=%d err=%v", total, err)
	}
	rows, total, err = repo.List(dbc, userID, ListFilter{Search: "chic", Sort: "name"})
	if err != nil || total != 2 || rows[0].Name != "Burger Barn" {
		t.Fatalf("List search: total=%d rows=%v err=%v", total, rows, err)
	}
	_, total, err = repo.List(dbc, userID, ListFilter{VisitStatus: restaurants.VisitVisited})
	if err != nil || total != 1 {
		t.Fatalf("List status: total=%d err=%v", total, err)
	}
	rows, total, err = repo.List(dbc, userID, ListFilter{Limit: 1, Offset: 1})
	if err != nil || total != 3 || len(rows) != 1 {
		t.Fatalf("List page: total=%d len=%d err=%v", total, len(rows), err)
	}

	st, err := repo.Stats(dbc, userID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 3 || st.ByStatus[restaurants.VisitVisited] != 1 || st.ByStatus[restaurants.VisitWantToVisit] != 2 {
		t.Fatalf("Stats counts: %+v", st)
	}
	if len(st.TopCuisines) == 0 || st.TopCuisines[0].Cuisine != "American" && st.TopCuisines[0].Cuisine != "Japanese" || st.TopCuisines[0].Count != 2 {
		t.Fatalf("Stats top cuisines: %+v", st.TopCuisines)
	}

	cuisines, err := repo.Cuisines(dbc, userID)
	if err != nil || len(cuisines) != 3 || cuisines[0] != "American" || cuisines[2] != "Thai" {
		t.Fatalf("Cuisines: %v err=%v", cuisines, err)
	}

	ok, err := repo.Delete(dbc, userID, a.ID)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Delete(dbc, userID, a.ID)
	if err != nil || ok {
		t.Fatalf("Delete twice: ok=%v err=%v", ok, err)
	}
	if got, _ := repo.GetByID(dbc, userID, a.ID); got != nil {
		t.Fatalf("expected hard delete")
	}
}

func TestExtractionHistoryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewExtractionHistoryRepo(db, testutil.Logger(t))
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		row := &types.ExtractionHistory{
			UserID:     userID,
			SourceText: "Pump House",
			Confidence: 0.5,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Minute),
		}
		row.Extracted = datatypes.NewJSONType(restaurants.Mention{Name: "Pump House"})
		if _, err := repo.Create(dbc, []*types.ExtractionHistory{row}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	rows, total, err := repo.ListByUser(dbc, userID, 2, 0)
	if err != nil || total != 3 || len(rows) != 2 {
		t.Fatalf("ListByUser: total=%d len=%d err=%v", total, len(rows), err)
	}
	if rows[0].Extracted.Data().Name != "Pump House" {
		t.Fatalf("extracted payload lost: %+v", rows[0].Extracted.Data())
	}
}

func TestFoldLockKey(t *testing.T) {
	user := uuid.New()
	a := FoldLockKey(user, "Pump House", "Bengaluru")
	if b := FoldLockKey(user, "  pump   HOUSE ", "bengaluru "); a != b {
		t.Fatalf("case and spacing variants should share a key: %q vs %q", a, b)
	}
	if c := FoldLockKey(uuid.New(), "Pump House", "Bengaluru"); c == a {
		t.Fatalf("keys must be scoped per user")
	}
	if d := FoldLockKey(user, "Pump House", "Mumbai"); d == a {
		t.Fatalf("keys must include the location")
	}
}

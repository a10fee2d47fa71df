package restaurants

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/unidine-backend/internal/data/db"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// IdentityLookup selects how FindByIdentity compares (name, location).
type IdentityLookup struct {
	FoldCase  bool
	ForUpdate bool
}

type ListFilter struct {
	VisitStatus string
	Cuisine     string
	Search      string
	Sort        string
	Limit       int
	Offset      int
}

type CuisineCount struct {
	Cuisine string `json:"cuisine"`
	Count   int    `json:"count"`
}

type Stats struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	TopCuisines []CuisineCount   `json:"top_cuisines"`
}

type RestaurantRepo interface {
	Create(dbc dbctx.Context, r *types.Restaurant) error
	FindByIdentity(dbc dbctx.Context, userID uuid.UUID, name, location string, lookup IdentityLookup) (*types.Restaurant, error)
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Restaurant, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	List(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Restaurant, int64, error)
	Stats(dbc dbctx.Context, userID uuid.UUID) (*Stats, error)
	Cuisines(dbc dbctx.Context, userID uuid.UUID) ([]string, error)
	Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
}

type restaurantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRestaurantRepo(db *gorm.DB, baseLog *logger.Logger) RestaurantRepo {
	return &restaurantRepo{
		db:  db,
		log: baseLog.With("repo", "RestaurantRepo"),
	}
}

func (r *restaurantRepo) Create(dbc dbctx.Context, rec *types.Restaurant) error {
	if rec == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(rec).Error
}

// FoldLockKey names the advisory lock held while a case-insensitive identity
// is looked up for update.
func FoldLockKey(userID uuid.UUID, name, location string) string {
	return "restaurant:" + userID.String() + ":" + restaurants.FoldKey(name) + ":" + restaurants.FoldKey(location)
}

// FindByIdentity returns (nil, nil) when no record exists.
func (r *restaurantRepo) FindByIdentity(dbc dbctx.Context, userID uuid.UUID, name, location string, lookup IdentityLookup) (*types.Restaurant, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	q := dbc.Conn(r.db)
	if lookup.ForUpdate && db.SupportsRowLocks(q) {
		// Folded keys have no unique index, so racing creates that differ only in
		// case are serialized on the folded identity until the transaction ends.
		if lookup.FoldCase {
			if err := dbc.Conn(r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", FoldLockKey(userID, name, location)).Error; err != nil {
				return nil, err
			}
		}
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if lookup.FoldCase {
		q = q.Where("user_id = ? AND name_key = ? AND location_key = ?", userID, restaurants.FoldKey(name), restaurants.FoldKey(location)).
			Order("created_at ASC")
	} else {
		q = q.Where("user_id = ? AND name = ? AND location = ?", userID, name, location)
	}
	var rec types.Restaurant
	err := q.Limit(1).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *restaurantRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Restaurant, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var rec types.Restaurant
	err := dbc.Conn(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *restaurantRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.Conn(r.db).
		Model(&types.Restaurant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

var sortColumns = map[string]string{
	"":               "last_mentioned DESC",
	"last_mentioned": "last_mentioned DESC",
	"recent":         "last_mentioned DESC",
	"mentions":       "mentions DESC, last_mentioned DESC",
	"name":           "name ASC",
	"created_at":     "created_at DESC",
	"oldest":         "first_mentioned ASC",
}

func (r *restaurantRepo) List(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Restaurant, int64, error) {
	out := []*types.Restaurant{}
	if userID == uuid.Nil {
		return out, 0, nil
	}
	conn := dbc.Conn(r.db)
	q := conn.Model(&types.Restaurant{}).Where("user_id = ?", userID)
	if s := strings.TrimSpace(filter.VisitStatus); s != "" {
		q = q.Where("visit_status = ?", s)
	}
	if c := strings.TrimSpace(filter.Cuisine); c != "" {
		q = whereCuisine(conn, q, c)
	}
	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(COALESCE(notes, '')) LIKE ?)", like, like, like)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := sortColumns[strings.ToLower(strings.TrimSpace(filter.Sort))]
	if !ok {
		order = sortColumns[""]
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// whereCuisine matches one element of the cuisine JSON array exactly.
func whereCuisine(conn, q *gorm.DB, cuisine string) *gorm.DB {
	switch conn.Dialector.Name() {
	case db.DriverPostgres:
		return q.Where("cuisine @> ?", datatypes.JSONSlice[string]{cuisine})
	default:
		return q.Where("EXISTS (SELECT 1 FROM json_each(restaurant.cuisine) WHERE json_each.value = ?)", cuisine)
	}
}

func (r *restaurantRepo) Stats(dbc dbctx.Context, userID uuid.UUID) (*Stats, error) {
	st := &Stats{ByStatus: map[string]int64{}, TopCuisines: []CuisineCount{}}
	if userID == uuid.Nil {
		return st, nil
	}
	conn := dbc.Conn(r.db)

	var rows []struct {
		VisitStatus string
		Count       int64
	}
	if err := conn.Model(&types.Restaurant{}).
		Select("visit_status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("visit_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range []string{restaurants.VisitWantToVisit, restaurants.VisitVisited, restaurants.VisitNotInterested} {
		st.ByStatus[s] = 0
	}
	for _, row := range rows {
		st.ByStatus[row.VisitStatus] = row.Count
		st.Total += row.Count
	}

	counts, err := r.cuisineCounts(dbc, userID)
	if err != nil {
		return nil, err
	}
	for name, n := range counts {
		st.TopCuisines = append(st.TopCuisines, CuisineCount{Cuisine: name, Count: n})
	}
	sort.Slice(st.TopCuisines, func(i, j int) bool {
		if st.TopCuisines[i].Count != st.TopCuisines[j].Count {
			return st.TopCuisines[i].Count > st.TopCuisines[j].Count
		}
		return st.TopCuisines[i].Cuisine < st.TopCuisines[j].Cuisine
	})
	if len(st.TopCuisines) > 5 {
		st.TopCuisines = st.TopCuisines[:5]
	}
	return st, nil
}

func (r *restaurantRepo) Cuisines(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	counts, err := r.cuisineCounts(dbc, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(counts))
	for name := range counts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// cuisineCounts counts records per cuisine. Each record counts once per cuisine.
func (r *restaurantRepo) cuisineCounts(dbc dbctx.Context, userID uuid.UUID) (map[string]int, error) {
	var lists []datatypes.JSONSlice[string]
	if err := dbc.Conn(r.db).
		Model(&types.Restaurant{}).
		Where("user_id = ?", userID).
		Pluck("cuisine", &lists).Error; err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, list := range lists {
		seen := map[string]bool{}
		for _, c := range list {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			counts[c]++
		}
	}
	return counts, nil
}

func (r *restaurantRepo) Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return false, nil
	}
	res := dbc.Conn(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.Restaurant{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/db"
	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/realtime/bus"
)

type RestaurantService interface {
	List(dbc dbctx.Context, userID uuid.UUID, filter repos.RestaurantListFilter) ([]*types.Restaurant, int64, error)
	Get(dbc dbctx.Context, userID, id uuid.UUID) (*types.Restaurant, error)
	UpdateStatus(dbc dbctx.Context, userID, id uuid.UUID, status string) (*types.Restaurant, error)
	Delete(dbc dbctx.Context, userID, id uuid.UUID) error
	Stats(dbc dbctx.Context, userID uuid.UUID) (*repos.RestaurantStats, error)
	Cuisines(dbc dbctx.Context, userID uuid.UUID) ([]string, error)
	SaveManual(ctx context.Context, userID uuid.UUID, m *restaurants.Mention, sourceText string) (*types.Restaurant, error)
}

type restaurantService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.RestaurantRepo
	merge  MergeService
	events bus.Bus
}

func NewRestaurantService(db *gorm.DB, baseLog *logger.Logger, repo repos.RestaurantRepo, merge MergeService, events bus.Bus) RestaurantService {
	if events == nil {
		events = bus.Nop{}
	}
	return &restaurantService{
		db:     db,
		log:    baseLog.With("service", "RestaurantService"),
		repo:   repo,
		merge:  merge,
		events: events,
	}
}

func (s *restaurantService) List(dbc dbctx.Context, userID uuid.UUID, filter repos.RestaurantListFilter) ([]*types.Restaurant, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, restaurants.NewError(restaurants.CodeValidation, "list_restaurants", "user id required", nil)
	}
	if filter.VisitStatus != "" && !restaurants.ValidVisitStatus(filter.VisitStatus) {
		return nil, 0, restaurants.NewError(restaurants.CodeValidation, "list_restaurants", "invalid visit status", nil)
	}
	rows, total, err := s.repo.List(dbc, userID, filter)
	if err != nil {
		return nil, 0, db.MapError("list_restaurants", err)
	}
	return rows, total, nil
}

func (s *restaurantService) Get(dbc dbctx.Context, userID, id uuid.UUID) (*types.Restaurant, error) {
	rec, err := s.repo.GetByID(dbc, userID, id)
	if err != nil {
		return nil, db.MapError("get_restaurant", err)
	}
	if rec == nil {
		return nil, restaurants.NewError(restaurants.CodeNotFound, "get_restaurant", "Restaurant not found", nil)
	}
	return rec, nil
}

// UpdateStatus changes the visit status. visit_date is stamped on the first
// transition to visited and kept afterwards.
func (s *restaurantService) UpdateStatus(dbc dbctx.Context, userID, id uuid.UUID, status string) (*types.Restaurant, error) {
	status = strings.TrimSpace(status)
	if !restaurants.ValidVisitStatus(status) {
		return nil, restaurants.NewError(restaurants.CodeValidation, "update_status", "invalid visit status", nil)
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	var out *types.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		rec, err := s.repo.GetByID(inner, userID, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return restaurants.NewError(restaurants.CodeNotFound, "update_status", "Restaurant not found", nil)
		}
		now := time.Now().UTC()
		updates := map[string]interface{}{"visit_status": status, "updated_at": now}
		if status == restaurants.VisitVisited && rec.VisitDate == nil {
			updates["visit_date"] = now
			rec.VisitDate = &now
		}
		if err := s.repo.UpdateFields(inner, rec.ID, updates); err != nil {
			return err
		}
		rec.VisitStatus = status
		rec.UpdatedAt = now
		out = rec
		return nil
	})
	if err != nil {
		return nil, db.MapError("update_status", err)
	}
	s.publish(ctx, bus.EventRestaurantUpdated, out)
	return out, nil
}

func (s *restaurantService) Delete(dbc dbctx.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.Delete(dbc, userID, id)
	if err != nil {
		return db.MapError("delete_restaurant", err)
	}
	if !ok {
		return restaurants.NewError(restaurants.CodeNotFound, "delete_restaurant", "Restaurant not found", nil)
	}
	s.publish(dbc.Ctx, bus.EventRestaurantDeleted, &types.Restaurant{ID: id, UserID: userID})
	return nil
}

func (s *restaurantService) Stats(dbc dbctx.Context, userID uuid.UUID) (*repos.RestaurantStats, error) {
	st, err := s.repo.Stats(dbc, userID)
	if err != nil {
		return nil, db.MapError("restaurant_stats", err)
	}
	return st, nil
}

func (s *restaurantService) Cuisines(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	out, err := s.repo.Cuisines(dbc, userID)
	if err != nil {
		return nil, db.MapError("restaurant_cuisines", err)
	}
	return out, nil
}

// SaveManual runs a user-entered mention through the merge engine.
func (s *restaurantService) SaveManual(ctx context.Context, userID uuid.UUID, m *restaurants.Mention, sourceText string) (*types.Restaurant, error) {
	if m != nil && strings.TrimSpace(sourceText) == "" {
		sourceText = m.SourceText
	}
	return s.merge.MergeFrom(ctx, m, sourceText, userID, Origin{Source: restaurants.SourceManual})
}

func (s *restaurantService) publish(ctx context.Context, evtType string, rec *types.Restaurant) {
	if rec == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.events.Publish(ctx, bus.RestaurantEvent{
		Type:         evtType,
		UserID:       rec.UserID,
		RestaurantID: rec.ID,
		Name:         rec.Name,
		Location:     rec.Location,
		Mentions:     rec.Mentions,
		Source:       rec.Source,
	}); err != nil {
		s.log.Warn("publish restaurant event failed", "restaurant_id", rec.ID, "error", err)
	}
}

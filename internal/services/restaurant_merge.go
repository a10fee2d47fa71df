package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/db"
	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/realtime/bus"
)

const (
	MatchPolicyExact           = "exact"
	MatchPolicyCaseInsensitive = "case_insensitive"

	DefaultMergeAttempts     = 3
	DefaultEnrichmentTimeout = 5 * time.Second
)

// Enricher looks a restaurant up in an external place directory.
type Enricher interface {
	Enrich(ctx context.Context, name, location string) (*restaurants.Enrichment, error)
}

// Origin describes where a merged mention came from.
type Origin struct {
	Source          string
	InstagramUserID string
}

type MergeConfig struct {
	MatchPolicy       string
	MaxAttempts       int
	EnrichmentTimeout time.Duration
}

type MergeService interface {
	Merge(ctx context.Context, m *restaurants.Mention, sourceText string, userID uuid.UUID) (*types.Restaurant, error)
	MergeFrom(ctx context.Context, m *restaurants.Mention, sourceText string, userID uuid.UUID, origin Origin) (*types.Restaurant, error)
}

type mergeService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.RestaurantRepo
	enricher Enricher
	events   bus.Bus
	cfg      MergeConfig
	now      func() time.Time
}

func NewMergeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.RestaurantRepo,
	enricher Enricher,
	events bus.Bus,
	cfg MergeConfig,
) MergeService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMergeAttempts
	}
	if cfg.EnrichmentTimeout <= 0 {
		cfg.EnrichmentTimeout = DefaultEnrichmentTimeout
	}
	if cfg.MatchPolicy != MatchPolicyCaseInsensitive {
		cfg.MatchPolicy = MatchPolicyExact
	}
	if events == nil {
		events = bus.Nop{}
	}
	return &mergeService{
		db:       db,
		log:      baseLog.With("service", "MergeService"),
		repo:     repo,
		enricher: enricher,
		events:   events,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *mergeService) Merge(ctx context.Context, m *restaurants.Mention, sourceText string, userID uuid.UUID) (*types.Restaurant, error) {
	return s.MergeFrom(ctx, m, sourceText, userID, Origin{Source: restaurants.SourceInstagram})
}

// MergeFrom upserts the mention into the user's collection. Repeated calls with
// the same input keep counting mentions.
func (s *mergeService) MergeFrom(ctx context.Context, m *restaurants.Mention, sourceText string, userID uuid.UUID, origin Origin) (rec *types.Restaurant, err error) {
	if m == nil || strings.TrimSpace(m.Name) == "" || userID == uuid.Nil {
		return nil, restaurants.NewError(restaurants.CodeMissingData, "merge", "Missing required data", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	name := strings.TrimSpace(m.Name)
	location := strings.TrimSpace(m.Location)
	if location == "" {
		location = restaurants.UnknownLocation
	}

	ctx, span := observability.StartSpan(ctx, "restaurant.merge",
		attribute.String("match_policy", s.cfg.MatchPolicy),
	)
	start := time.Now()
	result := "error"
	defer func() {
		observability.Current().ObserveMerge(result, time.Since(start))
		observability.EndSpan(span, err)
	}()

	var created bool
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		rec, created, err = s.mergeOnce(ctx, m, name, location, sourceText, userID, origin)
		if err == nil {
			break
		}
		if !db.IsUniqueViolation(err) {
			return nil, db.MapError("merge", err)
		}
		observability.Current().IncMergeRetry()
		s.log.Debug("merge create raced, retrying as update", "attempt", attempt, "user_id", userID)
	}
	if err != nil {
		s.log.Warn("merge attempts exhausted", "attempts", s.cfg.MaxAttempts, "user_id", userID, "error", err)
		return nil, restaurants.Wrap(restaurants.CodePersistenceConflict, "merge", err)
	}
	span.SetAttributes(attribute.Bool("created", created), attribute.Int("mentions", rec.Mentions))

	evtType := bus.EventRestaurantUpdated
	result = "updated"
	if created {
		evtType = bus.EventRestaurantCreated
		result = "created"
		s.enrich(ctx, rec)
	}
	if perr := s.events.Publish(ctx, bus.RestaurantEvent{
		Type:         evtType,
		UserID:       userID,
		RestaurantID: rec.ID,
		Name:         rec.Name,
		Location:     rec.Location,
		Mentions:     rec.Mentions,
		Source:       rec.Source,
	}); perr != nil {
		s.log.Warn("publish restaurant event failed", "restaurant_id", rec.ID, "error", perr)
	}
	return rec, nil
}

// mergeOnce runs one transactional find-then-update-or-create attempt.
func (s *mergeService) mergeOnce(ctx context.Context, m *restaurants.Mention, name, location, sourceText string, userID uuid.UUID, origin Origin) (*types.Restaurant, bool, error) {
	var (
		out     *types.Restaurant
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.repo.FindByIdentity(dbc, userID, name, location, repos.IdentityLookup{
			FoldCase:  s.cfg.MatchPolicy == MatchPolicyCaseInsensitive,
			ForUpdate: true,
		})
		if err != nil {
			return err
		}
		now := s.now()
		if existing != nil {
			updates := applyMergeRules(existing, m, sourceText, now)
			if err := s.repo.UpdateFields(dbc, existing.ID, updates); err != nil {
				return err
			}
			out = existing
			return nil
		}

		rec := newRestaurantRecord(m, name, location, sourceText, userID, origin, now)
		if err := s.repo.Create(dbc, rec); err != nil {
			return err
		}
		out = rec
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// applyMergeRules folds m into rec in place and returns the column patch.
func applyMergeRules(rec *types.Restaurant, m *restaurants.Mention, sourceText string, now time.Time) map[string]interface{} {
	rec.Cuisine = restaurants.AppendUnique([]string(rec.Cuisine), m.Cuisine...)
	rec.Dishes = restaurants.AppendUnique([]string(rec.Dishes), m.Dishes...)
	rec.Mentions++
	rec.MentionTexts = append(append([]string{}, rec.MentionTexts...), sourceText)
	rec.LastMentioned = now
	rec.UpdatedAt = now

	updates := map[string]interface{}{
		"cuisine":        datatypes.NewJSONSlice([]string(rec.Cuisine)),
		"dishes":         datatypes.NewJSONSlice([]string(rec.Dishes)),
		"mentions":       rec.Mentions,
		"mention_texts":  datatypes.NewJSONSlice([]string(rec.MentionTexts)),
		"last_mentioned": now,
		"updated_at":     now,
	}
	if m.Confidence != nil {
		rec.ExtractionConfidence = datatypes.NewJSONType(*m.Confidence)
		updates["extraction_confidence"] = rec.ExtractionConfidence
	}
	if link := strings.TrimSpace(m.MediaLink); link != "" {
		rec.MediaLink = link
		updates["media_link"] = link
	}
	if m.PriceRange != "" {
		rec.PriceRange = m.PriceRange
		updates["price_range"] = m.PriceRange
	}
	if m.IsRecommendation && !rec.IsRecommendation {
		rec.IsRecommendation = true
		updates["is_recommendation"] = true
	}
	return updates
}

func newRestaurantRecord(m *restaurants.Mention, name, location, sourceText string, userID uuid.UUID, origin Origin, now time.Time) *types.Restaurant {
	cuisine := restaurants.AppendUnique(nil, m.Cuisine...)
	if len(cuisine) == 0 {
		cuisine = []string{restaurants.UnknownCuisine}
	}
	dishes := restaurants.AppendUnique([]string{}, m.Dishes...)
	conf := restaurants.Confidence{}
	if m.Confidence != nil {
		conf = *m.Confidence
	}
	price := m.PriceRange
	if price == "" {
		price = restaurants.PriceUnknown
	}
	source := origin.Source
	if source == "" {
		source = restaurants.SourceInstagram
	}
	return &types.Restaurant{
		ID:                   uuid.New(),
		UserID:               userID,
		Name:                 name,
		Location:             location,
		Cuisine:              cuisine,
		Dishes:               dishes,
		PriceRange:           price,
		IsRecommendation:     m.IsRecommendation,
		Mentions:             1,
		MentionTexts:         []string{sourceText},
		ExtractionConfidence: datatypes.NewJSONType(conf),
		VisitStatus:          restaurants.VisitWantToVisit,
		FirstMentioned:       now,
		LastMentioned:        now,
		MediaLink:            strings.TrimSpace(m.MediaLink),
		Source:               source,
		InstagramUserID:      origin.InstagramUserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// enrich patches a freshly created record with place details. Failures leave
// the record as it is.
func (s *mergeService) enrich(ctx context.Context, rec *types.Restaurant) {
	if s.enricher == nil || rec == nil {
		return
	}
	ectx, cancel := context.WithTimeout(ctx, s.cfg.EnrichmentTimeout)
	defer cancel()
	ectx, span := observability.StartSpan(ectx, "restaurant.enrich")

	e, err := s.enricher.Enrich(ectx, rec.Name, rec.Location)
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		observability.Current().IncEnrichment(status)
		ferr := restaurants.Wrap(restaurants.CodeEnrichmentFailure, "enrich", err)
		observability.EndSpan(span, ferr)
		s.log.Warn("enrichment failed", "restaurant_id", rec.ID, "error", ferr)
		return
	}
	if e == nil {
		observability.Current().IncEnrichment("no_match")
		observability.EndSpan(span, nil)
		return
	}

	updates := e.Updates(s.now())
	if err := s.repo.UpdateFields(dbctx.Context{Ctx: ctx}, rec.ID, updates); err != nil {
		observability.Current().IncEnrichment("error")
		observability.EndSpan(span, err)
		s.log.Warn("enrichment patch failed", "restaurant_id", rec.ID, "error", err)
		return
	}
	observability.Current().IncEnrichment("ok")
	observability.EndSpan(span, nil)
	applyEnrichment(rec, e)
}

func applyEnrichment(rec *types.Restaurant, e *restaurants.Enrichment) {
	now := time.Now().UTC()
	rec.EnrichedAt = &now
	if e.PlaceID != "" {
		rec.GooglePlaceID = e.PlaceID
	}
	if e.FormattedAddress != "" {
		rec.FormattedAddress = e.FormattedAddress
	}
	if e.Latitude != nil && e.Longitude != nil {
		rec.Latitude, rec.Longitude = e.Latitude, e.Longitude
	}
	if e.Rating != nil {
		rec.Rating = e.Rating
	}
	if e.PriceRange != "" {
		rec.PriceRange = e.PriceRange
	}
	if e.Phone != "" {
		rec.Phone = e.Phone
	}
	if e.Website != "" {
		rec.Website = e.Website
	}
}

package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/modules/extraction"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// DefaultSaveThreshold is the overall confidence a mention must exceed to be saved.
const DefaultSaveThreshold = 0.5

type SaveRequest struct {
	Text            string
	UserID          uuid.UUID
	Threshold       float64
	MediaLink       string
	Source          string
	InstagramUserID string
}

type ExtractionService interface {
	Extract(ctx context.Context, text string) extraction.Result
	ExtractAndMaybeSave(ctx context.Context, req SaveRequest) (*types.Restaurant, extraction.Result, error)
	RecordHistory(dbc dbctx.Context, userID uuid.UUID, text string, res extraction.Result, saved *types.Restaurant) error
	ListHistory(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.ExtractionHistory, int64, error)
}

type extractionService struct {
	db        *gorm.DB
	log       *logger.Logger
	extractor *extraction.Extractor
	merge     MergeService
	history   repos.ExtractionHistoryRepo
}

func NewExtractionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	extractor *extraction.Extractor,
	merge MergeService,
	history repos.ExtractionHistoryRepo,
) ExtractionService {
	if extractor == nil {
		extractor = extraction.NewExtractor(nil)
	}
	return &extractionService{
		db:        db,
		log:       baseLog.With("service", "ExtractionService"),
		extractor: extractor,
		merge:     merge,
		history:   history,
	}
}

func (s *extractionService) Extract(ctx context.Context, text string) extraction.Result {
	_, span := observability.StartSpan(ctx, "extraction.extract", attribute.Int("text_len", len(text)))
	res := s.extractor.Extract(text)
	span.SetAttributes(
		attribute.Bool("success", res.Success),
		attribute.Float64("overall", res.Overall()),
	)
	observability.EndSpan(span, nil)

	if res.Success {
		observability.Current().ObserveExtraction("mention", res.Overall())
	} else {
		observability.Current().ObserveExtraction("not_a_mention", 0)
	}
	return res
}

// ExtractAndMaybeSave merges the mention only when the overall confidence is
// strictly above the threshold. A nil record with a nil error means nothing was saved.
func (s *extractionService) ExtractAndMaybeSave(ctx context.Context, req SaveRequest) (*types.Restaurant, extraction.Result, error) {
	res := s.Extract(ctx, req.Text)
	if !res.Success || res.Restaurant == nil {
		return nil, res, nil
	}
	if res.Overall() <= req.Threshold {
		observability.Current().ObserveExtraction("below_threshold", res.Overall())
		s.log.Debug("extraction below save threshold", "overall", res.Overall(), "threshold", req.Threshold)
		return nil, res, nil
	}
	if s.merge == nil {
		return nil, res, restaurants.NewError(restaurants.CodeInternal, "extract_and_save", "merge engine not configured", nil)
	}

	mention := *res.Restaurant
	if strings.TrimSpace(req.MediaLink) != "" {
		mention.MediaLink = strings.TrimSpace(req.MediaLink)
	}
	rec, err := s.merge.MergeFrom(ctx, &mention, req.Text, req.UserID, Origin{
		Source:          req.Source,
		InstagramUserID: req.InstagramUserID,
	})
	if err != nil {
		return nil, res, err
	}
	observability.Current().ObserveExtraction("saved", res.Overall())
	return rec, res, nil
}

func (s *extractionService) RecordHistory(dbc dbctx.Context, userID uuid.UUID, text string, res extraction.Result, saved *types.Restaurant) error {
	if s.history == nil || userID == uuid.Nil || !res.Success || res.Restaurant == nil {
		return nil
	}
	row := &types.ExtractionHistory{
		UserID:     userID,
		SourceText: text,
		Extracted:  datatypes.NewJSONType(*res.Restaurant),
		Confidence: res.Overall(),
		Saved:      saved != nil,
	}
	if saved != nil {
		id := saved.ID
		row.RestaurantID = &id
	}
	if dbc.Tx == nil {
		dbc.Tx = s.db
	}
	_, err := s.history.Create(dbc, []*types.ExtractionHistory{row})
	return err
}

func (s *extractionService) ListHistory(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.ExtractionHistory, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, restaurants.NewError(restaurants.CodeValidation, "list_history", "user id required", nil)
	}
	limit, offset = clampPage(limit, offset)
	return s.history.ListByUser(dbc, userID, limit, offset)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

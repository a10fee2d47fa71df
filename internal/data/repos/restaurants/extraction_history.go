package restaurants

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type ExtractionHistoryRepo interface {
	Create(dbc dbctx.Context, rows []*types.ExtractionHistory) ([]*types.ExtractionHistory, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.ExtractionHistory, int64, error)
}

type extractionHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExtractionHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ExtractionHistoryRepo {
	return &extractionHistoryRepo{
		db:  db,
		log: baseLog.With("repo", "ExtractionHistoryRepo"),
	}
}

func (r *extractionHistoryRepo) Create(dbc dbctx.Context, rows []*types.ExtractionHistory) ([]*types.ExtractionHistory, error) {
	if len(rows) == 0 {
		return []*types.ExtractionHistory{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *extractionHistoryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.ExtractionHistory, int64, error) {
	out := []*types.ExtractionHistory{}
	if userID == uuid.Nil {
		return out, 0, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := dbc.Conn(r.db).Model(&types.ExtractionHistory{}).Where("user_id = ?", userID)
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

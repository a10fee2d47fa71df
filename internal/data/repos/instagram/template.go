package instagram

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type TemplateRepo interface {
	Create(dbc dbctx.Context, tmpl *types.ResponseTemplate) error
	ListByAccount(dbc dbctx.Context, accountID uuid.UUID, activeOnly bool) ([]*types.ResponseTemplate, error)
	IncrementUse(dbc dbctx.Context, id uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{db: db, log: baseLog.With("repo", "ResponseTemplateRepo")}
}

func (r *templateRepo) Create(dbc dbctx.Context, tmpl *types.ResponseTemplate) error {
	if tmpl == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(tmpl).Error
}

func (r *templateRepo) ListByAccount(dbc dbctx.Context, accountID uuid.UUID, activeOnly bool) ([]*types.ResponseTemplate, error) {
	out := []*types.ResponseTemplate{}
	if accountID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("account_id = ?", accountID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("created_at ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *templateRepo) IncrementUse(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Conn(r.db).
		Model(&types.ResponseTemplate{}).
		Where("id = ?", id).
		UpdateColumn("use_count", gorm.Expr("use_count + ?", 1)).Error
}

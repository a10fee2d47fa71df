package instagram

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type InteractionRepo interface {
	Create(dbc dbctx.Context, it *types.Interaction) error
	ExistsByExternalID(dbc dbctx.Context, accountID uuid.UUID, externalID string) (bool, error)
	MarkResponded(dbc dbctx.Context, id uuid.UUID, responseText string) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, interactionType string, limit, offset int) ([]*types.Interaction, int64, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	return &interactionRepo{db: db, log: baseLog.With("repo", "InteractionRepo")}
}

func (r *interactionRepo) Create(dbc dbctx.Context, it *types.Interaction) error {
	if it == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(it).Error
}

func (r *interactionRepo) ExistsByExternalID(dbc dbctx.Context, accountID uuid.UUID, externalID string) (bool, error) {
	if accountID == uuid.Nil || externalID == "" {
		return false, nil
	}
	var count int64
	err := dbc.Conn(r.db).
		Model(&types.Interaction{}).
		Where("account_id = ? AND external_id = ?", accountID, externalID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *interactionRepo) MarkResponded(dbc dbctx.Context, id uuid.UUID, responseText string) error {
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return dbc.Conn(r.db).
		Model(&types.Interaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"responded":     true,
			"response_text": responseText,
			"responded_at":  now,
			"updated_at":    now,
		}).Error
}

func (r *interactionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, interactionType string, limit, offset int) ([]*types.Interaction, int64, error) {
	out := []*types.Interaction{}
	if userID == uuid.Nil {
		return out, 0, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := dbc.Conn(r.db).
		Model(&types.Interaction{}).
		Joins("JOIN instagram_account ON instagram_account.id = interaction.account_id").
		Where("instagram_account.user_id = ?", userID)
	if interactionType != "" {
		q = q.Where("interaction.type = ?", interactionType)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Select("interaction.*").
		Order("interaction.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

package instagram

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type AccountRepo interface {
	Upsert(dbc dbctx.Context, acct *types.InstagramAccount) (*types.InstagramAccount, error)
	GetByIGBusinessID(dbc dbctx.Context, igBusinessID string) (*types.InstagramAccount, error)
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.InstagramAccount, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InstagramAccount, error)
	UpdateSettings(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) (bool, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return &accountRepo{db: db, log: baseLog.With("repo", "InstagramAccountRepo")}
}

// Upsert connects an account or refreshes its credentials when the business id is already known.
// Automation settings of an existing account are left as they are.
func (r *accountRepo) Upsert(dbc dbctx.Context, acct *types.InstagramAccount) (*types.InstagramAccount, error) {
	if acct == nil || acct.IGBusinessID == "" {
		return nil, errors.New("ig_business_id required")
	}
	conn := dbc.Conn(r.db)
	err := conn.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ig_business_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "username", "access_token", "token_expires_at", "is_active", "updated_at",
		}),
	}).Create(acct).Error
	if err != nil {
		return nil, err
	}
	return r.GetByIGBusinessID(dbc, acct.IGBusinessID)
}

func (r *accountRepo) GetByIGBusinessID(dbc dbctx.Context, igBusinessID string) (*types.InstagramAccount, error) {
	if igBusinessID == "" {
		return nil, nil
	}
	var acct types.InstagramAccount
	err := dbc.Conn(r.db).Where("ig_business_id = ?", igBusinessID).Take(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *accountRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.InstagramAccount, error) {
	var acct types.InstagramAccount
	err := dbc.Conn(r.db).Where("id = ? AND user_id = ?", id, userID).Take(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *accountRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InstagramAccount, error) {
	out := []*types.InstagramAccount{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepo) UpdateSettings(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := dbc.Conn(r.db).
		Model(&types.InstagramAccount{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

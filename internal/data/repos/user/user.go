package user

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// UserRepo stores login identities. Emails are compared lowercased and trimmed.
type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) error
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) Create(dbc dbctx.Context, u *types.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	u.Email = NormalizeEmail(u.Email)
	return dbc.Conn(r.db).Create(u).Error
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var u types.User
	err := dbc.Conn(r.db).Where("email = ?", email).Limit(1).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	err := dbc.Conn(r.db).
		Model(&types.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

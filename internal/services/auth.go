package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/db"
	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/apierr"
	"github.com/yungbote/unidine-backend/internal/platform/ctxutil"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const minPasswordLength = 8

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errInvalidToken       = errors.New("invalid or expired token")
)

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, *types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) RegisterUser(ctx context.Context, user *types.User) (*types.User, error) {
	if user == nil {
		return nil, apierr.BadRequest("invalid_request", errors.New("user required"))
	}
	user.Email = repos.NormalizeEmail(user.Email)
	user.FirstName = strings.TrimSpace(user.FirstName)
	user.LastName = strings.TrimSpace(user.LastName)
	if _, err := mail.ParseAddress(user.Email); err != nil || user.Email == "" {
		return nil, apierr.BadRequest("invalid_email", errors.New("a valid email is required"))
	}
	if len(user.Password) < minPasswordLength {
		return nil, apierr.BadRequest("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hash)

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return apierr.Conflict("email_taken", errors.New("email already registered"))
		}
		user.ID = uuid.New()
		return as.userRepo.Create(dbc, user)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apierr.Conflict("email_taken", errors.New("email already registered"))
		}
		return nil, err
	}
	as.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, *types.User, error) {
	email = repos.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apierr.Unauthorized("invalid_credentials", errInvalidCredentials)
	}
	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", nil, apierr.Unauthorized("invalid_credentials", errInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apierr.Unauthorized("invalid_credentials", errInvalidCredentials)
	}
	tok, err := as.generateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}
	return tok, user, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
}

// SetContextFromToken verifies an HS256 access token and attaches the user to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil || !token.Valid {
		return ctx, errInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, errInvalidToken
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

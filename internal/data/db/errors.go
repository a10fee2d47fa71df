package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation recognises duplicate-key failures from postgres and sqlite,
// with or without gorm's TranslateError.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// MapError folds infrastructure errors into the restaurant error taxonomy.
func MapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case restaurants.CodeOf(err) != "":
		return err
	case IsNotFound(err):
		return restaurants.Wrap(restaurants.CodeNotFound, op, err)
	case IsUniqueViolation(err):
		return restaurants.Wrap(restaurants.CodePersistenceConflict, op, err)
	default:
		return restaurants.Wrap(restaurants.CodeInternal, op, err)
	}
}

package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"pg code", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: restaurant.user_id, restaurant.name"), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestMapError(t *testing.T) {
	if MapError("x", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if !restaurants.IsCode(MapError("get", gorm.ErrRecordNotFound), restaurants.CodeNotFound) {
		t.Fatalf("expected not_found")
	}
	if !restaurants.IsCode(MapError("create", gorm.ErrDuplicatedKey), restaurants.CodePersistenceConflict) {
		t.Fatalf("expected persistence_conflict")
	}
	coded := restaurants.NewError(restaurants.CodeValidation, "op", "bad", nil)
	if MapError("other", coded) != coded {
		t.Fatalf("coded errors should pass through")
	}
	if !restaurants.IsCode(MapError("x", errors.New("boom")), restaurants.CodeInternal) {
		t.Fatalf("expected internal")
	}
}

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
)

func SeedRestaurant(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name, location string, cuisine ...string) *types.Restaurant {
	tb.Helper()
	now := time.Now().UTC()
	if len(cuisine) == 0 {
		cuisine = []string{restaurants.UnknownCuisine}
	}
	r := &types.Restaurant{
		UserID:         userID,
		Name:           name,
		Location:       location,
		Cuisine:        cuisine,
		Dishes:         []string{},
		PriceRange:     restaurants.PriceUnknown,
		Mentions:       1,
		MentionTexts:   []string{name + " seed"},
		VisitStatus:    restaurants.VisitWantToVisit,
		FirstMentioned: now,
		LastMentioned:  now,
		Source:         restaurants.SourceManual,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed restaurant: %v", err)
	}
	return r
}

func SeedInstagramAccount(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, igBusinessID string) *types.InstagramAccount {
	tb.Helper()
	a := &types.InstagramAccount{
		UserID:            userID,
		IGBusinessID:      igBusinessID,
		Username:          "unidine_test",
		AccessToken:       "test-token",
		IsActive:          true,
		AutoReplyMessages: true,
		AutoReplyComments: true,
		SaveThreshold:     0.5,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed instagram account: %v", err)
	}
	return a
}

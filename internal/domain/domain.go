package domain

import (
	"github.com/yungbote/unidine-backend/internal/domain/instagram"
	"github.com/yungbote/unidine-backend/internal/domain/jobs"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/domain/user"
)

type User = user.User

type Restaurant = restaurants.Restaurant
type RestaurantMention = restaurants.Mention
type Confidence = restaurants.Confidence
type ExtractionHistory = restaurants.ExtractionHistory

type InstagramAccount = instagram.Account
type Interaction = instagram.Interaction
type ResponseTemplate = instagram.ResponseTemplate

type JobRun = jobs.JobRun

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Restaurant{},
		&ExtractionHistory{},
		&InstagramAccount{},
		&Interaction{},
		&ResponseTemplate{},
		&JobRun{},
	}
}

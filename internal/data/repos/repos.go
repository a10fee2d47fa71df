package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos/instagram"
	"github.com/yungbote/unidine-backend/internal/data/repos/jobs"
	"github.com/yungbote/unidine-backend/internal/data/repos/restaurants"
	"github.com/yungbote/unidine-backend/internal/data/repos/user"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type RestaurantRepo = restaurants.RestaurantRepo
type ExtractionHistoryRepo = restaurants.ExtractionHistoryRepo
type RestaurantListFilter = restaurants.ListFilter
type RestaurantStats = restaurants.Stats
type IdentityLookup = restaurants.IdentityLookup

type InstagramAccountRepo = instagram.AccountRepo
type InteractionRepo = instagram.InteractionRepo
type ResponseTemplateRepo = instagram.TemplateRepo

type JobRunRepo = jobs.JobRunRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NormalizeEmail(email string) string { return user.NormalizeEmail(email) }

func NewRestaurantRepo(db *gorm.DB, log *logger.Logger) RestaurantRepo {
	return restaurants.NewRestaurantRepo(db, log)
}

func NewExtractionHistoryRepo(db *gorm.DB, log *logger.Logger) ExtractionHistoryRepo {
	return restaurants.NewExtractionHistoryRepo(db, log)
}

func NewInstagramAccountRepo(db *gorm.DB, log *logger.Logger) InstagramAccountRepo {
	return instagram.NewAccountRepo(db, log)
}

func NewInteractionRepo(db *gorm.DB, log *logger.Logger) InteractionRepo {
	return instagram.NewInteractionRepo(db, log)
}

func NewResponseTemplateRepo(db *gorm.DB, log *logger.Logger) ResponseTemplateRepo {
	return instagram.NewTemplateRepo(db, log)
}

func NewJobRunRepo(db *gorm.DB, log *logger.Logger) JobRunRepo { return jobs.NewJobRunRepo(db, log) }

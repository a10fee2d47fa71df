package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type Repos struct {
	User              repos.UserRepo
	Restaurant        repos.RestaurantRepo
	ExtractionHistory repos.ExtractionHistoryRepo
	InstagramAccount  repos.InstagramAccountRepo
	Interaction       repos.InteractionRepo
	ResponseTemplate  repos.ResponseTemplateRepo
	JobRun            repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		Restaurant:        repos.NewRestaurantRepo(db, log),
		ExtractionHistory: repos.NewExtractionHistoryRepo(db, log),
		InstagramAccount:  repos.NewInstagramAccountRepo(db, log),
		Interaction:       repos.NewInteractionRepo(db, log),
		ResponseTemplate:  repos.NewResponseTemplateRepo(db, log),
		JobRun:            repos.NewJobRunRepo(db, log),
	}
}

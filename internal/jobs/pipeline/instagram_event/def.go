package instagram_event

import (
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/platform/instagram"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/services"
)

type Pipeline struct {
	db  *gorm.DB
	log *logger.Logger

	accounts     repos.InstagramAccountRepo
	interactions repos.InteractionRepo
	templates    repos.ResponseTemplateRepo
	extraction   services.ExtractionService
	ai           services.InteractionAI
	ig           instagram.Client
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	accounts repos.InstagramAccountRepo,
	interactions repos.InteractionRepo,
	templates repos.ResponseTemplateRepo,
	extraction services.ExtractionService,
	ai services.InteractionAI,
	ig instagram.Client,
) *Pipeline {
	return &Pipeline{
		db:           db,
		log:          baseLog.With("job", services.JobTypeInstagramEvent),
		accounts:     accounts,
		interactions: interactions,
		templates:    templates,
		extraction:   extraction,
		ai:           ai,
		ig:           ig,
	}
}

func (p *Pipeline) Type() string { return services.JobTypeInstagramEvent }

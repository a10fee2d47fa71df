package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/instagram"
	"github.com/yungbote/unidine-backend/internal/platform/apierr"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type ConnectAccountInput struct {
	IGBusinessID   string
	Username       string
	AccessToken    string
	TokenExpiresAt *time.Time
}

// AccountSettings is a partial update; nil fields are left unchanged.
type AccountSettings struct {
	IsActive          *bool    `json:"is_active"`
	AutoReplyComments *bool    `json:"auto_reply_comments"`
	AutoReplyMessages *bool    `json:"auto_reply_messages"`
	AIRepliesEnabled  *bool    `json:"ai_replies_enabled"`
	SaveThreshold     *float64 `json:"save_threshold"`
}

type TemplateInput struct {
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	Triggers  []string  `json:"triggers"`
	Content   string    `json:"content"`
	ForType   string    `json:"for_type"`
}

type InstagramAccountService interface {
	Connect(dbc dbctx.Context, userID uuid.UUID, in ConnectAccountInput) (*types.InstagramAccount, error)
	List(dbc dbctx.Context, userID uuid.UUID) ([]*types.InstagramAccount, error)
	UpdateSettings(dbc dbctx.Context, userID, accountID uuid.UUID, in AccountSettings) (*types.InstagramAccount, error)
	CreateTemplate(dbc dbctx.Context, userID uuid.UUID, in TemplateInput) (*types.ResponseTemplate, error)
	ListTemplates(dbc dbctx.Context, userID, accountID uuid.UUID) ([]*types.ResponseTemplate, error)
	ListInteractions(dbc dbctx.Context, userID uuid.UUID, interactionType string, limit, offset int) ([]*types.Interaction, int64, error)
}

type instagramAccountService struct {
	db           *gorm.DB
	log          *logger.Logger
	accounts     repos.InstagramAccountRepo
	templates    repos.ResponseTemplateRepo
	interactions repos.InteractionRepo
}

func NewInstagramAccountService(
	db *gorm.DB,
	baseLog *logger.Logger,
	accounts repos.InstagramAccountRepo,
	templates repos.ResponseTemplateRepo,
	interactions repos.InteractionRepo,
) InstagramAccountService {
	return &instagramAccountService{
		db:           db,
		log:          baseLog.With("service", "InstagramAccountService"),
		accounts:     accounts,
		templates:    templates,
		interactions: interactions,
	}
}

func (s *instagramAccountService) Connect(dbc dbctx.Context, userID uuid.UUID, in ConnectAccountInput) (*types.InstagramAccount, error) {
	igID := strings.TrimSpace(in.IGBusinessID)
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", errors.New("not authenticated"))
	}
	if igID == "" || strings.TrimSpace(in.AccessToken) == "" {
		return nil, apierr.BadRequest("invalid_request", errors.New("ig_business_id and access_token are required"))
	}
	acct, err := s.accounts.Upsert(dbc, &types.InstagramAccount{
		UserID:            userID,
		IGBusinessID:      igID,
		Username:          strings.TrimSpace(in.Username),
		AccessToken:       strings.TrimSpace(in.AccessToken),
		TokenExpiresAt:    in.TokenExpiresAt,
		IsActive:          true,
		AutoReplyMessages: true,
		SaveThreshold:     DefaultSaveThreshold,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("instagram account connected", "user_id", userID, "account_id", acct.ID)
	return acct, nil
}

func (s *instagramAccountService) List(dbc dbctx.Context, userID uuid.UUID) ([]*types.InstagramAccount, error) {
	return s.accounts.ListByUser(dbc, userID)
}

func (s *instagramAccountService) UpdateSettings(dbc dbctx.Context, userID, accountID uuid.UUID, in AccountSettings) (*types.InstagramAccount, error) {
	updates := map[string]interface{}{}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.AutoReplyComments != nil {
		updates["auto_reply_comments"] = *in.AutoReplyComments
	}
	if in.AutoReplyMessages != nil {
		updates["auto_reply_messages"] = *in.AutoReplyMessages
	}
	if in.AIRepliesEnabled != nil {
		updates["ai_replies_enabled"] = *in.AIRepliesEnabled
	}
	if in.SaveThreshold != nil {
		if *in.SaveThreshold < 0 || *in.SaveThreshold > 1 {
			return nil, apierr.BadRequest("invalid_threshold", errors.New("save_threshold must be within [0,1]"))
		}
		updates["save_threshold"] = *in.SaveThreshold
	}
	if len(updates) == 0 {
		return nil, apierr.BadRequest("invalid_request", errors.New("no settings supplied"))
	}
	ok, err := s.accounts.UpdateSettings(dbc, userID, accountID, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.NotFound("account_not_found", errors.New("account not found"))
	}
	return s.accounts.GetByID(dbc, userID, accountID)
}

func (s *instagramAccountService) CreateTemplate(dbc dbctx.Context, userID uuid.UUID, in TemplateInput) (*types.ResponseTemplate, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apierr.BadRequest("invalid_request", errors.New("name and content are required"))
	}
	switch in.ForType {
	case "", instagram.InteractionComment, instagram.InteractionMessage, instagram.InteractionMention:
	default:
		return nil, apierr.BadRequest("invalid_for_type", errors.New("for_type must be comment, message or mention"))
	}
	if _, err := s.ownedAccount(dbc, userID, in.AccountID); err != nil {
		return nil, err
	}
	triggers := make([]string, 0, len(in.Triggers))
	for _, t := range in.Triggers {
		if t = strings.TrimSpace(t); t != "" {
			triggers = append(triggers, t)
		}
	}
	tmpl := &types.ResponseTemplate{
		AccountID: in.AccountID,
		Name:      strings.TrimSpace(in.Name),
		Triggers:  triggers,
		Content:   in.Content,
		ForType:   in.ForType,
		IsActive:  true,
	}
	if err := s.templates.Create(dbc, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (s *instagramAccountService) ListTemplates(dbc dbctx.Context, userID, accountID uuid.UUID) ([]*types.ResponseTemplate, error) {
	if _, err := s.ownedAccount(dbc, userID, accountID); err != nil {
		return nil, err
	}
	return s.templates.ListByAccount(dbc, accountID, false)
}

func (s *instagramAccountService) ListInteractions(dbc dbctx.Context, userID uuid.UUID, interactionType string, limit, offset int) ([]*types.Interaction, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.interactions.ListByUser(dbc, userID, interactionType, limit, offset)
}

func (s *instagramAccountService) ownedAccount(dbc dbctx.Context, userID, accountID uuid.UUID) (*types.InstagramAccount, error) {
	if accountID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_request", errors.New("account_id required"))
	}
	acct, err := s.accounts.GetByID(dbc, userID, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, apierr.NotFound("account_not_found", errors.New("account not found"))
	}
	return acct, nil
}

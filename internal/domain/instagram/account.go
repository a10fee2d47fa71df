package instagram

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is an Instagram professional account connected by a UniDine user.
// Webhook entries are routed to the owning user through IGBusinessID.
type Account struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	IGBusinessID   string     `gorm:"column:ig_business_id;not null;uniqueIndex" json:"ig_business_id"`
	Username       string     `gorm:"column:username" json:"username"`
	AccessToken    string     `gorm:"column:access_token" json:"-"`
	TokenExpiresAt *time.Time `gorm:"column:token_expires_at" json:"token_expires_at,omitempty"`
	IsActive       bool       `gorm:"column:is_active;not null" json:"is_active"`

	AutoReplyComments bool    `gorm:"column:auto_reply_comments;not null;default:false" json:"auto_reply_comments"`
	AutoReplyMessages bool    `gorm:"column:auto_reply_messages;not null" json:"auto_reply_messages"`
	AIRepliesEnabled  bool    `gorm:"column:ai_replies_enabled;not null;default:false" json:"ai_replies_enabled"`
	SaveThreshold     float64 `gorm:"column:save_threshold;not null;default:0.5" json:"save_threshold"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "instagram_account" }

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

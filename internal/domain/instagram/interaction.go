package instagram

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InteractionComment = "comment"
	InteractionMessage = "message"
	InteractionMention = "mention"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

const (
	IntentRecommendation = "recommendation"
	IntentQuestion       = "question"
	IntentComplaint      = "complaint"
	IntentPraise         = "praise"
	IntentOther          = "other"
)

// Interaction is one inbound comment, DM or mention seen through the webhook.
type Interaction struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_interaction_external,priority:1" json:"account_id"`
	Type           string     `gorm:"column:type;not null;index" json:"type"`
	ExternalID     string     `gorm:"column:external_id;not null;uniqueIndex:idx_interaction_external,priority:2" json:"external_id"`
	MediaID        string     `gorm:"column:media_id" json:"media_id,omitempty"`
	SenderID       string     `gorm:"column:sender_id;index" json:"sender_id"`
	SenderUsername string     `gorm:"column:sender_username" json:"sender_username,omitempty"`
	Content        string     `gorm:"column:content" json:"content"`
	Sentiment      string     `gorm:"column:sentiment;not null;default:'neutral'" json:"sentiment"`
	Intent         string     `gorm:"column:intent;not null;default:'other'" json:"intent"`
	Responded      bool       `gorm:"column:responded;not null;default:false" json:"responded"`
	ResponseText   string     `gorm:"column:response_text" json:"response_text,omitempty"`
	RespondedAt    *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	RestaurantID   *uuid.UUID `gorm:"type:uuid;column:restaurant_id;index" json:"restaurant_id,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (Interaction) TableName() string { return "interaction" }

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

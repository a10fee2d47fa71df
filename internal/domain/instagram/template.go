package instagram

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResponseTemplate is a canned auto-reply chosen when one of its triggers
// appears in the inbound text.
type ResponseTemplate struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"account_id"`
	Name      string                      `gorm:"column:name;not null" json:"name"`
	Triggers  datatypes.JSONSlice[string] `gorm:"column:triggers" json:"triggers"`
	Content   string                      `gorm:"column:content;not null" json:"content"`
	ForType   string                      `gorm:"column:for_type" json:"for_type,omitempty"`
	IsActive  bool                        `gorm:"column:is_active;not null" json:"is_active"`
	UseCount  int                         `gorm:"column:use_count;not null;default:0" json:"use_count"`
	CreatedAt time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"not null" json:"updated_at"`
}

func (ResponseTemplate) TableName() string { return "response_template" }

func (t *ResponseTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Matches reports whether the template applies to text of the given interaction type.
// An empty ForType applies to every type.
func (t *ResponseTemplate) Matches(interactionType, text string) bool {
	if t == nil || !t.IsActive {
		return false
	}
	if t.ForType != "" && t.ForType != interactionType {
		return false
	}
	lower := strings.ToLower(text)
	for _, trig := range t.Triggers {
		trig = strings.ToLower(strings.TrimSpace(trig))
		if trig != "" && strings.Contains(lower, trig) {
			return true
		}
	}
	return false
}

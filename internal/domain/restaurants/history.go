package restaurants

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExtractionHistory records one successful extraction request.
type ExtractionHistory struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID                   `gorm:"type:uuid;not null;index:idx_extraction_history_user,priority:1" json:"user_id"`
	SourceText   string                      `gorm:"column:source_text;not null" json:"source_text"`
	Extracted    datatypes.JSONType[Mention] `gorm:"column:extracted" json:"extracted"`
	Confidence   float64                     `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Saved        bool                        `gorm:"column:saved;not null;default:false" json:"saved"`
	RestaurantID *uuid.UUID                  `gorm:"type:uuid;column:restaurant_id;index" json:"restaurant_id,omitempty"`
	CreatedAt    time.Time                   `gorm:"not null;index:idx_extraction_history_user,priority:2" json:"created_at"`
}

func (ExtractionHistory) TableName() string { return "extraction_history" }

func (h *ExtractionHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

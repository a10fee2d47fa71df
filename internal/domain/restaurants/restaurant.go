package restaurants

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	VisitWantToVisit   = "want_to_visit"
	VisitVisited       = "visited"
	VisitNotInterested = "not_interested"
)

const (
	SourceInstagram = "instagram"
	SourceManual    = "manual"
	SourceCLI       = "cli"
)

func ValidVisitStatus(s string) bool {
	switch s {
	case VisitWantToVisit, VisitVisited, VisitNotInterested:
		return true
	default:
		return false
	}
}

// Restaurant is a user's accumulated record for one (name, location).
// The identity triple is enforced by idx_restaurant_identity; rows are hard
// deleted so a removed identity can be recreated.
type Restaurant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_restaurant_identity,priority:1;index:idx_restaurant_fold,priority:1" json:"user_id"`
	Name     string    `gorm:"column:name;not null;uniqueIndex:idx_restaurant_identity,priority:2" json:"name"`
	Location string    `gorm:"column:location;not null;uniqueIndex:idx_restaurant_identity,priority:3" json:"location"`

	NameKey     string `gorm:"column:name_key;not null;index:idx_restaurant_fold,priority:2" json:"-"`
	LocationKey string `gorm:"column:location_key;not null;index:idx_restaurant_fold,priority:3" json:"-"`

	Cuisine              datatypes.JSONSlice[string] `gorm:"column:cuisine" json:"cuisine"`
	Dishes               datatypes.JSONSlice[string] `gorm:"column:dishes" json:"dishes"`
	PriceRange           string                      `gorm:"column:price_range;not null;default:'Unknown'" json:"price_range"`
	IsRecommendation     bool                        `gorm:"column:is_recommendation;not null;default:false" json:"is_recommendation"`
	Mentions             int                         `gorm:"column:mentions;not null;default:1" json:"mentions"`
	// Appended on every merge, oldest first. Never deduplicated or capped.
	MentionTexts         datatypes.JSONSlice[string] `gorm:"column:mention_texts" json:"mention_texts"`

	ExtractionConfidence datatypes.JSONType[Confidence] `gorm:"column:extraction_confidence" json:"extraction_confidence"`

	VisitStatus    string     `gorm:"column:visit_status;not null;default:'want_to_visit';index" json:"visit_status"`
	VisitDate      *time.Time `gorm:"column:visit_date" json:"visit_date,omitempty"`
	FirstMentioned time.Time  `gorm:"column:first_mentioned;not null" json:"first_mentioned"`
	LastMentioned  time.Time  `gorm:"column:last_mentioned;not null;index" json:"last_mentioned"`
	MediaLink      string     `gorm:"column:media_link" json:"media_link,omitempty"`

	Source          string `gorm:"column:source;not null;default:'instagram'" json:"source"`
	InstagramUserID string `gorm:"column:instagram_user_id;index" json:"instagram_user_id,omitempty"`
	Notes           string `gorm:"column:notes" json:"notes,omitempty"`

	Latitude         *float64   `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude        *float64   `gorm:"column:longitude" json:"longitude,omitempty"`
	Rating           *float64   `gorm:"column:rating" json:"rating,omitempty"`
	Phone            string     `gorm:"column:phone" json:"phone,omitempty"`
	Website          string     `gorm:"column:website" json:"website,omitempty"`
	FormattedAddress string     `gorm:"column:formatted_address" json:"formatted_address,omitempty"`
	GooglePlaceID    string     `gorm:"column:google_place_id;index" json:"google_place_id,omitempty"`
	EnrichedAt       *time.Time `gorm:"column:enriched_at" json:"enriched_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Restaurant) TableName() string { return "restaurant" }

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.NameKey = FoldKey(r.Name)
	r.LocationKey = FoldKey(r.Location)
	return nil
}

// FoldKey is the normalized secondary key used by case-insensitive lookups.
func FoldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

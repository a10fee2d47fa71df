package restaurants

import "time"

// Enrichment is what a place lookup can add to a record. It never carries the
// identity key, so patching with it cannot move a record.
type Enrichment struct {
	PlaceID          string
	FormattedAddress string
	Latitude         *float64
	Longitude        *float64
	Rating           *float64
	PriceRange       string
	Phone            string
	Website          string
}

// Updates renders the non-empty fields as a column patch.
func (e *Enrichment) Updates(now time.Time) map[string]interface{} {
	if e == nil {
		return nil
	}
	out := map[string]interface{}{"enriched_at": now}
	if e.PlaceID != "" {
		out["google_place_id"] = e.PlaceID
	}
	if e.FormattedAddress != "" {
		out["formatted_address"] = e.FormattedAddress
	}
	if e.Latitude != nil && e.Longitude != nil {
		out["latitude"] = *e.Latitude
		out["longitude"] = *e.Longitude
	}
	if e.Rating != nil {
		out["rating"] = *e.Rating
	}
	if e.PriceRange != "" {
		out["price_range"] = e.PriceRange
	}
	if e.Phone != "" {
		out["phone"] = e.Phone
	}
	if e.Website != "" {
		out["website"] = e.Website
	}
	return out
}

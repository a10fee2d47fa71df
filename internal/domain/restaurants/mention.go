package restaurants

import "math"

const (
	UnknownRestaurant = "Unknown Restaurant"
	UnknownLocation   = "Unknown Location"
	UnknownCuisine    = "Unknown"
)

const (
	PriceBudget    = "$"
	PriceModerate  = "$$"
	PriceExpensive = "$$$"
	PriceLuxury    = "$$$$"
	PriceUnknown   = "Unknown"
)

// Confidence holds per-field heuristic certainty in [0,1].
type Confidence struct {
	Name     float64 `json:"name"`
	Location float64 `json:"location"`
	Cuisine  float64 `json:"cuisine"`
	Overall  float64 `json:"overall"`
}

// Weights used to fold field confidences into Overall.
type Weights struct {
	Name     float64
	Location float64
	Cuisine  float64
}

var DefaultWeights = Weights{Name: 0.5, Location: 0.3, Cuisine: 0.2}

// Overall is the weighted mean normalized by the weight sum, so changing a
// weight never pushes the result outside [0,1].
func (w Weights) Overall(name, location, cuisine float64) float64 {
	sum := w.Name + w.Location + w.Cuisine
	if sum <= 0 {
		return 0
	}
	v := (Clamp01(name)*w.Name + Clamp01(location)*w.Location + Clamp01(cuisine)*w.Cuisine) / sum
	return Clamp01(v)
}

func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Mention is one extracted restaurant reference. It is never persisted directly.
type Mention struct {
	Name             string      `json:"name"`
	Location         string      `json:"location"`
	Cuisine          []string    `json:"cuisine"`
	Dishes           []string    `json:"dishes"`
	PriceRange       string      `json:"priceRange,omitempty"`
	IsRecommendation bool        `json:"isRecommendation"`
	Confidence       *Confidence `json:"extractionConfidence,omitempty"`
	SourceText       string      `json:"sourceText,omitempty"`
	MediaLink        string      `json:"mediaLink,omitempty"`
}

// AppendUnique appends each value not already present (case-sensitive), keeping order.
func AppendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(values))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

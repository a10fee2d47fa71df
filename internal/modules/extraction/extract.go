package extraction

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
)

const (
	MessageNotAMention = "This doesn't appear to mention a restaurant."
	messageExtracted   = "Successfully extracted restaurant information with %d%% confidence."
)

// Analysis is the raw view of what was found. Missing values stay nil rather than
// taking the placeholders used on the Mention.
type Analysis struct {
	IsRestaurantMention bool                   `json:"isRestaurantMention"`
	RestaurantName      *string                `json:"restaurantName"`
	Location            *string                `json:"location"`
	Cuisine             []string               `json:"cuisine"`
	Dishes              []string               `json:"dishes"`
	PriceRange          *string                `json:"priceRange"`
	IsRecommendation    bool                   `json:"isRecommendation"`
	Confidence          restaurants.Confidence `json:"confidence"`
}

type Result struct {
	Success          bool                 `json:"success"`
	Restaurant       *restaurants.Mention `json:"restaurant,omitempty"`
	IsRecommendation bool                 `json:"isRecommendation"`
	Analysis         Analysis             `json:"analysis"`
	Message          string               `json:"message"`
}

// Overall is the weighted confidence of the analysis; zero when nothing was found.
func (r Result) Overall() float64 {
	return r.Analysis.Confidence.Overall
}

// Extractor builds Results from a matcher and a weight set. The zero value is not
// usable; use NewExtractor.
type Extractor struct {
	matcher MentionMatcher
	weights restaurants.Weights
}

type ExtractorOption func(*Extractor)

func WithWeights(w restaurants.Weights) ExtractorOption {
	return func(e *Extractor) { e.weights = w }
}

// NewExtractor wraps m. A nil matcher means the embedded default lexicon.
func NewExtractor(m MentionMatcher, opts ...ExtractorOption) *Extractor {
	if m == nil {
		m = DefaultMatcher()
	}
	e := &Extractor{matcher: m, weights: restaurants.DefaultWeights}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract is pure and never fails: text that does not look like a restaurant
// mention yields Success=false.
func (e *Extractor) Extract(text string) Result {
	sig := e.matcher.Match(text)
	if !sig.IsMention {
		return Result{
			Success: false,
			Analysis: Analysis{
				Cuisine: []string{},
				Dishes:  []string{},
			},
			Message: MessageNotAMention,
		}
	}

	conf := ScoreWith(e.weights, sig)
	analysis := Analysis{
		IsRestaurantMention: true,
		Cuisine:             nonNil(sig.Cuisine),
		Dishes:              nonNil(sig.Dishes),
		IsRecommendation:    sig.IsRecommendation,
		Confidence:          conf,
	}
	mention := &restaurants.Mention{
		Name:             restaurants.UnknownRestaurant,
		Location:         restaurants.UnknownLocation,
		Cuisine:          nonNil(sig.Cuisine),
		Dishes:           nonNil(sig.Dishes),
		PriceRange:       sig.PriceRange,
		IsRecommendation: sig.IsRecommendation,
		SourceText:       text,
	}
	if sig.Name != nil && strings.TrimSpace(sig.Name.Value) != "" {
		v := sig.Name.Value
		analysis.RestaurantName = &v
		mention.Name = v
	}
	if sig.Location != nil && strings.TrimSpace(sig.Location.Value) != "" {
		v := sig.Location.Value
		analysis.Location = &v
		mention.Location = v
	}
	if sig.PriceRange != "" {
		v := sig.PriceRange
		analysis.PriceRange = &v
	}
	mc := conf
	mention.Confidence = &mc

	return Result{
		Success:          true,
		Restaurant:       mention,
		IsRecommendation: sig.IsRecommendation,
		Analysis:         analysis,
		Message:          fmt.Sprintf(messageExtracted, int(math.Round(conf.Overall*100))),
	}
}

// Extract runs the default extractor.
func Extract(text string) Result {
	return defaultExtractor().Extract(text)
}

var (
	defaultExtractorOnce     sync.Once
	defaultExtractorInstance *Extractor
)

func defaultExtractor() *Extractor {
	defaultExtractorOnce.Do(func() {
		defaultExtractorInstance = NewExtractor(DefaultMatcher())
	})
	return defaultExtractorInstance
}

func nonNil(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

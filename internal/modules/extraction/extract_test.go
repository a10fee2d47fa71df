package extraction

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestExtractPumpHouse(t *testing.T) {
	res := Extract("I tried Pump House last week, amazing food!")
	if !res.Success || res.Restaurant == nil {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Restaurant.Name != "Pump House" {
		t.Fatalf("name: got %q", res.Restaurant.Name)
	}
	if res.Restaurant.Confidence == nil || res.Restaurant.Confidence.Name != 1.0 {
		t.Fatalf("name confidence: got %+v", res.Restaurant.Confidence)
	}
	if !res.IsRecommendation {
		t.Fatalf("expected recommendation")
	}
	if res.Restaurant.Location != restaurants.UnknownLocation {
		t.Fatalf("location placeholder: got %q", res.Restaurant.Location)
	}
	if res.Analysis.Location != nil {
		t.Fatalf("analysis location should be nil, got %q", *res.Analysis.Location)
	}
	if !approx(res.Overall(), 0.5) {
		t.Fatalf("overall: got %v", res.Overall())
	}
	if res.Message != "Successfully extracted restaurant information with 50% confidence." {
		t.Fatalf("message: got %q", res.Message)
	}
}

func TestExtractNotAMention(t *testing.T) {
	res := Extract("Just doing laundry today")
	if res.Success || res.Restaurant != nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Message != MessageNotAMention {
		t.Fatalf("message: got %q", res.Message)
	}
	if res.Analysis.IsRestaurantMention || res.Overall() != 0 {
		t.Fatalf("analysis should be empty: %+v", res.Analysis)
	}
	if res.Analysis.Cuisine == nil || len(res.Analysis.Cuisine) != 0 {
		t.Fatalf("cuisine should be an empty list: %#v", res.Analysis.Cuisine)
	}
}

func TestExtractSushiSpot(t *testing.T) {
	res := Extract("Try Sushi Spot, I had amazing sashimi and omakase!")
	if !res.Success {
		t.Fatalf("expected success")
	}
	r := res.Restaurant
	if r.Name != "Sushi Spot" {
		t.Fatalf("name: got %q", r.Name)
	}
	if len(r.Cuisine) != 1 || r.Cuisine[0] != "Japanese" {
		t.Fatalf("cuisine: got %v", r.Cuisine)
	}
	if len(r.Dishes) != 2 || r.Dishes[0] != "Sashimi" || r.Dishes[1] != "Omakase" {
		t.Fatalf("dishes: got %v", r.Dishes)
	}
	if !approx(res.Overall(), 0.68) {
		t.Fatalf("overall: got %v", res.Overall())
	}
}

func TestExtractGazetteerAndImpliedCuisine(t *testing.T) {
	res := Extract("Burger Barn in Chicago has great burgers and milkshakes")
	r := res.Restaurant
	if r.Name != "Burger Barn" || r.Location != "Chicago" {
		t.Fatalf("got %q / %q", r.Name, r.Location)
	}
	if r.Confidence.Location != 1.0 || r.Confidence.Cuisine != 0.8 {
		t.Fatalf("confidence: %+v", r.Confidence)
	}
	if strings.Join(r.Dishes, ",") != "Burger,Milkshakes" {
		t.Fatalf("dishes: %v", r.Dishes)
	}
	if !approx(res.Overall(), 0.96) {
		t.Fatalf("overall: got %v", res.Overall())
	}
}

func TestExtractAliasResolvesToCanonicalCity(t *testing.T) {
	res := Extract("Best dinner ever at Taco Palace in Bangalore")
	if res.Restaurant.Location != "Bengaluru" {
		t.Fatalf("location: got %q", res.Restaurant.Location)
	}
	if res.Restaurant.Name != "Taco Palace" {
		t.Fatalf("name: got %q", res.Restaurant.Name)
	}
}

func TestExtractRestaurantCalledPattern(t *testing.T) {
	res := Extract("We loved the restaurant called Green Leaf in Brooklyn, pricey but worth it.")
	r := res.Restaurant
	if r.Name != "Green Leaf" || r.Confidence.Name != 0.9 {
		t.Fatalf("name: %q %v", r.Name, r.Confidence.Name)
	}
	if r.Location != "Brooklyn" || r.Confidence.Location != 0.6 {
		t.Fatalf("location: %q %v", r.Location, r.Confidence.Location)
	}
	if r.PriceRange != restaurants.PriceExpensive {
		t.Fatalf("price: %q", r.PriceRange)
	}
}

func TestExtractCapitalizedFallbackIgnoresNameAsLocation(t *testing.T) {
	res := Extract("Dinner at Olive Garden tonight")
	r := res.Restaurant
	if r.Name != "Olive Garden" || r.Confidence.Name != 0.4 {
		t.Fatalf("name: %q %v", r.Name, r.Confidence.Name)
	}
	if r.Location != restaurants.UnknownLocation {
		t.Fatalf("location should be unknown, got %q", r.Location)
	}
}

func TestExtractImpliedLocationLiteral(t *testing.T) {
	res := Extract("Found a lovely place in Manhattan for Italian food")
	r := res.Restaurant
	if r.Name != restaurants.UnknownRestaurant || r.Location != "Manhattan" {
		t.Fatalf("got %q / %q", r.Name, r.Location)
	}
	if len(r.Cuisine) != 1 || r.Cuisine[0] != "Italian" {
		t.Fatalf("cuisine: %v", r.Cuisine)
	}
	if r.Confidence.Name != 0.3 || r.Confidence.Location != 0.8 || r.Confidence.Cuisine != 0.6 {
		t.Fatalf("confidence: %+v", r.Confidence)
	}
}

func TestExtractConfidenceBounds(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"food",
		"Spot",
		"restaurant called",
		"Italian Mexican Chinese Japanese food in Tokyo at Pump House, cheap and delicious",
		strings.Repeat("Amazing Burger Heaven restaurant ", 50),
		"éàü Ünïcödé Café in Zürich",
	}
	for _, in := range inputs {
		res := Extract(in)
		c := res.Analysis.Confidence
		for _, v := range []float64{c.Name, c.Location, c.Cuisine, c.Overall} {
			if v < 0 || v > 1 {
				t.Fatalf("confidence out of bounds for %q: %+v", in, c)
			}
		}
		if res.Success && res.Restaurant == nil {
			t.Fatalf("success without restaurant for %q", in)
		}
	}
}

func TestExtractWithCustomWeights(t *testing.T) {
	e := NewExtractor(nil, WithWeights(restaurants.Weights{Name: 1}))
	res := e.Extract("I tried Pump House last week")
	if !approx(res.Overall(), 1.0) {
		t.Fatalf("overall: got %v", res.Overall())
	}
}

type stubMatcher struct{ sig Signals }

func (s stubMatcher) Match(string) Signals { return s.sig }

func TestExtractorUsesInjectedMatcher(t *testing.T) {
	e := NewExtractor(stubMatcher{sig: Signals{
		IsMention: true,
		Name:      &Candidate{Value: "Model Pick", Confidence: 0.95},
	}})
	res := e.Extract("anything")
	if !res.Success || res.Restaurant.Name != "Model Pick" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractResultOmitsRestaurantOnFailure(t *testing.T) {
	decode := func(res Result) map[string]any {
		t.Helper()
		raw, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out := map[string]any{}
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return out
	}

	if _, ok := decode(Extract("Just doing laundry today"))["restaurant"]; ok {
		t.Fatalf("failed extraction should not carry a restaurant key")
	}
	if _, ok := decode(Extract("I tried Pump House last week, amazing food!"))["restaurant"]; !ok {
		t.Fatalf("successful extraction should carry a restaurant key")
	}
}

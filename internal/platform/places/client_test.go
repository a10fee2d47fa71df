package places

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

func TestNewWithoutKeyIsNil(t *testing.T) {
	c, err := New(context.Background(), logger.Nop(), Config{})
	if err != nil || c != nil {
		t.Fatalf("expected nil client, got %v %v", c, err)
	}
}

func TestEnrichMapsFirstPlace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/places:searchText") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			TextQuery string `json:"textQuery"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		if req.TextQuery != "Taco Palace San Diego" {
			t.Errorf("textQuery=%q", req.TextQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"places":[{"id":"place-1","formattedAddress":"1 Main St, San Diego","location":{"latitude":32.7,"longitude":-117.1},"rating":4.5,"priceLevel":"PRICE_LEVEL_MODERATE","websiteUri":"https://taco.example"}]}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), logger.Nop(), Config{APIKey: "k", Endpoint: srv.URL + "/"}, option.WithHTTPClient(srv.Client()))
	if err != nil || c == nil {
		t.Fatalf("New: %v", err)
	}
	e, err := c.Enrich(context.Background(), "Taco Palace", "San Diego")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if e.PlaceID != "place-1" || e.PriceRange != restaurants.PriceModerate || e.Rating == nil || *e.Rating != 4.5 {
		t.Fatalf("unexpected enrichment %+v", e)
	}
	if e.Latitude == nil || *e.Latitude != 32.7 {
		t.Fatalf("latitude not mapped")
	}
}

func TestEnrichNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, _ := New(context.Background(), logger.Nop(), Config{APIKey: "k", Endpoint: srv.URL + "/"}, option.WithHTTPClient(srv.Client()))
	if _, err := c.Enrich(context.Background(), "Nowhere", restaurants.UnknownLocation); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestPriceRange(t *testing.T) {
	if priceRange("PRICE_LEVEL_VERY_EXPENSIVE") != "$$$$" || priceRange("PRICE_LEVEL_UNSPECIFIED") != "" {
		t.Fatalf("price mapping wrong")
	}
}

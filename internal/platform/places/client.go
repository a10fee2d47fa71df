package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	placesapi "google.golang.org/api/places/v1"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const searchFields = "places.id,places.displayName,places.formattedAddress,places.location,places.rating,places.priceLevel,places.nationalPhoneNumber,places.websiteUri"

// ErrNoMatch is returned when the text search finds nothing.
var ErrNoMatch = errors.New("places: no match")

type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:   envutil.String("GOOGLE_PLACES_API_KEY", ""),
		Endpoint: envutil.String("GOOGLE_PLACES_ENDPOINT", ""),
		Timeout:  envutil.Seconds("ENRICHMENT_TIMEOUT_SECONDS", 5),
	}
}

// Client looks restaurants up through the Places API (New) text search.
type Client struct {
	log     *logger.Logger
	svc     *placesapi.Service
	timeout time.Duration
}

// New returns nil, nil when no API key is configured.
func New(ctx context.Context, log *logger.Logger, cfg Config, extra ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)
	svc, err := placesapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("places service: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{log: log.With("client", "PlacesClient"), svc: svc, timeout: timeout}, nil
}

// Enrich searches "<name> <location>" and maps the best hit.
func (c *Client) Enrich(ctx context.Context, name, location string) (*restaurants.Enrichment, error) {
	query := strings.TrimSpace(name)
	if location != "" && location != restaurants.UnknownLocation {
		query += " " + strings.TrimSpace(location)
	}
	if query == "" {
		return nil, ErrNoMatch
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Places.SearchText(&placesapi.GoogleMapsPlacesV1SearchTextRequest{
		TextQuery:      query,
		IncludedType:   "restaurant",
		MaxResultCount: 1,
	}).Fields(googleapi.Field(searchFields)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Places) == 0 || resp.Places[0] == nil {
		return nil, ErrNoMatch
	}
	return fromPlace(resp.Places[0]), nil
}

func fromPlace(p *placesapi.GoogleMapsPlacesV1Place) *restaurants.Enrichment {
	e := &restaurants.Enrichment{
		PlaceID:          p.Id,
		FormattedAddress: p.FormattedAddress,
		PriceRange:       priceRange(p.PriceLevel),
		Phone:            p.NationalPhoneNumber,
		Website:          p.WebsiteUri,
	}
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		e.Latitude, e.Longitude = &lat, &lng
	}
	if p.Rating > 0 {
		r := p.Rating
		e.Rating = &r
	}
	return e
}

func priceRange(level string) string {
	switch level {
	case "PRICE_LEVEL_FREE", "PRICE_LEVEL_INEXPENSIVE":
		return restaurants.PriceBudget
	case "PRICE_LEVEL_MODERATE":
		return restaurants.PriceModerate
	case "PRICE_LEVEL_EXPENSIVE":
		return restaurants.PriceExpensive
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return restaurants.PriceLuxury
	default:
		return ""
	}
}

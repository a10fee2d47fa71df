package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/unidine-backend/internal/platform/instagram"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/platform/openai"
	"github.com/yungbote/unidine-backend/internal/platform/places"
	"github.com/yungbote/unidine-backend/internal/platform/redisx"
	"github.com/yungbote/unidine-backend/internal/realtime/bus"
	"github.com/yungbote/unidine-backend/internal/services"
	"github.com/yungbote/unidine-backend/internal/temporalx"
)

// Clients holds the external integrations. Optional ones are nil when unconfigured.
type Clients struct {
	Redis     *goredis.Client
	Events    bus.Bus
	OpenAI    openai.Client
	Places    services.Enricher
	Instagram instagram.Client
	Temporal  temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	rdb, err := redisx.New(ctx, log, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	out.Redis = rdb
	out.Events = bus.New(log, rdb, cfg.Redis.Channel)

	// OpenAI
	ai, err := openai.NewClient(log, cfg.OpenAI)
	switch {
	case errors.Is(err, openai.ErrNotConfigured):
		log.Info("openai disabled; interaction analysis uses defaults")
	case err != nil:
		out.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	default:
		out.OpenAI = ai
	}

	// Places
	pc, err := places.New(ctx, log, cfg.Places)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init places client: %w", err)
	}
	if pc != nil {
		out.Places = pc
	} else {
		log.Info("places enrichment disabled (GOOGLE_PLACES_API_KEY not set)")
	}

	// Instagram Graph
	ig, err := instagram.New(log, cfg.Instagram)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init instagram client: %w", err)
	}
	out.Instagram = ig

	// Temporal
	tc, err := temporalx.NewClient(log, cfg.Temporal)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}
	out.Temporal = tc

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

package redisx

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func ConfigFromEnv() Config {
	return Config{
		Addr:     envutil.String("REDIS_ADDR", ""),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		Channel:  envutil.String("REDIS_CHANNEL", "unidine.restaurants"),
	}
}

// New dials and pings redis. It returns nil, nil when no address is configured;
// callers treat a nil client as "redis features off".
func New(ctx context.Context, log *logger.Logger, cfg Config) (*goredis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		if log != nil {
			log.Info("redis disabled (REDIS_ADDR not set)")
		}
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log != nil {
		log.Info("redis connected", "addr", addr)
	}
	return rdb, nil
}

// Deduper remembers keys for a TTL using SET NX.
type Deduper struct {
	rdb    goredis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewDeduper(rdb goredis.Cmdable, prefix string, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{rdb: rdb, prefix: prefix, ttl: ttl}
}

// FirstSeen reports whether key was unseen and records it. A nil Deduper sees
// everything for the first time.
func (d *Deduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	if d == nil || d.rdb == nil {
		return true, nil
	}
	ok, err := d.rdb.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}

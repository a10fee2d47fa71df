package temporalx

import (
	"time"

	"github.com/yungbote/unidine-backend/internal/platform/envutil"
)

const (
	DefaultNamespace = "unidine"
	DefaultTaskQueue = "unidine"
)

// Config is read from TEMPORAL_* variables. An empty Address disables Temporal,
// and jobs fall back to the DB worker.
type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	RetentionDays         int

	DialTimeout    time.Duration
	DialMaxWait    time.Duration
	DialBackoff    time.Duration
	DialBackoffMax time.Duration
}

func LoadConfig() Config {
	return Config{
		Address:   envutil.String("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", DefaultNamespace),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", DefaultTaskQueue),

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", ""),

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		RetentionDays:         envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7),

		DialTimeout:    envutil.Seconds("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5),
		DialMaxWait:    envutil.Seconds("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60),
		DialBackoff:    envutil.Duration("TEMPORAL_DIAL_BACKOFF", 250*time.Millisecond),
		DialBackoffMax: envutil.Duration("TEMPORAL_DIAL_BACKOFF_MAX", 5*time.Second),
	}
}

func (c Config) Enabled() bool { return c.Address != "" }

func (c Config) mTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}

// Backoff doubles base per attempt, capped at max.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}

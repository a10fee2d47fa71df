package temporalx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// NewClient dials Temporal with retries. It returns (nil, nil) when Temporal is not configured.
func NewClient(log *logger.Logger, cfg Config) (temporalsdkclient.Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Enabled() {
		log.Info("TEMPORAL_ADDRESS not set; jobs run on the DB worker")
		return nil, nil
	}

	opts := temporalsdkclient.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		Logger:    log.With("component", "temporal"),
	}
	if cfg.mTLS() {
		tlsCfg, err := loadTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.ConnectionOptions.TLS = tlsCfg
	}

	deadline := time.Now().Add(cfg.DialMaxWait)
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
		c, err := temporalsdkclient.DialContext(ctx, opts)
		cancel()
		if err == nil {
			if attempt > 1 {
				log.Info("Connected to Temporal", "address", cfg.Address, "namespace", cfg.Namespace, "attempts", attempt)
			}
			if cfg.AutoRegisterNamespace {
				if err := EnsureNamespace(context.Background(), cfg, log); err != nil {
					c.Close()
					return nil, err
				}
			}
			return c, nil
		}
		if cfg.DialMaxWait <= 0 || time.Now().After(deadline) {
			return nil, fmt.Errorf("temporal dial failed (address=%s namespace=%s): %w", cfg.Address, cfg.Namespace, err)
		}
		log.Warn("Temporal not reachable; retrying", "address", cfg.Address, "attempt", attempt, "error", err)
		time.Sleep(Backoff(cfg.DialBackoff, cfg.DialBackoffMax, attempt))
	}
}

// EnsureNamespace creates the namespace when it does not exist. Meant for
// self-hosted Temporal; managed namespaces should be provisioned ahead of time.
func EnsureNamespace(ctx context.Context, cfg Config, log *logger.Logger) error {
	if !cfg.Enabled() || cfg.Namespace == "" {
		return nil
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// The namespace client sends no namespace header, so it can create a missing one.
	nsOpts := temporalsdkclient.Options{HostPort: cfg.Address, Logger: log.With("component", "temporal")}
	if cfg.mTLS() {
		tlsCfg, err := loadTLSConfig(cfg)
		if err != nil {
			return err
		}
		nsOpts.ConnectionOptions.TLS = tlsCfg
	}
	nsClient, err := temporalsdkclient.NewNamespaceClient(nsOpts)
	if err != nil {
		return fmt.Errorf("temporal namespace ensure: init namespace client: %w", err)
	}
	defer nsClient.Close()

	retention := cfg.RetentionDays
	if retention < 1 || retention > 365 {
		retention = 7
	}

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("temporal namespace ensure: timed out (namespace=%s): %w", cfg.Namespace, ctx.Err())
		}
		_, err := nsClient.Describe(ctx, cfg.Namespace)
		if err == nil {
			return nil
		}
		var nfe *serviceerror.NamespaceNotFound
		if errors.As(err, &nfe) {
			err = nsClient.Register(ctx, &workflowservice.RegisterNamespaceRequest{
				Namespace:                        cfg.Namespace,
				Description:                      "unidine auto-registered namespace",
				WorkflowExecutionRetentionPeriod: durationpb.New(time.Duration(retention) * 24 * time.Hour),
			})
			var already *serviceerror.NamespaceAlreadyExists
			if err == nil || errors.As(err, &already) {
				log.Info("Temporal namespace ready", "namespace", cfg.Namespace, "retention_days", retention)
				return nil
			}
		}
		if !isRetryableRPC(err) {
			return fmt.Errorf("temporal namespace ensure: %w", err)
		}
		log.Warn("Temporal namespace ensure retrying", "namespace", cfg.Namespace, "attempt", attempt, "error", err)
		time.Sleep(Backoff(250*time.Millisecond, 5*time.Second, attempt))
	}
}

func loadTLSConfig(cfg Config) (*tls.Config, error) {
	if cfg.ClientCertPath == "" || cfg.ClientKeyPath == "" {
		return nil, fmt.Errorf("temporal tls: both TEMPORAL_CLIENT_CERT_PATH and TEMPORAL_CLIENT_KEY_PATH are required")
	}
	cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("temporal tls: load client cert/key: %w", err)
	}
	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if cfg.ClientCAPath != "" {
		pem, err := os.ReadFile(cfg.ClientCAPath)
		if err != nil {
			return nil, fmt.Errorf("temporal tls: read CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("temporal tls: invalid CA pem")
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}

func isRetryableRPC(err error) bool {
	if err == nil {
		return false
	}
	s, ok := status.FromError(err)
	if !ok {
		return errors.Is(err, context.DeadlineExceeded)
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

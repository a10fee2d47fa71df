package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/domain/jobs"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const namespace = "unidine"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	activityTime *prometheus.HistogramVec
	workerTotal  *prometheus.CounterVec

	extractions     *prometheus.CounterVec
	extractionConf  prometheus.Histogram
	merges          *prometheus.CounterVec
	mergeLatency    *prometheus.HistogramVec
	mergeRetries    prometheus.Counter
	enrichments     *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	autoReplies     *prometheus.CounterVec
	queueDepth      *prometheus.GaugeVec
	redisUp         prometheus.Gauge
	redisPing       prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when Init was never called or
// metrics are disabled. Every method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics(prometheus.NewRegistry())
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total",
			Help: "LLM requests by model/endpoint/status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_request_duration_seconds",
			Help:    "LLM request latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"model", "endpoint", "status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_tokens_total",
			Help: "LLM tokens by model/kind.",
		}, []string{"model", "kind"}),
		activityTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "job_duration_seconds",
			Help:    "Job handler duration in seconds by activity/job_type/status.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"activity", "job_type", "status"}),
		workerTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_total",
			Help: "Jobs finished by job_type/status.",
		}, []string{"job_type", "status"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "extractions_total",
			Help: "Extractions by outcome (mention, not_a_mention, saved, below_threshold).",
		}, []string{"outcome"}),
		extractionConf: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "extraction_overall_confidence",
			Help:    "Overall confidence of successful extractions.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "restaurant_merges_total",
			Help: "Restaurant merges by action (created, updated) or error code.",
		}, []string{"result"}),
		mergeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "restaurant_merge_duration_seconds",
			Help:    "Restaurant merge latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"result"}),
		mergeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "restaurant_merge_retries_total",
			Help: "Merge attempts retried after a unique violation.",
		}),
		enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "restaurant_enrichments_total",
			Help: "Place enrichment attempts by status.",
		}, []string{"status"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "webhook_events_total",
			Help: "Instagram webhook events by kind/result.",
		}, []string{"kind", "result"}),
		autoReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "instagram_auto_replies_total",
			Help: "Automated replies by source/status.",
		}, []string{"source", "status"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "job_queue_depth",
			Help: "Job runs by status.",
		}, []string{"status"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "redis_up",
			Help: "1 when the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "redis_ping_seconds",
			Help: "Latency of the last redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.activityTime, m.workerTotal,
		m.extractions, m.extractionConf,
		m.merges, m.mergeLatency, m.mergeRetries,
		m.enrichments, m.webhookEvents, m.autoReplies,
		m.queueDepth, m.redisUp, m.redisPing,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	m.Handler().ServeHTTP(w, r)
}

// StartServer exposes /metrics on a dedicated listener until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orUnknown(method, "UNKNOWN")
	route = orUnknown(route, "unknown")
	status = orUnknown(status, "0")
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

// TrackInflight bumps the in-flight gauge and returns the matching decrement.
func (m *Metrics) TrackInflight() (done func()) {
	if m == nil {
		return func() {}
	}
	m.apiInflight.Inc()
	return m.apiInflight.Dec
}

func (m *Metrics) ObserveActivity(activityName, jobType, status string, dur time.Duration) {
	if m == nil {
		return
	}
	activityName = orUnknown(activityName, "unknown")
	jobType = orUnknown(jobType, "unknown")
	status = orUnknown(status, "unknown")
	m.activityTime.WithLabelValues(activityName, jobType, status).Observe(dur.Seconds())
	m.workerTotal.WithLabelValues(jobType, status).Inc()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orUnknown(model, "unknown")
	endpoint = orUnknown(endpoint, "unknown")
	status = orUnknown(status, "0")
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// ObserveExtraction counts one pipeline run. overall is recorded only for mentions.
func (m *Metrics) ObserveExtraction(outcome string, overall float64) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(orUnknown(outcome, "unknown")).Inc()
	if outcome != "not_a_mention" {
		m.extractionConf.Observe(overall)
	}
}

func (m *Metrics) ObserveMerge(result string, dur time.Duration) {
	if m == nil {
		return
	}
	result = orUnknown(result, "unknown")
	m.merges.WithLabelValues(result).Inc()
	m.mergeLatency.WithLabelValues(result).Observe(dur.Seconds())
}

func (m *Metrics) IncMergeRetry() {
	if m == nil {
		return
	}
	m.mergeRetries.Inc()
}

func (m *Metrics) IncEnrichment(status string) {
	if m == nil {
		return
	}
	m.enrichments.WithLabelValues(orUnknown(status, "unknown")).Inc()
}

func (m *Metrics) IncWebhookEvent(kind, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(orUnknown(kind, "unknown"), orUnknown(result, "unknown")).Inc()
}

func (m *Metrics) IncAutoReply(source, status string) {
	if m == nil {
		return
	}
	m.autoReplies.WithLabelValues(orUnknown(source, "unknown"), orUnknown(status, "unknown")).Inc()
}

// StartDBCollector registers the sql.DB pool stats of db.
func (m *Metrics) StartDBCollector(log *logger.Logger, db *gorm.DB, name string) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: db stats unavailable", "error", err)
		}
		return
	}
	if err := m.registry.Register(collectors.NewDBStatsCollector(sqlDB, orUnknown(name, "main"))); err != nil && log != nil {
		log.Warn("metrics: db stats collector not registered", "error", err)
	}
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

// JobStatusCounter is the slice of the job repo the queue collector needs.
type JobStatusCounter interface {
	CountByStatus(dbc dbctx.Context, jobType string) (map[string]int64, error)
}

func (m *Metrics) StartJobQueueCollector(ctx context.Context, log *logger.Logger, counter JobStatusCounter) {
	if m == nil || counter == nil {
		return
	}
	interval := scrapeInterval()
	statuses := []string{jobs.StatusQueued, jobs.StatusRunning, jobs.StatusSucceeded, jobs.StatusFailed, jobs.StatusCanceled}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				counts, err := counter.CountByStatus(dbctx.Context{Ctx: ctx}, "")
				if err != nil {
					if log != nil {
						log.Warn("metrics: job queue depth query failed", "error", err)
					}
					continue
				}
				for _, s := range statuses {
					m.queueDepth.WithLabelValues(s).Set(float64(counts[s]))
				}
			}
		}
	}()
}

func orUnknown(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

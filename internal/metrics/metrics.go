package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"stripbench/internal/model"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the benchmark daemon.
type Metrics struct {
	RunsTotal       prometheus.Counter
	IterationsTotal prometheus.Counter

	// Last-run timing per case
	CaseMeanNs   *prometheus.GaugeVec // labels: impl, input
	CaseMedianNs *prometheus.GaugeVec // labels: impl, input

	// strconv mean / div mean, per input
	StrconvDivRatio *prometheus.GaugeVec // labels: input

	// Pipeline health
	FanoutDropsTotal *prometheus.CounterVec // labels: subscriber
	SQLiteCommitDur  prometheus.Histogram
	RedisPublishDur  prometheus.Histogram

	// Circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stripbench_runs_total",
			Help: "Total benchmark runs completed",
		}),
		IterationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stripbench_iterations_total",
			Help: "Total timed stripper calls across all runs",
		}),
		CaseMeanNs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stripbench_case_mean_ns",
			Help: "Mean ns/op of the last run (by impl and input)",
		}, []string{"impl", "input"}),
		CaseMedianNs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stripbench_case_median_ns",
			Help: "Median ns/op of the last run (by impl and input)",
		}, []string{"impl", "input"}),
		StrconvDivRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stripbench_strconv_div_ratio",
			Help: "Mean ns/op of the strconv variant divided by the div variant (by input)",
		}, []string{"input"}),
		FanoutDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stripbench_fanout_drops_total",
			Help: "Results dropped by the fan-out bus per subscriber",
		}, []string{"subscriber"}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stripbench_sqlite_commit_duration_seconds",
			Help:    "SQLite run commit latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stripbench_redis_publish_duration_seconds",
			Help:    "Redis result publish latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stripbench_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stripbench_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.IterationsTotal,
		m.CaseMeanNs,
		m.CaseMedianNs,
		m.StrconvDivRatio,
		m.FanoutDropsTotal,
		m.SQLiteCommitDur,
		m.RedisPublishDur,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
	)

	return m
}

// ObserveRun updates the per-case gauges and counters from a completed run.
func (m *Metrics) ObserveRun(run *model.Run) {
	m.RunsTotal.Inc()

	for i := range run.Results {
		r := &run.Results[i]
		input := model.Utoa(r.Input)
		m.CaseMeanNs.WithLabelValues(r.Impl, input).Set(r.MeanNs)
		m.CaseMedianNs.WithLabelValues(r.Impl, input).Set(r.MedianNs)
		m.IterationsTotal.Add(float64(r.Iterations()))
	}

	for _, input := range run.Inputs() {
		s := run.Result("strconv", input)
		d := run.Result("div", input)
		if s == nil || d == nil || d.MeanNs == 0 {
			continue
		}
		m.StrconvDivRatio.WithLabelValues(model.Utoa(input)).Set(s.MeanNs / d.MeanNs)
	}
}

// HealthStatus represents the daemon health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool
	SQLiteOK       bool
	LastRunID      string
	LastRunAt      time.Time
	RunsCompleted  int64
	EnabledInputs  []uint64

	// Liveness probe results
	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetEnabledInputs(inputs []uint64) {
	h.mu.Lock()
	h.EnabledInputs = inputs
	h.mu.Unlock()
}

// SetLastRun records the most recently completed run.
func (h *HealthStatus) SetLastRun(id string, at time.Time) {
	h.mu.Lock()
	h.LastRunID = id
	h.LastRunAt = at
	h.RunsCompleted++
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// SQLite is the only hard dependency; Redis publish is best-effort
	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	lastRunAge := ""
	if !h.LastRunAt.IsZero() {
		lastRunAge = time.Since(h.LastRunAt).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string   `json:"status"`
		Uptime          string   `json:"uptime"`
		LastRunID       string   `json:"last_run_id"`
		LastRunAt       string   `json:"last_run_at"`
		LastRunAge      string   `json:"last_run_age"`
		RunsCompleted   int64    `json:"runs_completed"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		EnabledInputs   []uint64 `json:"enabled_inputs"`
		LastCheckAt     string   `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		LastRunID:       h.LastRunID,
		LastRunAt:       h.LastRunAt.Format(time.RFC3339),
		LastRunAge:      lastRunAge,
		RunsCompleted:   h.RunsCompleted,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		EnabledInputs:   h.EnabledInputs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics, /healthz and optionally /ws.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server. wsHandler may be nil.
func NewServer(addr string, health *HealthStatus, wsHandler http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)
	if wsHandler != nil {
		mux.Handle("/ws", wsHandler)
	}

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

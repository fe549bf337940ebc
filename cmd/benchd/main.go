// cmd/benchd runs the stripper comparison on an interval and fans
// results out to SQLite, Redis, Prometheus, and WebSocket dashboards.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stripbench/config"
	"stripbench/internal/bench"
	"stripbench/internal/bus"
	"stripbench/internal/live"
	"stripbench/internal/logger"
	"stripbench/internal/metrics"
	"stripbench/internal/model"
	redisstore "stripbench/internal/store/redis"
	sqlitestore "stripbench/internal/store/sqlite"
)

// Fan-out subscriber order; used to label drop metrics.
var subscriberNames = []string{"redis", "live"}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("benchd", slog.LevelInfo)
	log.Println("[benchd] starting...")

	// ---- Load config from env ----
	cfg := config.Load()
	inputs := cfg.ParseInputs()
	if len(inputs) == 0 {
		log.Fatal("[benchd] no valid inputs configured")
	}
	log.Printf("[benchd] inputs: %v, interval: %v", inputs, cfg.RunInterval)

	// ---- Setup context ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[benchd] shutdown signal received")
		cancel()
	}()

	// ---- Metrics & health ----
	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetEnabledInputs(inputs)

	// ---- SQLite (hard dependency) ----
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[benchd] sqlite open failed: %v", err)
	}
	defer writer.Close()
	writer.OnCommit = func(d time.Duration) { m.SQLiteCommitDur.Observe(d.Seconds()) }
	health.SetSQLiteOK(true)

	// ---- Redis (best-effort; daemon runs degraded without it) ----
	pub, err := redisstore.NewPublisher(redisstore.PublisherConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[benchd] redis unavailable, live publish disabled: %v", err)
		pub = nil
	} else {
		defer pub.Close()
		health.SetRedisConnected(true)
		pub.OnPublish = func(d time.Duration) { m.RedisPublishDur.Observe(d.Seconds()) }
		pub.Breaker().OnStateChange = func(from, to redisstore.State) {
			log.Printf("[benchd] redis breaker %s -> %s", from, to)
			m.RedisCircuitBreakerState.Set(float64(to))
			if to == redisstore.StateOpen {
				m.RedisCircuitBreakerTrips.Inc()
			}
		}
	}

	// ---- Result fan-out: runner -> redis, websocket hub ----
	fanout := bus.New(256)
	fanout.OnDrop = func(idx int) {
		name := "unknown"
		if idx < len(subscriberNames) {
			name = subscriberNames[idx]
		}
		m.FanoutDropsTotal.WithLabelValues(name).Inc()
	}

	hub := live.NewHub()

	if pub != nil {
		go pub.Run(ctx, fanout.Subscribe())
	} else {
		// Keep subscriber indices stable for drop labels
		go drain(ctx, fanout.Subscribe())
	}
	go hub.Run(ctx, fanout.Subscribe())

	resultCh := make(chan model.Result, 256)
	go fanout.Run(ctx, resultCh)

	// ---- HTTP: /metrics, /healthz, /ws ----
	srv := metrics.NewServer(cfg.MetricsAddr, health, http.HandlerFunc(hub.ServeWS))
	srv.Start()

	if pub != nil {
		health.StartLivenessChecker(ctx, pub.Client(), writer.DB(), 15*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, writer.DB(), 15*time.Second)
	}

	// ---- Benchmark loop ----
	runner := bench.NewRunner(bench.Config{
		Warmup:  cfg.BenchWarmup,
		Samples: cfg.BenchSamples,
		Batch:   cfg.BenchBatch,
	}, bench.Impls(), inputs)

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	runOnce(ctx, runner, writer, m, health, resultCh)
	for {
		select {
		case <-ctx.Done():
			close(resultCh)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			srv.Stop(shutdownCtx)
			shutdownCancel()
			log.Println("[benchd] stopped")
			return
		case <-ticker.C:
			runOnce(ctx, runner, writer, m, health, resultCh)
		}
	}
}

// runOnce executes one full suite run and distributes the results.
func runOnce(ctx context.Context, runner *bench.Runner, writer *sqlitestore.Writer,
	m *metrics.Metrics, health *metrics.HealthStatus, resultCh chan<- model.Result) {

	run := runner.Run(ctx)
	if len(run.Results) == 0 {
		return
	}

	for i := range run.Results {
		select {
		case resultCh <- run.Results[i]:
		case <-ctx.Done():
			return
		}
	}

	m.ObserveRun(&run)

	if err := writer.SaveRun(&run); err != nil {
		log.Printf("[benchd] save run %s failed: %v", run.ID, err)
		health.SetSQLiteOK(false)
	} else {
		health.SetSQLiteOK(true)
	}
	health.SetLastRun(run.ID, run.FinishedAt)

	rctx := logger.WithRunID(ctx, run.ID)
	args := append(logger.LogWithRun(rctx), slog.Int("cases", len(run.Results)))
	slog.Info("bench run complete", args...)
}

// drain consumes and discards a subscription channel.
func drain(ctx context.Context, ch <-chan model.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
		}
	}
}

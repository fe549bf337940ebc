package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"stripbench/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: enough history for a dashboard, not an archive
	resultStreamMaxLen = 1000
	defaultLatestTTL   = 30 * time.Minute

	breakerMaxFailures  = 5
	breakerResetTimeout = 10 * time.Second
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes benchmark results to Redis so dashboards can follow a
// running daemon: SET latest value + XADD capped stream + PUBLISH, all
// pipelined. Writes go through a circuit breaker so a dead Redis cannot
// stall the benchmark loop.
type Publisher struct {
	client  *goredis.Client
	breaker *CircuitBreaker

	// OnPublish, if set, is called with the duration of each successful publish.
	OnPublish func(d time.Duration)
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Breaker returns the circuit breaker for state observation.
func (p *Publisher) Breaker() *CircuitBreaker { return p.breaker }

// NewPublisher creates a Publisher and pings the server.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{
		client:  client,
		breaker: NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout),
	}, nil
}

// Run consumes results from resultCh and publishes them.
// Blocks until ctx is cancelled or resultCh is closed.
func (p *Publisher) Run(ctx context.Context, resultCh <-chan model.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-resultCh:
			if !ok {
				return
			}
			err := p.breaker.Execute(func() error {
				return p.publish(ctx, &res)
			})
			if err == ErrCircuitOpen {
				log.Printf("[redis] breaker open, dropping result %s", res.Key())
			} else if err != nil {
				log.Printf("[redis] publish error for %s: %v", res.Key(), err)
			}
		}
	}
}

// publish performs the pipelined writes for one result.
func (p *Publisher) publish(ctx context.Context, res *model.Result) error {
	start := time.Now()

	jsonData := string(res.JSON())
	latestKey := "bench:latest:" + res.Key()
	streamKey := "bench:results:" + res.Key()
	pubsubCh := "pub:bench:" + res.Key()

	pipe := p.client.Pipeline()

	// SET latest result with TTL
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)

	// XADD to stream with auto-trimming
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: resultStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": jsonData,
		},
	})

	// PUBLISH for real-time subscribers
	pipe.Publish(ctx, pubsubCh, jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if p.OnPublish != nil {
		p.OnPublish(time.Since(start))
	}
	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

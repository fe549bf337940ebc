package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string

	// Measurement loop
	BenchWarmup  int
	BenchSamples int
	BenchBatch   int

	// Inputs (comma-separated, e.g. "100,1000,1000000000")
	BenchInputs string

	// Daemon run cadence
	RunInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/bench.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		BenchWarmup:  getEnvInt("BENCH_WARMUP", 1000),
		BenchSamples: getEnvInt("BENCH_SAMPLES", 200),
		BenchBatch:   getEnvInt("BENCH_BATCH", 1000),

		// Default: small through large magnitudes
		BenchInputs: getEnv("BENCH_INPUTS", "100,1000,1000000,1000000000"),

		RunInterval: time.Duration(getEnvInt("RUN_INTERVAL_SECS", 60)) * time.Second,
	}
}

// ParseInputs parses the BenchInputs string into a slice of input values.
func (c *Config) ParseInputs() []uint64 {
	parts := strings.Split(c.BenchInputs, ",")
	inputs := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil || n == 0 {
			log.Printf("[config] skipping invalid input value: %q", p)
			continue
		}
		inputs = append(inputs, n)
	}
	return inputs
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

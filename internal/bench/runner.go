// Package bench measures the trailing-zero strippers against each other.
// It replaces interactive timing with a repeated-iteration harness:
// warm-up calls first, then S samples where each sample times a batch of
// B calls and records the per-call duration.
package bench

import (
	"context"
	"log"
	"time"

	"stripbench/internal/logger"
	"stripbench/internal/model"
	"stripbench/internal/strip"
)

const (
	defaultWarmup  = 1000
	defaultSamples = 200
	defaultBatch   = 1000
)

// Impl is a benchmarked implementation under a uniform signature.
type Impl struct {
	Name string
	Fn   func(uint64) uint64
}

// Impls returns the two strippers under the uniform signature.
// Strconv cannot fail for the nonzero inputs the suite uses, so its
// error is discarded here.
func Impls() []Impl {
	return []Impl{
		{Name: "strconv", Fn: func(n uint64) uint64 {
			v, _ := strip.Strconv(n)
			return v
		}},
		{Name: "div", Fn: strip.Div},
	}
}

// DefaultInputs spans small, medium, and large magnitudes so digit
// count and trailing-zero count both vary.
func DefaultInputs() []uint64 {
	return []uint64{100, 1_000, 1_000_000, 1_000_000_000}
}

// Config controls the measurement loop.
type Config struct {
	Warmup  int // calls before timing starts, per case
	Samples int // timing samples per case
	Batch   int // calls timed per sample
}

// sink defeats dead-code elimination of the timed call.
var sink uint64

// Runner executes the implementation × input matrix.
type Runner struct {
	cfg    Config
	impls  []Impl
	inputs []uint64
}

// NewRunner creates a Runner. Zero config fields get defaults; empty
// impls or inputs fall back to the full suite.
func NewRunner(cfg Config, impls []Impl, inputs []uint64) *Runner {
	if cfg.Warmup <= 0 {
		cfg.Warmup = defaultWarmup
	}
	if cfg.Samples <= 0 {
		cfg.Samples = defaultSamples
	}
	if cfg.Batch <= 0 {
		cfg.Batch = defaultBatch
	}
	if len(impls) == 0 {
		impls = Impls()
	}
	if len(inputs) == 0 {
		inputs = DefaultInputs()
	}
	return &Runner{cfg: cfg, impls: impls, inputs: inputs}
}

// Run measures every case and returns the completed run. A cancelled
// context stops between cases; the partial run is returned with the
// cases finished so far.
func (r *Runner) Run(ctx context.Context) model.Run {
	start := time.Now().UTC()
	run := model.Run{
		ID:        logger.GenerateRunID("run", start),
		StartedAt: start,
	}

	for _, input := range r.inputs {
		for _, impl := range r.impls {
			select {
			case <-ctx.Done():
				log.Printf("[bench] run %s cancelled after %d cases", run.ID, len(run.Results))
				run.FinishedAt = time.Now().UTC()
				return run
			default:
			}
			res := r.measure(impl, input)
			res.RunID = run.ID
			run.Results = append(run.Results, res)
		}
	}

	run.FinishedAt = time.Now().UTC()
	return run
}

// measure times one implementation at one input.
func (r *Runner) measure(impl Impl, input uint64) model.Result {
	for i := 0; i < r.cfg.Warmup; i++ {
		sink += impl.Fn(input)
	}

	buf := NewSampleBuffer(r.cfg.Samples)
	for s := 0; s < r.cfg.Samples; s++ {
		start := time.Now()
		for i := 0; i < r.cfg.Batch; i++ {
			sink += impl.Fn(input)
		}
		elapsed := time.Since(start)
		buf.Record(float64(elapsed.Nanoseconds()) / float64(r.cfg.Batch))
	}

	st := buf.Stats()
	return model.Result{
		Impl:     impl.Name,
		Input:    input,
		Samples:  r.cfg.Samples,
		Batch:    r.cfg.Batch,
		MeanNs:   st.Mean,
		MedianNs: st.Median,
		P95Ns:    st.P95,
		MinNs:    st.Min,
		MaxNs:    st.Max,
		TS:       time.Now().UTC(),
	}
}

package model

import (
	"encoding/json"
	"time"
)

// Result holds the measured timing for one implementation at one input.
// Per-call durations are fractional nanoseconds: each sample times a
// batch of calls and divides, since a single call is far below the
// clock resolution.
type Result struct {
	RunID    string    `json:"run_id"`
	Impl     string    `json:"impl"`  // "strconv" or "div"
	Input    uint64    `json:"input"` // value passed to the stripper
	Samples  int       `json:"samples"`
	Batch    int       `json:"batch"` // calls timed per sample
	MeanNs   float64   `json:"mean_ns"`
	MedianNs float64   `json:"median_ns"`
	P95Ns    float64   `json:"p95_ns"`
	MinNs    float64   `json:"min_ns"`
	MaxNs    float64   `json:"max_ns"`
	TS       time.Time `json:"ts"` // UTC completion time
}

// Key returns a unique key for this case: "impl:input".
func (r *Result) Key() string {
	return r.Impl + ":" + Utoa(r.Input)
}

// Iterations returns the number of timed calls behind this result.
func (r *Result) Iterations() int64 {
	return int64(r.Samples) * int64(r.Batch)
}

// JSON returns the JSON-encoded result (ignoring errors for hot-path usage).
func (r *Result) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}

// Run groups the results of one full suite execution.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`
}

// Result returns the result for the given implementation and input,
// or nil if the run does not contain that case.
func (r *Run) Result(impl string, input uint64) *Result {
	for i := range r.Results {
		if r.Results[i].Impl == impl && r.Results[i].Input == input {
			return &r.Results[i]
		}
	}
	return nil
}

// Inputs returns the distinct input values in first-seen order.
func (r *Run) Inputs() []uint64 {
	seen := make(map[uint64]bool)
	var inputs []uint64
	for i := range r.Results {
		if !seen[r.Results[i].Input] {
			seen[r.Results[i].Input] = true
			inputs = append(inputs, r.Results[i].Input)
		}
	}
	return inputs
}

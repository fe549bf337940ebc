package bench

import (
	"math"
	"sort"
	"sync"
)

// SampleBuffer records per-call timing samples (ns/op) in a circular
// buffer and computes summary statistics. Thread-safe.
type SampleBuffer struct {
	mu      sync.Mutex
	samples []float64 // circular buffer of ns/op values
	pos     int
	count   int
	cap     int
}

// Stats summarizes the recorded samples. All values are ns/op.
type Stats struct {
	Mean   float64
	Median float64
	P95    float64
	Min    float64
	Max    float64
}

// NewSampleBuffer creates a buffer that holds the last `capacity` samples.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &SampleBuffer{
		samples: make([]float64, capacity),
		cap:     capacity,
	}
}

// Record adds a timing sample in ns/op.
func (sb *SampleBuffer) Record(ns float64) {
	sb.mu.Lock()
	sb.samples[sb.pos] = ns
	sb.pos = (sb.pos + 1) % sb.cap
	if sb.count < sb.cap {
		sb.count++
	}
	sb.mu.Unlock()
}

// Count returns the number of samples recorded (up to capacity).
func (sb *SampleBuffer) Count() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.count
}

// Stats returns summary statistics over the recorded samples.
// Returns the zero Stats if no samples have been recorded.
func (sb *SampleBuffer) Stats() Stats {
	sb.mu.Lock()
	n := sb.count
	if n == 0 {
		sb.mu.Unlock()
		return Stats{}
	}

	// Copy samples for sorting
	sorted := make([]float64, n)
	if n == sb.cap {
		// Buffer is full; copy from pos (oldest) to end, then start to pos
		copy(sorted, sb.samples[sb.pos:])
		copy(sorted[sb.cap-sb.pos:], sb.samples[:sb.pos])
	} else {
		copy(sorted, sb.samples[:n])
	}
	sb.mu.Unlock()

	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return Stats{
		Mean:   sum / float64(n),
		Median: percentile(sorted, 0.50),
		P95:    percentile(sorted, 0.95),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

// percentile computes the p-th percentile (0.0–1.0) of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

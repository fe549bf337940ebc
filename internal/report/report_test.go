package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"stripbench/internal/model"
)

func sampleRun() *model.Run {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Run{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(420 * time.Millisecond),
		Results: []model.Result{
			{RunID: "run-1", Impl: "strconv", Input: 100, Samples: 10, Batch: 100, MeanNs: 20.0, MedianNs: 19.5, P95Ns: 24.0, MinNs: 18.0, MaxNs: 30.0},
			{RunID: "run-1", Impl: "div", Input: 100, Samples: 10, Batch: 100, MeanNs: 4.0, MedianNs: 3.9, P95Ns: 4.4, MinNs: 3.8, MaxNs: 5.0},
		},
	}
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, sampleRun(), nil)
	out := buf.String()

	for _, want := range []string{"run-1", "strconv", "div", "BENCHMARK COMPLETE", "5.00x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// No baseline — no delta values
	if strings.Contains(out, "%") {
		t.Errorf("unexpected delta without baseline:\n%s", out)
	}
	if !strings.Contains(out, "Timed iterations:  2000") {
		t.Errorf("iteration count missing:\n%s", out)
	}
}

func TestWrite_DeltaAgainstPrevious(t *testing.T) {
	run := sampleRun()
	prev := sampleRun()
	prev.ID = "run-0"
	prev.Results[0].MeanNs = 16.0 // strconv:100 regressed 16 -> 20

	var buf bytes.Buffer
	Write(&buf, run, prev)
	out := buf.String()

	if !strings.Contains(out, "+25.0%") {
		t.Errorf("expected +25.0%% delta for strconv:100:\n%s", out)
	}
	if !strings.Contains(out, "+0.0%") {
		t.Errorf("expected +0.0%% delta for unchanged div:100:\n%s", out)
	}
}

func TestDelta_MissingCase(t *testing.T) {
	r := &model.Result{Impl: "strconv", Input: 7, MeanNs: 10}
	prev := sampleRun()
	if got := delta(r, prev); got != "" {
		t.Errorf("delta for missing baseline case: got %q, want empty", got)
	}
	if got := delta(r, nil); got != "" {
		t.Errorf("delta without prev run: got %q, want empty", got)
	}
}

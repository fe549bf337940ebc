// Package report renders benchmark runs as fixed-width console output
// for the one-shot CLI.
package report

import (
	"fmt"
	"io"
	"time"

	"stripbench/internal/model"
)

// Write renders the run as a per-case table, the strconv/div ratios, and
// a boxed summary. prev may be nil; when present, a delta column
// compares each case's mean ns/op against the previous stored run.
func Write(w io.Writer, run *model.Run, prev *model.Run) {
	fmt.Fprintf(w, "run %s (started %s)\n\n", run.ID, run.StartedAt.Format(time.RFC3339))

	fmt.Fprintf(w, "%-8s %12s %10s %10s %10s %10s %10s %9s\n",
		"impl", "input", "mean", "median", "p95", "min", "max", "delta")
	fmt.Fprintf(w, "%-8s %12s %10s %10s %10s %10s %10s %9s\n",
		"", "", "(ns/op)", "(ns/op)", "(ns/op)", "(ns/op)", "(ns/op)", "")

	for i := range run.Results {
		r := &run.Results[i]
		fmt.Fprintf(w, "%-8s %12d %10.2f %10.2f %10.2f %10.2f %10.2f %9s\n",
			r.Impl, r.Input, r.MeanNs, r.MedianNs, r.P95Ns, r.MinNs, r.MaxNs,
			delta(r, prev))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "strconv/div mean ratio by input:")
	iterations := int64(0)
	for i := range run.Results {
		iterations += run.Results[i].Iterations()
	}
	for _, input := range run.Inputs() {
		s := run.Result("strconv", input)
		d := run.Result("div", input)
		if s == nil || d == nil || d.MeanNs == 0 {
			continue
		}
		fmt.Fprintf(w, "  %12d  %6.2fx\n", input, s.MeanNs/d.MeanNs)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════╗")
	fmt.Fprintln(w, "║        BENCHMARK COMPLETE            ║")
	fmt.Fprintln(w, "╠══════════════════════════════════════╣")
	fmt.Fprintf(w, "║  Cases measured:    %-16d ║\n", len(run.Results))
	fmt.Fprintf(w, "║  Timed iterations:  %-16d ║\n", iterations)
	fmt.Fprintf(w, "║  Elapsed:           %-16s ║\n",
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintln(w, "╚══════════════════════════════════════╝")
}

// delta formats the mean change against the matching case of the
// previous run, e.g. "+3.2%". Empty when no baseline exists.
func delta(r *model.Result, prev *model.Run) string {
	if prev == nil {
		return ""
	}
	p := prev.Result(r.Impl, r.Input)
	if p == nil || p.MeanNs == 0 {
		return ""
	}
	pct := (r.MeanNs - p.MeanNs) / p.MeanNs * 100
	return fmt.Sprintf("%+.1f%%", pct)
}

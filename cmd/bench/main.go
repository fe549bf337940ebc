// cmd/bench runs the trailing-zero stripper comparison once and prints a
// report. With --save, the run is persisted to SQLite and compared
// against the previous stored run.
//
// Usage:
//
//	go run ./cmd/bench --samples=500 --inputs=100,1000000000 --save
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"stripbench/internal/bench"
	"stripbench/internal/model"
	"stripbench/internal/report"
	sqlitestore "stripbench/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	// Flags
	warmup := flag.Int("warmup", 1000, "Warm-up calls per case before timing")
	samples := flag.Int("samples", 200, "Timing samples per case")
	batch := flag.Int("batch", 1000, "Calls timed per sample")
	inputsStr := flag.String("inputs", "100,1000,1000000,1000000000", "Comma-separated input values")
	dbPath := flag.String("db", "data/bench.db", "Path to SQLite database")
	save := flag.Bool("save", false, "Persist the run and compare against the previous one")
	flag.Parse()

	inputs := parseInputs(*inputsStr)
	if len(inputs) == 0 {
		log.Fatal("[bench] no valid inputs specified")
	}

	// Setup context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Load the previous run before measuring so the report can show deltas
	var prev *model.Run
	var writer *sqlitestore.Writer
	if *save {
		var err error
		writer, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: *dbPath})
		if err != nil {
			log.Fatalf("[bench] sqlite open failed: %v", err)
		}
		defer writer.Close()

		reader, err := sqlitestore.NewReader(*dbPath)
		if err != nil {
			log.Fatalf("[bench] sqlite reader open failed: %v", err)
		}
		prev, err = reader.LatestRun()
		if err != nil {
			log.Printf("[bench] previous run load failed: %v", err)
		}
		reader.Close()
	}

	runner := bench.NewRunner(bench.Config{
		Warmup:  *warmup,
		Samples: *samples,
		Batch:   *batch,
	}, bench.Impls(), inputs)

	run := runner.Run(ctx)

	if *save && len(run.Results) > 0 {
		if err := writer.SaveRun(&run); err != nil {
			log.Printf("[bench] save failed: %v", err)
		}
	}

	report.Write(os.Stdout, &run, prev)
}

func parseInputs(s string) []uint64 {
	var inputs []uint64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if n, err := strconv.ParseUint(p, 10, 64); err == nil && n > 0 {
			inputs = append(inputs, n)
		}
	}
	return inputs
}

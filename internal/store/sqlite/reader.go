package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"stripbench/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for run history and
// regression comparison.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// LatestRun loads the most recent stored run with its results.
// Returns nil if no runs exist.
func (r *Reader) LatestRun() (*model.Run, error) {
	var run model.Run
	var startedNs, finishedNs int64
	err := r.db.QueryRow(`
		SELECT id, started_at, finished_at FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &startedNs, &finishedNs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // no history yet
		}
		return nil, fmt.Errorf("sqlite read run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedNs).UTC()
	run.FinishedAt = time.Unix(0, finishedNs).UTC()

	results, err := r.readResults(run.ID)
	if err != nil {
		return nil, err
	}
	run.Results = results
	return &run, nil
}

// ReadRun loads a run by ID. Returns nil if it does not exist.
func (r *Reader) ReadRun(id string) (*model.Run, error) {
	var run model.Run
	var startedNs, finishedNs int64
	err := r.db.QueryRow(
		`SELECT id, started_at, finished_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &startedNs, &finishedNs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read run %s: %w", id, err)
	}
	run.StartedAt = time.Unix(0, startedNs).UTC()
	run.FinishedAt = time.Unix(0, finishedNs).UTC()

	results, err := r.readResults(run.ID)
	if err != nil {
		return nil, err
	}
	run.Results = results
	return &run, nil
}

// readResults loads the results for a run, ordered by input then impl so
// reports come out stable.
func (r *Reader) readResults(runID string) ([]model.Result, error) {
	rows, err := r.db.Query(`
		SELECT run_id, impl, input, samples, batch, mean_ns, median_ns, p95_ns, min_ns, max_ns, ts
		FROM results
		WHERE run_id = ?
		ORDER BY input ASC, impl ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query results: %w", err)
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		var input, tsNs int64
		if err := rows.Scan(&res.RunID, &res.Impl, &input, &res.Samples, &res.Batch,
			&res.MeanNs, &res.MedianNs, &res.P95Ns, &res.MinNs, &res.MaxNs, &tsNs); err != nil {
			return nil, fmt.Errorf("sqlite scan result: %w", err)
		}
		res.Input = uint64(input)
		res.TS = time.Unix(0, tsNs).UTC()
		results = append(results, res)
	}
	return results, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}

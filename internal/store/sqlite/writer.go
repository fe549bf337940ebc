package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"stripbench/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Keep this many most recent runs; older ones are pruned on save.
const defaultKeepRuns = 100

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/bench.db"
}

// Writer persists benchmark runs and their per-case results.
type Writer struct {
	db *sql.DB

	// OnCommit, if set, is called with the duration of each run commit.
	OnCommit func(d time.Duration)
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT    PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS results (
			run_id    TEXT    NOT NULL,
			impl      TEXT    NOT NULL,
			input     INTEGER NOT NULL,
			samples   INTEGER NOT NULL,
			batch     INTEGER NOT NULL,
			mean_ns   REAL    NOT NULL,
			median_ns REAL    NOT NULL,
			p95_ns    REAL    NOT NULL,
			min_ns    REAL    NOT NULL,
			max_ns    REAL    NOT NULL,
			ts        INTEGER NOT NULL,
			PRIMARY KEY (run_id, impl, input)
		);
	`)
	return err
}

// SaveRun inserts a run and all of its results in a single transaction,
// then prunes runs beyond the retention window.
func (w *Writer) SaveRun(run *model.Run) error {
	start := time.Now()

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO runs (id, started_at, finished_at) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO results (run_id, impl, input, samples, batch, mean_ns, median_ns, p95_ns, min_ns, max_ns, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range run.Results {
		r := &run.Results[i]
		_, err := stmt.Exec(r.RunID, r.Impl, int64(r.Input), r.Samples, r.Batch,
			r.MeanNs, r.MedianNs, r.P95Ns, r.MinNs, r.MaxNs, r.TS.UnixNano())
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if w.OnCommit != nil {
		w.OnCommit(time.Since(start))
	}
	log.Printf("[sqlite] committed run %s (%d results) in %v", run.ID, len(run.Results), time.Since(start))

	w.pruneRuns(defaultKeepRuns)
	return nil
}

// Run consumes completed runs from runCh and persists them.
// Blocks until ctx is cancelled or runCh is closed.
func (w *Writer) Run(ctx context.Context, runCh <-chan model.Run) {
	for {
		select {
		case <-ctx.Done():
			return
		case run, ok := <-runCh:
			if !ok {
				return
			}
			if err := w.SaveRun(&run); err != nil {
				log.Printf("[sqlite] save run %s error: %v", run.ID, err)
			}
		}
	}
}

// pruneRuns deletes everything except the most recent `keep` runs.
func (w *Writer) pruneRuns(keep int) {
	_, err := w.db.Exec(`
		DELETE FROM results WHERE run_id NOT IN
			(SELECT id FROM runs ORDER BY started_at DESC LIMIT ?);
		`, keep)
	if err != nil {
		log.Printf("[sqlite] prune results warning: %v", err)
	}
	_, err = w.db.Exec(`
		DELETE FROM runs WHERE id NOT IN
			(SELECT id FROM runs ORDER BY started_at DESC LIMIT ?);
		`, keep)
	if err != nil {
		log.Printf("[sqlite] prune runs warning: %v", err)
	}
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}

// Package archive persists a history of completed runs in a SQLite
// database: one row per run with the backend, stimulus, and basic trace
// statistics.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	neuroruntime "github.com/neurobench/neuro-runtime"
	"github.com/neurobench/neuro-runtime/quantity"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT NOT NULL,
	model       TEXT NOT NULL,
	backend     TEXT NOT NULL,
	run_number  INTEGER NOT NULL,
	amp_na      REAL NOT NULL,
	delay_ms    REAL NOT NULL,
	duration_ms REAL NOT NULL,
	samples     INTEGER NOT NULL,
	vm_min      REAL,
	vm_max      REAL,
	finite      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model, created_at);
`

// RunRecord is one archived run.
type RunRecord struct {
	ID         int64
	CreatedAt  time.Time
	Model      string
	Backend    string
	RunNumber  int
	AmpNanoA   float64
	DelayMs    float64
	DurationMs float64
	Samples    int
	VMMin      float64
	VMMax      float64
	Finite     bool
}

// Store is a SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with a single writer

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record archives one completed run.
func (s *Store) Record(ctx context.Context, model, backend string, stim quantity.SquareCurrent, res *neuroruntime.Results) (int64, error) {
	n, err := stim.Normalize()
	if err != nil {
		return 0, err
	}

	vmMin, vmMax := math.Inf(1), math.Inf(-1)
	for _, v := range res.VM {
		vmMin = math.Min(vmMin, v)
		vmMax = math.Max(vmMax, v)
	}
	var minV, maxV any
	if len(res.VM) > 0 && res.Finite {
		minV, maxV = vmMin, vmMax
	}

	out, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, model, backend, run_number, amp_na, delay_ms, duration_ms, samples, vm_min, vm_max, finite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		model, backend, res.RunNumber,
		n.AmplitudeNanoAmps, stim.Delay.Value, stim.Duration.Value,
		len(res.VM), minV, maxV, boolInt(res.Finite))
	if err != nil {
		return 0, fmt.Errorf("archive run: %w", err)
	}
	return out.LastInsertId()
}

// List returns the most recent runs for a model, newest first. An empty
// model matches every row.
func (s *Store) List(ctx context.Context, model string, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, created_at, model, backend, run_number, amp_na, delay_ms, duration_ms, samples, vm_min, vm_max, finite
		FROM runs`
	args := []any{}
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var created string
		var finite int
		var vmMin, vmMax sql.NullFloat64
		err := rows.Scan(&r.ID, &created, &r.Model, &r.Backend, &r.RunNumber,
			&r.AmpNanoA, &r.DelayMs, &r.DurationMs, &r.Samples, &vmMin, &vmMax, &finite)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		r.VMMin, r.VMMax = vmMin.Float64, vmMax.Float64
		r.Finite = finite != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pkglink-dev/pkglink/internal/platform"
)

// Entry is one recorded action.
type Entry struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Op         string    `json:"op"`
	Package    string    `json:"package"`
	Project    string    `json:"project,omitempty"`
	Outcome    string    `json:"outcome"`
	Verdict    string    `json:"verdict,omitempty"`
	Message    string    `json:"message,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Filter narrows Recent.
type Filter struct {
	Package string
	RunID   string
	Limit   int
}

// Journal appends entries under one run id per process.
type Journal struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// Open opens or creates the journal database at path and applies migrations.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), platform.DirPerm); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := platform.Chmod(path, platform.PrivatePerm); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("chmod journal: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, runID: uuid.NewString(), now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// RunID identifies every entry appended through this Journal.
func (j *Journal) RunID() string {
	return j.runID
}

// Append stores e, filling ID, RunID and RecordedAt when unset.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RunID == "" {
		e.RunID = j.runID
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = j.now()
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO entries(entry_id, run_id, op, package, project, outcome, verdict, message, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, e.ID, e.RunID, e.Op, e.Package, e.Project, e.Outcome, e.Verdict, e.Message, ts(e.RecordedAt))
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent returns entries newest first. A zero Limit means 50.
func (j *Journal) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT entry_id, run_id, op, package, project, outcome, verdict, message, recorded_at
FROM entries
WHERE (? = '' OR package = ?) AND (? = '' OR run_id = ?)
ORDER BY recorded_at DESC, rowid DESC
LIMIT ?
`, f.Package, f.Package, f.RunID, f.RunID, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Op, &e.Package, &e.Project, &e.Outcome, &e.Verdict, &e.Message, &at); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if e.RecordedAt, err = parseTS(at); err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", at, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM entries WHERE recorded_at < ?`, ts(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}

// tsLayout is fixed width so text ordering in SQL matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(tsLayout, s)
}

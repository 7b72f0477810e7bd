package diagnostics

import (
	"database/sql"
	"fmt"

	// Registers the sqlite3 driver used below.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// TraceRecorder is an optional, additive Hook that batches diagnostics
// Events into a SQLite-backed table for offline analysis. It never
// influences translation: the FTL only ever calls InvokeHook, never reads
// anything back from a recorder. Grounded on tracing/sqlite.go and
// tracing/csvtracewriter.go's batch-then-flush-on-exit shape.
type TraceRecorder struct {
	db        *sql.DB
	stmt      *sql.Stmt
	dbPath    string
	buffered  []record
	batchSize int
}

type record struct {
	id             string
	pos            string
	logicalAddress uint64
	detail         string
	cause          string
}

// NewTraceRecorder opens (creating if needed) a SQLite database at path and
// prepares the diagnostics table. It registers an atexit flush so a demo
// run's buffered tail is never silently dropped.
func NewTraceRecorder(path string) (*TraceRecorder, error) {
	if path == "" {
		path = "ftl_trace_" + xid.New().String() + ".db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: opening trace db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS ftl_events (
		id TEXT PRIMARY KEY,
		pos TEXT,
		logical_address INTEGER,
		detail TEXT,
		cause TEXT
	)`)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: creating trace table: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO ftl_events
		(id, pos, logical_address, detail, cause) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: preparing trace statement: %w", err)
	}

	r := &TraceRecorder{
		db:        db,
		stmt:      stmt,
		dbPath:    path,
		batchSize: 1000,
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// Func implements Hook.
func (r *TraceRecorder) Func(ev Event) {
	cause := ""
	if ev.Cause != nil {
		cause = ev.Cause.Error()
	}

	r.buffered = append(r.buffered, record{
		id:             xid.New().String(),
		pos:            ev.Pos.Name,
		logicalAddress: ev.LogicalAddress,
		detail:         ev.Detail,
		cause:          cause,
	})

	if len(r.buffered) >= r.batchSize {
		r.Flush()
	}
}

// Flush writes all buffered records to the database.
func (r *TraceRecorder) Flush() {
	if len(r.buffered) == 0 {
		return
	}

	tx, err := r.db.Begin()
	if err != nil {
		return
	}

	stmt := tx.Stmt(r.stmt)
	for _, rec := range r.buffered {
		_, _ = stmt.Exec(rec.id, rec.pos, rec.logicalAddress, rec.detail, rec.cause)
	}

	_ = tx.Commit()
	r.buffered = nil
}

// Close flushes and closes the database.
func (r *TraceRecorder) Close() error {
	r.Flush()
	return r.db.Close()
}

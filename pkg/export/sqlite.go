package export

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

const insertSample = `INSERT INTO samples (
	timestamp, cpu_percent, mem_percent, net_sent_rate, net_recv_rate,
	pid, name, proc_cpu_percent, proc_mem_percent, read_rate, write_rate
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteWriter stores exported rows in a samples table, one transaction per tick.
type SQLiteWriter struct {
	db   *sql.DB
	topN int
}

// OpenSQLite opens or creates the database at path and prepares the schema.
func OpenSQLite(path string, topN int) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite export: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("preparing sqlite export: %w", err)
	}
	return &SQLiteWriter{db: db, topN: topN}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp REAL NOT NULL,
			cpu_percent REAL NOT NULL,
			mem_percent REAL NOT NULL,
			net_sent_rate REAL,
			net_recv_rate REAL,
			pid INTEGER NOT NULL,
			name TEXT NOT NULL,
			proc_cpu_percent REAL NOT NULL,
			proc_mem_percent REAL NOT NULL,
			read_rate REAL,
			write_rate REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON samples(timestamp);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Consume inserts the snapshot's top rows atomically.
func (s *SQLiteWriter) Consume(snap types.Snapshot) error {
	rows := Rows(snap, s.topN)
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin sqlite tick: %w", err)
	}
	stmt, err := tx.Prepare(insertSample)
	if err != nil {
		return errors.Join(fmt.Errorf("prepare sqlite insert: %w", err), tx.Rollback())
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(
			r.Timestamp, r.CPUPercent, r.MemoryPercent,
			nullable(r.NetSent), nullable(r.NetRecv),
			r.PID, r.Name, r.ProcCPU, r.ProcMem,
			nullable(r.ReadRate), nullable(r.WriteRate),
		); err != nil {
			return errors.Join(fmt.Errorf("insert sqlite row: %w", err), tx.Rollback())
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite tick: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteWriter) Close() error {
	return s.db.Close()
}

// nullable maps Unsupported to SQL NULL.
func nullable(v types.Optional[float64]) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

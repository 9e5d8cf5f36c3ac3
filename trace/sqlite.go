package trace

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	vm     TEXT    NOT NULL,
	seq    INTEGER NOT NULL,
	kind   TEXT    NOT NULL,
	depth  INTEGER NOT NULL,
	detail TEXT    NOT NULL,
	at     INTEGER NOT NULL,
	PRIMARY KEY (vm, seq)
)`

// SQLite writes events to a SQLite database file.
type SQLite struct {
	db     *sql.DB
	insert *sql.Stmt
	path   string
}

// OpenSQLite opens (creating if needed) the trace database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create schema in %s: %w", path, err)
	}
	stmt, err := db.Prepare(`INSERT INTO events (vm, seq, kind, depth, detail, at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: prepare insert: %w", err)
	}
	log.Debugf("recording trace to %s", path)
	return &SQLite{db: db, insert: stmt, path: path}, nil
}

// Record inserts e.
func (s *SQLite) Record(e Event) error {
	_, err := s.insert.Exec(e.VM, int64(e.Seq), string(e.Kind), e.Depth, e.Detail, e.At.UnixNano())
	if err != nil {
		return fmt.Errorf("trace: record #%d: %w", e.Seq, err)
	}
	return nil
}

// Events reads back all events for the given host id, ordered by sequence.
func (s *SQLite) Events(vm string) ([]Event, error) {
	rows, err := s.db.Query(`SELECT vm, seq, kind, depth, detail, at FROM events WHERE vm = ? ORDER BY seq`, vm)
	if err != nil {
		return nil, fmt.Errorf("trace: query %s: %w", s.path, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e    Event
			seq  int64
			kind string
			at   int64
		)
		if err := rows.Scan(&e.VM, &seq, &kind, &e.Depth, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("trace: scan: %w", err)
		}
		e.Seq = uint64(seq)
		e.Kind = Kind(kind)
		e.At = time.Unix(0, at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByKind returns the number of recorded events per kind for a host.
func (s *SQLite) CountByKind(vm string) (map[Kind]int, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM events WHERE vm = ? GROUP BY kind`, vm)
	if err != nil {
		return nil, fmt.Errorf("trace: count %s: %w", s.path, err)
	}
	defer rows.Close()

	counts := make(map[Kind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("trace: scan: %w", err)
		}
		counts[Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Close releases the statement and the database.
func (s *SQLite) Close() error {
	return multierr.Append(s.insert.Close(), s.db.Close())
}

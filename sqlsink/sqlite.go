package sqlsink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrArity is returned when a row has more fields than the table has columns.
	ErrArity = errors.New("sqlsink: row has more fields than the header")
	// ErrNoTx is returned by Insert, Commit, and Rollback outside a transaction.
	ErrNoTx = errors.New("sqlsink: no transaction in progress")
	// ErrNotDeclared is returned by Begin before Declare.
	ErrNotDeclared = errors.New("sqlsink: table not declared")
)

var synchronousModes = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}

// Options configures a SQLite sink.
type Options struct {
	// Synchronous is the PRAGMA synchronous mode. Empty means OFF.
	Synchronous string
	// Logger receives statement-level debug messages. Nil uses slog.Default().
	Logger *slog.Logger
}

// SQLite writes rows into a table of a SQLite database, replacing any table of
// the same name.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger

	insert  string
	columns int

	tx   *sql.Tx
	stmt *sql.Stmt
}

var _ Sink = (*SQLite)(nil)

// Open opens (creating if needed) the SQLite database at path.
func Open(ctx context.Context, path string, opts Options) (*SQLite, error) {
	mode := strings.ToUpper(opts.Synchronous)
	if mode == "" {
		mode = "OFF"
	}
	if !synchronousModes[mode] {
		return nil, fmt.Errorf("sqlsink: invalid synchronous mode %q", opts.Synchronous)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs are per connection; keep a single one.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, logger: logger}
	if err := s.exec(ctx, "PRAGMA synchronous = "+mode); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Declare drops table if it exists and creates it with one untyped column per name.
func (s *SQLite) Declare(ctx context.Context, table string, columns []string) error {
	if len(columns) == 0 {
		return ErrNoColumns
	}
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
		marks[i] = "?"
	}
	cols := strings.Join(quoted, ", ")

	if err := s.exec(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(table)); err != nil {
		return err
	}
	if err := s.exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(table), cols)); err != nil {
		return err
	}
	s.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", QuoteIdent(table), cols, strings.Join(marks, ", "))
	s.columns = len(columns)
	return nil
}

// Begin starts the transaction and prepares the insert statement.
func (s *SQLite) Begin(ctx context.Context) error {
	if s.insert == "" {
		return ErrNotDeclared
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	s.logger.Debug("Prepared insert", slog.String("sql", s.insert))
	s.tx, s.stmt = tx, stmt
	return nil
}

// Insert adds one row. Missing trailing columns are stored as NULL.
func (s *SQLite) Insert(ctx context.Context, row []any) error {
	if s.stmt == nil {
		return ErrNoTx
	}
	if len(row) > s.columns {
		return fmt.Errorf("%w: got %d, want at most %d", ErrArity, len(row), s.columns)
	}
	for len(row) < s.columns {
		row = append(row, nil)
	}
	_, err := s.stmt.ExecContext(ctx, row...)
	return err
}

func (s *SQLite) Commit() error {
	if s.tx == nil {
		return ErrNoTx
	}
	defer s.endTx()
	return s.tx.Commit()
}

func (s *SQLite) Rollback() error {
	if s.tx == nil {
		return ErrNoTx
	}
	defer s.endTx()
	return s.tx.Rollback()
}

// DB exposes the underlying handle, mainly for queries after a load.
func (s *SQLite) DB() *sql.DB { return s.db }

// Close rolls back any open transaction and closes the database.
func (s *SQLite) Close() error {
	var err error
	if s.tx != nil {
		err = s.Rollback()
	}
	return errors.Join(err, s.db.Close())
}

func (s *SQLite) endTx() {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	s.tx, s.stmt = nil, nil
}

func (s *SQLite) exec(ctx context.Context, query string) error {
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", query, err)
	}
	return nil
}

// QuoteIdent quotes name as a SQL identifier, doubling inner double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

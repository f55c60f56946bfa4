package sqlsink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oleg578/nullcsv"
)

// ErrNoColumns is returned when the reader has no header to declare columns from.
var ErrNoColumns = errors.New("sqlsink: no header columns to declare")

// Sink persists decoded rows.
type Sink interface {
	// Declare prepares table to receive rows with the given columns.
	Declare(ctx context.Context, table string, columns []string) error
	Begin(ctx context.Context) error
	Insert(ctx context.Context, row []any) error
	Commit() error
	Rollback() error
}

// LoadOptions configures Load.
type LoadOptions struct {
	Table string
	// Infer binds numeric-looking text as numbers instead of text.
	Infer bool
	// Logger receives progress messages. Nil uses slog.Default().
	Logger *slog.Logger
}

// Stats summarizes a finished load.
type Stats struct {
	Rows      int
	Columns   int
	Truncated int
}

// RowError reports a row the sink refused.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("sqlsink: row at line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Load declares the reader's header columns on s and inserts every remaining row
// in one unit of work. It commits only if every row succeeded; otherwise it
// rolls back and returns the first failure.
//
// Marker and header problems are returned as the reader's *nullcsv.ParseError
// before anything is written to s.
func Load(ctx context.Context, r *nullcsv.Reader, s Sink, opts LoadOptions) (stats Stats, rErr error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	columns := r.HeaderNames()
	if err := r.Err(); err != nil {
		return stats, err
	}
	if len(columns) == 0 {
		return stats, ErrNoColumns
	}
	stats.Columns = len(columns)

	if err := s.Declare(ctx, opts.Table, columns); err != nil {
		return stats, fmt.Errorf("sqlsink: declare %q: %w", opts.Table, err)
	}
	if err := s.Begin(ctx); err != nil {
		return stats, fmt.Errorf("sqlsink: begin: %w", err)
	}
	defer finishTx(&rErr, s)

	args := make([]any, 0, len(columns))
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if r.Truncated() {
			stats.Truncated++
			logger.Warn("Row ends inside an open quote",
				slog.Int("line", r.Line()),
				slog.String("error", nullcsv.ErrPrematureEnd.Error()))
		}
		args = Bind(args, r.Row(), opts.Infer)
		if err := s.Insert(ctx, args); err != nil {
			return stats, &RowError{Line: r.Line(), Err: err}
		}
		stats.Rows++
	}
	if err := r.Err(); err != nil {
		return stats, fmt.Errorf("sqlsink: read input: %w", err)
	}

	logger.Debug("Rows loaded",
		slog.String("table", opts.Table),
		slog.Int("rows", stats.Rows),
		slog.Int("columns", stats.Columns))
	return stats, nil
}

// finishTx commits when *errp is nil and rolls back otherwise, merging any
// rollback failure into *errp.
func finishTx(errp *error, s Sink) {
	if *errp != nil {
		if err := s.Rollback(); err != nil {
			*errp = errors.Join(*errp, fmt.Errorf("sqlsink: rollback: %w", err))
		}
		return
	}
	if err := s.Commit(); err != nil {
		*errp = fmt.Errorf("sqlsink: commit: %w", err)
	}
}

package sqlsink

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oleg578/nullcsv"
)

type memorySink struct {
	table     string
	columns   []string
	pending   [][]any
	committed [][]any

	failOn      int
	commitErr   error
	began       bool
	rolledBack  bool
	committedOK bool
}

func (m *memorySink) Declare(_ context.Context, table string, columns []string) error {
	m.table, m.columns = table, append([]string(nil), columns...)
	return nil
}

func (m *memorySink) Begin(context.Context) error {
	m.began = true
	return nil
}

func (m *memorySink) Insert(_ context.Context, row []any) error {
	if m.failOn > 0 && len(m.pending)+1 == m.failOn {
		return errors.New("constraint failed")
	}
	m.pending = append(m.pending, append([]any(nil), row...))
	return nil
}

func (m *memorySink) Commit() error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed, m.pending = m.pending, nil
	m.committedOK = true
	return nil
}

func (m *memorySink) Rollback() error {
	m.pending = nil
	m.rolledBack = true
	return nil
}

func newTableReader(input string) *nullcsv.Reader {
	r := nullcsv.NewReader(strings.NewReader(input))
	r.ExpectMarker = true
	r.ExpectHeader = true
	return r
}

func TestLoadCommitsAllRows(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	r := newTableReader("TABLE people\nid,name,score\n1,ann,2.5\n2,,\n3,\"\",x\n")

	stats, err := Load(context.Background(), r, sink, LoadOptions{Table: "people", Infer: true})
	require.NoError(t, err)
	require.Equal(t, Stats{Rows: 3, Columns: 3}, stats)
	require.True(t, sink.committedOK)
	require.False(t, sink.rolledBack)
	require.Equal(t, "people", sink.table)
	require.Equal(t, []string{"id", "name", "score"}, sink.columns)
	require.Equal(t, [][]any{
		{int64(1), "ann", 2.5},
		{int64(2), nil, nil},
		{int64(3), "", "x"},
	}, sink.committed)
}

func TestLoadRollsBackOnRowFailure(t *testing.T) {
	t.Parallel()

	sink := &memorySink{failOn: 2}
	r := newTableReader("TABLE t\na\n1\n2\n3\n")

	_, err := Load(context.Background(), r, sink, LoadOptions{Table: "t"})
	require.Error(t, err)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	require.Equal(t, 4, rowErr.Line)
	require.True(t, sink.rolledBack)
	require.False(t, sink.committedOK)
	require.Empty(t, sink.committed)
}

func TestLoadSetupErrors(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	_, err := Load(context.Background(), newTableReader("COLUMNS a\n1\n"), sink, LoadOptions{Table: "t"})
	require.ErrorIs(t, err, nullcsv.ErrMissingMarker)

	var perr *nullcsv.ParseError
	require.ErrorAs(t, err, &perr)
	require.False(t, sink.began, "nothing should reach the sink")

	_, err = Load(context.Background(), newTableReader("TABLE t\n"), sink, LoadOptions{Table: "t"})
	require.ErrorIs(t, err, nullcsv.ErrMissingHeader)

	_, err = Load(context.Background(), nullcsv.NewReader(strings.NewReader("1\n")), sink, LoadOptions{Table: "t"})
	require.ErrorIs(t, err, ErrNoColumns)
}

func TestLoadCommitError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	sink := &memorySink{commitErr: boom}

	_, err := Load(context.Background(), newTableReader("TABLE t\na\n1\n"), sink, LoadOptions{Table: "t"})
	require.ErrorIs(t, err, boom)
}

func TestLoadCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memorySink{}
	_, err := Load(ctx, newTableReader("TABLE t\na\n1\n"), sink, LoadOptions{Table: "t"})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, sink.rolledBack)
}

func TestLoadCountsTruncatedRows(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	stats, err := Load(context.Background(), newTableReader("TABLE t\na,b\n1,\"open"), sink, LoadOptions{Table: "t"})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Truncated)
	require.Equal(t, [][]any{{"1", "open"}}, sink.committed)
}

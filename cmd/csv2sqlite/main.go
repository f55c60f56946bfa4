// Command csv2sqlite loads a CSV table from standard input into a SQLite database.
//
// Usage:
//
//	cat file.csv | csv2sqlite <sqlite.db> <tablename>
//
// The input starts with a "TABLE <name>" line and a header line naming the
// columns. The table is dropped and recreated, and all rows are inserted in a
// single transaction that is rolled back if any row fails.
//
// Exit codes: 0 success, 1 usage error, 2 database or data error, 3 malformed
// marker or header.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oleg578/nullcsv"
	"github.com/oleg578/nullcsv/sqlsink"
)

const (
	exitOK = iota
	exitUsage
	exitSink
	exitInput
)

// exitError carries the exit code chosen for a failure inside the command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stderr io.Writer) int {
	cmd := newRootCmd(stdin, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n%s", err, cmd.UsageString())
	return exitUsage
}

func newRootCmd(stdin io.Reader, stderr io.Writer) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "csv2sqlite <sqlite.db> <tablename>",
		Short:         "Load a CSV table from stdin into a SQLite database",
		Long:          `Reads a "TABLE <name>" marker line, a header line, and data rows from standard input, then replaces <tablename> in <sqlite.db> with them in one transaction.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()
			if configPath != "" {
				if err := loadConfigFile(configPath, &cfg); err != nil {
					return err
				}
			}
			if err := applyFlags(cmd.Flags(), &cfg); err != nil {
				return err
			}
			if !cfg.Header {
				return errors.New("a header line is required to name the columns")
			}
			level, err := cfg.level()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

			if err := load(cmd.Context(), cfg, logger, stdin, args[0], args[1]); err != nil {
				logger.Error("Load failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML file with default settings")
	flags.Bool("marker", true, `require a leading "TABLE <name>" line`)
	flags.Bool("header", true, "read column names from the first CSV line")
	flags.Bool("raw", false, "store fields without removing CSV quoting")
	flags.Bool("infer", true, "store integer and float looking values as numbers")
	flags.String("synchronous", "OFF", "SQLite PRAGMA synchronous mode")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.BoolP("verbose", "v", false, "shorthand for --log-level=debug")
	return cmd
}

func load(ctx context.Context, cfg Config, logger *slog.Logger, stdin io.Reader, dbPath, table string) error {
	r := nullcsv.NewReader(stdin)
	r.ExpectMarker = cfg.Marker
	r.ExpectHeader = cfg.Header
	r.Raw = cfg.Raw

	// Check the marker and header before touching the database.
	r.Header()
	if err := r.Err(); err != nil {
		return &exitError{code: exitInput, err: err}
	}
	if cfg.Marker {
		logger.Debug("Read marker", slog.String("table", r.TableName()))
	}

	sink, err := sqlsink.Open(ctx, dbPath, sqlsink.Options{Synchronous: cfg.Synchronous, Logger: logger})
	if err != nil {
		return &exitError{code: exitSink, err: err}
	}
	defer sink.Close()

	stats, err := sqlsink.Load(ctx, r, sink, sqlsink.LoadOptions{Table: table, Infer: cfg.Infer, Logger: logger})
	if err != nil {
		var perr *nullcsv.ParseError
		if errors.As(err, &perr) {
			return &exitError{code: exitInput, err: err}
		}
		return &exitError{code: exitSink, err: err}
	}

	logger.Info("Loaded table",
		slog.String("table", table),
		slog.Int("rows", stats.Rows),
		slog.Int("columns", stats.Columns))
	return nil
}

/*
Package sqlite provides the SQLite-backed implementation of the HR and
payroll storage interfaces.

PURPOSE:
  One database holds the organization, the agents and their records, the
  pay catalog and every payroll artifact. The same *Store satisfies
  hr.Store and payroll.TxStore.

INTERFACES IMPLEMENTED:
  hr.Store:          organization, agents, career, evaluation, training
  payroll.TxStore:   periods, catalog, movements, payslips, history
  payroll.EmployeeDirectory is served from the agents table.

UNIQUENESS:
  Every business key is a UNIQUE index, so concurrent writers collapse to
  one row instead of relying on check-then-insert:
  - pay_periods(year, month)
  - salary_grid(grade_id, element_id)
  - movements(period_id, employee_id, element_id)  ON CONFLICT DO UPDATE
  - payslips(period_id, employee_id)               ON CONFLICT DO UPDATE
  - pay_history(payslip_id)
  Constraint failures are translated to the domain errors in errors.go.

STORAGE FORMATS:
  - timestamps: RFC3339 TEXT in UTC
  - dates:      "YYYY-MM-DD" TEXT, NULL when unset (calendar.Date)
  - money:      decimal TEXT (shopspring/decimal scans and values itself)
  - booleans:   INTEGER 0/1

CONNECTIONS:
  The pool is capped at one connection. SQLite serializes writers anyway,
  and ":memory:" databases exist per connection.

USAGE:
  store, err := sqlite.New("./data/projetrh.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - schema.go: tables and indexes
  - hr.go, career.go, records.go: hr.Store
  - payroll.go: payroll.TxStore
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements hr.Store and payroll.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier
	// inTx is set on the copies handed to WithTx callbacks.
	inTx bool
}

// New opens (and creates if needed) the database at dbPath.
// Use ":memory:" for a throwaway database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// inTransaction runs fn against a copy of the store bound to one SQL
// transaction. It commits when fn returns nil and rolls back otherwise.
// Nested calls join the outer transaction.
func (s *Store) inTransaction(ctx context.Context, fn func(store *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for tests and demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	return s.inTransaction(ctx, func(tx *Store) error {
		for _, table := range resetOrder {
			if _, err := tx.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullTS(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: ts(*t), Valid: true}
}

func parseTS(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTS(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTS(s.String)
	return &t
}

// where assembles a WHERE clause from conditions; it is empty when
// conds is.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// page appends LIMIT/OFFSET when limit is positive.
func page(query string, limit, offset int, args []any) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	query += " LIMIT ? OFFSET ?"
	return query, append(args, limit, max(offset, 0))
}

// count runs a COUNT query.
func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// =============================================================================
// ROW HELPERS
// =============================================================================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// getOne runs a single-row query. It returns (nil, nil) when no row matches.
func getOne[T any](ctx context.Context, q querier, scan func(rowScanner) (T, error), query string, args ...any) (*T, error) {
	v, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// list runs a query and scans every row. It never returns a nil slice.
func list[T any](ctx context.Context, q querier, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// upsertSQL builds an insert keyed by id that rewrites every other column
// except the creation stamps on conflict.
func upsertSQL(table string, cols []string) string {
	marks := make([]string, len(cols))
	var sets []string
	for i, c := range cols {
		marks[i] = "?"
		switch c {
		case "id", "created_at", "created_by":
			continue
		}
		sets = append(sets, c+" = excluded."+c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "), strings.Join(sets, ", "))
}

// prefixed qualifies columns with a table alias.
func prefixed(alias string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

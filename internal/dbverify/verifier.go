// File: internal/dbverify/verifier.go

// Package dbverify inspects the AUT's database from scenarios. All statements
// use positional parameter binding; interpolating values into SQL is
// forbidden even in test code, since the suite also exercises the AUT's own
// injection defences.
package dbverify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
)

// DBPool abstracts pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Row is one result row keyed by column name.
type Row map[string]any

// Verifier runs parameterised queries and row-shape assertions against the
// AUT's PostgreSQL database. One verifier per scenario.
type Verifier struct {
	pool    DBPool
	timeout time.Duration
	log     *zap.Logger
}

// identPattern restricts table and column names supplied by scenarios.
// Identifiers cannot be bound positionally, so they are validated instead.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New verifies connectivity and returns a scenario-scoped verifier. A failed
// ping wraps schemas.ErrDbUnavailable, which is fatal to the scenario.
func New(ctx context.Context, pool DBPool, timeout time.Duration, logger *zap.Logger) (*Verifier, error) {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v: %w", err, schemas.ErrDbUnavailable)
	}
	return &Verifier{pool: pool, timeout: timeout, log: logger.Named("dbverify")}, nil
}

// Connect dials the configured DSN and builds a verifier on a real pool.
func Connect(ctx context.Context, dsn string, timeout time.Duration, logger *zap.Logger) (*Verifier, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %v: %w", err, schemas.ErrDbUnavailable)
	}
	v, err := New(ctx, pool, timeout, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return v, nil
}

// Close releases the underlying pool.
func (v *Verifier) Close() {
	v.pool.Close()
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier %q", name)
	}
	return nil
}

// Query runs a parameterised SQL template and materialises all rows.
func (v *Verifier) Query(ctx context.Context, sql string, params ...any) ([]Row, error) {
	qCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	rows, err := v.pool.Query(qCtx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v: %w", err, schemas.ErrDbUnavailable)
	}
	defer rows.Close()

	var out []Row
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %v: %w", err, schemas.ErrDbUnavailable)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %v: %w", err, schemas.ErrDbUnavailable)
	}
	return out, nil
}

// Insert adds one row, used to seed scenario fixtures.
func (v *Verifier) Insert(ctx context.Context, table string, row Row) error {
	if err := checkIdent(table); err != nil {
		return err
	}

	columns := make([]string, 0, len(row))
	for col := range row {
		if err := checkIdent(col); err != nil {
			return err
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	params := make([]any, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		params[i] = row[col]
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	execCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	if _, err := v.pool.Exec(execCtx, sql, params...); err != nil {
		return fmt.Errorf("insert into %s failed: %v: %w", table, err, schemas.ErrDbUnavailable)
	}
	return nil
}

// Delete removes the rows matching the condition. Scenarios use it to reset
// the fixture rows they are about to create.
func (v *Verifier) Delete(ctx context.Context, table string, where Row) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	clause, params, err := buildWhere(where, 1)
	if err != nil {
		return err
	}
	execCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	if _, err := v.pool.Exec(execCtx, fmt.Sprintf("DELETE FROM %s WHERE %s", table, clause), params...); err != nil {
		return fmt.Errorf("delete from %s failed: %v: %w", table, err, schemas.ErrDbUnavailable)
	}
	return nil
}

// Truncate empties a table, used between scenarios running on an isolated
// dataset.
func (v *Verifier) Truncate(ctx context.Context, table string) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	execCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	if _, err := v.pool.Exec(execCtx, fmt.Sprintf("TRUNCATE TABLE %s", table)); err != nil {
		return fmt.Errorf("truncate %s failed: %v: %w", table, err, schemas.ErrDbUnavailable)
	}
	return nil
}

// buildWhere renders a deterministic WHERE clause from the condition map.
// Keys are sorted so generated SQL is stable for logging and mocking.
func buildWhere(where Row, firstParam int) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, fmt.Errorf("empty where condition")
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		if err := checkIdent(k); err != nil {
			return "", nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, len(keys))
	params := make([]any, len(keys))
	for i, k := range keys {
		clauses[i] = fmt.Sprintf("%s = $%d", k, firstParam+i)
		params[i] = where[k]
	}
	return strings.Join(clauses, " AND "), params, nil
}

// ExistsExactlyOne asserts that exactly one row matches and returns it.
// Zero or multiple matches wrap schemas.ErrCountMismatch.
func (v *Verifier) ExistsExactlyOne(ctx context.Context, table string, where Row) (Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	clause, params, err := buildWhere(where, 1)
	if err != nil {
		return nil, err
	}

	rows, err := v.Query(ctx, fmt.Sprintf("SELECT * FROM %s WHERE %s", table, clause), params...)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%s where %v: expected exactly 1 row, found %d: %w",
			table, where, len(rows), schemas.ErrCountMismatch)
	}
	return rows[0], nil
}

// DoesNotExist asserts that no row matches; a match wraps
// schemas.ErrUnexpectedRow.
func (v *Verifier) DoesNotExist(ctx context.Context, table string, where Row) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	clause, params, err := buildWhere(where, 1)
	if err != nil {
		return err
	}

	rows, err := v.Query(ctx, fmt.Sprintf("SELECT * FROM %s WHERE %s", table, clause), params...)
	if err != nil {
		return err
	}
	if len(rows) != 0 {
		return fmt.Errorf("%s where %v: found %d unexpected row(s): %w",
			table, where, len(rows), schemas.ErrUnexpectedRow)
	}
	return nil
}

// Subset asserts that every row currently in the table (projected onto the
// given columns) is contained in the expected set. Integrity checks after
// destructive or injection scenarios use this: the table may have lost rows
// to test cleanup, but it must never contain anything unexpected.
func (v *Verifier) Subset(ctx context.Context, table string, columns []string, expected []Row) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	for _, col := range columns {
		if err := checkIdent(col); err != nil {
			return err
		}
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	actual, err := v.Query(ctx, sql)
	if err != nil {
		return err
	}

	for _, row := range actual {
		if !containsRow(expected, row) {
			return fmt.Errorf("%s: row %v not in expected set: %w", table, row, schemas.ErrUnexpectedRow)
		}
	}
	return nil
}

func containsRow(set []Row, row Row) bool {
	for _, candidate := range set {
		if cmp.Equal(normalize(candidate), normalize(row)) {
			return true
		}
	}
	return false
}

// normalize widens numeric values so that fixture literals (int) compare
// equal to driver-decoded values (int32/int64).
func normalize(row Row) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch n := v.(type) {
		case int:
			out[k] = int64(n)
		case int32:
			out[k] = int64(n)
		case float32:
			out[k] = float64(n)
		default:
			out[k] = v
		}
	}
	return out
}

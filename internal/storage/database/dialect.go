package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// LikeEscape is the escape character used by every LIKE clause the
// application renders. It is not a SQL wildcard in any supported dialect.
const LikeEscape = '!'

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect hides the SQL differences between the supported drivers.
type Dialect interface {
	Name() string
	DriverName() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// Like renders a case-sensitive LIKE of expr against the bind marker ph.
	Like(expr, ph string) string
	// Text casts a column to a text type so pattern operators apply to it.
	Text(expr string) string
	// In renders a set membership test starting at argument n and returns
	// the clause, its arguments and the next free argument index.
	In(expr string, n int, values []any) (string, []any, int)
	// ForUpdate is appended to a row lookup performed inside a transaction.
	ForUpdate() string
	// InsertID executes an INSERT and returns the generated id column.
	InsertID(ctx context.Context, ex Execer, query string, args ...any) (int64, error)
}

func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) Like(expr, ph string) string {
	return fmt.Sprintf("%s LIKE %s ESCAPE '%c'", expr, ph, LikeEscape)
}

func (Postgres) Text(expr string) string { return fmt.Sprintf("CAST(%s AS TEXT)", expr) }

// In binds the whole set as one array parameter.
func (Postgres) In(expr string, n int, values []any) (string, []any, int) {
	return fmt.Sprintf("%s = ANY($%d)", expr, n), []any{pqArray(values)}, n + 1
}

func (Postgres) ForUpdate() string { return " FOR UPDATE" }

func (Postgres) InsertID(ctx context.Context, ex Execer, query string, args ...any) (int64, error) {
	var id int64
	err := ex.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
	return id, err
}

// pqArray picks the typed array wrapper matching the set's element type.
func pqArray(values []any) any {
	ints := make([]int64, 0, len(values))
	strs := make([]string, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case int64:
			ints = append(ints, t)
		default:
			strs = append(strs, fmt.Sprint(t))
		}
	}
	if len(ints) == len(values) {
		return pq.Array(ints)
	}
	return pq.Array(strs)
}

type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) Like(expr, ph string) string {
	return fmt.Sprintf("%s LIKE BINARY %s ESCAPE '%c'", expr, ph, LikeEscape)
}

func (MySQL) Text(expr string) string { return fmt.Sprintf("CAST(%s AS CHAR)", expr) }

func (MySQL) In(expr string, n int, values []any) (string, []any, int) {
	return expandIn(expr, n, values)
}

func (MySQL) ForUpdate() string { return " FOR UPDATE" }

func (MySQL) InsertID(ctx context.Context, ex Execer, query string, args ...any) (int64, error) {
	return lastInsertID(ctx, ex, query, args...)
}

type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

// Like relies on PRAGMA case_sensitive_like=ON set when the client opens.
func (SQLite) Like(expr, ph string) string {
	return fmt.Sprintf("%s LIKE %s ESCAPE '%c'", expr, ph, LikeEscape)
}

func (SQLite) Text(expr string) string { return fmt.Sprintf("CAST(%s AS TEXT)", expr) }

func (SQLite) In(expr string, n int, values []any) (string, []any, int) {
	return expandIn(expr, n, values)
}

// ForUpdate is empty: sqlite serialises writers at the database level.
func (SQLite) ForUpdate() string { return "" }

func (SQLite) InsertID(ctx context.Context, ex Execer, query string, args ...any) (int64, error) {
	return lastInsertID(ctx, ex, query, args...)
}

func expandIn(expr string, n int, values []any) (string, []any, int) {
	if len(values) == 0 {
		return "1=0", nil, n
	}
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("%s IN (%s)", expr, strings.Join(placeholders, ",")), values, n + len(values)
}

func lastInsertID(ctx context.Context, ex Execer, query string, args ...any) (int64, error) {
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// EscapeLike escapes the LIKE wildcards in a user supplied literal.
func EscapeLike(s string) string {
	esc := string(LikeEscape)
	r := strings.NewReplacer(esc, esc+esc, "%", esc+"%", "_", esc+"_")
	return r.Replace(s)
}

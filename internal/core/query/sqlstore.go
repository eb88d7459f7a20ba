package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/theunits/units/internal/storage/database"
)

var comparisons = map[Operator]string{
	OpEq: "=",
	OpNe: "<>",
	OpGe: ">=",
	OpGt: ">",
	OpLe: "<=",
	OpLt: "<",
}

// SQLStore renders predicates as parameterised SQL against Spec.Entity.
// Column names only ever come from the Spec, never from request input.
type SQLStore[T any] struct {
	db      database.Execer
	dialect database.Dialect
	columns string
	scan    func(*sql.Rows) (T, error)
}

func NewSQLStore[T any](db database.Execer, dialect database.Dialect, columns []string, scan func(*sql.Rows) (T, error)) *SQLStore[T] {
	return &SQLStore[T]{
		db:      db,
		dialect: dialect,
		columns: strings.Join(columns, ", "),
		scan:    scan,
	}
}

func (s *SQLStore[T]) Count(ctx context.Context, spec Spec, pred Predicate) (int, error) {
	where, args, _ := s.Where(pred, 1)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", spec.Entity, where)

	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *SQLStore[T]) Fetch(ctx context.Context, spec Spec, pred Predicate, sort Sort, offset, limit int) ([]T, error) {
	where, args, n := s.Where(pred, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s LIMIT %s OFFSET %s",
		s.columns, spec.Entity, where,
		sort.Field, strings.ToUpper(string(sort.Direction)),
		s.dialect.Placeholder(n), s.dialect.Placeholder(n+1),
	)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Where renders pred as a WHERE clause whose first bind argument is n. It
// returns the clause, its arguments and the next free argument index.
func (s *SQLStore[T]) Where(pred Predicate, n int) (string, []any, int) {
	if len(pred.Conditions) == 0 {
		return "", nil, n
	}

	clauses := make([]string, 0, len(pred.Conditions))
	var args []any
	for _, c := range pred.Conditions {
		clause, cargs, next := s.condition(c, n)
		clauses = append(clauses, clause)
		args = append(args, cargs...)
		n = next
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, n
}

func (s *SQLStore[T]) condition(c Condition, n int) (string, []any, int) {
	switch c.Op {
	case OpIsNull:
		return c.Field + " IS NULL", nil, n

	case OpContains, OpStarts, OpEnds:
		expr := c.Field
		if c.Kind == Int {
			expr = s.dialect.Text(expr)
		}
		literal := database.EscapeLike(fmt.Sprint(c.Value))
		var pattern string
		switch c.Op {
		case OpContains:
			pattern = "%" + literal + "%"
		case OpStarts:
			pattern = literal + "%"
		default:
			pattern = "%" + literal
		}
		return s.dialect.Like(expr, s.dialect.Placeholder(n)), []any{pattern}, n + 1

	case OpIn:
		return s.dialect.In(c.Field, n, c.Values)

	default:
		clause := fmt.Sprintf("%s %s %s", c.Field, comparisons[c.Op], s.dialect.Placeholder(n))
		return clause, []any{c.Value}, n + 1
	}
}

package database_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/lib/pq"

	"github.com/theunits/units/internal/storage/database"
	"github.com/theunits/units/internal/testhelpers"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver string
		want   string
		ok     bool
	}{
		{"", "postgres", true},
		{"postgres", "postgres", true},
		{"MySQL", "mysql", true},
		{"sqlite3", "sqlite", true},
		{"oracle", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := database.DialectFor(tt.driver)
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected error for %q", tt.driver)
				}
				return
			}
			if err != nil {
				t.Fatalf("DialectFor: %v", err)
			}
			if d.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", d.Name(), tt.want)
			}
		})
	}
}

func TestPostgresInUsesArray(t *testing.T) {
	clause, args, next := database.Postgres{}.In("id", 3, []any{int64(1), int64(2)})
	if clause != "id = ANY($3)" {
		t.Errorf("clause = %q", clause)
	}
	if next != 4 {
		t.Errorf("next = %d, want 4", next)
	}
	want := pq.Array([]int64{1, 2})
	if len(args) != 1 || !reflect.DeepEqual(args[0], want) {
		t.Errorf("args = %#v, want %#v", args, want)
	}

	_, args, _ = database.Postgres{}.In("unit_number", 1, []any{"A1", "B2"})
	if !reflect.DeepEqual(args[0], pq.Array([]string{"A1", "B2"})) {
		t.Errorf("string set not bound as text array: %#v", args[0])
	}
}

func TestExpandedIn(t *testing.T) {
	clause, args, next := database.SQLite{}.In("unit_number", 2, []any{"a", "b", "c"})
	if clause != "unit_number IN (?,?,?)" {
		t.Errorf("clause = %q", clause)
	}
	if len(args) != 3 || next != 5 {
		t.Errorf("args = %v next = %d", args, next)
	}

	clause, _, _ = database.MySQL{}.In("unit_number", 1, nil)
	if clause != "1=0" {
		t.Errorf("empty set clause = %q, want 1=0", clause)
	}
}

func TestLikeRendering(t *testing.T) {
	if got := (database.Postgres{}).Like("unit_number", "$2"); got != "unit_number LIKE $2 ESCAPE '!'" {
		t.Errorf("postgres like = %q", got)
	}
	if got := (database.MySQL{}).Like("unit_number", "?"); got != "unit_number LIKE BINARY ? ESCAPE '!'" {
		t.Errorf("mysql like = %q", got)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":  "plain",
		"50%":    "50!%",
		"a_b":    "a!_b",
		"wow!":   "wow!!",
		"%_!mix": "!%!_!!mix",
	}
	for in, want := range tests {
		if got := database.EscapeLike(in); got != want {
			t.Errorf("EscapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	client := testhelpers.NewTestClient(t)
	ctx := context.Background()

	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var n int
	if err := client.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", n)
	}
}

func TestSQLiteLikeIsCaseSensitive(t *testing.T) {
	client := testhelpers.NewTestClient(t)
	ctx := context.Background()

	var n int
	err := client.DB.QueryRowContext(ctx, "SELECT 'Unit' LIKE 'unit'").Scan(&n)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 0 {
		t.Error("LIKE should be case-sensitive on sqlite")
	}
}

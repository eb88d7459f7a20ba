package testhelpers

import (
	"context"
	"testing"

	"github.com/theunits/units/config"
	"github.com/theunits/units/internal/storage/database"
)

// NewTestClient returns a migrated in-memory SQLite client configured the
// same way as production. It is closed when the test completes.
func NewTestClient(t *testing.T) *database.Client {
	t.Helper()

	client, err := database.NewClient(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if err := client.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return client
}

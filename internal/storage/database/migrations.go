package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds ordered statement groups per dialect. The version of a
// group is its 1-based index; every dialect must have the same number.
var migrations = map[string][][]string{
	"postgres": {
		{
			`CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				username VARCHAR(80) NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS leases (
				id BIGSERIAL PRIMARY KEY,
				provider_lease_id BIGINT,
				unit_number VARCHAR(15),
				user_id UUID NOT NULL REFERENCES users(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_leases_user_id ON leases(user_id)`,
			`CREATE TABLE IF NOT EXISTS lease_esignatures (
				id BIGSERIAL PRIMARY KEY,
				provider_id BIGINT NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				data JSONB,
				lease_id BIGINT NOT NULL REFERENCES leases(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lease_esignatures_provider_id ON lease_esignatures(provider_id)`,
			`CREATE INDEX IF NOT EXISTS idx_lease_esignatures_lease_id ON lease_esignatures(lease_id)`,
		},
	},
	"mysql": {
		{
			`CREATE TABLE IF NOT EXISTS users (
				id CHAR(36) PRIMARY KEY,
				username VARCHAR(80) NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS leases (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				provider_lease_id BIGINT NULL,
				unit_number VARCHAR(15) NULL,
				user_id CHAR(36) NOT NULL,
				INDEX idx_leases_user_id (user_id),
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`,
			`CREATE TABLE IF NOT EXISTS lease_esignatures (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				provider_id BIGINT NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				data JSON NULL,
				lease_id BIGINT NOT NULL,
				INDEX idx_lease_esignatures_provider_id (provider_id),
				FOREIGN KEY (lease_id) REFERENCES leases(id)
			)`,
		},
	},
	"sqlite": {
		{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS leases (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				provider_lease_id INTEGER,
				unit_number TEXT,
				user_id TEXT NOT NULL REFERENCES users(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_leases_user_id ON leases(user_id)`,
			`CREATE TABLE IF NOT EXISTS lease_esignatures (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				provider_id INTEGER NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				data TEXT,
				lease_id INTEGER NOT NULL REFERENCES leases(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lease_esignatures_provider_id ON lease_esignatures(provider_id)`,
		},
	},
}

// Migrate applies pending migrations for the client's dialect. Applied
// versions are tracked in schema_migrations.
func (c *Client) Migrate(ctx context.Context) error {
	groups, ok := migrations[c.Dialect.Name()]
	if !ok {
		return fmt.Errorf("no migrations for dialect %s", c.Dialect.Name())
	}

	if _, err := c.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	ph := c.Dialect.Placeholder(1)
	for i, stmts := range groups {
		version := i + 1

		var exists int
		if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = "+ph, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		err := c.InTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d: %w", version, err)
				}
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ("+ph+")", version)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

package auth

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/theunits/units/internal/storage/database"
)

type Repository struct {
	db *database.Client
}

func NewRepository(db *database.Client) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ph(n int) string {
	return r.db.Dialect.Placeholder(n)
}

func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, username) VALUES (` + r.ph(1) + `, ` + r.ph(2) + `)`
	_, err := r.db.DB.ExecContext(ctx, query, user.ID.String(), user.Username)
	return err
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT id, username FROM users WHERE username = ` + r.ph(1)
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, username))
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT id, username FROM users WHERE id = ` + r.ph(1)
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, id.String()))
}

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var id string
	err := row.Scan(&id, &user.Username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

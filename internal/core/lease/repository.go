package lease

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/theunits/units/internal/core/query"
	"github.com/theunits/units/internal/core/signature"
	"github.com/theunits/units/internal/storage/database"
)

var leaseColumns = []string{"id", "provider_lease_id", "unit_number", "user_id"}

const esignatureColumns = "id, lease_id, provider_id, status, data"

type Repository struct {
	db    *database.Client
	store *query.SQLStore[*Lease]
}

func NewRepository(db *database.Client) *Repository {
	return &Repository{
		db:    db,
		store: query.NewSQLStore(db.DB, db.Dialect, leaseColumns, scanLease),
	}
}

// Store is the list query backend for leases.
func (r *Repository) Store() query.Store[*Lease] {
	return r.store
}

func (r *Repository) ph(n int) string {
	return r.db.Dialect.Placeholder(n)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLease(rows *sql.Rows) (*Lease, error) {
	return scanLeaseRow(rows)
}

func scanLeaseRow(row rowScanner) (*Lease, error) {
	l := &Lease{}
	var providerID sql.NullInt64
	var unit sql.NullString
	var userID string

	if err := row.Scan(&l.ID, &providerID, &unit, &userID); err != nil {
		return nil, err
	}
	if providerID.Valid {
		v := providerID.Int64
		l.ProviderLeaseID = &v
	}
	l.UnitNumber = unit.String

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("lease %d: bad user id: %w", l.ID, err)
	}
	l.UserID = id
	return l, nil
}

func scanEsignature(row rowScanner) (*signature.Esignature, error) {
	e := &signature.Esignature{}
	var status string
	var data []byte

	if err := row.Scan(&e.ID, &e.LeaseID, &e.ProviderID, &status, &data); err != nil {
		return nil, err
	}
	e.Status = signature.Status(status)
	if len(data) > 0 {
		e.Data = data
	}
	return e, nil
}

func (r *Repository) Create(ctx context.Context, l *Lease) error {
	query := fmt.Sprintf(`INSERT INTO leases (provider_lease_id, unit_number, user_id) VALUES (%s, %s, %s)`,
		r.ph(1), r.ph(2), r.ph(3))

	var providerID any
	if l.ProviderLeaseID != nil {
		providerID = *l.ProviderLeaseID
	}
	id, err := r.db.Dialect.InsertID(ctx, r.db.DB, query, providerID, l.UnitNumber, l.UserID.String())
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// GetByID returns the lease only when owner owns it.
func (r *Repository) GetByID(ctx context.Context, id int64, owner uuid.UUID) (*Lease, error) {
	query := fmt.Sprintf(`SELECT %s FROM leases WHERE id = %s AND user_id = %s`,
		strings.Join(leaseColumns, ", "), r.ph(1), r.ph(2))

	l, err := scanLeaseRow(r.db.DB.QueryRowContext(ctx, query, id, owner.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (r *Repository) SetProviderLeaseID(ctx context.Context, id int64, owner uuid.UUID, providerLeaseID int64) error {
	query := fmt.Sprintf(`UPDATE leases SET provider_lease_id = %s WHERE id = %s AND user_id = %s`,
		r.ph(1), r.ph(2), r.ph(3))
	_, err := r.db.DB.ExecContext(ctx, query, providerLeaseID, id, owner.String())
	return err
}

// EsignaturesFor loads the esignatures of every lease in leases, oldest
// first, in one query.
func (r *Repository) EsignaturesFor(ctx context.Context, leases []*Lease) error {
	if len(leases) == 0 {
		return nil
	}

	byID := make(map[int64]*Lease, len(leases))
	ids := make([]any, 0, len(leases))
	for _, l := range leases {
		l.Esignatures = []*signature.Esignature{}
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}

	clause, args, _ := r.db.Dialect.In("lease_id", 1, ids)
	query := fmt.Sprintf(`SELECT %s FROM lease_esignatures WHERE %s ORDER BY id`, esignatureColumns, clause)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEsignature(rows)
		if err != nil {
			return err
		}
		if l, ok := byID[e.LeaseID]; ok {
			l.Esignatures = append(l.Esignatures, e)
		}
	}
	return rows.Err()
}

func (r *Repository) CreateEsignature(ctx context.Context, e *signature.Esignature) error {
	query := fmt.Sprintf(`INSERT INTO lease_esignatures (lease_id, provider_id, status, data) VALUES (%s, %s, %s, %s)`,
		r.ph(1), r.ph(2), r.ph(3), r.ph(4))

	id, err := r.db.Dialect.InsertID(ctx, r.db.DB, query, e.LeaseID, e.ProviderID, string(e.Status), jsonArg(e.Data))
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// GetEsignature returns an esignature owned by owner together with its lease.
func (r *Repository) GetEsignature(ctx context.Context, id int64, owner uuid.UUID) (*signature.Esignature, *Lease, error) {
	query := fmt.Sprintf(`SELECT %s FROM lease_esignatures WHERE id = %s AND lease_id IN (SELECT id FROM leases WHERE user_id = %s)`,
		esignatureColumns, r.ph(1), r.ph(2))

	e, err := scanEsignature(r.db.DB.QueryRowContext(ctx, query, id, owner.String()))
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	l, err := r.GetByID(ctx, e.LeaseID, owner)
	if err != nil {
		return nil, nil, err
	}
	return e, l, nil
}

// WithinTx runs fn in a transaction whose lookups lock the rows they read.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx signature.Tx) error) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		return fn(&esignatureTx{tx: tx, dialect: r.db.Dialect})
	})
}

type esignatureTx struct {
	tx      *sql.Tx
	dialect database.Dialect
}

func (t *esignatureTx) LockEsignature(ctx context.Context, id int64, owner uuid.UUID) (*signature.Esignature, error) {
	query := fmt.Sprintf(`SELECT %s FROM lease_esignatures WHERE id = %s AND lease_id IN (SELECT id FROM leases WHERE user_id = %s)%s`,
		esignatureColumns, t.dialect.Placeholder(1), t.dialect.Placeholder(2), t.dialect.ForUpdate())
	return t.lock(ctx, query, id, owner.String())
}

func (t *esignatureTx) LockEsignatureByProviderID(ctx context.Context, providerID int64) (*signature.Esignature, error) {
	query := fmt.Sprintf(`SELECT %s FROM lease_esignatures WHERE provider_id = %s ORDER BY id LIMIT 1%s`,
		esignatureColumns, t.dialect.Placeholder(1), t.dialect.ForUpdate())
	return t.lock(ctx, query, providerID)
}

func (t *esignatureTx) lock(ctx context.Context, query string, args ...any) (*signature.Esignature, error) {
	e, err := scanEsignature(t.tx.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (t *esignatureTx) SaveEsignature(ctx context.Context, e *signature.Esignature) error {
	query := fmt.Sprintf(`UPDATE lease_esignatures SET status = %s, data = %s WHERE id = %s`,
		t.dialect.Placeholder(1), t.dialect.Placeholder(2), t.dialect.Placeholder(3))
	_, err := t.tx.ExecContext(ctx, query, string(e.Status), jsonArg(e.Data), e.ID)
	return err
}

// jsonArg binds a JSON document as text so every driver accepts it for its
// JSON column type.
func jsonArg(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

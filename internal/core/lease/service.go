package lease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/theunits/units/internal/core/query"
	"github.com/theunits/units/internal/core/signature"
	"github.com/theunits/units/internal/core/validation"
	"github.com/theunits/units/internal/provider/bluemoon"
)

var (
	ErrNotFound             = errors.New("lease not found")
	ErrEsignatureNotFound   = errors.New("esignature not found")
	ErrNotSigned            = errors.New("lease has not been signed by all residents")
	ErrProviderLeaseMissing = errors.New("lease has not been created with the provider")
	ErrNoLeaseForms         = errors.New("provider returned no lease forms")
	ErrInvalidNotification  = errors.New("notification has no data")
)

// RejectedError carries the provider's response when it refuses an
// esignature request.
type RejectedError struct {
	Response json.RawMessage
}

func (e *RejectedError) Error() string {
	return "provider rejected the esignature request"
}

// Provider is the part of the e-signature provider the service talks to.
type Provider interface {
	EsignatureDetails(ctx context.Context, providerID int64) (json.RawMessage, error)
	ExecuteLease(ctx context.Context, providerLeaseID int64, req bluemoon.ExecuteRequest) (bool, error)
	RequestEsignature(ctx context.Context, req bluemoon.EsignatureRequest) (*bluemoon.EsignatureResponse, error)
	LeaseForms(ctx context.Context) ([]bluemoon.LeaseForm, error)
}

type Service struct {
	repo            *Repository
	engine          *query.Engine[*Lease]
	sync            *signature.Synchronizer
	provider        Provider
	validator       *validation.Validator
	notificationURL string
	logger          *slog.Logger
}

// NewService wires the lease workflow. notificationURL is the public address
// the provider posts esignature updates to.
func NewService(repo *Repository, sync *signature.Synchronizer, provider Provider, validator *validation.Validator, notificationURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:            repo,
		engine:          query.NewEngine[*Lease](FilterSpec, repo.Store(), logger),
		sync:            sync,
		provider:        provider,
		validator:       validator,
		notificationURL: notificationURL,
		logger:          logger,
	}
}

// List returns one page of the principal's leases with their esignatures.
func (s *Service) List(ctx context.Context, principal uuid.UUID, params query.Params) (*ListLeasesResponse, error) {
	page, err := s.engine.Run(ctx, principal, params)
	if err != nil {
		return nil, err
	}
	if err := s.repo.EsignaturesFor(ctx, page.Items); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *Service) Create(ctx context.Context, principal uuid.UUID, body []byte) (*Lease, error) {
	var req CreateLeaseRequest
	if err := s.validator.Decode(validation.SchemaCreateLease, body, &req); err != nil {
		return nil, err
	}

	l := &Lease{
		UnitNumber:      req.UnitNumber,
		ProviderLeaseID: req.ProviderLeaseID,
		UserID:          principal,
		Esignatures:     []*signature.Esignature{},
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns a lease owned by principal. Leases owned by anyone else are
// reported as not found.
func (s *Service) Get(ctx context.Context, principal uuid.UUID, id int64) (*Lease, error) {
	l, err := s.repo.GetByID(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if err := s.repo.EsignaturesFor(ctx, []*Lease{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// AttachProviderLease records the id the provider assigned to the lease
// once it has been created there.
func (s *Service) AttachProviderLease(ctx context.Context, principal uuid.UUID, id int64, body []byte) (*Lease, error) {
	var req AttachProviderLeaseRequest
	if err := s.validator.Decode(validation.SchemaAttachProviderLease, body, &req); err != nil {
		return nil, err
	}

	l, err := s.repo.GetByID(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}

	if err := s.repo.SetProviderLeaseID(ctx, id, principal, req.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, principal, id)
}

func (s *Service) LeaseForms(ctx context.Context) ([]bluemoon.LeaseForm, error) {
	forms, err := s.provider.LeaseForms(ctx)
	if err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, ErrNoLeaseForms
	}
	return forms, nil
}

// RequestEsignature asks the provider to collect signatures for the
// selected forms and records the resulting esignature.
func (s *Service) RequestEsignature(ctx context.Context, principal uuid.UUID, id int64, body []byte) (*signature.Esignature, error) {
	var req RequestEsignatureRequest
	if err := s.validator.Decode(validation.SchemaRequestEsignature, body, &req); err != nil {
		return nil, err
	}

	l, err := s.repo.GetByID(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if l.ProviderLeaseID == nil {
		return nil, ErrProviderLeaseMissing
	}

	available, err := s.LeaseForms(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.RequestEsignature(ctx, bluemoon.EsignatureRequest{
		LeaseID:           *l.ProviderLeaseID,
		ExternalID:        l.ID,
		SendNotifications: true,
		NotificationURL:   s.notificationURL,
		Data:              MapForms(req.Forms, available),
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RejectedError{Response: resp.Raw}
	}

	e := &signature.Esignature{
		LeaseID:    l.ID,
		ProviderID: resp.Data.ID,
		Status:     signature.StatusPending,
		Data:       resp.Data.Data,
	}
	if err := s.repo.CreateEsignature(ctx, e); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "esignature requested", "lease_id", l.ID, "esignature_id", e.ID, "provider_id", e.ProviderID)
	return e, nil
}

// Execute refreshes the esignature from the provider and, once every
// resident has signed, asks the provider to execute the lease.
func (s *Service) Execute(ctx context.Context, principal uuid.UUID, esignatureID int64, body []byte) (*ExecuteResponse, error) {
	var req bluemoon.ExecuteRequest
	if err := s.validator.Decode(validation.SchemaExecute, body, &req); err != nil {
		return nil, err
	}

	e, l, err := s.repo.GetEsignature(ctx, esignatureID, principal)
	if err != nil {
		return nil, err
	}
	if e == nil || l == nil {
		return nil, ErrEsignatureNotFound
	}

	snapshot, err := s.provider.EsignatureDetails(ctx, e.ProviderID)
	if err != nil {
		return nil, err
	}

	res, err := s.sync.SyncByID(ctx, e.ID, principal, snapshot)
	if errors.Is(err, signature.ErrNotFound) {
		return nil, ErrEsignatureNotFound
	}
	if err != nil {
		return nil, err
	}
	if !res.Eligible {
		return nil, ErrNotSigned
	}

	if l.ProviderLeaseID == nil {
		return nil, ErrProviderLeaseMissing
	}
	executed, err := s.provider.ExecuteLease(ctx, *l.ProviderLeaseID, req)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "lease execution requested", "lease_id", l.ID, "esignature_id", e.ID, "executed", executed)
	return &ExecuteResponse{Success: executed}, nil
}

type notification struct {
	Data json.RawMessage `json:"data"`
}

type notificationData struct {
	ID int64 `json:"id"`
}

// HandleNotification applies a provider push. The esignature is found by
// the provider's own id; no principal is involved.
func (s *Service) HandleNotification(ctx context.Context, body []byte) (*signature.Result, error) {
	if err := s.validator.Validate(validation.SchemaNotification, body); err != nil {
		return nil, err
	}

	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, err
	}
	var data notificationData
	if err := json.Unmarshal(n.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}

	res, err := s.sync.SyncByProviderID(ctx, data.ID, n.Data)
	if errors.Is(err, signature.ErrNotFound) {
		return nil, ErrEsignatureNotFound
	}
	return res, err
}

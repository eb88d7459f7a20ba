package lease

import (
	"github.com/google/uuid"

	"github.com/theunits/units/internal/core/query"
	"github.com/theunits/units/internal/core/signature"
)

type Lease struct {
	ID              int64                   `json:"id"`
	ProviderLeaseID *int64                  `json:"provider_lease_id"`
	UnitNumber      string                  `json:"unit_number"`
	UserID          uuid.UUID               `json:"-"`
	Esignatures     []*signature.Esignature `json:"esignatures"`
}

// FilterSpec declares what lease list requests may filter and sort on.
var FilterSpec = query.Spec{
	Entity:     "leases",
	OwnerField: "user_id",
	Fields: map[string]query.FieldKind{
		"id":                query.Int,
		"provider_lease_id": query.Int,
		"unit_number":       query.String,
	},
	Sortable: map[string]bool{
		"id":                true,
		"provider_lease_id": true,
		"unit_number":       true,
	},
	DefaultSort:     "id",
	DefaultDir:      query.Desc,
	DefaultPageSize: 25,
	MaxPageSize:     100,
}

type CreateLeaseRequest struct {
	UnitNumber      string `json:"unit_number"`
	ProviderLeaseID *int64 `json:"provider_lease_id"`
}

type AttachProviderLeaseRequest struct {
	ID int64 `json:"id"`
}

type RequestEsignatureRequest struct {
	Forms []string `json:"forms"`
}

type ExecuteResponse struct {
	Success bool `json:"success"`
}

type ListLeasesResponse = query.Page[*Lease]

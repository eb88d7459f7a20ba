// Package signature derives e-signature lifecycle status from provider
// snapshots and reconciles persisted esignature records with them.
package signature

import (
	"encoding/json"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSigned     Status = "signed"
	StatusExecuted   Status = "executed"
)

// Rank orders statuses by workflow progress. Unknown statuses rank below
// pending.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusProcessing:
		return 2
	case StatusSigned:
		return 3
	case StatusExecuted:
		return 4
	default:
		return 0
	}
}

func (s Status) Valid() bool {
	return s.Rank() > 0
}

// OwnerIdentifier marks the landlord's signer record. Every other identifier
// is a resident.
const OwnerIdentifier = "owner"

type Signer struct {
	Identifier string `json:"identifier"`
	Completed  bool   `json:"completed"`
}

func (s Signer) IsOwner() bool {
	return s.Identifier == OwnerIdentifier
}

// Derive computes the status of a complete signer set. It looks only at the
// input, never at a previous status, so a less complete snapshot yields a
// less advanced status.
func Derive(signers []Signer) Status {
	if len(signers) == 0 {
		return StatusPending
	}

	var residents, completed int
	ownerCompleted := false
	for _, s := range signers {
		if s.IsOwner() {
			ownerCompleted = ownerCompleted || s.Completed
			continue
		}
		residents++
		if s.Completed {
			completed++
		}
	}

	switch {
	case ownerCompleted:
		return StatusExecuted
	case residents == completed:
		return StatusSigned
	case residents > 0:
		return StatusProcessing
	default:
		return StatusPending
	}
}

type rawSigner struct {
	Identifier *string `json:"identifier"`
	Completed  *bool   `json:"completed"`
}

// snapshotShape mirrors the provider document down to esign.data.signers.data.
type snapshotShape struct {
	Esign *struct {
		Data *struct {
			Signers *struct {
				Data *[]rawSigner `json:"data"`
			} `json:"signers"`
		} `json:"data"`
	} `json:"esign"`
}

// ExtractSigners reads the signer collection out of a provider snapshot. It
// reports false when the collection is missing or any signer lacks its
// identifier or completion flag.
func ExtractSigners(snapshot json.RawMessage) ([]Signer, bool) {
	var doc snapshotShape
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return nil, false
	}
	if doc.Esign == nil || doc.Esign.Data == nil || doc.Esign.Data.Signers == nil || doc.Esign.Data.Signers.Data == nil {
		return nil, false
	}

	raw := *doc.Esign.Data.Signers.Data
	signers := make([]Signer, 0, len(raw))
	for _, r := range raw {
		if r.Identifier == nil || r.Completed == nil {
			return nil, false
		}
		signers = append(signers, Signer{Identifier: *r.Identifier, Completed: *r.Completed})
	}
	return signers, true
}

package signature

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrNotFound        = errors.New("esignature not found")
	ErrInvalidSnapshot = errors.New("snapshot is not a JSON document")
)

// Esignature is the persisted state of one signature request.
type Esignature struct {
	ID         int64           `json:"id"`
	LeaseID    int64           `json:"lease_id"`
	ProviderID int64           `json:"provider_id"`
	Status     Status          `json:"status"`
	Data       json.RawMessage `json:"data"`
}

func (e *Esignature) Eligible() bool {
	return e.Status == StatusSigned
}

type Trigger string

const (
	TriggerPoll         Trigger = "poll"
	TriggerNotification Trigger = "notification"
)

// Result is the outcome of one synchronization.
type Result struct {
	Esignature *Esignature
	Previous   Status
	// Eligible is true when the lease can be executed.
	Eligible     bool
	SignersFound bool
	// Duplicate is set when the record already held the snapshot and
	// nothing was written.
	Duplicate bool
}

func (r *Result) Changed() bool {
	return !r.Duplicate && r.Previous != r.Esignature.Status
}

// Merge applies snapshot to rec. The stored snapshot is always replaced; the
// status only when the snapshot carries a signer collection.
func Merge(rec Esignature, snapshot json.RawMessage) Result {
	prev := rec.Status
	rec.Data = append(json.RawMessage(nil), snapshot...)

	signers, ok := ExtractSigners(snapshot)
	if ok {
		rec.Status = Derive(signers)
	}

	return Result{
		Esignature:   &rec,
		Previous:     prev,
		Eligible:     rec.Eligible(),
		SignersFound: ok,
	}
}

// Tx is the transactional view of esignature persistence. Lookups lock the
// row until the transaction ends and return nil, nil when nothing matches.
type Tx interface {
	LockEsignature(ctx context.Context, id int64, owner uuid.UUID) (*Esignature, error)
	LockEsignatureByProviderID(ctx context.Context, providerID int64) (*Esignature, error)
	SaveEsignature(ctx context.Context, e *Esignature) error
}

type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Deduper remembers the hash of the last snapshot processed per key.
type Deduper interface {
	Last(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, hash string) error
}

type StatusChange struct {
	EsignatureID int64   `json:"esignature_id"`
	LeaseID      int64   `json:"lease_id"`
	ProviderID   int64   `json:"provider_id"`
	From         Status  `json:"from"`
	To           Status  `json:"to"`
	Eligible     bool    `json:"execution_eligible"`
	Trigger      Trigger `json:"trigger"`
}

type Publisher interface {
	PublishStatusChange(ctx context.Context, change StatusChange) error
}

// Synchronizer merges provider snapshots into persisted esignatures. Polls
// and provider notifications go through the same path and produce the same
// record for the same snapshot.
type Synchronizer struct {
	store  Store
	dedupe Deduper
	events Publisher
	logger *slog.Logger
}

// NewSynchronizer creates a synchronizer. dedupe and events may be nil.
func NewSynchronizer(store Store, dedupe Deduper, events Publisher, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{store: store, dedupe: dedupe, events: events, logger: logger}
}

// SyncByID merges a polled snapshot into the esignature id owned by owner.
func (s *Synchronizer) SyncByID(ctx context.Context, id int64, owner uuid.UUID, snapshot json.RawMessage) (*Result, error) {
	return s.sync(ctx, TriggerPoll, snapshot, func(tx Tx) (*Esignature, error) {
		return tx.LockEsignature(ctx, id, owner)
	})
}

// SyncByProviderID merges a pushed snapshot into the esignature the
// provider knows as providerID.
func (s *Synchronizer) SyncByProviderID(ctx context.Context, providerID int64, snapshot json.RawMessage) (*Result, error) {
	return s.sync(ctx, TriggerNotification, snapshot, func(tx Tx) (*Esignature, error) {
		return tx.LockEsignatureByProviderID(ctx, providerID)
	})
}

func (s *Synchronizer) sync(ctx context.Context, trigger Trigger, snapshot json.RawMessage, lookup func(Tx) (*Esignature, error)) (*Result, error) {
	hash, err := snapshotHash(snapshot)
	if err != nil {
		return nil, err
	}

	var res Result
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		rec, err := lookup(tx)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrNotFound
		}

		if s.isDuplicate(ctx, rec, hash) {
			res = Result{Esignature: rec, Previous: rec.Status, Eligible: rec.Eligible(), Duplicate: true}
			return nil
		}

		res = Merge(*rec, snapshot)
		return tx.SaveEsignature(ctx, res.Esignature)
	})
	if err != nil {
		return nil, err
	}

	rec := res.Esignature
	log := s.logger.With("esignature_id", rec.ID, "provider_id", rec.ProviderID, "trigger", string(trigger))

	if res.Duplicate {
		log.DebugContext(ctx, "duplicate snapshot skipped")
		return &res, nil
	}

	if !res.SignersFound {
		log.WarnContext(ctx, "snapshot has no signer data, status unchanged", "status", string(rec.Status))
	}
	if res.Previous.Rank() > rec.Status.Rank() {
		log.WarnContext(ctx, "esignature status moved backward", "from", string(res.Previous), "to", string(rec.Status))
	}

	if s.dedupe != nil {
		if err := s.dedupe.Remember(ctx, dedupeKey(rec.ID), hash); err != nil {
			log.WarnContext(ctx, "failed to remember snapshot hash", "error", err)
		}
	}

	if res.Changed() {
		log.InfoContext(ctx, "esignature status changed", "from", string(res.Previous), "to", string(rec.Status))
		s.publish(ctx, log, StatusChange{
			EsignatureID: rec.ID,
			LeaseID:      rec.LeaseID,
			ProviderID:   rec.ProviderID,
			From:         res.Previous,
			To:           rec.Status,
			Eligible:     res.Eligible,
			Trigger:      trigger,
		})
	}
	return &res, nil
}

// isDuplicate reports whether the locked row already holds the snapshot
// hashed as hash. The row decides; the cache only says whether comparing
// against the row is worthwhile, so a miss, a lookup error or a stale entry
// leads to a write and never to a skip.
func (s *Synchronizer) isDuplicate(ctx context.Context, rec *Esignature, hash string) bool {
	if len(rec.Data) == 0 {
		return false
	}
	if s.dedupe != nil {
		last, ok, err := s.dedupe.Last(ctx, dedupeKey(rec.ID))
		if err != nil {
			s.logger.WarnContext(ctx, "snapshot dedupe lookup failed", "esignature_id", rec.ID, "error", err)
			return false
		}
		if !ok || last != hash {
			return false
		}
	}
	stored, err := snapshotHash(rec.Data)
	return err == nil && stored == hash
}

func (s *Synchronizer) publish(ctx context.Context, log *slog.Logger, change StatusChange) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishStatusChange(ctx, change); err != nil {
		log.ErrorContext(ctx, "failed to publish status change", "error", err)
	}
}

func dedupeKey(id int64) string {
	return "esignature:" + strconv.FormatInt(id, 10)
}

// snapshotHash hashes the snapshot in canonical form: no insignificant
// whitespace, object keys sorted, number literals kept as written. A row read
// back from a JSONB or JSON column hashes the same as the document written.
func snapshotHash(snapshot json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(snapshot))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if dec.More() {
		return "", fmt.Errorf("%w: trailing data", ErrInvalidSnapshot)
	}
	canonical, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

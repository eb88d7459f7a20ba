package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Store is the data-access side of the engine. Implementations must apply
// every condition of the predicate.
type Store[T any] interface {
	Count(ctx context.Context, spec Spec, pred Predicate) (int, error)
	Fetch(ctx context.Context, spec Spec, pred Predicate, sort Sort, offset, limit int) ([]T, error)
}

// Engine runs owner-scoped list queries for one entity type.
type Engine[T any] struct {
	spec   Spec
	store  Store[T]
	logger *slog.Logger
}

func NewEngine[T any](spec Spec, store Store[T], logger *slog.Logger) *Engine[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine[T]{spec: spec, store: store, logger: logger}
}

func (e *Engine[T]) Spec() Spec {
	return e.spec
}

// Run compiles params into a predicate, sort and window for principal and
// returns the matching page. Only store failures are returned as errors.
func (e *Engine[T]) Run(ctx context.Context, principal uuid.UUID, params Params) (*Page[T], error) {
	pred := Compile(e.spec, params, principal)
	sort := ResolveSort(e.spec, params)
	req := ParsePageRequest(e.spec, params)

	for _, s := range pred.Skipped {
		e.logger.DebugContext(ctx, "filter token skipped",
			"entity", e.spec.Entity,
			"field", s.Field,
			"value", s.Raw,
			"reason", string(s.Reason),
		)
	}

	total, err := e.store.Count(ctx, e.spec, pred)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", e.spec.Entity, err)
	}

	fetch := func(ctx context.Context, offset, limit int) ([]T, error) {
		return e.store.Fetch(ctx, e.spec, pred, sort, offset, limit)
	}
	page, err := Paginate(ctx, total, fetch, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", e.spec.Entity, err)
	}
	return page, nil
}

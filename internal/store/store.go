package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/remote"
	"github.com/FACorreiaa/go-lms-sdk/internal/schema"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// Ensure implementation satisfies the interface
var _ RecordStore = (*RecordStoreImpl)(nil)

// Predicate filters records during List. A nil predicate matches everything.
type Predicate func(types.Record) bool

// Guard inspects the latest record set before a create commits. It runs
// inside the backend mutation closure, so it is re-evaluated on every CAS
// attempt; returning an error aborts the create without writing.
type Guard func(current []types.Record) error

// MutateRecordFunc derives the partial patch for one record from its latest
// stored state. It may be called more than once when a commit conflicts, so
// it must be pure with respect to its input.
type MutateRecordFunc func(current types.Record) (types.Record, error)

// RecordStore is the generic CRUD/query engine over named collections. It
// validates against the schema registry, stamps identity and timestamps, and
// delegates durability to the remote backend.
type RecordStore interface {
	Create(ctx context.Context, collection string, partial types.Record) (types.Record, error)

	// CreateWith persists like Create but re-runs guard against the latest
	// record set on every commit attempt, so cross-record invariants such as
	// uniqueness hold under concurrent writers.
	CreateWith(ctx context.Context, collection string, partial types.Record, guard Guard) (types.Record, error)

	Read(ctx context.Context, collection, id string) (types.Record, error)
	Update(ctx context.Context, collection, id string, partial types.Record) (types.Record, error)

	// UpdateWith derives the patch from the latest stored record instead of
	// taking a fixed partial, so read-modify-write updates (append to an
	// array, increment a counter) are never lost to a concurrent writer.
	UpdateWith(ctx context.Context, collection, id string, mutate MutateRecordFunc) (types.Record, error)

	Delete(ctx context.Context, collection, id string) error

	// List materializes the full collection and filters in memory. There is
	// no backend-side indexing; this bounds practical collection size and is
	// a documented limitation, not something to paper over silently.
	List(ctx context.Context, collection string, predicate Predicate) ([]types.Record, error)
}

// RecordStoreImpl provides the implementation for RecordStore.
type RecordStoreImpl struct {
	logger   *slog.Logger
	registry *schema.Registry
	backend  remote.Backend
}

// NewRecordStore creates a new record store instance.
func NewRecordStore(registry *schema.Registry, backend remote.Backend, logger *slog.Logger) *RecordStoreImpl {
	return &RecordStoreImpl{
		logger:   logger,
		registry: registry,
		backend:  backend,
	}
}

// Create applies defaults, validates, stamps identity and timestamps, then
// persists. Validation failures happen before any remote write.
func (s *RecordStoreImpl) Create(ctx context.Context, collection string, partial types.Record) (types.Record, error) {
	return s.CreateWith(ctx, collection, partial, nil)
}

// CreateWith is Create with a commit-time guard. The guard runs inside the
// backend mutation closure against the latest record set, so a CAS retry
// re-checks it; a guard error aborts without writing.
func (s *RecordStoreImpl) CreateWith(ctx context.Context, collection string, partial types.Record, guard Guard) (types.Record, error) {
	l := s.logger.With(slog.String("method", "Create"), slog.String("collection", collection))

	candidate, err := s.registry.ApplyDefaults(collection, partial)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Validate(collection, candidate); err != nil {
		l.DebugContext(ctx, "Create rejected by schema validation", slog.Any("error", err))
		return nil, err
	}

	now := time.Now().UTC().Format(types.TimestampFormat)
	candidate[types.FieldID] = uuid.NewString()
	candidate[types.FieldUID] = uuid.NewString()
	candidate[types.FieldCreatedAt] = now
	candidate[types.FieldUpdatedAt] = now

	note := fmt.Sprintf("create %s %s", collection, candidate.ID())
	err = s.backend.UpdateCollection(ctx, collection, note, func(current []types.Record) ([]types.Record, error) {
		if guard != nil {
			if err := guard(current); err != nil {
				return nil, err
			}
		}
		return append(current, candidate), nil
	})
	if err != nil {
		if errors.Is(err, api.ErrAlreadyExists) {
			l.DebugContext(ctx, "Create rejected by guard", slog.Any("error", err))
		} else {
			l.ErrorContext(ctx, "Failed to persist new record", slog.Any("error", err))
		}
		return nil, err
	}

	l.InfoContext(ctx, "Record created", slog.String("id", candidate.ID()))
	return candidate, nil
}

// Read returns the record with the given id or api.ErrNotFound.
func (s *RecordStoreImpl) Read(ctx context.Context, collection, id string) (types.Record, error) {
	if !s.registry.Has(collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, api.ErrSchemaNotFound)
	}
	records, err := s.backend.GetCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("record %q in collection %q: %w", id, collection, api.ErrNotFound)
}

// Update shallow-merges partial over the current record, re-validates and
// persists. The merge runs inside the backend mutation closure so a CAS
// retry reapplies it against the latest stored state instead of clobbering a
// concurrent writer's fields. id, uid and createdAt are never changed.
func (s *RecordStoreImpl) Update(ctx context.Context, collection, id string, partial types.Record) (types.Record, error) {
	return s.UpdateWith(ctx, collection, id, func(types.Record) (types.Record, error) {
		return partial, nil
	})
}

// UpdateWith recomputes the patch from the latest stored record on every
// commit attempt. Callers whose patch depends on the record's current value
// (appending to an array, bumping a counter) use this so a CAS retry derives
// a fresh patch instead of replaying a stale one.
func (s *RecordStoreImpl) UpdateWith(ctx context.Context, collection, id string, mutate MutateRecordFunc) (types.Record, error) {
	l := s.logger.With(slog.String("method", "Update"), slog.String("collection", collection), slog.String("id", id))

	if !s.registry.Has(collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, api.ErrSchemaNotFound)
	}

	var updated types.Record
	note := fmt.Sprintf("update %s %s", collection, id)
	err := s.backend.UpdateCollection(ctx, collection, note, func(current []types.Record) ([]types.Record, error) {
		idx := -1
		for i, r := range current {
			if r.ID() == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("record %q in collection %q: %w", id, collection, api.ErrNotFound)
		}

		partial, err := mutate(current[idx].Clone())
		if err != nil {
			return nil, err
		}

		merged := current[idx].Merge(partial)
		if err := s.registry.Validate(collection, merged); err != nil {
			return nil, err
		}
		merged[types.FieldUpdatedAt] = time.Now().UTC().Format(types.TimestampFormat)

		current[idx] = merged
		updated = merged
		return current, nil
	})
	if err != nil {
		l.DebugContext(ctx, "Update failed", slog.Any("error", err))
		return nil, err
	}

	l.InfoContext(ctx, "Record updated")
	return updated, nil
}

// Delete removes the record or fails with api.ErrNotFound.
func (s *RecordStoreImpl) Delete(ctx context.Context, collection, id string) error {
	l := s.logger.With(slog.String("method", "Delete"), slog.String("collection", collection), slog.String("id", id))

	if !s.registry.Has(collection) {
		return fmt.Errorf("collection %q: %w", collection, api.ErrSchemaNotFound)
	}

	note := fmt.Sprintf("delete %s %s", collection, id)
	err := s.backend.UpdateCollection(ctx, collection, note, func(current []types.Record) ([]types.Record, error) {
		kept := current[:0]
		found := false
		for _, r := range current {
			if r.ID() == id {
				found = true
				continue
			}
			kept = append(kept, r)
		}
		if !found {
			return nil, fmt.Errorf("record %q in collection %q: %w", id, collection, api.ErrNotFound)
		}
		return kept, nil
	})
	if err != nil {
		l.DebugContext(ctx, "Delete failed", slog.Any("error", err))
		return err
	}

	l.InfoContext(ctx, "Record deleted")
	return nil
}

// List returns every record matching the predicate.
func (s *RecordStoreImpl) List(ctx context.Context, collection string, predicate Predicate) ([]types.Record, error) {
	if !s.registry.Has(collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, api.ErrSchemaNotFound)
	}
	records, err := s.backend.GetCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if predicate == nil {
		return records, nil
	}
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

package remote

import (
	"context"

	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// MutateFunc receives the current record set of a collection and returns the
// full replacement set. The backend may call it more than once: after a
// version conflict the collection is re-fetched and the mutation reapplied
// against the latest state, so the function must be pure with respect to its
// input and must not capture the slice it returns elsewhere.
type MutateFunc func(current []types.Record) ([]types.Record, error)

// Backend is the durability adapter. The remote store is a version-controlled
// object API, not a database: a collection is one JSON object, reads
// materialize it whole, and writes replace it whole under compare-and-swap.
// The CAS retry loop inside UpdateCollection is the only concurrency-control
// mechanism in the system.
type Backend interface {
	// GetCollection returns the current record set for name. A collection
	// that was never written is empty, not an error.
	GetCollection(ctx context.Context, name string) ([]types.Record, error)

	// UpdateCollection applies mutate to the current record set and commits
	// the result as a single atomic replacement. On a version mismatch the
	// latest state is re-fetched and mutate reapplied, up to a fixed retry
	// budget; exhausting it returns api.ErrConflict. Errors returned by
	// mutate abort without retrying and without touching the remote object.
	UpdateCollection(ctx context.Context, name, note string, mutate MutateFunc) error
}

// cloneRecords copies the slice and shallow-copies each record so cached
// state is never aliased by callers or mutation closures.
func cloneRecords(records []types.Record) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

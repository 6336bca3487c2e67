package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps collections in-process with the same versioned CAS
// semantics as the remote store. Used for tests and local development; it
// deliberately mirrors the whole-object replacement model so code exercised
// against it behaves identically against the real API.
type MemoryBackend struct {
	mu      sync.Mutex
	objects map[string]snapshot

	// FailPuts forces the next n commits to report a version mismatch,
	// letting tests drive the CAS retry path deterministically.
	failPuts int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]snapshot)}
}

// FailNextPuts makes the next n commit attempts conflict.
func (m *MemoryBackend) FailNextPuts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPuts = n
}

func (m *MemoryBackend) GetCollection(ctx context.Context, name string) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRecords(m.objects[name].records), nil
}

func (m *MemoryBackend) UpdateCollection(ctx context.Context, name, note string, mutate MutateFunc) error {
	const budget = 3

	for attempt := 0; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.mu.Lock()
		snap := m.objects[name]
		base := snap.version
		current := cloneRecords(snap.records)
		m.mu.Unlock()

		next, err := mutate(current)
		if err != nil {
			return err
		}

		if err := m.commit(name, base, next); err != nil {
			if errors.Is(err, errVersionMismatch) {
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("update collection %q: %w", name, api.ErrConflict)
}

func (m *MemoryBackend) commit(name, baseVersion string, records []types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPuts > 0 {
		m.failPuts--
		return errVersionMismatch
	}
	if m.objects[name].version != baseVersion {
		return errVersionMismatch
	}
	m.objects[name] = snapshot{version: uuid.NewString(), records: cloneRecords(records)}
	return nil
}

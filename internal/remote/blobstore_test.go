package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-lms-sdk/config"
	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// fakeObjectAPI is an in-memory stand-in for the remote versioned object
// store: GET returns the envelope, PUT commits only when baseVersion matches.
type fakeObjectAPI struct {
	mu       sync.Mutex
	version  string
	records  []types.Record
	getCount int
	putCount int

	// rejectPuts forces the next n PUTs to answer 409 regardless of version.
	rejectPuts int
	// failures forces the next n requests of any kind to answer this status.
	failStatus   int
	failRequests int
}

func (f *fakeObjectAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		if f.failRequests > 0 {
			f.failRequests--
			w.WriteHeader(f.failStatus)
			return
		}

		switch r.Method {
		case http.MethodGet:
			f.getCount++
			if f.version == "" && f.records == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"version": f.version,
				"records": f.records,
			})
		case http.MethodPut:
			f.putCount++
			var req struct {
				BaseVersion string         `json:"baseVersion"`
				Records     []types.Record `json:"records"`
			}
			body, _ := io.ReadAll(r.Body)
			if !assert.NoError(t, json.Unmarshal(body, &req)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			if f.rejectPuts > 0 {
				f.rejectPuts--
				w.WriteHeader(http.StatusConflict)
				return
			}
			if req.BaseVersion != f.version {
				w.WriteHeader(http.StatusConflict)
				return
			}
			f.version = uuid.NewString()
			f.records = req.Records
			json.NewEncoder(w).Encode(map[string]string{"version": f.version})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestBlobStore(t *testing.T, serverURL string) *BlobStore {
	t.Helper()
	return NewBlobStore(config.RemoteConfig{
		BaseURL:      serverURL,
		Bucket:       "lms-test",
		Token:        "test-token",
		CacheTTL:     time.Minute,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestGetCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("NeverWrittenCollectionIsEmpty", func(t *testing.T) {
		fake := &fakeObjectAPI{}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		got, err := newTestBlobStore(t, srv.URL).GetCollection(ctx, "courses")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ServesRepeatedReadsFromCache", func(t *testing.T) {
		fake := &fakeObjectAPI{
			version: "v1",
			records: []types.Record{{"id": "a", "title": "Algebra"}},
		}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		store := newTestBlobStore(t, srv.URL)
		for i := 0; i < 5; i++ {
			got, err := store.GetCollection(ctx, "courses")
			require.NoError(t, err)
			require.Len(t, got, 1)
		}
		assert.Equal(t, 1, fake.getCount)
	})

	t.Run("CallerCannotPoisonTheCache", func(t *testing.T) {
		fake := &fakeObjectAPI{
			version: "v1",
			records: []types.Record{{"id": "a", "title": "Algebra"}},
		}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		store := newTestBlobStore(t, srv.URL)
		first, err := store.GetCollection(ctx, "courses")
		require.NoError(t, err)
		first[0]["title"] = "mutated"

		second, err := store.GetCollection(ctx, "courses")
		require.NoError(t, err)
		assert.Equal(t, "Algebra", second[0].String("title"))
	})

	t.Run("PersistentServerErrorsSurfaceAsRemoteUnavailable", func(t *testing.T) {
		fake := &fakeObjectAPI{failStatus: http.StatusInternalServerError, failRequests: 100}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		_, err := newTestBlobStore(t, srv.URL).GetCollection(ctx, "courses")
		assert.ErrorIs(t, err, api.ErrRemoteUnavailable)
	})

	t.Run("RateLimitIsRetriedThenSucceeds", func(t *testing.T) {
		fake := &fakeObjectAPI{
			version:      "v1",
			records:      []types.Record{{"id": "a"}},
			failStatus:   http.StatusTooManyRequests,
			failRequests: 2,
		}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		got, err := newTestBlobStore(t, srv.URL).GetCollection(ctx, "courses")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestUpdateCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendCommitsAndWarmsCache", func(t *testing.T) {
		fake := &fakeObjectAPI{}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		store := newTestBlobStore(t, srv.URL)
		err := store.UpdateCollection(ctx, "courses", "create course", func(current []types.Record) ([]types.Record, error) {
			return append(current, types.Record{"id": "a", "title": "Algebra"}), nil
		})
		require.NoError(t, err)

		got, err := store.GetCollection(ctx, "courses")
		require.NoError(t, err)
		require.Len(t, got, 1)
		// The committed state was cached; no extra GET happened after the PUT.
		assert.Equal(t, 1, fake.getCount)
	})

	t.Run("ConflictRefetchesAndReappliesMutation", func(t *testing.T) {
		fake := &fakeObjectAPI{version: "v1", records: []types.Record{{"id": "a"}}}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		store := newTestBlobStore(t, srv.URL)
		// Warm the cache, then move the remote version behind the store's back.
		_, err := store.GetCollection(ctx, "courses")
		require.NoError(t, err)
		fake.mu.Lock()
		fake.version = "v2"
		fake.records = append(fake.records, types.Record{"id": "b"})
		fake.mu.Unlock()

		applications := 0
		err = store.UpdateCollection(ctx, "courses", "append", func(current []types.Record) ([]types.Record, error) {
			applications++
			return append(current, types.Record{"id": "c"}), nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, applications)

		final, err := store.GetCollection(ctx, "courses")
		require.NoError(t, err)
		// The concurrent writer's record and ours both survived.
		assert.Len(t, final, 3)
	})

	t.Run("ConflictBudgetExhausted", func(t *testing.T) {
		fake := &fakeObjectAPI{rejectPuts: 100}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		err := newTestBlobStore(t, srv.URL).UpdateCollection(ctx, "courses", "append", func(current []types.Record) ([]types.Record, error) {
			return append(current, types.Record{"id": "x"}), nil
		})
		assert.ErrorIs(t, err, api.ErrConflict)
	})

	t.Run("MutationErrorIsNeverRetried", func(t *testing.T) {
		fake := &fakeObjectAPI{}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		calls := 0
		err := newTestBlobStore(t, srv.URL).UpdateCollection(ctx, "courses", "noop", func(current []types.Record) ([]types.Record, error) {
			calls++
			return nil, fmt.Errorf("record gone: %w", api.ErrNotFound)
		})
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, fake.putCount)
	})

	t.Run("ContextCancellationStopsTheLoop", func(t *testing.T) {
		fake := &fakeObjectAPI{rejectPuts: 100}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		cancelCtx, cancel := context.WithCancel(ctx)
		store := newTestBlobStore(t, srv.URL)
		err := store.UpdateCollection(cancelCtx, "courses", "append", func(current []types.Record) ([]types.Record, error) {
			cancel()
			return append(current, types.Record{"id": "x"}), nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

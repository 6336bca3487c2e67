package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-lms-sdk/app/observability/metrics"
	"github.com/FACorreiaa/go-lms-sdk/config"
	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

var _ Backend = (*BlobStore)(nil)

// errVersionMismatch is internal to the CAS loop; callers only ever see
// api.ErrConflict once the retry budget is gone.
var errVersionMismatch = errors.New("object version mismatch")

// transportRetries bounds the low-level retry of rate-limit and server
// errors, separate from the CAS budget.
const transportRetries = 3

// blobEnvelope is the wire shape of one collection object on the remote
// store: the full record set plus the store's version marker for the blob.
type blobEnvelope struct {
	Version string         `json:"version"`
	Records []types.Record `json:"records"`
}

// putRequest is the commit payload. BaseVersion carries the version the
// writer read; the store rejects the commit with 409 when it moved.
type putRequest struct {
	BaseVersion string         `json:"baseVersion"`
	Records     []types.Record `json:"records"`
	Message     string         `json:"message,omitempty"`
}

type snapshot struct {
	version string
	records []types.Record
}

// BlobStore adapts the remote version-controlled object API to the Backend
// interface. One collection maps to one JSON object; reads go through a
// bounded-TTL cache to stay under the API's rate limit, and writes are
// whole-object replacements under compare-and-swap.
type BlobStore struct {
	client  *http.Client
	baseURL string
	bucket  string
	token   string
	cache   *gocache.Cache
	logger  *slog.Logger
	metrics *metrics.AppMetrics

	maxRetries int
	backoff    time.Duration
}

// NewBlobStore builds the adapter from the remote section of the config.
// The metrics handle may be nil (tests).
func NewBlobStore(cfg config.RemoteConfig, logger *slog.Logger, m *metrics.AppMetrics) *BlobStore {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return &BlobStore{
		client:     &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		bucket:     cfg.Bucket,
		token:      cfg.Token,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		logger:     logger,
		metrics:    m,
		maxRetries: retries,
		backoff:    backoff,
	}
}

// GetCollection returns the current record set for name, served from the TTL
// cache when fresh.
func (b *BlobStore) GetCollection(ctx context.Context, name string) ([]types.Record, error) {
	snap, err := b.currentSnapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	return cloneRecords(snap.records), nil
}

// UpdateCollection runs the optimistic-concurrency loop: read, mutate in
// memory, commit against the version that was read. A 409 means another
// writer got there first; the latest state is fetched and the mutation
// reapplied, up to the configured budget.
func (b *BlobStore) UpdateCollection(ctx context.Context, name, note string, mutate MutateFunc) error {
	l := b.logger.With(slog.String("method", "UpdateCollection"), slog.String("collection", name))

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			if b.metrics != nil {
				b.metrics.RemoteConflictRetriesTotal.Add(ctx, 1)
			}
			if err := sleepContext(ctx, b.backoffDelay(attempt)); err != nil {
				return err
			}
			// Conflict means our snapshot is stale; drop it before re-reading.
			b.cache.Delete(name)
		}

		snap, err := b.currentSnapshot(ctx, name)
		if err != nil {
			return err
		}

		next, err := mutate(cloneRecords(snap.records))
		if err != nil {
			// Deterministic caller error (validation, not-found); never retried.
			return err
		}

		newVersion, err := b.commit(ctx, name, snap.version, next, note)
		if err == nil {
			b.cache.SetDefault(name, snapshot{version: newVersion, records: cloneRecords(next)})
			if b.metrics != nil {
				b.metrics.RecordWritesTotal.Add(ctx, 1)
			}
			return nil
		}
		if errors.Is(err, errVersionMismatch) {
			l.WarnContext(ctx, "Version conflict on commit, retrying",
				slog.Int("attempt", attempt+1), slog.String("base_version", snap.version))
			continue
		}
		return err
	}

	l.ErrorContext(ctx, "Optimistic concurrency budget exhausted", slog.Int("budget", b.maxRetries))
	return fmt.Errorf("update collection %q: %w", name, api.ErrConflict)
}

// currentSnapshot serves from cache or fetches the blob.
func (b *BlobStore) currentSnapshot(ctx context.Context, name string) (snapshot, error) {
	if cached, ok := b.cache.Get(name); ok {
		if b.metrics != nil {
			b.metrics.CollectionCacheHitsTotal.Add(ctx, 1)
		}
		return cached.(snapshot), nil
	}

	env, err := b.fetch(ctx, name)
	if err != nil {
		return snapshot{}, err
	}
	snap := snapshot{version: env.Version, records: env.Records}
	b.cache.SetDefault(name, snap)
	return snap, nil
}

// fetch reads the collection object. A 404 is a collection that was never
// written: empty set, empty base version.
func (b *BlobStore) fetch(ctx context.Context, name string) (blobEnvelope, error) {
	var env blobEnvelope
	resp, body, err := b.do(ctx, http.MethodGet, b.objectURL(name), nil)
	if err != nil {
		return env, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(body, &env); err != nil {
			return env, fmt.Errorf("decode collection %q: %w", name, err)
		}
		return env, nil
	case http.StatusNotFound:
		return blobEnvelope{Version: "", Records: nil}, nil
	default:
		return env, b.unexpectedStatus("fetch", name, resp.StatusCode, body)
	}
}

// commit performs the compare-and-swap PUT and returns the new version.
func (b *BlobStore) commit(ctx context.Context, name, baseVersion string, records []types.Record, note string) (string, error) {
	payload, err := json.Marshal(putRequest{BaseVersion: baseVersion, Records: records, Message: note})
	if err != nil {
		return "", fmt.Errorf("encode collection %q: %w", name, err)
	}
	resp, body, err := b.do(ctx, http.MethodPut, b.objectURL(name), payload)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var out struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("decode commit response for %q: %w", name, err)
		}
		return out.Version, nil
	case http.StatusConflict:
		return "", errVersionMismatch
	default:
		return "", b.unexpectedStatus("commit", name, resp.StatusCode, body)
	}
}

// do issues one HTTP request, retrying rate-limit and server errors with
// backoff before giving up with api.ErrRemoteUnavailable. No timeout is
// enforced beyond the client's own.
func (b *BlobStore) do(ctx context.Context, method, rawURL string, payload []byte) (*http.Response, []byte, error) {
	var lastErr error

	for attempt := 0; attempt <= transportRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, b.backoffDelay(attempt)); err != nil {
				return nil, nil, err
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
		if err != nil {
			return nil, nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if b.token != "" {
			req.Header.Set("Authorization", "Bearer "+b.token)
		}

		start := time.Now()
		resp, err := b.client.Do(req)
		if b.metrics != nil {
			b.metrics.RemoteRequestsTotal.Add(ctx, 1)
			b.metrics.RemoteRequestDuration.Record(ctx, time.Since(start).Seconds())
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			lastErr = err
			b.logger.WarnContext(ctx, "Remote request failed, retrying",
				slog.String("method", method), slog.Int("attempt", attempt+1), slog.Any("error", err))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("remote returned status %d", resp.StatusCode)
			b.logger.WarnContext(ctx, "Remote request throttled or failed server-side, retrying",
				slog.String("method", method), slog.Int("status", resp.StatusCode), slog.Int("attempt", attempt+1))
			continue
		}

		return resp, body, nil
	}

	return nil, nil, fmt.Errorf("%w: %v", api.ErrRemoteUnavailable, lastErr)
}

func (b *BlobStore) objectURL(name string) string {
	return fmt.Sprintf("%s/v1/buckets/%s/objects/%s.json",
		b.baseURL, url.PathEscape(b.bucket), url.PathEscape(name))
}

func (b *BlobStore) unexpectedStatus(op, name string, status int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Errorf("%s collection %q: unexpected status %d: %s: %w",
		op, name, status, msg, api.ErrRemoteUnavailable)
}

// backoffDelay grows linearly with the attempt number. The remote API's rate
// limiter resets on short windows, so linear is enough.
func (b *BlobStore) backoffDelay(attempt int) time.Duration {
	return time.Duration(attempt) * b.backoff
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

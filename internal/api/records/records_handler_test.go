package records

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-lms-sdk/internal/remote"
	"github.com/FACorreiaa/go-lms-sdk/internal/schema"
	"github.com/FACorreiaa/go-lms-sdk/internal/store"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := schema.NewRegistry(schema.DefaultDefinitions())
	recordStore := store.NewRecordStore(registry, remote.NewMemoryBackend(), logger)
	handler := NewRecordsHandler(recordStore, registry, logger)

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, payload any) (*http.Response, types.Record) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded types.Record
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestRecordsCRUD(t *testing.T) {
	srv := newTestServer(t)

	course := types.Record{
		"title":        "Operating Systems",
		"code":         "CS350",
		"instructorId": "instructor-1",
		"category":     "Computer Science",
		"level":        "undergraduate",
		"credits":      3,
	}

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/courses", course)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, created.ID())
	assert.Equal(t, "draft", created["status"])

	t.Run("Read", func(t *testing.T) {
		resp, got := doJSON(t, http.MethodGet, srv.URL+"/courses/"+created.ID(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "CS350", got.String("code"))
	})

	t.Run("Update", func(t *testing.T) {
		resp, got := doJSON(t, http.MethodPut, srv.URL+"/courses/"+created.ID(), types.Record{"status": "published"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "published", got["status"])
		assert.Equal(t, created.ID(), got.ID())
	})

	t.Run("ListWithQueryFilter", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/courses?status=published")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got []types.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, created.ID(), got[0].ID())

		resp2, err := http.Get(srv.URL + "/courses?status=archived")
		require.NoError(t, err)
		defer resp2.Body.Close()
		var empty []types.Record
		require.NoError(t, json.NewDecoder(resp2.Body).Decode(&empty))
		assert.Empty(t, empty)
	})

	t.Run("ListFiltersNonStringFields", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/courses?credits=3")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got []types.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, created.ID(), got[0].ID())

		resp2, err := http.Get(srv.URL + "/courses?credits=4")
		require.NoError(t, err)
		defer resp2.Body.Close()
		var none []types.Record
		require.NoError(t, json.NewDecoder(resp2.Body).Decode(&none))
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/courses/"+created.ID(), nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/courses/"+created.ID(), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRecordsErrors(t *testing.T) {
	srv := newTestServer(t)

	t.Run("UnknownCollection", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/petShop", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("ValidationFailureIs422", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/courses", types.Record{"title": "No code"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body.String("error"), "code")
	})

	t.Run("MalformedBodyIs400", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/courses", bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

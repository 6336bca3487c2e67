package records

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/schema"
	"github.com/FACorreiaa/go-lms-sdk/internal/store"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// RecordsHandler exposes the identical-shape CRUD surface for every
// registered collection: the UI screens are external collaborators that only
// consume these operations.
type RecordsHandler struct {
	store    store.RecordStore
	registry *schema.Registry
	logger   *slog.Logger
}

func NewRecordsHandler(recordStore store.RecordStore, registry *schema.Registry, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{
		store:    recordStore,
		registry: registry,
		logger:   logger,
	}
}

// Routes mounts the CRUD surface under /{collection}.
func (h *RecordsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{collection}", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Read)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

// collection resolves and checks the {collection} URL parameter. Unknown
// collections 404 before any backend work happens.
func (h *RecordsHandler) collection(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "collection")
	if !h.registry.Has(name) {
		api.ErrorResponse(w, r, http.StatusNotFound, "unknown collection "+name)
		return "", false
	}
	return name, true
}

// Create handles POST /{collection}.
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	name, ok := h.collection(w, r)
	if !ok {
		return
	}

	var partial types.Record
	if err := api.DecodeJSONBody(w, r, &partial); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.Create(r.Context(), name, partial)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, created)
}

// Read handles GET /{collection}/{id}.
func (h *RecordsHandler) Read(w http.ResponseWriter, r *http.Request) {
	name, ok := h.collection(w, r)
	if !ok {
		return
	}

	record, err := h.store.Read(r.Context(), name, chi.URLParam(r, "id"))
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, record)
}

// Update handles PUT /{collection}/{id}. The body is a partial record
// shallow-merged over the stored one.
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	name, ok := h.collection(w, r)
	if !ok {
		return
	}

	var partial types.Record
	if err := api.DecodeJSONBody(w, r, &partial); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.Update(r.Context(), name, chi.URLParam(r, "id"), partial)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, updated)
}

// Delete handles DELETE /{collection}/{id}.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, ok := h.collection(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), name, chi.URLParam(r, "id")); err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// List handles GET /{collection}. Query parameters become equality filters
// over string representations of top-level fields, evaluated in memory — the
// backend has no indexes.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	name, ok := h.collection(w, r)
	if !ok {
		return
	}

	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	var predicate store.Predicate
	if len(filters) > 0 {
		predicate = func(record types.Record) bool {
			for field, want := range filters {
				v, ok := record[field]
				if !ok || fmt.Sprint(v) != want {
					return false
				}
			}
			return true
		}
	}

	records, err := h.store.List(r.Context(), name, predicate)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	if records == nil {
		records = []types.Record{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, records)
}

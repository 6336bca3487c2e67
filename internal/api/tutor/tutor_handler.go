package tutor

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/api/auth"
)

type TutorHandler struct {
	service *TutorService
	logger  *slog.Logger
}

func NewTutorHandler(service *TutorService, logger *slog.Logger) *TutorHandler {
	return &TutorHandler{service: service, logger: logger}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /tutor/{sessionID}/messages.
func (h *TutorHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req askRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Question == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "question is required")
		return
	}

	session, err := h.service.Ask(r.Context(), chi.URLParam(r, "sessionID"), userID, req.Question)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

package gdpr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praxisflow/praxisflow/internal/patients"
	"github.com/praxisflow/praxisflow/internal/tenancy"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// Handler handles HTTP requests for GDPR data requests
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new GDPR handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /gdpr/requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.PracticeID = practiceID

	request, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// List handles GET /gdpr/requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	list, err := h.service.List(r.Context(), practiceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []*Request{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": list, "count": len(list)})
}

// Get handles GET /gdpr/requests/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	request, err := h.service.Get(r.Context(), practiceID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// Export handles GET /gdpr/requests/{id}/export and streams the stored
// export document.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	payload, err := h.service.Export(r.Context(), practiceID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="datenauskunft.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, patients.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMissingPracticeID),
		errors.Is(err, ErrMissingPatientID),
		errors.Is(err, ErrInvalidType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("gdpr request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

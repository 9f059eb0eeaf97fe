package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praxisflow/praxisflow/internal/schedule"
	"github.com/praxisflow/praxisflow/internal/tenancy"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// BookResponse is returned from Create and Update; the conflict info is
// advisory and never blocks the booking.
type BookResponse struct {
	Appointment *Appointment          `json:"appointment"`
	Conflicts   schedule.ConflictInfo `json:"conflicts"`
}

// Create handles POST /appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.PracticeID = practiceID

	appt, conflicts, err := h.service.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BookResponse{Appointment: appt, Conflicts: conflicts})
}

// List handles GET /appointments?date=&status=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	filter := ListFilter{
		Date:   r.URL.Query().Get("date"),
		Status: r.URL.Query().Get("status"),
	}
	appts, err := h.service.repo.ListByPractice(r.Context(), practiceID, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

// Get handles GET /appointments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	appt, err := h.service.repo.GetByID(r.Context(), practiceID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update handles PUT /appointments/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, conflicts, err := h.service.Reschedule(r.Context(), practiceID, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookResponse{Appointment: appt, Conflicts: conflicts})
}

// Cancel handles POST /appointments/{id}/cancel. The appointment stays on
// record with status cancelled.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Cancel(r.Context(), practiceID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /appointments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	if err := h.service.repo.Delete(r.Context(), practiceID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckConflicts handles POST /appointments/conflict-check. The body is a
// candidate appointment; callers probe it while a booking form is being
// filled in, so an incomplete candidate is fine.
func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	var candidate schedule.Appointment
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		h.logger.Error("failed to decode candidate", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	info, err := h.service.CheckConflicts(r.Context(), practiceID, candidate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// DaySummary handles GET /appointments/day-summary?date=
func (h *Handler) DaySummary(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	clusters, err := h.service.DaySummary(r.Context(), practiceID, date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if clusters == nil {
		clusters = []schedule.ConflictCluster{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "clusters": clusters})
}

// Slots handles GET /appointments/slots?date=&hour=HH:00
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	hour := r.URL.Query().Get("hour")
	if date == "" || hour == "" {
		http.Error(w, "missing date or hour", http.StatusBadRequest)
		return
	}

	occupants, err := h.service.SlotOccupancy(r.Context(), practiceID, date, hour)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if occupants == nil {
		occupants = []schedule.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "hour": hour, "appointments": occupants})
}

// FreeSlots handles GET /appointments/free-slots?date=
func (h *Handler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	slots, err := h.service.FreeSlots(r.Context(), practiceID, date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "free_slots": slots})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMissingPracticeID),
		errors.Is(err, ErrMissingDateTime),
		errors.Is(err, ErrInvalidDateTime),
		errors.Is(err, ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("appointments request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

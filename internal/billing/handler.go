package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/praxisflow/praxisflow/internal/tenancy"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// Handler exposes billing endpoints to the practice portal.
type Handler struct {
	checkout *CheckoutService
	store    SubscriptionStore
	logger   *logging.Logger
}

// NewHandler creates a billing handler.
func NewHandler(checkout *CheckoutService, store SubscriptionStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{checkout: checkout, store: store, logger: logger}
}

// CreateCheckout handles POST /billing/checkout.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if r.Body != nil {
		// Body is optional; ignore decode errors on an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	url, err := h.checkout.CreateSession(r.Context(), practiceID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			h.logger.Error("checkout creation failed", "practice_id", practiceID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"checkout_url": url})
}

// GetSubscription handles GET /billing/subscription.
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	sub, err := h.store.Get(r.Context(), practiceID)
	if err != nil {
		if errors.Is(err, ErrPracticeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("subscription lookup failed", "practice_id", practiceID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

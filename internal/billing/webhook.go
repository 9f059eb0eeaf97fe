package billing

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/praxisflow/praxisflow/pkg/logging"
)

// WebhookHandler processes Stripe subscription lifecycle events and keeps
// the practice's subscription status in sync.
type WebhookHandler struct {
	secret string
	store  SubscriptionStore
	logger *logging.Logger
}

// NewWebhookHandler creates a Stripe webhook handler.
func NewWebhookHandler(secret string, store SubscriptionStore, logger *logging.Logger) *WebhookHandler {
	if store == nil {
		panic("billing: subscription store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{secret: secret, store: store, logger: logger}
}

// Handle handles POST /webhooks/stripe.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	// Events forwarded from older Stripe API versions still verify fine;
	// only the signature matters here.
	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("stripe signature verification failed", "error", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(w, r, event)
	case "invoice.payment_failed":
		h.handleInvoicePaymentFailed(w, r, event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(w, r, event)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("failed to decode checkout session", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	practiceID := sess.Metadata["practice_id"]
	if practiceID == "" {
		h.logger.Warn("checkout session without practice metadata", "session_id", sess.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	if err := h.store.UpdateStatus(r.Context(), practiceID, StatusActive, customerID); err != nil {
		h.logger.Error("failed to activate subscription", "practice_id", practiceID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("subscription activated", "practice_id", practiceID, "session_id", sess.ID)
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleSubscriptionDeleted(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	// The subscription carries the metadata set via subscription_data at
	// checkout time.
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to decode stripe subscription", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	h.updateStatus(w, r, sub.Metadata["practice_id"], StatusCancelled, string(event.Type))
}

func (h *WebhookHandler) handleInvoicePaymentFailed(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	// Invoices never inherit checkout metadata; Stripe mirrors the
	// subscription's metadata under subscription_details.
	var inv struct {
		ID                  string `json:"id"`
		SubscriptionDetails struct {
			Metadata map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	}
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		h.logger.Error("failed to decode stripe invoice", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	h.updateStatus(w, r, inv.SubscriptionDetails.Metadata["practice_id"], StatusPastDue, string(event.Type))
}

func (h *WebhookHandler) updateStatus(w http.ResponseWriter, r *http.Request, practiceID, status, eventType string) {
	if practiceID == "" {
		h.logger.Warn("stripe event without practice metadata", "type", eventType)
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := h.store.UpdateStatus(r.Context(), practiceID, status, ""); err != nil {
		h.logger.Error("failed to update subscription status",
			"practice_id", practiceID, "status", status, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("subscription status updated", "practice_id", practiceID, "status", status)
	w.WriteHeader(http.StatusOK)
}

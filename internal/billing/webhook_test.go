package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/praxisflow/praxisflow/pkg/logging"
)

const testWebhookSecret = "whsec_test"

// signStripe builds a Stripe-Signature header for a payload the way Stripe
// signs webhooks: HMAC-SHA256 over "<timestamp>.<payload>".
func signStripe(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType string, data string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","type":%q,"data":{"object":%s}}`, eventType, data))
}

func TestWebhook_CheckoutCompletedActivates(t *testing.T) {
	store := NewInMemoryStore("practice-1")
	handler := NewWebhookHandler(testWebhookSecret, store, logging.Default())

	payload := eventPayload("checkout.session.completed",
		`{"id":"cs_1","metadata":{"practice_id":"practice-1"},"customer":{"id":"cus_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripe(payload))
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	sub, err := store.Get(context.Background(), "practice-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusActive || sub.StripeCustomerID != "cus_1" {
		t.Errorf("unexpected subscription %+v", sub)
	}
}

func TestWebhook_PaymentFailedMarksPastDue(t *testing.T) {
	store := NewInMemoryStore("practice-1")
	handler := NewWebhookHandler(testWebhookSecret, store, logging.Default())

	payload := eventPayload("invoice.payment_failed",
		`{"id":"in_1","subscription_details":{"metadata":{"practice_id":"practice-1"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripe(payload))
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	sub, _ := store.Get(context.Background(), "practice-1")
	if sub.Status != StatusPastDue {
		t.Errorf("status = %s, want past_due", sub.Status)
	}
}

func TestWebhook_SubscriptionDeletedCancels(t *testing.T) {
	store := NewInMemoryStore("practice-1")
	handler := NewWebhookHandler(testWebhookSecret, store, logging.Default())

	payload := eventPayload("customer.subscription.deleted",
		`{"id":"sub_1","metadata":{"practice_id":"practice-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripe(payload))
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	sub, _ := store.Get(context.Background(), "practice-1")
	if sub.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", sub.Status)
	}
}

func TestWebhook_MissingMetadataIsAcknowledged(t *testing.T) {
	store := NewInMemoryStore("practice-1")
	handler := NewWebhookHandler(testWebhookSecret, store, logging.Default())

	payload := eventPayload("invoice.payment_failed", `{"id":"in_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripe(payload))
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 so Stripe stops retrying, got %d", w.Code)
	}
	sub, _ := store.Get(context.Background(), "practice-1")
	if sub.Status != StatusTrial {
		t.Errorf("status must stay trial, got %s", sub.Status)
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	handler := NewWebhookHandler(testWebhookSecret, NewInMemoryStore(), logging.Default())

	payload := eventPayload("checkout.session.completed", `{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestWebhook_IgnoresUnknownEvents(t *testing.T) {
	store := NewInMemoryStore("practice-1")
	handler := NewWebhookHandler(testWebhookSecret, store, logging.Default())

	payload := eventPayload("customer.created", `{"id":"cus_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripe(payload))
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	sub, _ := store.Get(context.Background(), "practice-1")
	if sub.Status != StatusTrial {
		t.Errorf("status must stay trial, got %s", sub.Status)
	}
}

func TestCheckout_CreateSession(t *testing.T) {
	svc := NewCheckoutService(CheckoutConfig{
		SecretKey:  "sk_test",
		PriceID:    "price_1",
		SuccessURL: "https://portal.example.com/billing/success",
		CancelURL:  "https://portal.example.com/billing/cancel",
		Logger:     logging.Default(),
	})
	var got *stripe.CheckoutSessionParams
	svc.create = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = params
		return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil
	}

	url, err := svc.CreateSession(context.Background(), "practice-1", "praxis@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://checkout.stripe.com/cs_1" {
		t.Errorf("url = %s", url)
	}
	if got.Metadata["practice_id"] != "practice-1" {
		t.Errorf("session metadata = %v", got.Metadata)
	}
	if got.SubscriptionData == nil || got.SubscriptionData.Metadata["practice_id"] != "practice-1" {
		t.Errorf("subscription metadata = %+v", got.SubscriptionData)
	}
}

func TestCheckout_NotConfigured(t *testing.T) {
	svc := NewCheckoutService(CheckoutConfig{Logger: logging.Default()})

	if _, err := svc.CreateSession(context.Background(), "practice-1", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

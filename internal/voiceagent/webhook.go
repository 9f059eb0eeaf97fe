package voiceagent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/praxisflow/praxisflow/internal/observability/metrics"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// Providers.
const (
	ProviderRetell = "retell"
	ProviderVAPI   = "vapi"
)

// WebhookHandler receives voice-agent webhooks from Retell and VAPI,
// verifies them, and drives the booking flow.
type WebhookHandler struct {
	flow         *BookingFlow
	retellSecret string
	vapiSecret   string
	metrics      *metrics.SchedulingMetrics
	logger       *logging.Logger
}

// WebhookConfig configures the webhook handler.
type WebhookConfig struct {
	Flow         *BookingFlow
	RetellSecret string
	VAPISecret   string
	Metrics      *metrics.SchedulingMetrics
	Logger       *logging.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Flow == nil {
		panic("voiceagent: booking flow required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WebhookHandler{
		flow:         cfg.Flow,
		retellSecret: cfg.RetellSecret,
		vapiSecret:   cfg.VAPISecret,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// retellEvent is the payload Retell sends for custom-function calls and
// call lifecycle events.
type retellEvent struct {
	Event string `json:"event"`
	Name  string `json:"name"`
	Call  struct {
		CallID     string            `json:"call_id"`
		Transcript string            `json:"transcript"`
		Metadata   map[string]string `json:"metadata"`
	} `json:"call"`
}

// Retell handles POST /webhooks/voice/retell. Function-call events run the
// booking flow; the returned result is spoken to the caller.
func (h *WebhookHandler) Retell(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !verifyHMAC(h.retellSecret, body, r.Header.Get("X-Retell-Signature")) {
		h.metrics.ObserveVoiceWebhook(ProviderRetell, "unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event retellEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.metrics.ObserveVoiceWebhook(ProviderRetell, "malformed")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	switch {
	case event.Event == "call_ended":
		if err := h.flow.EndCall(r.Context(), event.Call.CallID); err != nil {
			h.logger.Warn("failed to drop call session", "call_id", event.Call.CallID, "error", err)
		}
		h.metrics.ObserveVoiceWebhook(ProviderRetell, "ok")
		w.WriteHeader(http.StatusOK)
	case event.Name == "book_appointment":
		practiceID := event.Call.Metadata["practice_id"]
		spoken, err := h.flow.HandleTranscript(r.Context(), ProviderRetell, practiceID, event.Call.CallID, event.Call.Transcript)
		if err != nil {
			h.metrics.ObserveVoiceWebhook(ProviderRetell, "error")
			h.logger.Error("retell booking flow failed", "call_id", event.Call.CallID, "error", err)
			// Give the agent something to say rather than failing the call.
			writeJSON(w, http.StatusOK, map[string]string{
				"result": "Entschuldigung, das hat gerade nicht geklappt. Bitte versuchen Sie es gleich noch einmal.",
			})
			return
		}
		h.metrics.ObserveVoiceWebhook(ProviderRetell, "ok")
		writeJSON(w, http.StatusOK, map[string]string{"result": spoken})
	default:
		h.metrics.ObserveVoiceWebhook(ProviderRetell, "ignored")
		w.WriteHeader(http.StatusOK)
	}
}

// vapiEvent is the payload VAPI sends for tool calls.
type vapiEvent struct {
	Message struct {
		Type string `json:"type"`
		Call struct {
			ID string `json:"id"`
		} `json:"call"`
		Transcript string `json:"transcript"`
		Assistant  struct {
			Metadata map[string]string `json:"metadata"`
		} `json:"assistant"`
	} `json:"message"`
}

// VAPI handles POST /webhooks/voice/vapi. VAPI authenticates with a shared
// secret header rather than a body signature.
func (h *WebhookHandler) VAPI(w http.ResponseWriter, r *http.Request) {
	if h.vapiSecret == "" || !subtleEquals(r.Header.Get("X-Vapi-Secret"), h.vapiSecret) {
		h.metrics.ObserveVoiceWebhook(ProviderVAPI, "unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event vapiEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.metrics.ObserveVoiceWebhook(ProviderVAPI, "malformed")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	switch event.Message.Type {
	case "end-of-call-report":
		if err := h.flow.EndCall(r.Context(), event.Message.Call.ID); err != nil {
			h.logger.Warn("failed to drop call session", "call_id", event.Message.Call.ID, "error", err)
		}
		h.metrics.ObserveVoiceWebhook(ProviderVAPI, "ok")
		w.WriteHeader(http.StatusOK)
	case "tool-calls", "function-call":
		practiceID := event.Message.Assistant.Metadata["practice_id"]
		spoken, err := h.flow.HandleTranscript(r.Context(), ProviderVAPI, practiceID, event.Message.Call.ID, event.Message.Transcript)
		if err != nil {
			h.metrics.ObserveVoiceWebhook(ProviderVAPI, "error")
			h.logger.Error("vapi booking flow failed", "call_id", event.Message.Call.ID, "error", err)
			writeJSON(w, http.StatusOK, map[string]string{
				"result": "Entschuldigung, das hat gerade nicht geklappt. Bitte versuchen Sie es gleich noch einmal.",
			})
			return
		}
		h.metrics.ObserveVoiceWebhook(ProviderVAPI, "ok")
		writeJSON(w, http.StatusOK, map[string]string{"result": spoken})
	default:
		h.metrics.ObserveVoiceWebhook(ProviderVAPI, "ignored")
		w.WriteHeader(http.StatusOK)
	}
}

// verifyHMAC verifies a hex-encoded HMAC-SHA256 body signature. The header
// may carry a "sha256=" prefix.
func verifyHMAC(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func subtleEquals(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

package compliance

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/praxisflow/praxisflow/internal/tenancy"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// AuditHandler serves the practice's audit trail.
type AuditHandler struct {
	audit  *AuditService
	logger *logging.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(audit *AuditService, logger *logging.Logger) *AuditHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditHandler{audit: audit, logger: logger}
}

// ListEvents handles GET /gdpr/audit?patient_id=&type=&start=&end=
func (h *AuditHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing practice context", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	filter := AuditFilter{
		PracticeID: practiceID,
		PatientID:  q.Get("patient_id"),
		EventType:  AuditEventType(q.Get("type")),
		Limit:      100,
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 500 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	if start := q.Get("start"); start != "" {
		ts, err := time.Parse(time.RFC3339, start)
		if err != nil {
			http.Error(w, "invalid start time", http.StatusBadRequest)
			return
		}
		filter.StartTime = ts
	}
	if end := q.Get("end"); end != "" {
		ts, err := time.Parse(time.RFC3339, end)
		if err != nil {
			http.Error(w, "invalid end time", http.StatusBadRequest)
			return
		}
		filter.EndTime = ts
	}

	events, err := h.audit.QueryEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("audit query failed", "practice_id", practiceID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []AuditEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"events": events, "count": len(events)})
}

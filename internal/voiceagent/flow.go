package voiceagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/praxisflow/praxisflow/internal/appointments"
	"github.com/praxisflow/praxisflow/internal/llm"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

var voiceTracer = otel.Tracer("praxisflow.internal.voiceagent")

// BookingFlow turns call transcripts into appointments: extract fields via
// the LLM, check availability, book, and phrase a spoken German reply.
type BookingFlow struct {
	sessions     *SessionStore
	extractor    llm.Extractor
	appointments *appointments.Service
	logger       *logging.Logger
}

// NewBookingFlow constructs the voice booking flow.
func NewBookingFlow(sessions *SessionStore, extractor llm.Extractor, appts *appointments.Service, logger *logging.Logger) *BookingFlow {
	if sessions == nil {
		panic("voiceagent: session store required")
	}
	if extractor == nil {
		panic("voiceagent: extractor required")
	}
	if appts == nil {
		panic("voiceagent: appointments service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingFlow{sessions: sessions, extractor: extractor, appointments: appts, logger: logger}
}

// HandleTranscript advances the call's booking state with a new transcript
// snapshot and returns the text the agent should speak next.
func (f *BookingFlow) HandleTranscript(ctx context.Context, provider, practiceID, callID, transcript string) (string, error) {
	ctx, span := voiceTracer.Start(ctx, "voiceagent.handle_transcript")
	defer span.End()
	span.SetAttributes(
		attribute.String("praxisflow.practice_id", practiceID),
		attribute.String("praxisflow.call_id", callID),
		attribute.String("praxisflow.provider", provider),
	)

	if callID == "" {
		return "", ErrMissingCallID
	}

	session, err := f.sessions.Load(ctx, callID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			span.RecordError(err)
			return "", err
		}
		session = &CallSession{CallID: callID, PracticeID: practiceID, Provider: provider}
	}
	if session.AppointmentID != "" {
		return "Ihr Termin ist bereits gebucht. Kann ich sonst noch etwas für Sie tun?", nil
	}
	session.Transcript = transcript

	fields, err := f.extractor.ExtractBooking(ctx, transcript)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	session.Fields = fields

	if !fields.Complete() {
		if err := f.sessions.Save(ctx, session); err != nil {
			return "", err
		}
		return askForMissing(fields), nil
	}

	appt, info, err := f.appointments.Book(ctx, &appointments.CreateAppointmentRequest{
		PracticeID:       practiceID,
		Date:             fields.Date,
		Time:             fields.Time,
		DurationMinutes:  fields.DurationMinutes,
		Service:          fields.Service,
		Source:           appointments.SourceVoice,
		PatientFirstName: fields.PatientFirstName,
		PatientLastName:  fields.PatientLastName,
		Notes:            "Telefonisch gebucht",
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	session.AppointmentID = appt.ID
	if err := f.sessions.Save(ctx, session); err != nil {
		return "", err
	}

	f.logger.Info("voice booking completed",
		"practice_id", practiceID,
		"call_id", callID,
		"provider", provider,
		"appointment_id", appt.ID,
		"conflicted", info.HasConflict,
	)

	spoken := fmt.Sprintf("Ihr Termin am %s um %s Uhr ist gebucht.", appt.Date, appt.Time)
	if info.HasConflict {
		// The booking stands; the caller just gets offered alternatives.
		if free, err := f.appointments.FreeSlots(ctx, practiceID, appt.Date); err == nil && len(free) > 0 {
			spoken += " Hinweis: Zu dieser Zeit gibt es bereits einen Termin. Frei wären zum Beispiel " +
				strings.Join(firstN(free, 3), ", ") + " Uhr."
		} else {
			spoken += " Hinweis: Zu dieser Zeit gibt es bereits einen Termin."
		}
	}
	return spoken, nil
}

// EndCall drops the call's session state.
func (f *BookingFlow) EndCall(ctx context.Context, callID string) error {
	return f.sessions.Delete(ctx, callID)
}

func askForMissing(fields *llm.BookingFields) string {
	var missing []string
	if fields.Date == "" {
		missing = append(missing, "das gewünschte Datum")
	}
	if fields.Time == "" {
		missing = append(missing, "die Uhrzeit")
	}
	if fields.PatientLastName == "" {
		missing = append(missing, "Ihren Namen")
	}
	return "Um den Termin zu buchen, nennen Sie mir bitte noch " + joinGerman(missing) + "."
}

func joinGerman(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " und " + parts[len(parts)-1]
	}
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

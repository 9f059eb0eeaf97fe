// Package llm extracts structured booking fields from voice-call
// transcripts. The extractor is provider-agnostic; OpenAI and Gemini
// implementations are selected via configuration.
package llm

import (
	"context"
	"errors"
)

// BookingFields are the appointment fields an extractor pulls out of a
// transcript. Empty fields mean the caller has not said them yet.
type BookingFields struct {
	Date             string `json:"appointment_date"` // YYYY-MM-DD
	Time             string `json:"appointment_time"` // HH:MM
	DurationMinutes  int    `json:"duration_minutes"`
	Service          string `json:"service"`
	PatientFirstName string `json:"patient_first_name"`
	PatientLastName  string `json:"patient_last_name"`
	Phone            string `json:"phone"`
}

// Complete reports whether enough fields are present to book.
func (f *BookingFields) Complete() bool {
	return f.Date != "" && f.Time != "" && f.PatientLastName != ""
}

// Extractor turns a call transcript into booking fields.
type Extractor interface {
	ExtractBooking(ctx context.Context, transcript string) (*BookingFields, error)
}

// ErrEmptyTranscript is returned when there is nothing to extract from.
var ErrEmptyTranscript = errors.New("llm: empty transcript")

const extractionSystemPrompt = `Du bist ein Assistent einer Arztpraxis. Extrahiere aus dem Transkript die Termindaten des Anrufers.
Antworte ausschließlich mit einem JSON-Objekt mit den Feldern:
appointment_date (YYYY-MM-DD), appointment_time (HH:MM, 24h), duration_minutes (Zahl, 0 wenn unbekannt),
service, patient_first_name, patient_last_name, phone.
Lasse Felder leer, die der Anrufer nicht genannt hat. Erfinde nichts.`

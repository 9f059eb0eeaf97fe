package notify

import "fmt"

// AppointmentConfirmation builds the confirmation email for a booked
// appointment. Dates stay in the practice's wire format (YYYY-MM-DD, HH:MM).
func AppointmentConfirmation(patientName, practiceName, date, timeOfDay, service string) EmailMessage {
	subject := fmt.Sprintf("Terminbestätigung %s um %s Uhr", date, timeOfDay)
	body := fmt.Sprintf("Guten Tag %s,\n\nIhr Termin", patientName)
	if service != "" {
		body += fmt.Sprintf(" (%s)", service)
	}
	body += fmt.Sprintf(" am %s um %s Uhr ist bestätigt.\n\nMit freundlichen Grüßen\n%s", date, timeOfDay, practiceName)
	return EmailMessage{Subject: subject, Body: body, ToName: patientName}
}

// GDPRExportReady notifies a patient that their data export can be collected.
func GDPRExportReady(patientName, practiceName string) EmailMessage {
	return EmailMessage{
		Subject: "Ihre Datenauskunft ist bereit",
		ToName:  patientName,
		Body: fmt.Sprintf(
			"Guten Tag %s,\n\nIhre angeforderte Datenauskunft nach Art. 15 DSGVO steht nun zum Abruf bereit.\n\nMit freundlichen Grüßen\n%s",
			patientName, practiceName),
	}
}

package notify

import (
	"context"
	"testing"

	"github.com/praxisflow/praxisflow/pkg/logging"
)

func TestNewSendGridSender_NoAPIKey(t *testing.T) {
	if sender := NewSendGridSender(SendGridConfig{}, logging.Default()); sender != nil {
		t.Error("expected nil sender without API key")
	}
}

func TestStubEmailSender(t *testing.T) {
	sender := NewStubEmailSender(nil)
	err := sender.Send(context.Background(), EmailMessage{To: "patient@example.com", Subject: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

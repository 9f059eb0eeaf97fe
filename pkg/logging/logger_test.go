package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"bogus", false},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := NewWithWriter(tt.level, &buf)
		logger.Debug("debug message")
		got := strings.Contains(buf.String(), "debug message")
		if got != tt.debug {
			t.Errorf("level %q: debug emitted = %v, want %v", tt.level, got, tt.debug)
		}
	}
}

func TestWith_CarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf).With("practice_id", "p-1")
	logger.Info("hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["practice_id"] != "p-1" {
		t.Errorf("expected practice_id attribute, got %v", record)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default returned nil")
	}
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/praxisflow/praxisflow/pkg/logging"
)

// GeminiExtractor extracts booking fields via Google's Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	modelID string
	logger  *logging.Logger
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, modelID string, logger *logging.Logger) (*GeminiExtractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, modelID: modelID, logger: logger}, nil
}

// ExtractBooking extracts booking fields from a transcript.
func (e *GeminiExtractor) ExtractBooking(ctx context.Context, transcript string) (*BookingFields, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	ctx, span := llmTracer.Start(ctx, "llm.extract_booking")
	defer span.End()

	model := e.client.GenerativeModel(e.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(extractionSystemPrompt))

	resp, err := model.GenerateContent(ctx, genai.Text(transcript))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("llm: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("llm: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New("llm: gemini returned empty content")
	}

	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}

	fields, err := parseBookingFields(out.String())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	e.logger.Debug("booking fields extracted", "model", e.modelID, "complete", fields.Complete())
	return fields, nil
}

// Close releases resources held by the Gemini client.
func (e *GeminiExtractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

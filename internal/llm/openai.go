package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"

	"github.com/praxisflow/praxisflow/pkg/logging"
)

var llmTracer = otel.Tracer("praxisflow.internal.llm")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor extracts booking fields via the OpenAI chat completions
// API.
type OpenAIExtractor struct {
	client chatClient
	model  string
	logger *logging.Logger
}

// NewOpenAIExtractor returns an OpenAI-backed extractor.
func NewOpenAIExtractor(client chatClient, model string, logger *logging.Logger) *OpenAIExtractor {
	if client == nil {
		panic("llm: chat client cannot be nil")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIExtractor{client: client, model: model, logger: logger}
}

// NewOpenAIExtractorFromKey builds the extractor from an API key.
func NewOpenAIExtractorFromKey(apiKey, model string, logger *logging.Logger) (*OpenAIExtractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: openai api key is required")
	}
	return NewOpenAIExtractor(openai.NewClient(apiKey), model, logger), nil
}

// ExtractBooking extracts booking fields from a transcript.
func (e *OpenAIExtractor) ExtractBooking(ctx context.Context, transcript string) (*BookingFields, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	ctx, span := llmTracer.Start(ctx, "llm.extract_booking")
	defer span.End()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("llm: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: openai returned no choices")
	}

	fields, err := parseBookingFields(resp.Choices[0].Message.Content)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	e.logger.Debug("booking fields extracted", "model", e.model, "complete", fields.Complete())
	return fields, nil
}

// parseBookingFields parses the model output, tolerating markdown code
// fences some models wrap JSON in.
func parseBookingFields(raw string) (*BookingFields, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var fields BookingFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("llm: parse extraction output: %w", err)
	}
	return &fields, nil
}

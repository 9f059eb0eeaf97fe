package bootstrap

import (
	"context"
	"fmt"

	appconfig "github.com/praxisflow/praxisflow/internal/config"
	"github.com/praxisflow/praxisflow/internal/llm"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// BuildExtractor wires the booking-field extractor for the configured LLM
// provider. Returns nil without error when no provider is configured; the
// voice agent is then disabled.
func BuildExtractor(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (llm.Extractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.LLMProvider {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("no OpenAI API key configured; voice booking disabled")
			return nil, nil
		}
		extractor, err := llm.NewOpenAIExtractorFromKey(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: openai extractor: %w", err)
		}
		logger.Info("llm extractor enabled", "provider", "openai", "model", cfg.OpenAIModel)
		return extractor, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			logger.Warn("no Gemini API key configured; voice booking disabled")
			return nil, nil
		}
		extractor, err := llm.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: gemini extractor: %w", err)
		}
		logger.Info("llm extractor enabled", "provider", "gemini", "model", cfg.GeminiModel)
		return extractor, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", cfg.LLMProvider)
	}
}

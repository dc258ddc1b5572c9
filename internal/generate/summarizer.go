// Package generate holds the model-backed artifact producers: article
// summaries via the OpenAI API and header images via the Gemini Imagen API.
// Both expose plain methods the enrichment service wraps in coordinator jobs.
package generate

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	apperrors "news-enricher/internal/common/errors"
	"news-enricher/internal/common/logging"
)

const (
	defaultSummaryModel = "gpt-4o-mini"
	summaryPrompt       = "Summarize this article in 2-3 sentences:"

	// maxSummaryInput caps how much article text is sent per request.
	maxSummaryInput = 12000
)

// chatCompleter is the slice of the OpenAI SDK the summarizer uses, kept as
// an interface so tests can stub the API.
type chatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Summarizer produces short article summaries.
type Summarizer struct {
	chat   chatCompleter
	model  string
	logger logging.Logger
}

// SummarizerOptions configures a Summarizer.
type SummarizerOptions struct {
	APIKey string
	// Model overrides defaultSummaryModel when set.
	Model string
	// BaseURL optionally points at a compatible endpoint, mainly for tests.
	BaseURL string
	Logger  logging.Logger
}

func NewSummarizer(opts SummarizerOptions) (*Summarizer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, apperrors.ConfigError("summarizer requires an API key")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	model := opts.Model
	if model == "" {
		model = defaultSummaryModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Summarizer{
		chat:   &client.Chat.Completions,
		model:  model,
		logger: logger,
	}, nil
}

// Summarize condenses the article content into a few sentences.
func (s *Summarizer) Summarize(ctx context.Context, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.GenerationFailedError("no content to summarize", nil)
	}
	if len(content) > maxSummaryInput {
		content = content[:maxSummaryInput]
	}

	resp, err := s.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(summaryPrompt + "\n\n" + content),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(256),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.GenerationTimeoutError("summary generation")
		}
		return "", apperrors.GenerationFailedError("summary request failed", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperrors.GenerationFailedError("summary response was empty", nil)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Debug("summary generated",
		logging.String("model", s.model),
		logging.Int("summary_bytes", len(summary)),
	)
	return summary, nil
}

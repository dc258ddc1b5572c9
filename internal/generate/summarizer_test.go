package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "news-enricher/internal/common/errors"
	"news-enricher/internal/common/logging"
)

type fakeChat struct {
	lastParams openai.ChatCompletionNewParams
	response   *openai.ChatCompletion
	err        error
}

func (f *fakeChat) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.lastParams = body
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func chatResponse(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func newFakeSummarizer(fake *fakeChat) *Summarizer {
	return &Summarizer{
		chat:   fake,
		model:  defaultSummaryModel,
		logger: logging.GetGlobalLogger(),
	}
}

func TestNewSummarizer(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewSummarizer(SummarizerOptions{})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("defaults the model", func(t *testing.T) {
		s, err := NewSummarizer(SummarizerOptions{APIKey: "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, defaultSummaryModel, s.model)
	})
}

func TestSummarizer_Summarize(t *testing.T) {
	t.Run("returns trimmed summary", func(t *testing.T) {
		fake := &fakeChat{response: chatResponse("  A concise summary.  ")}
		s := newFakeSummarizer(fake)

		summary, err := s.Summarize(context.Background(), "Long article body.")
		require.NoError(t, err)
		assert.Equal(t, "A concise summary.", summary)
	})

	t.Run("prompt carries the article content", func(t *testing.T) {
		fake := &fakeChat{response: chatResponse("summary")}
		s := newFakeSummarizer(fake)

		_, err := s.Summarize(context.Background(), "Quarterly results beat expectations.")
		require.NoError(t, err)

		require.Len(t, fake.lastParams.Messages, 1)
		content := fake.lastParams.Messages[0].OfUser.Content.OfString.Value
		assert.Contains(t, content, summaryPrompt)
		assert.Contains(t, content, "Quarterly results beat expectations.")
	})

	t.Run("oversized content is truncated", func(t *testing.T) {
		fake := &fakeChat{response: chatResponse("summary")}
		s := newFakeSummarizer(fake)

		_, err := s.Summarize(context.Background(), strings.Repeat("x", maxSummaryInput*2))
		require.NoError(t, err)

		content := fake.lastParams.Messages[0].OfUser.Content.OfString.Value
		assert.LessOrEqual(t, len(content), maxSummaryInput+len(summaryPrompt)+2)
	})

	t.Run("empty content fails fast", func(t *testing.T) {
		fake := &fakeChat{}
		s := newFakeSummarizer(fake)

		_, err := s.Summarize(context.Background(), "   ")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationFailed))
	})

	t.Run("api error surfaces as generation failure", func(t *testing.T) {
		fake := &fakeChat{err: errors.New("quota exceeded")}
		s := newFakeSummarizer(fake)

		_, err := s.Summarize(context.Background(), "content")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationFailed))
	})

	t.Run("empty choices fail", func(t *testing.T) {
		fake := &fakeChat{response: &openai.ChatCompletion{}}
		s := newFakeSummarizer(fake)

		_, err := s.Summarize(context.Background(), "content")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationFailed))
	})

	t.Run("cancelled context maps to timeout", func(t *testing.T) {
		fake := &fakeChat{err: context.DeadlineExceeded}
		s := newFakeSummarizer(fake)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Summarize(ctx, "content")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGenerationTimeout))
	})
}

// Package extract retrieves clean article text from the Jina Reader API,
// which renders an arbitrary page URL into markdown plus metadata.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "news-enricher/internal/common/errors"
	commonhttp "news-enricher/internal/common/http"
	"news-enricher/internal/common/logging"
)

// DefaultBaseURL is the hosted Jina Reader endpoint. Prepending an article
// URL to it returns the extracted content.
const DefaultBaseURL = "https://r.jina.ai"

// Article is the extraction result for one page.
type Article struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Content       string `json:"content"`
	URL           string `json:"url"`
	PublishedTime string `json:"publishedTime"`
}

// readerResponse mirrors the Jina Reader JSON envelope.
type readerResponse struct {
	Code   int     `json:"code"`
	Status int     `json:"status"`
	Data   Article `json:"data"`
}

// Client calls the Jina Reader API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides DefaultBaseURL, mainly for tests.
	BaseURL string
	// APIKey is sent as a bearer token when set. The hosted endpoint works
	// without one at a lower rate limit.
	APIKey string
	// Timeout bounds each extraction request. Zero means 30s.
	Timeout time.Duration
	Logger  logging.Logger
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		httpClient: commonhttp.NewHTTPClientWithTimeout(timeout),
		logger:     logger,
	}
}

// Extract fetches the rendered content for articleURL.
func (c *Client) Extract(ctx context.Context, articleURL string) (*Article, error) {
	if _, err := url.ParseRequestURI(articleURL); err != nil {
		return nil, apperrors.InvalidIdentifierError("article URL is not a valid URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+articleURL, nil)
	if err != nil {
		return nil, apperrors.InternalError("failed to create extraction request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.GenerationTimeoutError("content extraction")
		}
		return nil, apperrors.GenerationFailedError("extraction request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.GenerationFailedError("failed to read extraction response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFoundError("article")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.RateLimitError("jina reader")
	default:
		return nil, apperrors.GenerationFailedError(
			fmt.Sprintf("extraction returned HTTP %d", resp.StatusCode), nil)
	}

	var parsed readerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.GenerationFailedError("failed to parse extraction response", err)
	}
	if parsed.Data.Content == "" {
		return nil, apperrors.GenerationFailedError("extraction returned no content", nil)
	}

	c.logger.Debug("article extracted",
		logging.String("url", articleURL),
		logging.Int("content_bytes", len(parsed.Data.Content)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return &parsed.Data, nil
}

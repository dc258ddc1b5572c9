// Package enrichment is the orchestration layer: given an article URL it
// resolves the fingerprint, serves whatever artifacts are cached, and starts
// background jobs for the ones that are not. Requests always return
// immediately; clients poll until the status settles.
package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"news-enricher/internal/cache"
	apperrors "news-enricher/internal/common/errors"
	"news-enricher/internal/common/logging"
	"news-enricher/internal/extract"
	"news-enricher/internal/fingerprint"
	"news-enricher/internal/generate"
	"news-enricher/internal/jobs"
)

// Status is the overall enrichment state reported to clients.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Extractor pulls clean article text for a URL.
type Extractor interface {
	Extract(ctx context.Context, articleURL string) (*extract.Article, error)
}

// Summarizer condenses article content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// ImageGenerator renders a header image and returns its served URL path.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, baseName string) (string, error)
}

// Result is the response for one enrichment request. While artifacts are
// still generating, Summary is empty and ImageURL points at the placeholder.
type Result struct {
	Status      Status                  `json:"status"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Article     *extract.Article        `json:"article,omitempty"`
	Summary     string                  `json:"summary,omitempty"`
	ImageURL    string                  `json:"image_url"`
	Error       string                  `json:"error,omitempty"`
}

// Metadata is the aggregate bundle cached once every artifact is ready, so
// list views can render a story with a single cache read.
type Metadata struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Summary       string `json:"summary"`
	ImageURL      string `json:"image_url"`
	PublishedTime string `json:"published_time,omitempty"`
	EnrichedAt    string `json:"enriched_at"`
}

// Service coordinates the per-class artifact pipeline.
type Service struct {
	coordinator *jobs.Coordinator
	cache       *cache.TieredCache
	extractor   Extractor
	summarizer  Summarizer // nil disables summaries
	imageGen    ImageGenerator
	logger      logging.Logger
}

// Options configures a Service. Extractor and Coordinator are required;
// Summarizer and ImageGenerator are optional and their artifacts degrade
// gracefully when absent.
type Options struct {
	Coordinator    *jobs.Coordinator
	Cache          *cache.TieredCache
	Extractor      Extractor
	Summarizer     Summarizer
	ImageGenerator ImageGenerator
	Logger         logging.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Coordinator == nil {
		return nil, apperrors.ConfigError("enrichment service requires a job coordinator")
	}
	if opts.Cache == nil {
		return nil, apperrors.ConfigError("enrichment service requires a cache")
	}
	if opts.Extractor == nil {
		return nil, apperrors.ConfigError("enrichment service requires an extractor")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Service{
		coordinator: opts.Coordinator,
		cache:       opts.Cache,
		extractor:   opts.Extractor,
		summarizer:  opts.Summarizer,
		imageGen:    opts.ImageGenerator,
		logger:      logger,
	}, nil
}

// Enrich resolves the URL's artifacts, starting generation for any that are
// missing, and reports the combined state. Calling it again later acts as
// the poll: the coordinator guarantees repeated calls never duplicate work.
func (s *Service) Enrich(ctx context.Context, rawURL string) (*Result, error) {
	fp, err := fingerprint.New(rawURL)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Status:      StatusPending,
		Fingerprint: fp,
		ImageURL:    generate.PlaceholderImageURL,
	}

	content := s.coordinator.GetOrStart(ctx, fp, cache.ClassContent, s.contentGenerator(rawURL))
	switch content.Status {
	case jobs.StatusFailed:
		result.Status = StatusFailed
		if content.Err != nil {
			result.Error = content.Err.Error()
		}
		return result, nil
	case jobs.StatusPending:
		return result, nil
	}

	article, err := decodeArticle(content.Payload)
	if err != nil {
		// A corrupt cached payload is unrecoverable through polling; evict
		// it so the next request regenerates.
		s.cache.Invalidate(ctx, fp, cache.ClassContent)
		return nil, err
	}
	result.Article = article

	summaryDone := s.resolveSummary(ctx, fp, article, result)
	imageDone := s.resolveImage(ctx, fp, article, result)

	if summaryDone && imageDone {
		result.Status = StatusReady
		s.writeMetadata(ctx, fp, article, result)
	}
	return result, nil
}

// contentGenerator extracts the article and stores it as a JSON payload.
func (s *Service) contentGenerator(rawURL string) jobs.Generator {
	return func(ctx context.Context) (string, error) {
		article, err := s.extractor.Extract(ctx, rawURL)
		if err != nil {
			return "", err
		}
		encoded, err := json.Marshal(article)
		if err != nil {
			return "", apperrors.InternalError("failed to encode article", err)
		}
		return string(encoded), nil
	}
}

// resolveSummary fills result.Summary from cache or starts the job. It
// reports whether the summary has reached a terminal state. A failed summary
// degrades to no summary rather than failing the whole request.
func (s *Service) resolveSummary(ctx context.Context, fp fingerprint.Fingerprint, article *extract.Article, result *Result) bool {
	if s.summarizer == nil {
		return true
	}
	res := s.coordinator.GetOrStart(ctx, fp, cache.ClassSummary, func(ctx context.Context) (string, error) {
		return s.summarizer.Summarize(ctx, article.Content)
	})
	switch res.Status {
	case jobs.StatusReady:
		result.Summary = res.Payload
		return true
	case jobs.StatusFailed:
		return true
	default:
		return false
	}
}

// resolveImage fills result.ImageURL from cache or starts the job. Pending
// and failed states both leave the placeholder in place.
func (s *Service) resolveImage(ctx context.Context, fp fingerprint.Fingerprint, article *extract.Article, result *Result) bool {
	if s.imageGen == nil {
		return true
	}
	prompt := generate.ImagePrompt(article.Title, article.Description)
	res := s.coordinator.GetOrStart(ctx, fp, cache.ClassImage, func(ctx context.Context) (string, error) {
		return s.imageGen.Generate(ctx, prompt, string(fp))
	})
	switch res.Status {
	case jobs.StatusReady:
		result.ImageURL = res.Payload
		return true
	case jobs.StatusFailed:
		return true
	default:
		return false
	}
}

// writeMetadata caches the aggregate bundle once all artifacts settled.
// Overwriting an existing bundle with identical data is harmless.
func (s *Service) writeMetadata(ctx context.Context, fp fingerprint.Fingerprint, article *extract.Article, result *Result) {
	meta := Metadata{
		Title:         article.Title,
		URL:           article.URL,
		Summary:       result.Summary,
		ImageURL:      result.ImageURL,
		PublishedTime: article.PublishedTime,
		EnrichedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		s.logger.Error("failed to encode metadata bundle", err,
			logging.String("fingerprint", string(fp)))
		return
	}
	s.cache.Set(ctx, fp, cache.ClassMetadata, string(encoded), cache.ClassMetadata.TTL())
}

// GetMetadata returns the cached aggregate bundle, if present.
func (s *Service) GetMetadata(ctx context.Context, rawURL string) (*Metadata, error) {
	fp, err := fingerprint.New(rawURL)
	if err != nil {
		return nil, err
	}
	payload, found := s.cache.Get(ctx, fp, cache.ClassMetadata)
	if !found {
		return nil, apperrors.NotFoundError("metadata bundle")
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return nil, apperrors.InternalError("failed to decode metadata bundle", err)
	}
	return &meta, nil
}

// Invalidate evicts every artifact class for the URL.
func (s *Service) Invalidate(ctx context.Context, rawURL string) error {
	fp, err := fingerprint.New(rawURL)
	if err != nil {
		return err
	}
	for _, class := range []cache.Class{cache.ClassContent, cache.ClassSummary, cache.ClassImage, cache.ClassMetadata} {
		s.cache.Invalidate(ctx, fp, class)
	}
	return nil
}

func decodeArticle(payload string) (*extract.Article, error) {
	var article extract.Article
	if err := json.Unmarshal([]byte(payload), &article); err != nil {
		return nil, apperrors.InternalError("failed to decode cached article", err)
	}
	return &article, nil
}

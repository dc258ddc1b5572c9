package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	apperrors "news-enricher/internal/common/errors"
	"news-enricher/internal/common/logging"
)

const defaultImageModel = "imagen-3.0-generate-002"

// PlaceholderImageURL is served while a header image is still generating or
// when generation is unavailable.
const PlaceholderImageURL = "/images/placeholder-blur.jpg"

// imageModels is the slice of the genai SDK the generator uses, kept as an
// interface so tests can stub the API.
type imageModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImageGenerator produces header images and stores them on local disk under
// the directory the HTTP server exposes at /images/.
type ImageGenerator struct {
	models   imageModels
	model    string
	imageDir string
	logger   logging.Logger
}

// ImageOptions configures an ImageGenerator.
type ImageOptions struct {
	APIKey string
	// Model overrides defaultImageModel when set.
	Model string
	// ImageDir is where generated files land. Created if missing.
	ImageDir string
	Logger   logging.Logger
}

func NewImageGenerator(ctx context.Context, opts ImageOptions) (*ImageGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, apperrors.ConfigError("image generator requires an API key")
	}
	if opts.ImageDir == "" {
		return nil, apperrors.ConfigError("image generator requires an image directory")
	}
	if err := os.MkdirAll(opts.ImageDir, 0o755); err != nil {
		return nil, apperrors.ConfigError(fmt.Sprintf("failed to create image directory: %v", err))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.ConfigError(fmt.Sprintf("failed to create image client: %v", err))
	}

	model := opts.Model
	if model == "" {
		model = defaultImageModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &ImageGenerator{
		models:   client.Models,
		model:    model,
		imageDir: opts.ImageDir,
		logger:   logger,
	}, nil
}

// Generate renders one image for the prompt, writes it to disk as
// {baseName}.png and returns the URL path it is served under.
func (g *ImageGenerator) Generate(ctx context.Context, prompt, baseName string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apperrors.GenerationFailedError("no prompt for image generation", nil)
	}

	resp, err := g.models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.GenerationTimeoutError("image generation")
		}
		return "", apperrors.GenerationFailedError("image request failed", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", apperrors.GenerationFailedError("image response was empty", nil)
	}

	fileName := baseName + ".png"
	path := filepath.Join(g.imageDir, fileName)
	if err := os.WriteFile(path, resp.GeneratedImages[0].Image.ImageBytes, 0o644); err != nil {
		return "", apperrors.InternalError("failed to write generated image", err)
	}

	g.logger.Debug("image generated",
		logging.String("model", g.model),
		logging.String("file", fileName),
	)
	return "/images/" + fileName, nil
}

// ImagePrompt builds the rendering prompt from article metadata.
func ImagePrompt(title, description string) string {
	prompt := "Minimalist editorial illustration for a news article titled: " + title
	if description != "" {
		prompt += ". Context: " + description
	}
	return prompt + ". No text or lettering in the image."
}

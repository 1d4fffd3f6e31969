package generation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"inspiration-batch/internal/artifact"
	"inspiration-batch/internal/gemini"
	"inspiration-batch/internal/prompt"
)

type ImageGenerator interface {
	GenerateImage(ctx context.Context, req gemini.ImageRequest) (gemini.Image, error)
}

type Options struct {
	Generator ImageGenerator
	Store     *artifact.Store
	Logger    *slog.Logger
}

// Executor performs one generation and stores the result. Failures are logged
// and reported as false; they never reach the caller as errors or panics.
type Executor struct {
	gen    ImageGenerator
	store  *artifact.Store
	logger *slog.Logger
}

func New(opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Executor{
		gen:    opts.Generator,
		store:  opts.Store,
		logger: logger,
	}
}

// Generate renders text into the artifact for slug. The artifact is only
// created or replaced when an image was received and written.
func (e *Executor) Generate(ctx context.Context, text string, slug string, aspect prompt.AspectRatio) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("image generation panicked", "slug", slug, "err", fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	img, err := e.gen.GenerateImage(ctx, gemini.ImageRequest{
		Prompt:      text,
		AspectRatio: string(aspect),
	})
	if err != nil {
		e.logger.Error("image generation failed", "slug", slug, "aspect_ratio", aspect, "err", err)
		return false
	}

	path, err := e.store.WriteImage(slug, img.Data, img.MimeType)
	if err != nil {
		e.logger.Error("saving image failed", "slug", slug, "err", err)
		return false
	}

	e.logger.Info("image saved", "slug", slug, "path", path, "mime_type", img.MimeType)
	return true
}

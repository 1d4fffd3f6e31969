package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultImageModel = "gemini-3-pro-image-preview"
	DefaultImageSize  = "1K"
)

// ErrNoImage is returned when the model answered without an inline image part.
var ErrNoImage = errors.New("no image in response")

type Options struct {
	APIKey     string
	Model      string
	ImageSize  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type ImageRequest struct {
	Prompt      string
	AspectRatio string
}

type Image struct {
	Data     []byte
	MimeType string
	// Text is whatever commentary the model returned next to the image.
	Text string
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models    contentGenerator
	model     string
	imageSize string
	logger    *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(gc.Models, opts), nil
}

func newClient(models contentGenerator, opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultImageModel
	}

	imageSize := strings.TrimSpace(opts.ImageSize)
	if imageSize == "" {
		imageSize = DefaultImageSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		models:    models,
		model:     model,
		imageSize: imageSize,
		logger:    logger,
	}
}

func (c *Client) Model() string {
	return c.model
}

// GenerateImage asks for text and image output and returns the first inline
// image part of the response.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Image{}, errors.New("prompt is empty")
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   c.imageSize,
		},
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return Image{}, fmt.Errorf("generate content: %w", err)
	}

	img, err := firstImage(resp)
	if err != nil {
		return Image{}, err
	}

	c.logger.Debug("image generated",
		"model", c.model,
		"aspect_ratio", req.AspectRatio,
		"mime_type", img.MimeType,
		"bytes", len(img.Data),
	)
	return img, nil
}

func firstImage(resp *genai.GenerateContentResponse) (Image, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Image{}, fmt.Errorf("%w: no candidates", ErrNoImage)
	}

	var text strings.Builder
	var finish string
	for _, cand := range resp.Candidates {
		if finish == "" {
			finish = string(cand.FinishReason)
		}
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			if p.Text != "" && !p.Thought {
				text.WriteString(p.Text)
			}
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return Image{
					Data:     p.InlineData.Data,
					MimeType: p.InlineData.MIMEType,
					Text:     strings.TrimSpace(text.String()),
				}, nil
			}
		}
	}

	msg := strings.TrimSpace(text.String())
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return Image{}, fmt.Errorf("%w (finish reason %q): %s", ErrNoImage, finish, msg)
}

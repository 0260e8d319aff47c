package services

import (
	"context"
	"strings"

	"passkeeper/internal/logging"
)

// ImageGenerator produces an image URL for a text prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ImageService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type imageService struct {
	gen ImageGenerator
	log logging.Logger
}

func NewImageService(gen ImageGenerator, log logging.Logger) ImageService {
	return &imageService{gen: gen, log: log.With("module", "image")}
}

func (s *imageService) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", newError(ErrValidation, "prompt is required")
	}
	url, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.log.Error(ctx, "image generation failed", "error", err)
		return "", newError(ErrUpstream, "Image generation failed")
	}
	return url, nil
}

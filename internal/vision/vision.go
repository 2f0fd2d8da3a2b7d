// Package vision turns photos of handwritten or printed notes into task drafts.
package vision

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/llm"
)

// Image is an uploaded picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// Extractor reads the text out of an image.
type Extractor interface {
	ExtractText(ctx context.Context, img Image) (string, error)
}

// Stage is a named extractor in a Chain.
type Stage struct {
	Name      string
	Extractor Extractor
}

// Chain tries its stages in order and returns the first text extracted.
type Chain struct {
	stages []Stage
	log    *slog.Logger
}

// NewChain returns a Chain over stages. Nil extractors are skipped.
func NewChain(log *slog.Logger, stages ...Stage) *Chain {
	c := &Chain{log: log}
	for _, s := range stages {
		if s.Extractor != nil {
			c.stages = append(c.stages, s)
		}
	}
	return c
}

// Len returns the number of configured stages.
func (c *Chain) Len() int {
	return len(c.stages)
}

// ExtractText runs the stages in order. When every stage fails the last
// failure is returned, classified into a user-facing domain error.
func (c *Chain) ExtractText(ctx context.Context, img Image) (string, error) {
	if len(c.stages) == 0 {
		return "", domainerrors.Unavailable("Image text extraction is not configured")
	}

	var last error
	for _, s := range c.stages {
		text, err := s.Extractor.ExtractText(ctx, img)
		if err == nil {
			c.log.Debug("image text extracted", "stage", s.Name, "chars", len(text))
			return strings.TrimSpace(text), nil
		}
		last = Classify(err)
		c.log.Warn("image extraction stage failed",
			"stage", s.Name,
			"error", err,
		)
	}
	return "", last
}

// Classify maps an extraction failure onto a domain error with a message
// suitable for showing to the user. Domain errors pass through unchanged.
func Classify(err error) error {
	var de *domainerrors.Error
	if domainerrors.As(err, &de) {
		return de
	}

	switch code := llm.ErrorCode(err); {
	case code == "ValidationException":
		return domainerrors.Validation("Invalid image format. Please use JPG, PNG, GIF, or WebP images.").WithCause(err)
	case code == "AccessDeniedException":
		return domainerrors.Unavailable("Access denied to the vision model. Please check the AWS credentials and permissions.").WithCause(err)
	case code == "ThrottlingException":
		return domainerrors.RateLimited("Too many requests. Please wait a moment and try again.").WithCause(err)
	case code == "ModelNotReadyException", code == "ResourceNotFoundException",
		strings.Contains(strings.ToLower(err.Error()), "model"):
		return domainerrors.Unavailable("The vision model is temporarily unavailable. Please try again later.").WithCause(err)
	default:
		return domainerrors.Unavailable("Failed to process image with AI vision. Please try again.").WithCause(err)
	}
}

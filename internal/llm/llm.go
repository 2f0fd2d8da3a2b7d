// Package llm talks to hosted Anthropic models on Amazon Bedrock.
//
// Responses are free text. Callers are expected to validate and normalize
// whatever comes back; nothing here enforces a schema.
package llm

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"
)

// ErrEmptyResponse is returned when the model answers without any text block.
var ErrEmptyResponse = errors.New("no text content in model response")

// Image is an inline image sent to a vision-capable model.
type Image struct {
	Data      []byte
	MediaType string
}

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	Image     *Image
}

// Model completes a prompt.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ModelFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrorCode returns the service error code carried by err ("ThrottlingException", ...), or "".
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/llm"
	"github.com/Tomlord1122/smart-todo/internal/logger"
)

type extractorFunc func(ctx context.Context, img Image) (string, error)

func (f extractorFunc) ExtractText(ctx context.Context, img Image) (string, error) {
	return f(ctx, img)
}

func fixed(text string, err error) Extractor {
	return extractorFunc(func(context.Context, Image) (string, error) { return text, err })
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func TestChain_FirstSuccessWins(t *testing.T) {
	var altCalled bool
	chain := NewChain(logger.Discard(),
		Stage{Name: "primary", Extractor: fixed("  buy milk \n", nil)},
		Stage{Name: "alternate", Extractor: extractorFunc(func(context.Context, Image) (string, error) {
			altCalled = true
			return "", nil
		})},
	)

	text, err := chain.ExtractText(context.Background(), Image{})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", text)
	assert.False(t, altCalled)
}

func TestChain_FallsThrough(t *testing.T) {
	chain := NewChain(logger.Discard(),
		Stage{Name: "primary", Extractor: fixed("", apiError("ThrottlingException"))},
		Stage{Name: "alternate", Extractor: fixed("call mom", nil)},
	)
	text, err := chain.ExtractText(context.Background(), Image{})
	require.NoError(t, err)
	assert.Equal(t, "call mom", text)
}

func TestChain_AllFailReturnsLast(t *testing.T) {
	chain := NewChain(logger.Discard(),
		Stage{Name: "primary", Extractor: fixed("", apiError("AccessDeniedException"))},
		Stage{Name: "alternate", Extractor: fixed("", apiError("ThrottlingException"))},
		Stage{Name: "skipped", Extractor: nil},
	)
	assert.Equal(t, 2, chain.Len())

	_, err := chain.ExtractText(context.Background(), Image{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)
	assert.Equal(t, "ThrottlingException", llm.ErrorCode(err))
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain(logger.Discard()).ExtractText(context.Background(), Image{})
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code domainerrors.Code
	}{
		{"invalid image", apiError("ValidationException"), domainerrors.CodeValidation},
		{"access denied", apiError("AccessDeniedException"), domainerrors.CodeUnavailable},
		{"throttled", apiError("ThrottlingException"), domainerrors.CodeRateLimited},
		{"model not ready", apiError("ModelNotReadyException"), domainerrors.CodeUnavailable},
		{"mentions model", errors.New("model timeout"), domainerrors.CodeUnavailable},
		{"other", errors.New("boom"), domainerrors.CodeUnavailable},
		{"domain error passes through", ErrLowConfidence, domainerrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, domainerrors.CodeOf(Classify(tt.err)))
		})
	}

	var de *domainerrors.Error
	require.True(t, errors.As(Classify(apiError("ValidationException")), &de))
	assert.Contains(t, de.Message, "Invalid image format")
}

func TestModelExtractor(t *testing.T) {
	var got llm.Request
	model := llm.ModelFunc(func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return "1. buy milk", nil
	})

	text, err := NewPrimaryExtractor(model).ExtractText(context.Background(), Image{Data: []byte{1}, MIMEType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "1. buy milk", text)
	assert.Equal(t, 1000, got.MaxTokens)
	require.NotNil(t, got.Image)
	assert.Equal(t, "image/png", got.Image.MediaType)
	assert.Contains(t, got.Prompt, "extract all text")

	_, err = NewAlternateExtractor(model).ExtractText(context.Background(), Image{})
	require.NoError(t, err)
	assert.Equal(t, 800, got.MaxTokens)
}

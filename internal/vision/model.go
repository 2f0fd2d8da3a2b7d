package vision

import (
	"context"

	"github.com/Tomlord1122/smart-todo/internal/llm"
)

const (
	primaryPrompt = `Please extract all text from this image, especially focusing on todo items, tasks, or notes.

Here's what I need:
1. Extract ALL readable text, even if handwriting is messy
2. Preserve line breaks and formatting where possible
3. If you see bullet points, numbers, or task-like items, include them
4. Don't correct spelling - extract exactly what you see
5. If some text is unclear, make your best guess

Please provide only the extracted text, nothing else.`

	alternatePrompt = "Extract all text from this image. Focus on todo items, tasks, and notes. Include messy handwriting - make your best guess. Return only the extracted text."
)

// ModelExtractor asks a vision-capable model to transcribe the image.
type ModelExtractor struct {
	model     llm.Model
	prompt    string
	maxTokens int
}

// NewPrimaryExtractor returns the detailed transcription extractor.
func NewPrimaryExtractor(model llm.Model) *ModelExtractor {
	return &ModelExtractor{model: model, prompt: primaryPrompt, maxTokens: 1000}
}

// NewAlternateExtractor returns the shorter-prompt extractor meant for a cheaper model.
func NewAlternateExtractor(model llm.Model) *ModelExtractor {
	return &ModelExtractor{model: model, prompt: alternatePrompt, maxTokens: 800}
}

// ExtractText implements Extractor.
func (m *ModelExtractor) ExtractText(ctx context.Context, img Image) (string, error) {
	return m.model.Complete(ctx, llm.Request{
		Prompt:    m.prompt,
		MaxTokens: m.maxTokens,
		Image:     &llm.Image{Data: img.Data, MediaType: img.MIMEType},
	})
}

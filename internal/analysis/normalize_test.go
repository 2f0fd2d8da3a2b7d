package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tomlord1122/smart-todo/internal/domain"
)

func TestNormalize(t *testing.T) {
	valid := domain.Annotation{
		Category:     domain.CategoryShopping,
		Priority:     domain.Priority{Level: domain.PriorityHigh, Score: 99, Color: "pink"},
		Sentiment:    domain.Sentiment{Mood: domain.MoodNeutral},
		TimeEstimate: domain.TimeEstimate{Minutes: 600, Display: "forever", Confidence: "sure"},
	}

	got, ok := Normalize(valid)
	assert.True(t, ok)
	assert.Equal(t, domain.PriorityFor(domain.PriorityHigh), got.Priority)
	assert.Equal(t, domain.TimeEstimate{Minutes: 480, Display: "8h 0m", Confidence: domain.ConfidenceMedium}, got.TimeEstimate)
	assert.Equal(t, "😐", got.Sentiment.Emoji)
	assert.Equal(t, "#9E9E9E", got.Sentiment.Color)

	tests := []struct {
		name   string
		mutate func(a *domain.Annotation)
	}{
		{"unknown category", func(a *domain.Annotation) { a.Category = "Banana" }},
		{"empty category", func(a *domain.Annotation) { a.Category = "" }},
		{"unknown priority", func(a *domain.Annotation) { a.Priority.Level = "asap" }},
		{"missing priority", func(a *domain.Annotation) { a.Priority = domain.Priority{} }},
		{"unknown mood", func(a *domain.Annotation) { a.Sentiment.Mood = "ecstatic" }},
		{"no estimate", func(a *domain.Annotation) { a.TimeEstimate = domain.TimeEstimate{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			_, ok := Normalize(a)
			assert.False(t, ok)
		})
	}
}

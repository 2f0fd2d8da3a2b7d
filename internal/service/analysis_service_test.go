package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

func TestAnalysisService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ann, err := f.analysis.Analyze(ctx, AnalyzeRequest{Text: "Pay the electricity bill today"})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFinance, ann.Category)
	assert.Equal(t, domain.PriorityUrgent, ann.Priority.Level)

	split, err := f.analysis.Split(ctx, AnalyzeRequest{Text: "walk the dog and wash the car"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk the dog", "Wash the car"}, split.Todos)

	_, err = f.analysis.Analyze(ctx, AnalyzeRequest{Text: ""})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

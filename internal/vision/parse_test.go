package vision

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/smart-todo/internal/analysis"
	"github.com/Tomlord1122/smart-todo/internal/domain"
	"github.com/Tomlord1122/smart-todo/internal/logger"
)

type panickyAnnotator struct {
	inner Annotator
	bad   string
}

func (p panickyAnnotator) Analyze(ctx context.Context, text string) domain.Annotation {
	if text == p.bad {
		panic("analysis exploded")
	}
	return p.inner.Analyze(ctx, text)
}

func TestTaskLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "  \n\t ", nil},
		{"numbered", "1. Buy milk\n2. Call mom", []string{"Buy milk", "Call mom"}},
		{"inline numbers", "1) wash car 2) mow lawn", []string{"wash car", "mow lawn"}},
		{"bullets", "• eggs\n* bread\n- butter", []string{"eggs", "bread", "butter"}},
		{"header skipped", "TODO LIST\nfeed the cat", []string{"feed the cat"}},
		{"symbols and short lines dropped", "---\n42\nok\nwalk dog", []string{"walk dog"}},
		{"artifacts removed", "[x] pay rent |", []string{"x pay rent"}},
		{"decimal kept", "pay 3.50 fee", []string{"pay 3.50 fee"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaskLines(tt.text))
		})
	}
}

func TestParseTextToTodos(t *testing.T) {
	a := analysis.New(nil, logger.Discard())

	drafts := ParseTextToTodos(context.Background(), a, logger.Discard(), "1. Buy milk\n2. Call mom")
	require.Len(t, drafts, 2)
	assert.Equal(t, "Buy milk", drafts[0].Text)
	assert.Equal(t, domain.CategoryShopping, drafts[0].Category)
	assert.True(t, drafts[0].IsAnalyzed)
	assert.Equal(t, "Call mom", drafts[1].Text)
	assert.Equal(t, domain.CategoryPersonal, drafts[1].Category)

	assert.Empty(t, ParseTextToTodos(context.Background(), a, logger.Discard(), ""))
}

func TestParseTextToTodos_CapsAtTen(t *testing.T) {
	var lines []string
	for i := 1; i <= 15; i++ {
		lines = append(lines, fmt.Sprintf("task number %d", i))
	}
	drafts := ParseTextToTodos(context.Background(), analysis.New(nil, logger.Discard()), logger.Discard(), strings.Join(lines, "\n"))
	assert.Len(t, drafts, MaxDrafts)
}

func TestParseTextToTodos_IsolatesLineFailure(t *testing.T) {
	a := panickyAnnotator{inner: analysis.New(nil, logger.Discard()), bad: "buy urgent groceries"}

	drafts := ParseTextToTodos(context.Background(), a, logger.Discard(), "buy urgent groceries\nemail the client")
	require.Len(t, drafts, 2)
	assert.Equal(t, domain.CategoryPersonal, drafts[0].Category)
	assert.Equal(t, domain.PriorityUrgent, drafts[0].Priority.Level)
	assert.True(t, drafts[0].IsAnalyzed)
	assert.Equal(t, domain.CategoryWork, drafts[1].Category)
}

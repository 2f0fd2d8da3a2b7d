// Package search keeps an in-memory full-text index of task texts and
// answers type-ahead suggestion queries against it.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Tomlord1122/smart-todo/internal/domain"
)

const (
	fieldText   = "text"
	fieldUserID = "user_id"

	// MinQueryLength is the shortest query that produces suggestions.
	MinQueryLength = 2
	batchSize      = 500
)

// Index wraps a memory-only Bleve index of todos.
//
// All public methods are safe for concurrent use.
type Index struct {
	index bleve.Index
	log   *slog.Logger
	mu    sync.RWMutex
}

// document maps a todo onto the indexed field names.
func document(t *domain.Todo) map[string]any {
	return map[string]any{
		fieldText:   t.Text,
		fieldUserID: t.UserID,
	}
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = simple.Name
	textField.Store = true
	docMapping.AddFieldMappingsAt(fieldText, textField)

	userField := bleve.NewTextFieldMapping()
	userField.Analyzer = keyword.Name
	userField.Store = false
	docMapping.AddFieldMappingsAt(fieldUserID, userField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// New creates an empty index.
func New(log *slog.Logger) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx, log: log}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Count returns the number of indexed todos.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// IndexTodo adds or replaces a todo.
func (s *Index) IndexTodo(todo *domain.Todo) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(todo.ID, document(todo))
}

// IndexTodos indexes todos in batches.
func (s *Index) IndexTodos(todos []domain.Todo) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(todos); i += batchSize {
		end := min(i+batchSize, len(todos))
		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			t := &todos[j]
			if err := batch.Index(t.ID, document(t)); err != nil {
				return fmt.Errorf("batch index %s: %w", t.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("execute batch: %w", err)
		}
	}
	s.log.Info("search index rebuilt", "todos", len(todos))
	return nil
}

// Delete removes todos by id.
func (s *Index) Delete(ids ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// Suggest returns up to limit distinct texts of the user's todos that match
// q, tolerating one typo per word and completing the last word as a prefix.
func (s *Index) Suggest(ctx context.Context, userID, q string, limit int) ([]string, error) {
	q = strings.TrimSpace(q)
	if len(q) < MinQueryLength || limit <= 0 {
		return []string{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSuggestQuery(userID, q), limit*3, 0, false)
	req.Fields = []string{fieldText}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := []string{}
	seen := map[string]bool{}
	for _, hit := range res.Hits {
		text, ok := hit.Fields[fieldText].(string)
		if !ok {
			continue
		}
		key := strings.ToLower(text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, text)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func buildSuggestQuery(userID, q string) query.Query {
	owner := bleve.NewTermQuery(userID)
	owner.SetField(fieldUserID)

	match := bleve.NewMatchQuery(q)
	match.SetField(fieldText)
	match.SetBoost(2.0)

	fuzzy := bleve.NewMatchQuery(q)
	fuzzy.SetField(fieldText)
	fuzzy.SetFuzziness(1)

	words := strings.Fields(strings.ToLower(q))
	prefix := bleve.NewPrefixQuery(words[len(words)-1])
	prefix.SetField(fieldText)
	prefix.SetBoost(0.5)

	return bleve.NewConjunctionQuery(owner, bleve.NewDisjunctionQuery(match, fuzzy, prefix))
}

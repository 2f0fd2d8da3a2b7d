package service

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/Tomlord1122/smart-todo/internal/analysis"
	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/repository"
)

// SuggestionLimit is how many previous task texts Suggestions returns at most.
const SuggestionLimit = 5

// Input/Output structs keep the HTTP layer decoupled from the domain and
// database models.

// CreateTodoRequest holds the data needed to create a new todo.
type CreateTodoRequest struct {
	Text         string  `json:"text" validate:"required,max=1000"`
	SharedListID *string `json:"sharedListId,omitempty"`
	// PreAnalyzed carries an annotation computed earlier, e.g. by image extraction.
	// It is only trusted when IsAnalyzed is set.
	PreAnalyzed *domain.Draft `json:"preAnalyzed,omitempty"`
	// Split creates one todo per task found in Text.
	Split bool `json:"split,omitempty"`
}

// UpdateTodoRequest uses pointers to tell an omitted field from a zero value.
type UpdateTodoRequest struct {
	Text      *string `json:"text" validate:"omitempty,max=1000"`
	Completed *bool   `json:"completed"`
}

// CreateSubtaskRequest holds the text of a new subtask.
type CreateSubtaskRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// AdminUpdateTodoRequest is the only change an admin may make to another user's todo.
type AdminUpdateTodoRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// TodoResponse is the standard representation of a Todo returned by the service.
type TodoResponse struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	Text         string              `json:"text"`
	Completed    bool                `json:"completed"`
	Category     domain.Category     `json:"category"`
	Priority     domain.Priority     `json:"priority"`
	Sentiment    domain.Sentiment    `json:"sentiment"`
	TimeEstimate domain.TimeEstimate `json:"timeEstimate"`
	ParentID     *string             `json:"parentId,omitempty"`
	SubtaskIDs   []string            `json:"subtaskIds"`
	SharedListID *string             `json:"sharedListId,omitempty"`
	CreatedAt    string              `json:"createdAt"`
	UpdatedAt    string              `json:"updatedAt"`
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// SentimentOverview summarizes the mood of the pending tasks.
type SentimentOverview struct {
	Mood    string  `json:"mood"`
	Message string  `json:"message"`
	Average float64 `json:"average"`
}

// SubtaskProgress reports how far a parent's subtasks are done.
type SubtaskProgress struct {
	TodoID    string `json:"todoId"`
	Text      string `json:"text"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// InsightsResponse aggregates the incomplete todos of a scope.
type InsightsResponse struct {
	Pending      int                          `json:"pending"`
	Categories   []CategoryCount              `json:"categories"`
	Priorities   map[domain.PriorityLevel]int `json:"priorities"`
	Sentiment    SentimentOverview            `json:"sentiment"`
	TotalMinutes int                          `json:"totalMinutes"`
	TotalTime    string                       `json:"totalTime"`
	Subtasks     []SubtaskProgress            `json:"subtasks"`
}

// TodoService defines the operations for managing todos.
type TodoService interface {
	// CreateTodo creates one todo, annotating it unless a pre-analyzed annotation is supplied.
	CreateTodo(ctx context.Context, caller domain.Profile, req CreateTodoRequest) (*TodoResponse, error)

	// CreateSplitTodos splits the request text into separate tasks and creates each in turn.
	CreateSplitTodos(ctx context.Context, caller domain.Profile, req CreateTodoRequest) ([]TodoResponse, error)

	GetTodo(ctx context.Context, caller domain.Profile, id string) (*TodoResponse, error)

	// ListTodos lists the caller's personal todos, or every todo of a shared list when sharedListID is set.
	ListTodos(ctx context.Context, caller domain.Profile, sharedListID string) ([]TodoResponse, error)

	UpdateTodo(ctx context.Context, caller domain.Profile, id string, req UpdateTodoRequest) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, caller domain.Profile, id string) error
	Reanalyze(ctx context.Context, caller domain.Profile, id string) (*TodoResponse, error)

	CreateSubtask(ctx context.Context, caller domain.Profile, parentID string, req CreateSubtaskRequest) (*TodoResponse, error)
	ListSubtasks(ctx context.Context, caller domain.Profile, parentID string) ([]TodoResponse, error)
	DeleteSubtask(ctx context.Context, caller domain.Profile, parentID, subtaskID string) error

	Insights(ctx context.Context, caller domain.Profile, sharedListID string) (*InsightsResponse, error)
	Suggestions(ctx context.Context, caller domain.Profile, q string) ([]string, error)

	ListAllTodos(ctx context.Context, caller domain.Profile) ([]TodoResponse, error)
	ListTodosByUser(ctx context.Context, caller domain.Profile, userID string) ([]TodoResponse, error)
	AdminUpdateTodo(ctx context.Context, caller domain.Profile, userID, id string, req AdminUpdateTodoRequest) (*TodoResponse, error)
	AdminDeleteTodo(ctx context.Context, caller domain.Profile, userID, id string) error

	// RebuildIndex reloads the suggestion index from the store.
	RebuildIndex(ctx context.Context) error
}

type todoService struct {
	repo     repository.TodoRepository
	lists    SharedListService
	analyzer TextAnalyzer
	index    SuggestionIndex
	validate Validator
	log      *slog.Logger
}

// NewTodoService creates a todo service. index may be nil, which disables suggestions.
func NewTodoService(repo repository.TodoRepository, lists SharedListService, analyzer TextAnalyzer, index SuggestionIndex, v Validator, log *slog.Logger) TodoService {
	return &todoService{
		repo:     repo,
		lists:    lists,
		analyzer: analyzer,
		index:    index,
		validate: v,
		log:      log,
	}
}

func toTodoResponse(t *domain.Todo) TodoResponse {
	subtasks := []string(t.SubtaskIDs)
	if subtasks == nil {
		subtasks = []string{}
	}
	return TodoResponse{
		ID:           t.ID,
		UserID:       t.UserID,
		Text:         t.Text,
		Completed:    t.Completed,
		Category:     t.Category,
		Priority:     t.Priority,
		Sentiment:    t.Sentiment,
		TimeEstimate: t.TimeEstimate,
		ParentID:     t.ParentID,
		SubtaskIDs:   subtasks,
		SharedListID: t.SharedListID,
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
	}
}

func toTodoResponses(todos []domain.Todo) []TodoResponse {
	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, toTodoResponse(&todos[i]))
	}
	return responses
}

// annotation returns the pre-analyzed annotation when it is well formed, else
// runs the analyzer. Drafts come from the client and are never stored as sent.
func (s *todoService) annotation(ctx context.Context, text string, pre *domain.Draft) domain.Annotation {
	if pre != nil && pre.IsAnalyzed {
		if ann, ok := analysis.Normalize(pre.Annotation); ok {
			return ann
		}
		s.log.Debug("discarding malformed draft annotation", "category", pre.Category, "priority", pre.Priority.Level)
	}
	return s.analyzer.Analyze(ctx, text)
}

// listScope checks the caller may work in sharedListID. An empty id is the personal scope.
func (s *todoService) listScope(ctx context.Context, caller domain.Profile, sharedListID *string, edit bool) error {
	if sharedListID == nil || *sharedListID == "" {
		return nil
	}
	_, perm, err := s.lists.Access(ctx, caller, *sharedListID)
	if err != nil {
		return err
	}
	if edit && !perm.CanEdit() {
		return domainerrors.Forbidden("You do not have permission to edit this list")
	}
	return nil
}

// resolve loads a todo the caller may see, or edit when edit is set.
// Another user's personal todo is reported as not found.
func (s *todoService) resolve(ctx context.Context, caller domain.Profile, id string, edit bool) (*domain.Todo, error) {
	todo, err := s.repo.FindAnyByID(ctx, id)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to retrieve todo", "todo_id", id)
	}
	if todo.SharedListID != nil && *todo.SharedListID != "" {
		if err := s.listScope(ctx, caller, todo.SharedListID, edit); err != nil {
			return nil, err
		}
		return todo, nil
	}
	if todo.UserID != caller.UserID {
		return nil, domainerrors.NotFound("Todo not found")
	}
	return todo, nil
}

func (s *todoService) indexTodo(todo *domain.Todo) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexTodo(todo); err != nil {
		s.log.Warn("failed to index todo", "todo_id", todo.ID, "error", err)
	}
}

func (s *todoService) unindex(ids ...string) {
	if s.index == nil || len(ids) == 0 {
		return
	}
	if err := s.index.Delete(ids...); err != nil {
		s.log.Warn("failed to remove todos from index", "todo_ids", ids, "error", err)
	}
}

func (s *todoService) CreateTodo(ctx context.Context, caller domain.Profile, req CreateTodoRequest) (*TodoResponse, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.listScope(ctx, caller, req.SharedListID, true); err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		ID:     uuid.NewString(),
		UserID: caller.UserID,
		Text:   req.Text,
	}
	if req.SharedListID != nil && *req.SharedListID != "" {
		todo.SharedListID = req.SharedListID
	}
	todo.Annotate(s.annotation(ctx, req.Text, req.PreAnalyzed))

	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, storeError(s.log, err, "Failed to create todo", "user_id", caller.UserID)
	}
	s.indexTodo(todo)

	resp := toTodoResponse(todo)
	return &resp, nil
}

// CreateSplitTodos stops at the first failed create and returns that error.
func (s *todoService) CreateSplitTodos(ctx context.Context, caller domain.Profile, req CreateTodoRequest) ([]TodoResponse, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	parts := analysis.SplitMultipleTodos(req.Text)
	created := make([]TodoResponse, 0, len(parts))
	for _, part := range parts {
		one := CreateTodoRequest{Text: part, SharedListID: req.SharedListID}
		resp, err := s.CreateTodo(ctx, caller, one)
		if err != nil {
			return nil, err
		}
		created = append(created, *resp)
	}
	return created, nil
}

func (s *todoService) GetTodo(ctx context.Context, caller domain.Profile, id string) (*TodoResponse, error) {
	todo, err := s.resolve(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}
	resp := toTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) ListTodos(ctx context.Context, caller domain.Profile, sharedListID string) ([]TodoResponse, error) {
	todos, err := s.scope(ctx, caller, sharedListID)
	if err != nil {
		return nil, err
	}
	return toTodoResponses(todos), nil
}

func (s *todoService) scope(ctx context.Context, caller domain.Profile, sharedListID string) ([]domain.Todo, error) {
	if sharedListID == "" {
		todos, err := s.repo.ListByOwner(ctx, caller.UserID)
		if err != nil {
			return nil, storeError(s.log, err, "Failed to retrieve todos", "user_id", caller.UserID)
		}
		return todos, nil
	}

	if err := s.listScope(ctx, caller, &sharedListID, false); err != nil {
		return nil, err
	}
	todos, err := s.repo.ListBySharedList(ctx, sharedListID)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to retrieve todos", "list_id", sharedListID)
	}
	return todos, nil
}

// UpdateTodo re-runs analysis only when the text actually changes.
func (s *todoService) UpdateTodo(ctx context.Context, caller domain.Profile, id string, req UpdateTodoRequest) (*TodoResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	todo, err := s.resolve(ctx, caller, id, true)
	if err != nil {
		return nil, err
	}

	var fields domain.TodoFields
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		if text == "" {
			return nil, domainerrors.Validation("Todo text cannot be empty")
		}
		if text != todo.Text {
			ann := s.analyzer.Analyze(ctx, text)
			fields.Text = &text
			fields.Annotation = &ann
		}
	}
	if req.Completed != nil && *req.Completed != todo.Completed {
		fields.Completed = req.Completed
	}

	if fields.IsEmpty() {
		resp := toTodoResponse(todo)
		return &resp, nil
	}

	updated, err := s.repo.Update(ctx, todo.UserID, todo.ID, fields)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to update todo", "todo_id", id)
	}
	if fields.Text != nil {
		s.indexTodo(updated)
	}

	resp := toTodoResponse(updated)
	return &resp, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, caller domain.Profile, id string) error {
	todo, err := s.resolve(ctx, caller, id, true)
	if err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, todo.UserID, todo.ID)
	if err != nil {
		return storeError(s.log, err, "Failed to delete todo", "todo_id", id)
	}
	s.unindex(removed...)
	return nil
}

func (s *todoService) Reanalyze(ctx context.Context, caller domain.Profile, id string) (*TodoResponse, error) {
	todo, err := s.resolve(ctx, caller, id, true)
	if err != nil {
		return nil, err
	}
	ann := s.analyzer.Analyze(ctx, todo.Text)
	updated, err := s.repo.Update(ctx, todo.UserID, todo.ID, domain.TodoFields{Annotation: &ann})
	if err != nil {
		return nil, storeError(s.log, err, "Failed to update todo", "todo_id", id)
	}
	resp := toTodoResponse(updated)
	return &resp, nil
}

// CreateSubtask places the child in the parent's owner and list context.
func (s *todoService) CreateSubtask(ctx context.Context, caller domain.Profile, parentID string, req CreateSubtaskRequest) (*TodoResponse, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	parent, err := s.resolve(ctx, caller, parentID, true)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Parent todo not found")
		}
		return nil, err
	}
	if parent.IsSubtask() {
		return nil, domainerrors.Validation("Subtasks cannot have subtasks")
	}

	child := &domain.Todo{
		ID:           uuid.NewString(),
		UserID:       parent.UserID,
		Text:         req.Text,
		ParentID:     &parent.ID,
		SharedListID: parent.SharedListID,
	}
	child.Annotate(s.analyzer.Analyze(ctx, req.Text))

	if err := s.repo.CreateSubtask(ctx, child); err != nil {
		return nil, storeError(s.log, err, "Failed to create subtask", "parent_id", parentID)
	}
	s.indexTodo(child)

	resp := toTodoResponse(child)
	return &resp, nil
}

func (s *todoService) ListSubtasks(ctx context.Context, caller domain.Profile, parentID string) ([]TodoResponse, error) {
	parent, err := s.resolve(ctx, caller, parentID, false)
	if err != nil {
		return nil, err
	}
	children, err := s.repo.ListByParent(ctx, parent.ID)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to retrieve subtasks", "parent_id", parentID)
	}
	return toTodoResponses(children), nil
}

func (s *todoService) DeleteSubtask(ctx context.Context, caller domain.Profile, parentID, subtaskID string) error {
	parent, err := s.resolve(ctx, caller, parentID, true)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSubtask(ctx, parent.UserID, parent.ID, subtaskID); err != nil {
		return storeError(s.log, err, "Failed to delete subtask", "parent_id", parentID, "subtask_id", subtaskID)
	}
	s.unindex(subtaskID)
	return nil
}

func (s *todoService) Insights(ctx context.Context, caller domain.Profile, sharedListID string) (*InsightsResponse, error) {
	todos, err := s.scope(ctx, caller, sharedListID)
	if err != nil {
		return nil, err
	}
	insights := computeInsights(todos)
	return &insights, nil
}

func computeInsights(todos []domain.Todo) InsightsResponse {
	out := InsightsResponse{
		Categories: []CategoryCount{},
		Priorities: map[domain.PriorityLevel]int{},
		Subtasks:   []SubtaskProgress{},
	}
	for _, level := range domain.PriorityLevels {
		out.Priorities[level] = 0
	}

	byCategory := map[domain.Category]int{}
	byID := make(map[string]*domain.Todo, len(todos))
	sentimentSum := 0.0
	for i := range todos {
		t := &todos[i]
		byID[t.ID] = t
		if t.Completed {
			continue
		}
		out.Pending++
		byCategory[t.Category]++
		if t.Priority.Level != "" {
			out.Priorities[t.Priority.Level]++
		}
		sentimentSum += t.Sentiment.Score
		out.TotalMinutes += t.TimeEstimate.Minutes
	}

	for _, c := range domain.Categories {
		if n := byCategory[c]; n > 0 {
			out.Categories = append(out.Categories, CategoryCount{Category: c, Count: n})
		}
	}
	slices.SortStableFunc(out.Categories, func(a, b CategoryCount) int {
		return b.Count - a.Count
	})

	out.TotalTime = analysis.FormatMinutes(out.TotalMinutes)
	out.Sentiment = sentimentOverview(sentimentSum, out.Pending)

	for i := range todos {
		parent := &todos[i]
		if len(parent.SubtaskIDs) == 0 {
			continue
		}
		p := SubtaskProgress{TodoID: parent.ID, Text: parent.Text}
		for _, id := range parent.SubtaskIDs {
			child, ok := byID[id]
			if !ok {
				continue
			}
			p.Total++
			if child.Completed {
				p.Completed++
			}
		}
		if p.Total > 0 {
			p.Percent = int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
		}
		out.Subtasks = append(out.Subtasks, p)
	}
	return out
}

func sentimentOverview(sum float64, n int) SentimentOverview {
	if n == 0 {
		return SentimentOverview{Mood: "neutral", Message: "Nothing pending"}
	}
	avg := sum / float64(n)
	switch {
	case avg > 1:
		return SentimentOverview{Mood: "positive", Message: "Great vibes today!", Average: avg}
	case avg < -1:
		return SentimentOverview{Mood: "stressful", Message: "Challenging tasks ahead", Average: avg}
	default:
		return SentimentOverview{Mood: "balanced", Message: "Balanced workload", Average: avg}
	}
}

func (s *todoService) Suggestions(ctx context.Context, caller domain.Profile, q string) ([]string, error) {
	if s.index == nil {
		return []string{}, nil
	}
	out, err := s.index.Suggest(ctx, caller.UserID, q, SuggestionLimit)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to load suggestions", "user_id", caller.UserID)
	}
	return out, nil
}

func (s *todoService) ListAllTodos(ctx context.Context, caller domain.Profile) ([]TodoResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	todos, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to retrieve todos")
	}
	return toTodoResponses(todos), nil
}

func (s *todoService) ListTodosByUser(ctx context.Context, caller domain.Profile, userID string) ([]TodoResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	todos, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to retrieve todos", "user_id", userID)
	}
	return toTodoResponses(todos), nil
}

func (s *todoService) AdminUpdateTodo(ctx context.Context, caller domain.Profile, userID, id string, req AdminUpdateTodoRequest) (*TodoResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, userID, id, domain.TodoFields{Completed: req.Completed})
	if err != nil {
		return nil, storeError(s.log, err, "Failed to update todo", "user_id", userID, "todo_id", id)
	}
	s.log.Info("admin updated todo", "admin_id", caller.UserID, "user_id", userID, "todo_id", id)
	resp := toTodoResponse(updated)
	return &resp, nil
}

func (s *todoService) AdminDeleteTodo(ctx context.Context, caller domain.Profile, userID, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return storeError(s.log, err, "Failed to delete todo", "user_id", userID, "todo_id", id)
	}
	s.unindex(removed...)
	s.log.Info("admin deleted todo", "admin_id", caller.UserID, "user_id", userID, "todo_id", id)
	return nil
}

func (s *todoService) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	todos, err := s.repo.ScanAll(ctx)
	if err != nil {
		return storeError(s.log, err, "Failed to load todos for indexing")
	}
	if err := s.index.IndexTodos(todos); err != nil {
		return domainerrors.Internal("Failed to build suggestion index", err)
	}
	s.log.Info("suggestion index rebuilt", "todos", len(todos))
	return nil
}

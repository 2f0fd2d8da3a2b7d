package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

// TodoRepository defines the interface for todo data operations.
// Todos are addressed by (owning user id, todo id).
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	FindByID(ctx context.Context, userID, id string) (*domain.Todo, error)
	FindAnyByID(ctx context.Context, id string) (*domain.Todo, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error)
	ListBySharedList(ctx context.Context, listID string) ([]domain.Todo, error)
	ListByParent(ctx context.Context, parentID string) ([]domain.Todo, error)
	ScanAll(ctx context.Context) ([]domain.Todo, error)
	Update(ctx context.Context, userID, id string, fields domain.TodoFields) (*domain.Todo, error)
	// Delete removes the todo and its subtasks and returns every removed id.
	Delete(ctx context.Context, userID, id string) ([]string, error)
	CreateSubtask(ctx context.Context, child *domain.Todo) error
	DeleteSubtask(ctx context.Context, userID, parentID, childID string) error
}

var errTodoNotFound = domainerrors.NotFound("Todo not found")

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *gormTodoRepository) FindByID(ctx context.Context, userID, id string) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&todo).Error
	if err != nil {
		return nil, notFound(err, errTodoNotFound, "find todo")
	}
	return &todo, nil
}

func (r *gormTodoRepository) FindAnyByID(ctx context.Context, id string) (*domain.Todo, error) {
	var todo domain.Todo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&todo).Error; err != nil {
		return nil, notFound(err, errTodoNotFound, "find todo")
	}
	return &todo, nil
}

// ListByOwner returns the user's personal todos, subtasks included, newest first.
func (r *gormTodoRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error) {
	return r.list(ctx, "list todos", "user_id = ? AND shared_list_id IS NULL", userID)
}

func (r *gormTodoRepository) ListBySharedList(ctx context.Context, listID string) ([]domain.Todo, error) {
	return r.list(ctx, "list shared todos", "shared_list_id = ?", listID)
}

func (r *gormTodoRepository) ListByParent(ctx context.Context, parentID string) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("created_at ASC").Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return todos, nil
}

// ScanAll reads the whole table.
func (r *gormTodoRepository) ScanAll(ctx context.Context) ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("scan todos: %w", err)
	}
	return todos, nil
}

func (r *gormTodoRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := r.db.WithContext(ctx).Where(query, args...).Order("created_at DESC").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return todos, nil
}

// Update writes only the fields that are set, plus updated_at, and returns the stored row.
func (r *gormTodoRepository) Update(ctx context.Context, userID, id string, fields domain.TodoFields) (*domain.Todo, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if fields.Text != nil {
		updates["text"] = *fields.Text
	}
	if fields.Completed != nil {
		updates["completed"] = *fields.Completed
	}
	if a := fields.Annotation; a != nil {
		updates["category"] = a.Category
		updates["priority"] = a.Priority
		updates["sentiment"] = a.Sentiment
		updates["time_estimate"] = a.TimeEstimate
	}
	if fields.SubtaskIDs != nil {
		updates["subtask_ids"] = *fields.SubtaskIDs
	}

	var todos []domain.Todo
	res := r.db.WithContext(ctx).Model(&todos).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update todo: %w", res.Error)
	}
	if res.RowsAffected == 0 || len(todos) == 0 {
		return nil, errTodoNotFound
	}
	return &todos[0], nil
}

func (r *gormTodoRepository) Delete(ctx context.Context, userID, id string) ([]string, error) {
	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var todo domain.Todo
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&todo).Error; err != nil {
			return notFound(err, errTodoNotFound, "find todo")
		}

		var children []domain.Todo
		if err := tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
			Where("parent_id = ?", id).Delete(&children).Error; err != nil {
			return fmt.Errorf("delete subtasks: %w", err)
		}
		if err := tx.Delete(&domain.Todo{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete todo: %w", err)
		}

		if todo.IsSubtask() {
			if err := unlinkChild(tx, *todo.ParentID, id); err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
				return err
			}
		}

		removed = append(removed, id)
		for _, c := range children {
			removed = append(removed, c.ID)
		}
		return nil
	})
	return removed, err
}

// CreateSubtask inserts child and appends its id to the parent's ordered
// subtask list in one transaction. child.ParentID and child.UserID must be set.
func (r *gormTodoRepository) CreateSubtask(ctx context.Context, child *domain.Todo) error {
	if !child.IsSubtask() {
		return domainerrors.Validation("Subtask requires a parent")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent, err := lockParent(tx, child.UserID, *child.ParentID)
		if err != nil {
			return err
		}
		if err := tx.Create(child).Error; err != nil {
			return fmt.Errorf("create subtask: %w", err)
		}
		ids := append(parent.SubtaskIDs, child.ID)
		return tx.Model(&domain.Todo{}).Where("id = ?", parent.ID).
			Updates(map[string]any{"subtask_ids": ids, "updated_at": time.Now()}).Error
	})
}

func (r *gormTodoRepository) DeleteSubtask(ctx context.Context, userID, parentID, childID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockParent(tx, userID, parentID); err != nil {
			return err
		}
		res := tx.Where("id = ? AND parent_id = ?", childID, parentID).Delete(&domain.Todo{})
		if res.Error != nil {
			return fmt.Errorf("delete subtask: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domainerrors.NotFound("Subtask not found")
		}
		return unlinkChild(tx, parentID, childID)
	})
}

func lockParent(tx *gorm.DB, userID, parentID string) (*domain.Todo, error) {
	var parent domain.Todo
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", parentID, userID).
		First(&parent).Error
	if err != nil {
		return nil, notFound(err, domainerrors.NotFound("Parent todo not found"), "find parent todo")
	}
	return &parent, nil
}

func unlinkChild(tx *gorm.DB, parentID, childID string) error {
	var parent domain.Todo
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", parentID).First(&parent).Error
	if err != nil {
		return notFound(err, domainerrors.NotFound("Parent todo not found"), "find parent todo")
	}
	return tx.Model(&domain.Todo{}).Where("id = ?", parentID).
		Updates(map[string]any{"subtask_ids": parent.SubtaskIDs.Without(childID), "updated_at": time.Now()}).Error
}

// notFound turns gorm.ErrRecordNotFound into nf and wraps anything else.
func notFound(err error, nf *domainerrors.Error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return fmt.Errorf("%s: %w", op, err)
}

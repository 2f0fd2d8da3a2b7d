package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

// SharedListRepository stores shared lists keyed by list id.
type SharedListRepository interface {
	Create(ctx context.Context, list *domain.SharedList) error
	FindByID(ctx context.Context, id string) (*domain.SharedList, error)
	ScanAll(ctx context.Context) ([]domain.SharedList, error)
	UpdateMembers(ctx context.Context, id string, members domain.StringList, perms domain.PermissionMap) (*domain.SharedList, error)
}

var errListNotFound = domainerrors.NotFound("Shared list not found")

type gormSharedListRepository struct {
	db *gorm.DB
}

// NewGormSharedListRepository creates a new GORM shared list repository
func NewGormSharedListRepository(db *gorm.DB) SharedListRepository {
	return &gormSharedListRepository{db: db}
}

func (r *gormSharedListRepository) Create(ctx context.Context, list *domain.SharedList) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("create shared list: %w", err)
	}
	return nil
}

func (r *gormSharedListRepository) FindByID(ctx context.Context, id string) (*domain.SharedList, error) {
	var list domain.SharedList
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		return nil, notFound(err, errListNotFound, "find shared list")
	}
	return &list, nil
}

// ScanAll reads every list; membership filtering happens in the caller.
func (r *gormSharedListRepository) ScanAll(ctx context.Context) ([]domain.SharedList, error) {
	var lists []domain.SharedList
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("scan shared lists: %w", err)
	}
	return lists, nil
}

func (r *gormSharedListRepository) UpdateMembers(ctx context.Context, id string, members domain.StringList, perms domain.PermissionMap) (*domain.SharedList, error) {
	var lists []domain.SharedList
	res := r.db.WithContext(ctx).Model(&lists).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"members":     members,
			"permissions": perms,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update shared list members: %w", res.Error)
	}
	if res.RowsAffected == 0 || len(lists) == 0 {
		return nil, errListNotFound
	}
	return &lists[0], nil
}

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

// UserRepository stores accounts keyed by normalized email.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUserID(ctx context.Context, userID string) (*domain.User, error)
	ScanAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, email string, fields domain.UserFields) (*domain.User, error)
	Delete(ctx context.Context, email string) error
}

var errUserNotFound = domainerrors.NotFound("User not found")

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM user repository
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.AlreadyExists("User already exists with this email")
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, notFound(err, errUserNotFound, "find user")
	}
	return &user, nil
}

func (r *gormUserRepository) FindByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err, errUserNotFound, "find user")
	}
	return &user, nil
}

func (r *gormUserRepository) ScanAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

func (r *gormUserRepository) Update(ctx context.Context, email string, fields domain.UserFields) (*domain.User, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if fields.Name != nil {
		updates["name"] = *fields.Name
	}
	if fields.PasswordHash != nil {
		updates["password_hash"] = *fields.PasswordHash
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}
	if fields.IsAdmin != nil {
		updates["is_admin"] = *fields.IsAdmin
	}

	var users []domain.User
	res := r.db.WithContext(ctx).Model(&users).
		Clauses(clause.Returning{}).
		Where("email = ?", domain.NormalizeEmail(email)).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 || len(users) == 0 {
		return nil, errUserNotFound
	}
	return &users[0], nil
}

func (r *gormUserRepository) Delete(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).Delete(&domain.User{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/repository"
)

// CreateSharedListRequest holds the data needed to create a shared list.
type CreateSharedListRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

// AddMemberRequest invites an existing user to a list by email.
type AddMemberRequest struct {
	Email      string            `json:"email" validate:"required,email"`
	Permission domain.Permission `json:"permission" validate:"required,oneof=editor viewer"`
}

// SharedListResponse is the representation of a shared list returned by the service.
type SharedListResponse struct {
	ID          string                       `json:"id"`
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	OwnerID     string                       `json:"ownerId"`
	Members     []string                     `json:"members"`
	Permissions map[string]domain.Permission `json:"permissions"`
	CreatedAt   string                       `json:"createdAt"`
	UpdatedAt   string                       `json:"updatedAt"`
}

// SharedListService manages shared lists and answers membership questions
// for the todo service.
type SharedListService interface {
	CreateSharedList(ctx context.Context, caller domain.Profile, req CreateSharedListRequest) (*SharedListResponse, error)
	ListSharedLists(ctx context.Context, caller domain.Profile) ([]SharedListResponse, error)
	AddMember(ctx context.Context, caller domain.Profile, listID string, req AddMemberRequest) (*SharedListResponse, error)

	// Access returns the list and the caller's permission on it.
	// Non-members get FORBIDDEN.
	Access(ctx context.Context, caller domain.Profile, listID string) (*domain.SharedList, domain.Permission, error)
}

type sharedListService struct {
	lists    repository.SharedListRepository
	users    repository.UserRepository
	validate Validator
	log      *slog.Logger
}

// NewSharedListService creates a shared list service.
func NewSharedListService(lists repository.SharedListRepository, users repository.UserRepository, v Validator, log *slog.Logger) SharedListService {
	return &sharedListService{lists: lists, users: users, validate: v, log: log}
}

func toSharedListResponse(l *domain.SharedList) SharedListResponse {
	members := []string(l.Members)
	if members == nil {
		members = []string{}
	}
	perms := map[string]domain.Permission(l.Permissions)
	if perms == nil {
		perms = map[string]domain.Permission{}
	}
	return SharedListResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		OwnerID:     l.OwnerID,
		Members:     members,
		Permissions: perms,
		CreatedAt:   formatTime(l.CreatedAt),
		UpdatedAt:   formatTime(l.UpdatedAt),
	}
}

func (s *sharedListService) CreateSharedList(ctx context.Context, caller domain.Profile, req CreateSharedListRequest) (*SharedListResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	list := &domain.SharedList{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     caller.UserID,
	}
	list.AddMember(caller.UserID, domain.PermissionOwner)

	if err := s.lists.Create(ctx, list); err != nil {
		return nil, storeError(s.log, err, "Failed to create shared list", "user_id", caller.UserID)
	}
	s.log.Info("shared list created", "list_id", list.ID, "owner_id", caller.UserID)

	resp := toSharedListResponse(list)
	return &resp, nil
}

// ListSharedLists scans every list and keeps those the caller belongs to.
func (s *sharedListService) ListSharedLists(ctx context.Context, caller domain.Profile) ([]SharedListResponse, error) {
	lists, err := s.lists.ScanAll(ctx)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to retrieve shared lists", "user_id", caller.UserID)
	}

	responses := make([]SharedListResponse, 0, len(lists))
	for i := range lists {
		if lists[i].Members.Contains(caller.UserID) {
			responses = append(responses, toSharedListResponse(&lists[i]))
		}
	}
	return responses, nil
}

func (s *sharedListService) AddMember(ctx context.Context, caller domain.Profile, listID string, req AddMemberRequest) (*SharedListResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	list, err := s.find(ctx, listID)
	if err != nil {
		return nil, err
	}
	if p, ok := list.PermissionOf(caller.UserID); !ok || p != domain.PermissionOwner {
		return nil, domainerrors.Forbidden("Only list owners can add members")
	}

	member, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("No user found with that email")
		}
		return nil, storeError(s.log, err, "Failed to look up user", "list_id", listID)
	}
	if member.UserID == list.OwnerID {
		return nil, domainerrors.Validation("The list owner is already a member")
	}

	list.AddMember(member.UserID, req.Permission)
	updated, err := s.lists.UpdateMembers(ctx, list.ID, list.Members, list.Permissions)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to add member", "list_id", listID)
	}
	s.log.Info("shared list member added",
		"list_id", listID,
		"member_id", member.UserID,
		"permission", req.Permission,
	)

	resp := toSharedListResponse(updated)
	return &resp, nil
}

func (s *sharedListService) Access(ctx context.Context, caller domain.Profile, listID string) (*domain.SharedList, domain.Permission, error) {
	list, err := s.find(ctx, listID)
	if err != nil {
		return nil, "", err
	}
	p, ok := list.PermissionOf(caller.UserID)
	if !ok {
		return nil, "", domainerrors.Forbidden("You are not a member of this list")
	}
	return list, p, nil
}

func (s *sharedListService) find(ctx context.Context, listID string) (*domain.SharedList, error) {
	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Shared list not found")
		}
		return nil, storeError(s.log, err, "Failed to retrieve shared list", "list_id", listID)
	}
	return list, nil
}

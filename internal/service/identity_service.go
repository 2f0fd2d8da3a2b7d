package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/smart-todo/internal/auth"
	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/localstore"
	"github.com/Tomlord1122/smart-todo/internal/repository"
)

// SignUpRequest holds the data needed to register an account.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"max=120"`
}

// SignInRequest holds credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes the caller's display name.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// AdminUpdateUserRequest is a partial account update made by an admin.
type AdminUpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// SessionResponse is returned on sign-up and sign-in.
type SessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt string         `json:"expiresAt"`
	User      domain.Profile `json:"user"`
}

// IdentityService manages accounts, sessions and preference flags.
type IdentityService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*SessionResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*SessionResponse, error)
	SignOut(ctx context.Context, session *domain.Session) error

	// Authenticate resolves a bearer token to its cached session.
	Authenticate(ctx context.Context, token string) (*domain.Session, error)

	Me(ctx context.Context, session *domain.Session) domain.Profile
	UpdateProfile(ctx context.Context, session *domain.Session, req UpdateProfileRequest) (*domain.Profile, error)

	GetPreferences(ctx context.Context, caller domain.Profile) (map[string]any, error)
	SetPreferences(ctx context.Context, caller domain.Profile, prefs map[string]any) (map[string]any, error)

	ListUsers(ctx context.Context, caller domain.Profile) ([]domain.Profile, error)
	UpdateUserAdmin(ctx context.Context, caller domain.Profile, email string, req AdminUpdateUserRequest) (*domain.Profile, error)
	DeleteUser(ctx context.Context, caller domain.Profile, email string) error
	SetAdminStatus(ctx context.Context, caller domain.Profile, email string, isAdmin bool) (*domain.Profile, error)
}

type identityService struct {
	users    repository.UserRepository
	tokens   *auth.TokenService
	sessions SessionStore
	prefs    PreferenceStore
	isAdmin  func(email string) bool
	validate Validator
	log      *slog.Logger
	now      func() time.Time
}

// NewIdentityService creates an identity service. isAdmin decides which
// new accounts are created as admins.
func NewIdentityService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	sessions SessionStore,
	prefs PreferenceStore,
	isAdmin func(email string) bool,
	v Validator,
	log *slog.Logger,
) IdentityService {
	return &identityService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		prefs:    prefs,
		isAdmin:  isAdmin,
		validate: v,
		log:      log,
		now:      time.Now,
	}
}

var errBadCredentials = domainerrors.InvalidCredentials("Invalid email or password")

func (s *identityService) SignUp(ctx context.Context, req SignUpRequest) (*SessionResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if err := checkPasswordLength(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Internal("Failed to create account", err)
	}
	user := &domain.User{
		Email:        req.Email,
		UserID:       uuid.NewString(),
		Name:         req.Name,
		PasswordHash: hash,
		IsAdmin:      s.isAdmin(req.Email),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError(s.log, err, "Failed to create account", "email", req.Email)
	}
	s.log.Info("user signed up", "user_id", user.UserID, "is_admin", user.IsAdmin)

	return s.startSession(ctx, user)
}

func (s *identityService) SignIn(ctx context.Context, req SignInRequest) (*SessionResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, storeError(s.log, err, "Failed to sign in")
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, errBadCredentials
		}
		return nil, domainerrors.Internal("Failed to sign in", err)
	}
	if !user.IsActive {
		return nil, domainerrors.Forbidden("Account is deactivated")
	}

	return s.startSession(ctx, user)
}

func (s *identityService) startSession(ctx context.Context, user *domain.User) (*SessionResponse, error) {
	token, claims, err := s.tokens.Issue(user.UserID)
	if err != nil {
		return nil, domainerrors.Internal("Failed to start session", err)
	}
	session := &domain.Session{
		ID:          claims.SessionID,
		UserID:      user.UserID,
		User:        user.Profile(),
		ExpiresAt:   claims.ExpiresAt,
		RefreshedAt: s.now(),
	}
	if err := s.sessions.PutSession(ctx, session); err != nil {
		return nil, storeError(s.log, err, "Failed to start session", "user_id", user.UserID)
	}
	return &SessionResponse{
		Token:     token,
		ExpiresAt: formatTime(claims.ExpiresAt),
		User:      session.User,
	}, nil
}

func (s *identityService) SignOut(ctx context.Context, session *domain.Session) error {
	if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
		return storeError(s.log, err, "Failed to sign out", "session_id", session.ID)
	}
	return nil
}

func (s *identityService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("Invalid or expired token").WithCause(err)
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	switch {
	case errors.Is(err, localstore.ErrSessionNotFound), errors.Is(err, localstore.ErrSessionExpired):
		return nil, domainerrors.Unauthorized("Session expired, please sign in again")
	case err != nil:
		return nil, storeError(s.log, err, "Failed to load session", "session_id", claims.SessionID)
	}
	if session.UserID != claims.UserID {
		return nil, domainerrors.Unauthorized("Invalid or expired token")
	}
	if !session.User.IsActive {
		return nil, domainerrors.Forbidden("Account is deactivated")
	}
	return session, nil
}

func (s *identityService) Me(_ context.Context, session *domain.Session) domain.Profile {
	return session.User
}

func (s *identityService) UpdateProfile(ctx context.Context, session *domain.Session, req UpdateProfileRequest) (*domain.Profile, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.users.Update(ctx, session.User.Email, domain.UserFields{Name: &req.Name})
	if err != nil {
		return nil, storeError(s.log, err, "Failed to update profile", "user_id", session.UserID)
	}

	session.User = user.Profile()
	session.RefreshedAt = s.now()
	s.syncSessions(ctx, user)
	return &session.User, nil
}

func (s *identityService) GetPreferences(ctx context.Context, caller domain.Profile) (map[string]any, error) {
	prefs, err := s.prefs.GetPreferences(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to load preferences", "user_id", caller.UserID)
	}
	return prefs, nil
}

func (s *identityService) SetPreferences(ctx context.Context, caller domain.Profile, prefs map[string]any) (map[string]any, error) {
	if prefs == nil {
		prefs = map[string]any{}
	}
	if err := s.prefs.PutPreferences(ctx, caller.UserID, prefs); err != nil {
		return nil, storeError(s.log, err, "Failed to save preferences", "user_id", caller.UserID)
	}
	return prefs, nil
}

func (s *identityService) ListUsers(ctx context.Context, caller domain.Profile) ([]domain.Profile, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.users.ScanAll(ctx)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to retrieve users")
	}
	profiles := make([]domain.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}

// UpdateUserAdmin drops every session of a user it deactivates and rewrites
// the cached profile of the others.
func (s *identityService) UpdateUserAdmin(ctx context.Context, caller domain.Profile, email string, req AdminUpdateUserRequest) (*domain.Profile, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	fields := domain.UserFields{Name: req.Name, IsActive: req.IsActive}
	if req.Password != nil {
		if err := checkPasswordLength(*req.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, domainerrors.Internal("Failed to update user", err)
		}
		fields.PasswordHash = &hash
	}
	if fields.IsEmpty() {
		return nil, domainerrors.Validation("No changes requested")
	}

	user, err := s.users.Update(ctx, email, fields)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to update user", "email", email)
	}
	s.syncSessions(ctx, user)
	s.log.Info("admin updated user", "admin_id", caller.UserID, "user_id", user.UserID)

	p := user.Profile()
	return &p, nil
}

func (s *identityService) DeleteUser(ctx context.Context, caller domain.Profile, email string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	email = domain.NormalizeEmail(email)
	if email == domain.NormalizeEmail(caller.Email) {
		return domainerrors.Forbidden("You cannot delete your own account")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return storeError(s.log, err, "Failed to delete user", "email", email)
	}
	if err := s.users.Delete(ctx, email); err != nil {
		return storeError(s.log, err, "Failed to delete user", "email", email)
	}
	s.dropSessions(ctx, user.UserID)
	s.log.Info("admin deleted user", "admin_id", caller.UserID, "user_id", user.UserID)
	return nil
}

func (s *identityService) SetAdminStatus(ctx context.Context, caller domain.Profile, email string, isAdmin bool) (*domain.Profile, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !isAdmin && domain.NormalizeEmail(email) == domain.NormalizeEmail(caller.Email) {
		return nil, domainerrors.Forbidden("You cannot remove your own admin access")
	}
	user, err := s.users.Update(ctx, email, domain.UserFields{IsAdmin: &isAdmin})
	if err != nil {
		return nil, storeError(s.log, err, "Failed to update admin status", "email", email)
	}
	s.syncSessions(ctx, user)
	s.log.Info("admin status changed", "admin_id", caller.UserID, "user_id", user.UserID, "is_admin", isAdmin)

	p := user.Profile()
	return &p, nil
}

// syncSessions brings every cached session of user in line with the stored
// record. When the cache cannot be rewritten the sessions are dropped, so
// permission changes never lag behind.
func (s *identityService) syncSessions(ctx context.Context, user *domain.User) {
	if !user.IsActive {
		s.dropSessions(ctx, user.UserID)
		return
	}
	if _, err := s.sessions.RefreshUserSessions(ctx, user.Profile(), s.now()); err != nil {
		s.log.Warn("failed to refresh user sessions", "user_id", user.UserID, "error", err)
		s.dropSessions(ctx, user.UserID)
	}
}

func checkPasswordLength(password string) error {
	if len(password) > auth.MaxPasswordBytes {
		return domainerrors.Validationf("Password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

func (s *identityService) dropSessions(ctx context.Context, userID string) {
	n, err := s.sessions.DeleteUserSessions(ctx, userID)
	if err != nil {
		s.log.Warn("failed to drop user sessions", "user_id", userID, "error", err)
		return
	}
	s.log.Info("dropped user sessions", "user_id", userID, "sessions", n)
}

package domain

import (
	"strings"
	"time"
)

// User is an account. Email is the primary key and is always stored normalized.
type User struct {
	Email        string `gorm:"primaryKey;type:varchar(320)"`
	UserID       string `gorm:"type:varchar(36);uniqueIndex;not null"`
	Name         string `gorm:"size:120"`
	PasswordHash string `gorm:"size:255;not null"`
	IsAdmin      bool   `gorm:"not null;default:false"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserFields is a partial update. Nil fields are left untouched.
type UserFields struct {
	Name         *string
	PasswordHash *string
	IsActive     *bool
	IsAdmin      *bool
}

// IsEmpty reports whether no field is set.
func (f UserFields) IsEmpty() bool {
	return f.Name == nil && f.PasswordHash == nil && f.IsActive == nil && f.IsAdmin == nil
}

// Profile is the public view of a user. It never carries the password hash.
type Profile struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"isAdmin"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{
		UserID:    u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// Session is a signed-in client. The cached profile is refreshed in the background.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	User        Profile   `json:"user"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

package domain

import "time"

// Permission is a member's access level on a shared list.
type Permission string

const (
	PermissionOwner  Permission = "owner"
	PermissionEditor Permission = "editor"
	PermissionViewer Permission = "viewer"
)

// CanEdit reports whether the permission allows creating and changing tasks.
func (p Permission) CanEdit() bool {
	return p == PermissionOwner || p == PermissionEditor
}

// SharedList is a named collection of tasks visible to several users.
type SharedList struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)"`
	Name        string        `gorm:"size:200;not null"`
	Description string        `gorm:"size:1000"`
	OwnerID     string        `gorm:"type:varchar(36);index;not null"`
	Members     StringList    `gorm:"type:jsonb"`
	Permissions PermissionMap `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionOf returns the permission held by userID, or false when not a member.
func (l *SharedList) PermissionOf(userID string) (Permission, bool) {
	if !l.Members.Contains(userID) {
		return "", false
	}
	p, ok := l.Permissions[userID]
	if !ok {
		return PermissionViewer, true
	}
	return p, true
}

// AddMember adds userID with the given permission. Existing members get the new permission.
func (l *SharedList) AddMember(userID string, p Permission) {
	if !l.Members.Contains(userID) {
		l.Members = append(l.Members, userID)
	}
	if l.Permissions == nil {
		l.Permissions = PermissionMap{}
	}
	l.Permissions[userID] = p
}

package domain

import "time"

// Todo is a user task with its AI-derived annotation.
// A todo with a ParentID is a subtask; the parent keeps the ordered child ids in SubtaskIDs.
type Todo struct {
	ID           string       `gorm:"primaryKey;type:varchar(36)"`
	UserID       string       `gorm:"type:varchar(36);index;not null"`
	Text         string       `gorm:"not null"`
	Completed    bool         `gorm:"not null;default:false"`
	Category     Category     `gorm:"type:varchar(32);not null"`
	Priority     Priority     `gorm:"type:jsonb"`
	Sentiment    Sentiment    `gorm:"type:jsonb"`
	TimeEstimate TimeEstimate `gorm:"type:jsonb"`
	ParentID     *string      `gorm:"type:varchar(36);index"`
	SubtaskIDs   StringList   `gorm:"type:jsonb"`
	SharedListID *string      `gorm:"type:varchar(36);index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSubtask reports whether the todo hangs under a parent.
func (t *Todo) IsSubtask() bool {
	return t.ParentID != nil && *t.ParentID != ""
}

// Annotation returns the todo's annotation tuple.
func (t *Todo) Annotation() Annotation {
	return Annotation{
		Category:     t.Category,
		Priority:     t.Priority,
		Sentiment:    t.Sentiment,
		TimeEstimate: t.TimeEstimate,
	}
}

// Annotate overwrites the todo's annotation tuple.
func (t *Todo) Annotate(a Annotation) {
	t.Category = a.Category
	t.Priority = a.Priority
	t.Sentiment = a.Sentiment
	t.TimeEstimate = a.TimeEstimate
}

// TodoFields is a partial update. Nil fields are left untouched.
type TodoFields struct {
	Text       *string
	Completed  *bool
	Annotation *Annotation
	SubtaskIDs *StringList
}

// IsEmpty reports whether no field is set.
func (f TodoFields) IsEmpty() bool {
	return f.Text == nil && f.Completed == nil && f.Annotation == nil && f.SubtaskIDs == nil
}

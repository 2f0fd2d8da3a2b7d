package domain

import (
	"slices"
	"strings"
)

// Category is the closed set of task categories.
type Category string

const (
	CategoryWork      Category = "Work"
	CategoryPersonal  Category = "Personal"
	CategoryShopping  Category = "Shopping"
	CategoryHealth    Category = "Health"
	CategoryEducation Category = "Education"
	CategoryFinance   Category = "Finance"
	CategoryHome      Category = "Home"
)

// Categories lists every category in declaration order.
// Keyword tie-breaks resolve to the earliest entry.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryShopping,
	CategoryHealth,
	CategoryEducation,
	CategoryFinance,
	CategoryHome,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ParseCategory normalizes a free-text label into a Category.
// An exact label wins, then a case-insensitive substring match, then Personal.
func ParseCategory(label string) Category {
	label = strings.TrimSpace(label)
	for _, c := range Categories {
		if string(c) == label {
			return c
		}
	}
	lower := strings.ToLower(label)
	for _, c := range Categories {
		if strings.Contains(lower, strings.ToLower(string(c))) {
			return c
		}
	}
	return CategoryPersonal
}

// PriorityLevel is the urgency bucket of a task.
type PriorityLevel string

const (
	PriorityUrgent PriorityLevel = "urgent"
	PriorityHigh   PriorityLevel = "high"
	PriorityNormal PriorityLevel = "normal"
	PriorityLow    PriorityLevel = "low"
)

// PriorityLevels lists priority levels from most to least urgent.
var PriorityLevels = []PriorityLevel{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}

// Valid reports whether l is one of PriorityLevels.
func (l PriorityLevel) Valid() bool {
	return slices.Contains(PriorityLevels, l)
}

// Priority is the level with its numeric score and display color.
type Priority struct {
	Level PriorityLevel `json:"level"`
	Score int           `json:"score"`
	Color string        `json:"color"`
}

// PriorityFor returns the fixed score/color triple for a level.
func PriorityFor(level PriorityLevel) Priority {
	switch level {
	case PriorityUrgent:
		return Priority{Level: PriorityUrgent, Score: 4, Color: "#ff4444"}
	case PriorityHigh:
		return Priority{Level: PriorityHigh, Score: 3, Color: "#ff9900"}
	case PriorityLow:
		return Priority{Level: PriorityLow, Score: 1, Color: "#4CAF50"}
	default:
		return Priority{Level: PriorityNormal, Score: 2, Color: "#2196F3"}
	}
}

// Mood labels produced by sentiment analysis.
const (
	MoodPositive         = "positive"
	MoodSlightlyPositive = "slightly positive"
	MoodNeutral          = "neutral"
	MoodSlightlyNegative = "slightly negative"
	MoodNegative         = "negative"
)

// Sentiment is the emotional tone of a task.
type Sentiment struct {
	Mood  string   `json:"mood"`
	Emoji string   `json:"emoji"`
	Color string   `json:"color"`
	Score float64  `json:"score"`
	Words []string `json:"words,omitempty"`
}

// Confidence labels for time estimates.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// TimeEstimate is how long a task is expected to take.
type TimeEstimate struct {
	Minutes    int    `json:"minutes"`
	Display    string `json:"display"`
	Confidence string `json:"confidence"`
}

// Annotation is the AI-derived tuple attached to a task.
type Annotation struct {
	Category     Category     `json:"category"`
	Priority     Priority     `json:"priority"`
	Sentiment    Sentiment    `json:"sentiment"`
	TimeEstimate TimeEstimate `json:"timeEstimate"`
}

// Draft is an extracted, analyzed task that has not been saved yet.
type Draft struct {
	Text string `json:"text"`
	Annotation
	IsAnalyzed bool `json:"isAnalyzed"`
}

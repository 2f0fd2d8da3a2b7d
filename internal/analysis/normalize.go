package analysis

import "github.com/Tomlord1122/smart-todo/internal/domain"

var moodStyles = map[string]struct{ emoji, color string }{
	domain.MoodPositive:         {"😊", "#4CAF50"},
	domain.MoodSlightlyPositive: {"🙂", "#8BC34A"},
	domain.MoodNeutral:          {"😐", "#9E9E9E"},
	domain.MoodSlightlyNegative: {"😕", "#FF9800"},
	domain.MoodNegative:         {"😟", "#f44336"},
}

// Normalize checks an annotation computed elsewhere (a client-held draft)
// and rebuilds its derived fields. It reports false when the category,
// priority level or mood is outside the closed sets or no time is estimated;
// callers should analyze the text again in that case.
func Normalize(ann domain.Annotation) (domain.Annotation, bool) {
	if !ann.Category.Valid() || !ann.Priority.Level.Valid() || ann.TimeEstimate.Minutes <= 0 {
		return domain.Annotation{}, false
	}
	style, ok := moodStyles[ann.Sentiment.Mood]
	if !ok {
		return domain.Annotation{}, false
	}

	ann.Priority = domain.PriorityFor(ann.Priority.Level)

	confidence := ann.TimeEstimate.Confidence
	if confidence != domain.ConfidenceHigh {
		confidence = domain.ConfidenceMedium
	}
	ann.TimeEstimate = NewTimeEstimate(clampMinutes(ann.TimeEstimate.Minutes), confidence)

	if ann.Sentiment.Emoji == "" {
		ann.Sentiment.Emoji = style.emoji
	}
	if ann.Sentiment.Color == "" {
		ann.Sentiment.Color = style.color
	}
	return ann, true
}

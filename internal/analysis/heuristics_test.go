package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tomlord1122/smart-todo/internal/domain"
)

func TestCategorizeByKeywords(t *testing.T) {
	tests := []struct {
		text string
		want domain.Category
	}{
		{"Email the client about the project", domain.CategoryWork},
		{"Buy groceries at the store", domain.CategoryShopping},
		{"Dentist appointment", domain.CategoryHealth},
		{"Pay the electricity bill", domain.CategoryFinance},
		{"Do the laundry and dishes", domain.CategoryHome},
		{"Study for the exam", domain.CategoryEducation},
		{"water the plants", domain.CategoryPersonal},
		// one hit each for Work (meeting) and Health (gym): earlier category wins
		{"meeting at the gym", domain.CategoryWork},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeByKeywords(tt.text))
		})
	}
}

func TestPriorityByKeywords(t *testing.T) {
	tests := []struct {
		text string
		want domain.PriorityLevel
	}{
		{"finish report asap", domain.PriorityUrgent},
		{"urgent, maybe later", domain.PriorityUrgent},
		{"deadline tomorrow", domain.PriorityHigh},
		{"submit form by friday", domain.PriorityHigh},
		{"dentist on 12/03", domain.PriorityHigh},
		{"maybe paint the fence, high priority", domain.PriorityHigh},
		{"paint the fence someday", domain.PriorityLow},
		{"paint the fence", domain.PriorityNormal},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p := PriorityByKeywords(tt.text)
			assert.Equal(t, tt.want, p.Level)
			assert.Equal(t, domain.PriorityFor(tt.want), p)
		})
	}
}

func TestEstimateByKeywords(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		minutes    int
		confidence string
	}{
		{"keyword", "reply to email", 15, domain.ConfidenceHigh},
		{"first keyword in table order wins", "email before the meeting", 15, domain.ConfidenceHigh},
		{"digits", "walk the dog for 20 min", 20, domain.ConfidenceHigh},
		{"number word", "nap for forty-five", 45, domain.ConfidenceHigh},
		{"number out of range", "walk 500 steps", 30, domain.ConfidenceMedium},
		{"default", "water plants", 30, domain.ConfidenceMedium},
		{"quick halves", "quick call", 15, domain.ConfidenceHigh},
		{"quick floors at five", "quick 6 pushups", 5, domain.ConfidenceHigh},
		{"long scales up", "long meeting", 90, domain.ConfidenceHigh},
		{"wordy scales up", "plan the trip with the kids and pack the bags for the weekend", 36, domain.ConfidenceMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := EstimateByKeywords(tt.text)
			assert.Equal(t, tt.minutes, est.Minutes)
			assert.Equal(t, tt.confidence, est.Confidence)
			assert.Equal(t, FormatMinutes(tt.minutes), est.Display)
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "45m", FormatMinutes(45))
	assert.Equal(t, "1h 0m", FormatMinutes(60))
	assert.Equal(t, "2h 15m", FormatMinutes(135))
}

func TestClampMinutes(t *testing.T) {
	assert.Equal(t, 5, clampMinutes(1))
	assert.Equal(t, 480, clampMinutes(1000))
	assert.Equal(t, 42, clampMinutes(42))
}

func TestHasDate(t *testing.T) {
	assert.True(t, HasDate("call on Monday"))
	assert.True(t, HasDate("due 2024-06-01"))
	assert.True(t, HasDate("party on the 21st"))
	assert.False(t, HasDate("buy milk"))
	assert.False(t, HasDate("may be nice"))
}

package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Tomlord1122/smart-todo/internal/domain"
)

// categoryKeywords is scanned in domain.Categories order.
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryWork:      {"meeting", "email", "deadline", "project", "boss", "client", "presentation", "report", "office", "work"},
	domain.CategoryPersonal:  {"call", "friend", "family", "birthday", "mom", "dad", "dinner", "lunch", "visit"},
	domain.CategoryShopping:  {"buy", "shop", "groceries", "store", "purchase", "order", "amazon", "pick up"},
	domain.CategoryHealth:    {"doctor", "appointment", "gym", "exercise", "medicine", "workout", "run", "dentist"},
	domain.CategoryEducation: {"study", "learn", "course", "class", "homework", "read", "book", "exam", "test"},
	domain.CategoryFinance:   {"pay", "bill", "bank", "money", "budget", "tax", "invoice", "payment"},
	domain.CategoryHome:      {"clean", "fix", "repair", "wash", "laundry", "dishes", "organize", "vacuum"},
}

var (
	urgentKeywords = []string{"urgent", "asap", "immediately", "now", "today", "emergency", "critical", "important"}
	highKeywords   = []string{"deadline", "tomorrow", "soon", "priority", "must", "need to"}
	lowKeywords    = []string{"whenever", "maybe", "someday", "eventually", "if possible"}
)

// taskDurations is matched in order; the first substring hit wins.
var taskDurations = []struct {
	keyword string
	minutes float64
}{
	{"email", 15},
	{"meeting", 60},
	{"call", 30},
	{"shop", 45},
	{"groceries", 60},
	{"clean", 30},
	{"exercise", 45},
	{"gym", 60},
	{"study", 90},
	{"read", 30},
	{"fix", 45},
	{"pay bill", 10},
	{"appointment", 60},
	{"presentation", 120},
	{"report", 90},
	{"homework", 60},
}

const (
	defaultMinutes = 30
	minMinutes     = 5
	maxMinutes     = 480
)

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// CategorizeByKeywords picks the category whose keyword list has the most hits
// in the lowercased text. Ties keep the earlier category; no hits is Personal.
func CategorizeByKeywords(text string) domain.Category {
	lower := strings.ToLower(text)
	best := domain.CategoryPersonal
	bestScore := 0
	for _, c := range domain.Categories {
		score := 0
		for _, k := range categoryKeywords[c] {
			if strings.Contains(lower, k) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// PriorityByKeywords checks urgent terms, then high terms or a date phrase, then low terms.
func PriorityByKeywords(text string) domain.Priority {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, urgentKeywords):
		return domain.PriorityFor(domain.PriorityUrgent)
	case containsAny(lower, highKeywords) || HasDate(text):
		return domain.PriorityFor(domain.PriorityHigh)
	case containsAny(lower, lowKeywords):
		return domain.PriorityFor(domain.PriorityLow)
	default:
		return domain.PriorityFor(domain.PriorityNormal)
	}
}

var datePattern = regexp.MustCompile(`(?i)\b(` +
	`today|tonight|tomorrow|` +
	`(next|this) (week|weekend|month|year)|` +
	`monday|tuesday|wednesday|thursday|friday|saturday|sunday|tues?|thurs?|fri|` +
	`january|february|march|april|june|july|august|september|october|november|december|` +
	`jan|feb|apr|aug|sept?|oct|nov|dec|` +
	`\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?|` +
	`\d{4}-\d{2}-\d{2}|` +
	`\d{1,2}(st|nd|rd|th)` +
	`)\b`)

// HasDate reports whether text mentions a date or deadline-like day reference.
func HasDate(text string) bool {
	return datePattern.MatchString(text)
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "fifteen": 15,
	"twenty": 20, "thirty": 30, "forty": 40, "forty-five": 45, "fifty": 50,
	"sixty": 60, "ninety": 90, "hundred": 100,
}

var numeralPattern = regexp.MustCompile(`(?i)\b(\d+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|fifteen|twenty|thirty|forty-five|forty|fifty|sixty|ninety|hundred)\b`)

// FirstNumber returns the first numeral in text, written as digits or as a number word.
func FirstNumber(text string) (int, bool) {
	m := numeralPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(m); err == nil {
		return n, true
	}
	n, ok := numberWords[strings.ToLower(m)]
	return n, ok
}

// EstimateByKeywords applies the duration table, explicit numerals and the
// quick/long/wordy adjustments.
func EstimateByKeywords(text string) domain.TimeEstimate {
	lower := strings.ToLower(text)
	total := float64(defaultMinutes)
	matched := false

	for _, d := range taskDurations {
		if strings.Contains(lower, d.keyword) {
			total = d.minutes
			matched = true
			break
		}
	}

	if !matched {
		if n, ok := FirstNumber(text); ok && n > 0 && n < maxMinutes {
			total = float64(n)
			matched = true
		}
	}

	if strings.Contains(lower, "quick") || strings.Contains(lower, "fast") {
		total = math.Max(minMinutes, total*0.5)
	} else if strings.Contains(lower, "long") || strings.Contains(lower, "detailed") {
		total *= 1.5
	}

	if len(strings.Split(text, " ")) > 10 {
		total *= 1.2
	}

	confidence := domain.ConfidenceMedium
	if matched {
		confidence = domain.ConfidenceHigh
	}
	return NewTimeEstimate(int(math.Round(total)), confidence)
}

// NewTimeEstimate builds an estimate with its "Xh Ym" / "Ym" display string.
func NewTimeEstimate(minutes int, confidence string) domain.TimeEstimate {
	return domain.TimeEstimate{
		Minutes:    minutes,
		Display:    FormatMinutes(minutes),
		Confidence: confidence,
	}
}

// FormatMinutes renders minutes as "Xh Ym" at or above an hour and "Ym" below.
func FormatMinutes(minutes int) string {
	hours, mins := minutes/60, minutes%60
	if hours > 0 {
		return strconv.Itoa(hours) + "h " + strconv.Itoa(mins) + "m"
	}
	return strconv.Itoa(mins) + "m"
}

// clampMinutes bounds a model estimate to [5, 480].
func clampMinutes(n int) int {
	return max(minMinutes, min(maxMinutes, n))
}

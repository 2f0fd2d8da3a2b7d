package analysis

import (
	"regexp"
	"strings"

	"github.com/Tomlord1122/smart-todo/internal/domain"
)

// lexicon is a subset of the AFINN-165 word list, scored -5..+5.
var lexicon = map[string]int{
	"amazing": 4, "awesome": 4, "beautiful": 3, "best": 3, "better": 2, "birthday": 2,
	"brilliant": 4, "celebrate": 3, "celebration": 3, "cheer": 2, "clean": 2, "comfortable": 2,
	"cool": 1, "delight": 3, "delighted": 3, "easy": 1, "enjoy": 2, "excellent": 3,
	"excited": 3, "exciting": 3, "fantastic": 4, "fine": 2, "free": 1, "fresh": 1,
	"friend": 1, "fun": 4, "glad": 3, "good": 3, "great": 3, "happy": 3, "help": 2,
	"helpful": 2, "hope": 2, "improve": 2, "interesting": 2, "joy": 3, "kind": 2,
	"like": 2, "love": 3, "lovely": 3, "lucky": 3, "nice": 3, "party": 2, "peace": 2,
	"perfect": 3, "pleasant": 3, "please": 1, "proud": 2, "relax": 2, "relaxing": 2,
	"safe": 1, "success": 2, "successful": 3, "super": 3, "thank": 2, "thanks": 2,
	"vacation": 2, "welcome": 2, "win": 4, "wonderful": 4, "yay": 3,

	"angry": -3, "annoying": -2, "anxious": -2, "awful": -3, "bad": -3, "boring": -3,
	"broke": -1, "broken": -1, "complain": -2, "confused": -2, "crisis": -3,
	"critical": -2, "cry": -1, "damage": -3, "danger": -2, "dead": -3, "deadline": -1,
	"debt": -2, "difficult": -1, "disappointed": -2, "disaster": -2, "dread": -2,
	"emergency": -2, "exhausted": -2, "fail": -2, "failed": -2, "fear": -2, "fight": -1,
	"frustrated": -2, "hard": -1, "hate": -3, "horrible": -3, "hurt": -2,
	"ill": -2, "late": -1, "lose": -3, "lost": -3, "mess": -2, "miss": -2, "nervous": -2,
	"overdue": -2, "pain": -2, "panic": -3, "problem": -2, "sad": -2, "scared": -2,
	"sick": -2, "stress": -1, "stressed": -2, "stressful": -2, "stuck": -2, "terrible": -3,
	"tired": -2, "trouble": -2, "ugly": -3, "upset": -2, "urgent": -1, "worried": -3,
	"worry": -3, "worse": -3, "worst": -3, "wrong": -2,
}

// negators flip the score of the word that follows them.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true, "can't": true,
	"cant": true, "won't": true, "wont": true, "isn't": true, "isnt": true, "didn't": true,
	"didnt": true, "doesn't": true, "doesnt": true,
}

var tokenPattern = regexp.MustCompile(`[a-z']+`)

// ScoreSentiment sums lexicon scores over the text's words, flipping a word
// preceded by a negator. It returns the score and the words that contributed.
func ScoreSentiment(text string) (int, []string) {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	score := 0
	var words []string
	for i, tok := range tokens {
		v, ok := lexicon[tok]
		if !ok {
			continue
		}
		if i > 0 && negators[tokens[i-1]] {
			v = -v
		}
		score += v
		words = append(words, tok)
	}
	return score, words
}

// SentimentByLexicon buckets the lexicon score into five mood bands.
func SentimentByLexicon(text string) domain.Sentiment {
	score, words := ScoreSentiment(text)
	s := sentimentBand(score)
	s.Words = words
	return s
}

func sentimentBand(score int) domain.Sentiment {
	s := domain.Sentiment{Score: float64(score)}
	switch {
	case score > 2:
		s.Mood, s.Emoji, s.Color = domain.MoodPositive, "😊", "#4CAF50"
	case score < -2:
		s.Mood, s.Emoji, s.Color = domain.MoodNegative, "😟", "#f44336"
	case score > 0:
		s.Mood, s.Emoji, s.Color = domain.MoodSlightlyPositive, "🙂", "#8BC34A"
	case score < 0:
		s.Mood, s.Emoji, s.Color = domain.MoodSlightlyNegative, "😕", "#FF9800"
	default:
		s.Mood, s.Emoji, s.Color = domain.MoodNeutral, "😐", "#9E9E9E"
	}
	return s
}

// sentimentFromLabel maps a model's positive/negative/neutral answer to a fixed triple.
func sentimentFromLabel(label string) domain.Sentiment {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "positive"):
		return domain.Sentiment{Mood: domain.MoodPositive, Emoji: "😊", Color: "#4CAF50", Score: 3}
	case strings.Contains(lower, "negative"):
		return domain.Sentiment{Mood: domain.MoodNegative, Emoji: "😞", Color: "#F44336", Score: -3}
	default:
		return domain.Sentiment{Mood: domain.MoodNeutral, Emoji: "😐", Color: "#9E9E9E", Score: 0}
	}
}

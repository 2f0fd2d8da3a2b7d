package vision

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Tomlord1122/smart-todo/internal/analysis"
	"github.com/Tomlord1122/smart-todo/internal/domain"
)

// MaxDrafts caps how many drafts one image can produce.
const MaxDrafts = 10

// Annotator annotates a single task line.
type Annotator interface {
	Analyze(ctx context.Context, text string) domain.Annotation
}

var (
	lineBreaks    = regexp.MustCompile(`[\r\n•·▪◦‣*]+`)
	inlineNumbers = regexp.MustCompile(`(?:^|\s+)\d+[.)\]}]\s+`)
	hasLetter     = regexp.MustCompile(`[a-zA-Z]`)
	listMarker    = regexp.MustCompile(`^[-*+\d.)\]}\s]*`)
	headerLine    = regexp.MustCompile(`^[A-Z\s]+$`)
	ocrArtifacts  = regexp.MustCompile(`[|{}\[\]]`)
)

// TaskLines splits extracted text into candidate task lines.
func TaskLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	for _, chunk := range lineBreaks.Split(text, -1) {
		for _, line := range inlineNumbers.Split(chunk, -1) {
			line = strings.TrimSpace(line)
			if len(line) <= 2 || !hasLetter.MatchString(line) {
				continue
			}
			line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
			if len(line) < 3 || headerLine.MatchString(line) {
				continue
			}
			line = strings.TrimSpace(ocrArtifacts.ReplaceAllString(line, ""))
			if line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// ParseTextToTodos turns extracted text into at most MaxDrafts analyzed drafts.
// A line whose analysis blows up falls back to local heuristics without
// affecting the other lines.
func ParseTextToTodos(ctx context.Context, a Annotator, log *slog.Logger, text string) []domain.Draft {
	lines := TaskLines(text)
	if len(lines) > MaxDrafts {
		lines = lines[:MaxDrafts]
	}

	drafts := make([]domain.Draft, 0, len(lines))
	for _, line := range lines {
		drafts = append(drafts, domain.Draft{
			Text:       line,
			Annotation: annotateLine(ctx, a, log, line),
			IsAnalyzed: true,
		})
	}
	return drafts
}

func annotateLine(ctx context.Context, a Annotator, log *slog.Logger, line string) (ann domain.Annotation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("line analysis failed, using defaults", "line", line, "panic", r)
			ann = domain.Annotation{
				Category:     domain.CategoryPersonal,
				Priority:     analysis.PriorityByKeywords(line),
				Sentiment:    analysis.SentimentByLexicon(line),
				TimeEstimate: analysis.EstimateByKeywords(line),
			}
		}
	}()
	return a.Analyze(ctx, line)
}

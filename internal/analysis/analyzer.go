// Package analysis annotates free-text tasks with a category, priority,
// sentiment and time estimate.
//
// Every operation asks the hosted model first and falls back to local
// heuristics, so callers always get a value back.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	"github.com/Tomlord1122/smart-todo/internal/llm"
)

const (
	categorizeSystem = "You are an expert at categorizing tasks. Analyze the task and return ONLY the most appropriate category from this list: Work, Personal, Shopping, Health, Education, Finance, Home. Return just the category name, nothing else."
	prioritySystem   = "You are an expert at determining task priority. Analyze the urgency and importance of the task. Return ONLY one of these priority levels: High, Normal, Low. Consider deadlines, urgency words, and business impact. Return just the priority level, nothing else."
	sentimentSystem  = "You are an expert at analyzing emotional sentiment in tasks. Determine if the task conveys positive, negative, or neutral sentiment. Return ONLY the sentiment (positive, negative, or neutral), nothing else."
	estimateSystem   = "You are an expert at estimating how long tasks take. Based on the task description, estimate the time needed in minutes. Consider complexity, typical duration for similar tasks, and any context clues. Return ONLY a number representing minutes, nothing else."
)

var digits = regexp.MustCompile(`\d+`)

// Analyzer runs the four annotation chains.
type Analyzer struct {
	log        *slog.Logger
	categories []Strategy[domain.Category]
	priorities []Strategy[domain.Priority]
	sentiments []Strategy[domain.Sentiment]
	estimates  []Strategy[domain.TimeEstimate]
}

// New builds an Analyzer. A nil model leaves only the heuristic strategies.
func New(model llm.Model, log *slog.Logger) *Analyzer {
	a := &Analyzer{log: log}
	if model != nil {
		a.categories = append(a.categories, modelCategory(model))
		a.priorities = append(a.priorities, modelPriority(model))
		a.sentiments = append(a.sentiments, modelSentiment(model))
		a.estimates = append(a.estimates, modelEstimate(model))
	}
	a.categories = append(a.categories, Heuristic("keywords", CategorizeByKeywords))
	a.priorities = append(a.priorities, Heuristic("keywords", PriorityByKeywords))
	a.sentiments = append(a.sentiments, Heuristic("lexicon", SentimentByLexicon))
	a.estimates = append(a.estimates, Heuristic("keywords", EstimateByKeywords))
	return a
}

func ask(ctx context.Context, model llm.Model, system, prompt string) (string, error) {
	return model.Complete(ctx, llm.Request{System: system, Prompt: prompt})
}

func modelCategory(model llm.Model) Strategy[domain.Category] {
	return Strategy[domain.Category]{
		Name: "model",
		Run: func(ctx context.Context, text string) (domain.Category, error) {
			out, err := ask(ctx, model, categorizeSystem, fmt.Sprintf("Categorize this task: %q", text))
			if err != nil {
				return "", err
			}
			return domain.ParseCategory(out), nil
		},
	}
}

func modelPriority(model llm.Model) Strategy[domain.Priority] {
	return Strategy[domain.Priority]{
		Name: "model",
		Run: func(ctx context.Context, text string) (domain.Priority, error) {
			out, err := ask(ctx, model, prioritySystem, fmt.Sprintf("What priority level should this task have: %q", text))
			if err != nil {
				return domain.Priority{}, err
			}
			lower := strings.ToLower(out)
			switch {
			case strings.Contains(lower, "high") || strings.Contains(lower, "urgent"):
				return domain.PriorityFor(domain.PriorityHigh), nil
			case strings.Contains(lower, "low"):
				return domain.PriorityFor(domain.PriorityLow), nil
			default:
				return domain.PriorityFor(domain.PriorityNormal), nil
			}
		},
	}
}

func modelSentiment(model llm.Model) Strategy[domain.Sentiment] {
	return Strategy[domain.Sentiment]{
		Name: "model",
		Run: func(ctx context.Context, text string) (domain.Sentiment, error) {
			out, err := ask(ctx, model, sentimentSystem, fmt.Sprintf("Analyze the sentiment of this task: %q", text))
			if err != nil {
				return domain.Sentiment{}, err
			}
			return sentimentFromLabel(out), nil
		},
	}
}

func modelEstimate(model llm.Model) Strategy[domain.TimeEstimate] {
	return Strategy[domain.TimeEstimate]{
		Name: "model",
		Run: func(ctx context.Context, text string) (domain.TimeEstimate, error) {
			out, err := ask(ctx, model, estimateSystem, fmt.Sprintf("How many minutes should this task take: %q", text))
			if err != nil {
				return domain.TimeEstimate{}, err
			}
			minutes := defaultMinutes
			if m := digits.FindString(out); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					minutes = n
				}
			}
			return NewTimeEstimate(clampMinutes(minutes), domain.ConfidenceHigh), nil
		},
	}
}

// Categorize returns the task's category.
func (a *Analyzer) Categorize(ctx context.Context, text string) domain.Category {
	v, _, err := runChain(ctx, a.log, "categorize", text, a.categories)
	if err != nil {
		return domain.CategoryPersonal
	}
	return v
}

// PredictPriority returns the task's priority.
func (a *Analyzer) PredictPriority(ctx context.Context, text string) domain.Priority {
	v, _, err := runChain(ctx, a.log, "priority", text, a.priorities)
	if err != nil {
		return domain.PriorityFor(domain.PriorityNormal)
	}
	return v
}

// AnalyzeSentiment returns the task's mood.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, text string) domain.Sentiment {
	v, _, err := runChain(ctx, a.log, "sentiment", text, a.sentiments)
	if err != nil {
		return sentimentBand(0)
	}
	return v
}

// EstimateTime returns how long the task is expected to take.
func (a *Analyzer) EstimateTime(ctx context.Context, text string) domain.TimeEstimate {
	v, _, err := runChain(ctx, a.log, "estimate", text, a.estimates)
	if err != nil {
		return NewTimeEstimate(defaultMinutes, domain.ConfidenceMedium)
	}
	return v
}

// Analyze runs the four annotations in parallel.
func (a *Analyzer) Analyze(ctx context.Context, text string) domain.Annotation {
	var ann domain.Annotation
	var g errgroup.Group
	g.Go(func() error { ann.Category = a.Categorize(ctx, text); return nil })
	g.Go(func() error { ann.Priority = a.PredictPriority(ctx, text); return nil })
	g.Go(func() error { ann.Sentiment = a.AnalyzeSentiment(ctx, text); return nil })
	g.Go(func() error { ann.TimeEstimate = a.EstimateTime(ctx, text); return nil })
	_ = g.Wait()
	return ann
}

package service

import (
	"context"
	"strings"

	"github.com/Tomlord1122/smart-todo/internal/analysis"
	"github.com/Tomlord1122/smart-todo/internal/domain"
)

// AnalyzeRequest is free text to annotate or split.
type AnalyzeRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// SplitResponse lists the separate tasks found in a text.
type SplitResponse struct {
	Todos []string `json:"todos"`
}

// AnalysisService exposes the text pipeline without saving anything.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*domain.Annotation, error)
	Split(ctx context.Context, req AnalyzeRequest) (*SplitResponse, error)
}

type analysisService struct {
	analyzer TextAnalyzer
	validate Validator
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(analyzer TextAnalyzer, v Validator) AnalysisService {
	return &analysisService{analyzer: analyzer, validate: v}
}

func (s *analysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.Annotation, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	ann := s.analyzer.Analyze(ctx, req.Text)
	return &ann, nil
}

func (s *analysisService) Split(_ context.Context, req AnalyzeRequest) (*SplitResponse, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	return &SplitResponse{Todos: analysis.SplitMultipleTodos(req.Text)}, nil
}

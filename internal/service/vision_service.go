package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/vision"
)

// MaxImageSize is the largest upload accepted for text extraction.
const MaxImageSize = 10 << 20

const rawTextPreview = 100

// ParseTextRequest is the manual-entry fallback when extraction fails.
type ParseTextRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

// CommitDraftsRequest saves pending drafts as todos. When Drafts is empty
// the stored pending drafts are used.
type CommitDraftsRequest struct {
	SharedListID *string        `json:"sharedListId,omitempty"`
	Drafts       []domain.Draft `json:"drafts,omitempty" validate:"max=10"`
}

// ExtractResponse carries the extracted text and the drafts parsed from it.
type ExtractResponse struct {
	Text   string         `json:"text"`
	Drafts []domain.Draft `json:"drafts"`
}

// FailedDraft is a draft that could not be saved.
type FailedDraft struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// CommitResult reports a partially or fully completed commit.
type CommitResult struct {
	Created []TodoResponse `json:"created"`
	Failed  []FailedDraft  `json:"failed"`
}

// VisionService turns images and pasted text into pending drafts and saves them.
type VisionService interface {
	ExtractDrafts(ctx context.Context, caller domain.Profile, img vision.Image) (*ExtractResponse, error)
	ParseText(ctx context.Context, caller domain.Profile, req ParseTextRequest) (*ExtractResponse, error)
	Drafts(ctx context.Context, caller domain.Profile) ([]domain.Draft, error)
	DiscardDrafts(ctx context.Context, caller domain.Profile) error
	CommitDrafts(ctx context.Context, caller domain.Profile, req CommitDraftsRequest) (*CommitResult, error)
}

type visionService struct {
	extractor vision.Extractor
	annotator vision.Annotator
	drafts    DraftStore
	todos     TodoService
	validate  Validator
	log       *slog.Logger
}

// NewVisionService creates a vision service.
func NewVisionService(extractor vision.Extractor, annotator vision.Annotator, drafts DraftStore, todos TodoService, v Validator, log *slog.Logger) VisionService {
	return &visionService{
		extractor: extractor,
		annotator: annotator,
		drafts:    drafts,
		todos:     todos,
		validate:  v,
		log:       log,
	}
}

// CheckUpload validates an uploaded image before extraction.
func CheckUpload(contentType string, size int64) error {
	if !strings.HasPrefix(contentType, "image/") {
		return domainerrors.Validation("Please select a valid image file (PNG, JPG, GIF, etc.)")
	}
	if size > MaxImageSize {
		return domainerrors.Validation("File size must be less than 10MB")
	}
	return nil
}

func (s *visionService) ExtractDrafts(ctx context.Context, caller domain.Profile, img vision.Image) (*ExtractResponse, error) {
	if err := CheckUpload(img.MIMEType, int64(len(img.Data))); err != nil {
		return nil, err
	}

	text, err := s.extractor.ExtractText(ctx, img)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domainerrors.Validation("No text found in the image. Try the manual input option below.").
			WithDetails(map[string]string{"text": text})
	}
	return s.parse(ctx, caller, text)
}

func (s *visionService) ParseText(ctx context.Context, caller domain.Profile, req ParseTextRequest) (*ExtractResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	return s.parse(ctx, caller, req.Text)
}

// parse stores the drafts found in text as the caller's pending set.
func (s *visionService) parse(ctx context.Context, caller domain.Profile, text string) (*ExtractResponse, error) {
	drafts := vision.ParseTextToTodos(ctx, s.annotator, s.log, text)
	if len(drafts) == 0 {
		preview := text
		if r := []rune(preview); len(r) > rawTextPreview {
			preview = string(r[:rawTextPreview])
		}
		msg := fmt.Sprintf("Could not identify todo items. Try manual input. Text found: %q...", preview)
		return nil, domainerrors.Validation(msg).WithDetails(map[string]string{"text": text})
	}

	if err := s.drafts.PutDrafts(ctx, caller.UserID, drafts); err != nil {
		return nil, storeError(s.log, err, "Failed to save drafts", "user_id", caller.UserID)
	}
	s.log.Info("drafts extracted", "user_id", caller.UserID, "drafts", len(drafts))
	return &ExtractResponse{Text: text, Drafts: drafts}, nil
}

func (s *visionService) Drafts(ctx context.Context, caller domain.Profile) ([]domain.Draft, error) {
	drafts, err := s.drafts.GetDrafts(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(s.log, err, "Failed to load drafts", "user_id", caller.UserID)
	}
	return drafts, nil
}

func (s *visionService) DiscardDrafts(ctx context.Context, caller domain.Profile) error {
	if err := s.drafts.DeleteDrafts(ctx, caller.UserID); err != nil {
		return storeError(s.log, err, "Failed to discard drafts", "user_id", caller.UserID)
	}
	return nil
}

// CommitDrafts creates one todo per draft in order. A failed create does not
// stop the loop; failed drafts stay pending.
func (s *visionService) CommitDrafts(ctx context.Context, caller domain.Profile, req CommitDraftsRequest) (*CommitResult, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	stored, err := s.Drafts(ctx, caller)
	if err != nil {
		return nil, err
	}
	drafts := req.Drafts
	if len(drafts) == 0 {
		drafts = stored
	}
	if len(drafts) == 0 {
		return nil, domainerrors.Validation("There are no drafts to save")
	}

	result := &CommitResult{Created: []TodoResponse{}, Failed: []FailedDraft{}}
	var saved, failed []domain.Draft
	for i := range drafts {
		d := drafts[i]
		resp, err := s.todos.CreateTodo(ctx, caller, CreateTodoRequest{
			Text:         d.Text,
			SharedListID: req.SharedListID,
			PreAnalyzed:  &d,
		})
		if err != nil {
			s.log.Warn("failed to save draft", "user_id", caller.UserID, "text", d.Text, "error", err)
			result.Failed = append(result.Failed, FailedDraft{Text: d.Text, Error: errorMessage(err)})
			failed = append(failed, d)
			continue
		}
		saved = append(saved, d)
		result.Created = append(result.Created, *resp)
	}

	pending := failed
	if len(req.Drafts) > 0 {
		pending = remainingDrafts(stored, saved, failed)
	}
	if err := s.drafts.PutDrafts(ctx, caller.UserID, pending); err != nil {
		s.log.Warn("failed to update pending drafts", "user_id", caller.UserID, "error", err)
	}
	if len(result.Failed) > 0 {
		s.log.Warn("drafts partially saved",
			"user_id", caller.UserID,
			"created", len(result.Created),
			"failed", len(result.Failed),
		)
	}
	return result, nil
}

// errorMessage returns the user-facing message of a domain error.
func errorMessage(err error) string {
	var de *domainerrors.Error
	if domainerrors.As(err, &de) {
		return de.Message
	}
	return "Failed to create todo"
}

// remainingDrafts removes saved drafts from the stored pending set, one stored
// entry per saved draft matched by text, and appends failed drafts not already
// pending.
func remainingDrafts(stored, saved, failed []domain.Draft) []domain.Draft {
	counts := make(map[string]int, len(saved))
	for _, d := range saved {
		counts[d.Text]++
	}
	out := make([]domain.Draft, 0, len(stored)+len(failed))
	present := make(map[string]bool, len(stored))
	for _, d := range stored {
		if counts[d.Text] > 0 {
			counts[d.Text]--
			continue
		}
		out = append(out, d)
		present[d.Text] = true
	}
	for _, d := range failed {
		if !present[d.Text] {
			out = append(out, d)
			present[d.Text] = true
		}
	}
	return out
}

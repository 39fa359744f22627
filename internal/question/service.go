package question

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/core/common/validation"
	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
)

type RepositoryAPI interface {
	ListActive(ctx context.Context, feedbackType string) ([]*feedbackDatamodel.Question, error)
	Create(ctx context.Context, q *feedbackDatamodel.Question) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListActive returns active questions ordered by (order, id). An empty
// feedbackType means every type.
func (s *Service) ListActive(ctx context.Context, feedbackType string) ([]*Question, error) {
	feedbackType = strings.ToLower(strings.TrimSpace(feedbackType))

	v := validation.NewValidator()
	v.Field("type", feedbackType).OneOf(internal.ErrCodeInvalidFeedback, Types...)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListActive(ctx, feedbackType)
	if err != nil {
		s.logger.Error("failed to list questions", "error", err, "feedback_type", feedbackType)
		return nil, err
	}

	out := make([]*Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, dto CreateQuestionDTO) (*Question, error) {
	dto.Normalize()
	if err := validation.ValidateStruct(dto); err != nil {
		return nil, err
	}

	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}

	row := &feedbackDatamodel.Question{
		Text:         dto.Text,
		FeedbackType: dto.FeedbackType,
		IsActive:     active,
		DisplayOrder: dto.Order,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to create question", err)
	}

	s.logger.InfoContext(ctx, "question created", "question_id", row.ID, "feedback_type", row.FeedbackType)
	return FromDataModel(row), nil
}

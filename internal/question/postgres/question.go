package postgres

import (
	"context"

	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/feedback-management/internal/question"
	"gorm.io/gorm"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) question.RepositoryAPI {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) ListActive(ctx context.Context, feedbackType string) ([]*feedbackDatamodel.Question, error) {
	var questions []*feedbackDatamodel.Question

	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if feedbackType != "" {
		q = q.Where("feedback_type = ?", feedbackType)
	}

	err := q.Order("display_order ASC").Order("id ASC").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) Create(ctx context.Context, q *feedbackDatamodel.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

package question

import (
	"strings"

	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
)

const (
	TypeEmployee = "employee"
	TypeTrainer  = "trainer"
)

var Types = []string{TypeEmployee, TypeTrainer}

type Question struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	FeedbackType string `json:"feedback_type"`
	IsActive     bool   `json:"is_active"`
	Order        int    `json:"order"`
}

type CreateQuestionDTO struct {
	Text         string `json:"text" validate:"required"`
	FeedbackType string `json:"feedback_type" validate:"required,oneof=employee trainer"`
	IsActive     *bool  `json:"is_active"`
	Order        int    `json:"order" validate:"min=0"`
}

func (d *CreateQuestionDTO) Normalize() {
	d.Text = strings.TrimSpace(d.Text)
	d.FeedbackType = strings.ToLower(strings.TrimSpace(d.FeedbackType))
}

type ListResponse struct {
	Questions []*Question `json:"questions"`
}

func FromDataModel(q *feedbackDatamodel.Question) *Question {
	return &Question{
		ID:           q.ID,
		Text:         q.Text,
		FeedbackType: q.FeedbackType,
		IsActive:     q.IsActive,
		Order:        q.DisplayOrder,
	}
}

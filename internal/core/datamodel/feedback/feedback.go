package feedback

import (
	"time"

	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
)

type Question struct {
	ID           int64     `gorm:"primaryKey"`
	Text         string    `gorm:"column:text;not null"`
	FeedbackType string    `gorm:"column:feedback_type;size:20;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (Question) TableName() string { return "feedback_questions" }

type Submission struct {
	ID               int64                       `gorm:"primaryKey"`
	SubmittedByID    int64                       `gorm:"column:submitted_by_id;not null;index"`
	SubmittedBy      employeeDatamodel.Employee  `gorm:"foreignKey:SubmittedByID"`
	TargetEmployeeID *int64                      `gorm:"column:target_employee_id;index"`
	TargetEmployee   *employeeDatamodel.Employee `gorm:"foreignKey:TargetEmployeeID"`
	CreatedAt        time.Time                   `gorm:"column:created_at;index"`
	Answers          []Answer                    `gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string { return "feedback_submissions" }

type Answer struct {
	ID           int64    `gorm:"primaryKey"`
	SubmissionID int64    `gorm:"column:submission_id;not null;uniqueIndex:feedback_answers_submission_question_key"`
	QuestionID   int64    `gorm:"column:question_id;not null;uniqueIndex:feedback_answers_submission_question_key"`
	Question     Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT"`
	Rating       int16    `gorm:"column:rating;not null"`
	Comment      string   `gorm:"column:comment;not null;default:''"`
}

func (Answer) TableName() string { return "feedback_answers" }

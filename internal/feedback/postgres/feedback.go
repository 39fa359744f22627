package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/feedback-management/internal/feedback"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeedbackRepository struct {
	db *gorm.DB
}

var _ feedback.RepositoryAPI = (*FeedbackRepository)(nil)

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts the submission and then each answer inside one transaction.
// Question activity is checked inside the same transaction, so a question
// deactivated mid-request still aborts the whole write.
func (r *FeedbackRepository) Create(ctx context.Context, sub *feedbackDatamodel.Submission) error {
	answers := sub.Answers
	defer func() { sub.Answers = answers }()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub.Answers = nil
		if err := tx.Omit(clause.Associations).Create(sub).Error; err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}

		for i := range answers {
			var q feedbackDatamodel.Question
			err := tx.Select("id", "is_active").Where("id = ?", answers[i].QuestionID).Take(&q).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !q.IsActive) {
				return &feedback.InvalidQuestionError{Index: i, QuestionID: answers[i].QuestionID}
			}
			if err != nil {
				return fmt.Errorf("load question %d: %w", answers[i].QuestionID, err)
			}

			answers[i].SubmissionID = sub.ID
			if err := tx.Omit(clause.Associations).Create(&answers[i]).Error; err != nil {
				return fmt.Errorf("insert answer %d: %w", i, err)
			}
		}
		return nil
	})
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("SubmittedBy.User").
		Preload("SubmittedBy.Designation").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("feedback_answers.id ASC")
		}).
		Preload("Answers.Question")
}

func (r *FeedbackRepository) GetByID(ctx context.Context, id int64) (*feedbackDatamodel.Submission, error) {
	var sub feedbackDatamodel.Submission
	err := withDetails(r.db.WithContext(ctx)).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *FeedbackRepository) ListBySubmitter(ctx context.Context, employeeID int64) ([]*feedbackDatamodel.Submission, error) {
	var subs []*feedbackDatamodel.Submission
	err := withDetails(r.db.WithContext(ctx)).
		Where("submitted_by_id = ?", employeeID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&subs).Error
	return subs, err
}

// Filter narrows submissions by attributes of the submitting employee and by
// creation time. Text matches are case-insensitive substring matches.
func (r *FeedbackRepository) Filter(ctx context.Context, f feedback.Filter) ([]*feedbackDatamodel.Submission, error) {
	q := r.db.WithContext(ctx).
		Model(&feedbackDatamodel.Submission{}).
		Select("feedback_submissions.*").
		Joins("JOIN employees submitter ON submitter.id = feedback_submissions.submitted_by_id")

	switch {
	case f.DesignationID != nil:
		q = q.Where("submitter.designation_id = ?", *f.DesignationID)
	case f.DesignationName != "":
		q = q.Joins("JOIN designations ON designations.id = submitter.designation_id").
			Where(`LOWER(designations.name) LIKE ? ESCAPE '\'`, containsPattern(f.DesignationName))
	}
	if f.Department != "" {
		q = q.Where(`LOWER(submitter.department) LIKE ? ESCAPE '\'`, containsPattern(f.Department))
	}
	if f.From != nil {
		q = q.Where("feedback_submissions.created_at >= ?", f.From.UTC())
	}
	if f.Until != nil {
		q = q.Where("feedback_submissions.created_at < ?", f.Until.UTC())
	}

	var subs []*feedbackDatamodel.Submission
	err := withDetails(q).
		Order("feedback_submissions.created_at DESC").
		Order("feedback_submissions.id DESC").
		Find(&subs).Error
	return subs, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/core/common/dberrors"
	"github.com/frahmantamala/feedback-management/internal/core/common/validation"
	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/feedback-management/internal/core/events"
)

type RepositoryAPI interface {
	// Create writes the submission and its answers atomically. Answers whose
	// question is missing or inactive abort it with *InvalidQuestionError.
	Create(ctx context.Context, sub *feedbackDatamodel.Submission) error
	GetByID(ctx context.Context, id int64) (*feedbackDatamodel.Submission, error)
	ListBySubmitter(ctx context.Context, employeeID int64) ([]*feedbackDatamodel.Submission, error)
	Filter(ctx context.Context, f Filter) ([]*feedbackDatamodel.Submission, error)
}

type EmployeeLookup interface {
	GetByUserID(ctx context.Context, userID int64) (*employeeDatamodel.Employee, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo      RepositoryAPI
	employees EmployeeLookup
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, employees EmployeeLookup, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit records a submission on behalf of caller. The submitter is always the
// caller's own employee record.
func (s *Service) Submit(ctx context.Context, caller *internal.User, dto SubmitFeedbackDTO) (*Submission, error) {
	if err := internal.Merge(validation.ValidateStruct(dto), duplicateQuestions(dto.Answers)); err != nil {
		return nil, err
	}

	exists, err := s.employees.Exists(ctx, dto.TargetEmployeeID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check target employee", err)
	}
	if !exists {
		return nil, internal.NewValidationFieldError("target_employee_id",
			fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", dto.TargetEmployeeID),
			internal.ErrCodeInvalidEmployee)
	}

	submitter, err := s.employees.GetByUserID(ctx, caller.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load submitter", err)
	}
	if submitter == nil {
		return nil, internal.ErrNoEmployeeProfile
	}

	target := dto.TargetEmployeeID
	sub := &feedbackDatamodel.Submission{
		SubmittedByID:    submitter.ID,
		TargetEmployeeID: &target,
		CreatedAt:        s.now().UTC(),
		Answers:          make([]feedbackDatamodel.Answer, 0, len(dto.Answers)),
	}
	for _, a := range dto.Answers {
		sub.Answers = append(sub.Answers, feedbackDatamodel.Answer{
			QuestionID: a.QuestionID,
			Rating:     int16(a.Rating),
			Comment:    a.Comment,
		})
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		var invalid *InvalidQuestionError
		switch {
		case errors.As(err, &invalid):
			return nil, internal.NewValidationFieldError(
				fmt.Sprintf("answers[%d].question_id", invalid.Index),
				fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", invalid.QuestionID),
				internal.ErrCodeInvalidQuestion)
		case dberrors.IsDuplicateKey(err):
			return nil, internal.NewValidationFieldError("answers",
				"Each question may be answered only once per submission.",
				internal.ErrCodeDuplicateQuestion)
		}
		return nil, internal.NewInternalError("failed to save feedback", err)
	}

	saved, err := s.repo.GetByID(ctx, sub.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load feedback", err)
	}
	if saved == nil {
		return nil, internal.NewNotFoundError("feedback submission not found", internal.ErrCodeSubmissionNotFound)
	}

	s.logger.InfoContext(ctx, "feedback submitted",
		"submission_id", saved.ID,
		"submitted_by", saved.SubmittedByID,
		"target_employee_id", target,
		"answers", len(saved.Answers))
	s.publisher.Publish(ctx, events.NewFeedbackSubmittedEvent(saved.ID, saved.SubmittedByID, saved.TargetEmployeeID, len(saved.Answers)))

	return FromDataModel(saved), nil
}

func duplicateQuestions(answers []AnswerDTO) *internal.AppError {
	seen := make(map[int64]struct{}, len(answers))
	var failures []*internal.AppError
	for i, a := range answers {
		if a.QuestionID == 0 {
			continue
		}
		if _, ok := seen[a.QuestionID]; ok {
			failures = append(failures, internal.NewValidationFieldError(
				fmt.Sprintf("answers[%d].question_id", i),
				"Duplicate question in submission.",
				internal.ErrCodeDuplicateQuestion))
			continue
		}
		seen[a.QuestionID] = struct{}{}
	}
	return internal.Merge(failures...)
}

// ListMine returns the caller's own submissions, newest first. A caller
// without an employee record has submitted nothing.
func (s *Service) ListMine(ctx context.Context, caller *internal.User) ([]*Submission, error) {
	emp, err := s.employees.GetByUserID(ctx, caller.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load employee", err)
	}
	if emp == nil {
		return []*Submission{}, nil
	}

	rows, err := s.repo.ListBySubmitter(ctx, emp.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list feedback", "error", err, "employee_id", emp.ID)
		return nil, internal.NewInternalError("failed to list feedback", err)
	}
	return toViews(rows), nil
}

// ListByEmployee returns submissions made by the given employee, newest first.
func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]*Submission, error) {
	rows, err := s.repo.ListBySubmitter(ctx, employeeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list feedback", "error", err, "employee_id", employeeID)
		return nil, internal.NewInternalError("failed to list feedback", err)
	}
	return toViews(rows), nil
}

// AdminFilter returns every submission matching the filter, newest first.
// Dates are whole UTC days and both bounds are inclusive.
func (s *Service) AdminFilter(ctx context.Context, dto AdminFilterDTO) ([]*Submission, error) {
	dto.Normalize()

	v := validation.NewValidator()
	v.Field("start_date", dto.StartDate).Date()
	v.Field("end_date", dto.EndDate).Date()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	f := Filter{Department: dto.Department}
	f.DesignationID, f.DesignationName = DesignationFilter(string(dto.Designation))

	if dto.StartDate != "" {
		start, _ := time.Parse(validation.DateLayout, dto.StartDate)
		f.From = &start
	}
	if dto.EndDate != "" {
		end, _ := time.Parse(validation.DateLayout, dto.EndDate)
		until := end.AddDate(0, 0, 1)
		f.Until = &until
	}
	if f.From != nil && f.Until != nil && !f.From.Before(*f.Until) {
		return nil, internal.NewValidationFieldError("start_date",
			"start_date must not be after end_date.", internal.ErrCodeInvalidDateRange)
	}

	rows, err := s.repo.Filter(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to filter feedback", "error", err)
		return nil, internal.NewInternalError("failed to filter feedback", err)
	}
	return toViews(rows), nil
}

func toViews(rows []*feedbackDatamodel.Submission) []*Submission {
	out := make([]*Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}

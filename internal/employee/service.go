package employee

import (
	"context"
	"log/slog"

	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
)

type RepositoryAPI interface {
	ListDirectory(ctx context.Context) ([]*Employee, error)
	GetByUserID(ctx context.Context, userID int64) (*employeeDatamodel.Employee, error)
	Exists(ctx context.Context, id int64) (bool, error)
	EnsureForUser(ctx context.Context, userID int64, profile Profile) (*employeeDatamodel.Employee, bool, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns every employee ordered by id. There is no filtering.
func (s *Service) List(ctx context.Context) ([]*Employee, error) {
	employees, err := s.repo.ListDirectory(ctx)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}
	return employees, nil
}

// GetByUserID returns the employee linked to a user, or nil when there is none.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*employeeDatamodel.Employee, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// EnsureForUser is idempotent: a second call for the same user returns the
// existing record instead of failing.
func (s *Service) EnsureForUser(ctx context.Context, userID int64, profile Profile) (*employeeDatamodel.Employee, error) {
	emp, created, err := s.repo.EnsureForUser(ctx, userID, profile)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("employee created", "user_id", userID, "employee_id", emp.ID, "employee_code", deref(emp.EmployeeCode))
	}
	return emp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package user

import (
	"context"
	"fmt"

	"github.com/frahmantamala/feedback-management/internal"
	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/feedback-management/internal/employee"
)

type Repository interface {
	// GetByID returns nil when the user does not exist.
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetPermissions(ctx context.Context, userID int64) ([]string, error)
}

type EmployeeLookup interface {
	GetByUserID(ctx context.Context, userID int64) (*employeeDatamodel.Employee, error)
}

type Service struct {
	repo      Repository
	employees EmployeeLookup
}

func NewService(repo Repository, employees EmployeeLookup) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	perms, err := s.repo.GetPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}
	if perms == nil {
		perms = []string{}
	}
	u.Permissions = perms

	emp, err := s.employees.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp != nil {
		u.Employee = employee.FromDataModel(emp)
	}

	return u, nil
}

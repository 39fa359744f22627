package designation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/core/common/dberrors"
	"github.com/frahmantamala/feedback-management/internal/core/common/validation"
	designationDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/designation"
)

const maxNameLength = 100

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*designationDatamodel.Designation, error)
	GetByName(ctx context.Context, name string) (*designationDatamodel.Designation, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, d *designationDatamodel.Designation) error
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

func (s *Service) List(ctx context.Context) ([]*Designation, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get designations from repository", "error", err)
		return nil, err
	}

	out := make([]*Designation, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Create adds a designation. Names are unique; a duplicate is a conflict.
func (s *Service) Create(ctx context.Context, dto CreateDesignationDTO) (*Designation, error) {
	dto.Normalize()

	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(maxNameLength)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up designation", err)
	}
	if existing != nil {
		return nil, duplicateName(dto.Name)
	}

	row := &designationDatamodel.Designation{Name: dto.Name, CreatedAt: time.Now().UTC()}
	if err := s.repo.Create(ctx, row); err != nil {
		if dberrors.IsDuplicateConstraint(err, "designations_name_key", "designations.name") {
			return nil, duplicateName(dto.Name)
		}
		return nil, internal.NewInternalError("failed to create designation", err)
	}

	s.logger.InfoContext(ctx, "designation created", "designation_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func duplicateName(name string) *internal.AppError {
	return internal.NewConflictError(fmt.Sprintf("designation with name %q already exists", name), internal.ErrCodeDesignationExists)
}

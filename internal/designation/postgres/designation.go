package postgres

import (
	"context"
	"errors"

	designationDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/designation"
	"github.com/frahmantamala/feedback-management/internal/designation"
	"gorm.io/gorm"
)

type DesignationRepository struct {
	db *gorm.DB
}

func NewDesignationRepository(db *gorm.DB) designation.RepositoryAPI {
	return &DesignationRepository{db: db}
}

func (r *DesignationRepository) GetAll(ctx context.Context) ([]*designationDatamodel.Designation, error) {
	var designations []*designationDatamodel.Designation
	err := r.db.WithContext(ctx).Order("name ASC").Find(&designations).Error
	return designations, err
}

func (r *DesignationRepository) GetByName(ctx context.Context, name string) (*designationDatamodel.Designation, error) {
	var d designationDatamodel.Designation
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DesignationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&designationDatamodel.Designation{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *DesignationRepository) Create(ctx context.Context, d *designationDatamodel.Designation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

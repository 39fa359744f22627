package designation

import (
	"strings"
	"time"

	designationDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/designation"
)

type Designation struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateDesignationDTO struct {
	Name string `json:"name"`
}

func (d *CreateDesignationDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

type ListResponse struct {
	Designations []*Designation `json:"designations"`
}

func FromDataModel(d *designationDatamodel.Designation) *Designation {
	return &Designation{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
	}
}

package employee

import (
	"time"

	designationDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/designation"
	userDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/user"
)

type Employee struct {
	ID            int64                             `gorm:"primaryKey"`
	UserID        int64                             `gorm:"column:user_id;not null;uniqueIndex:employees_user_id_key"`
	User          userDatamodel.User                `gorm:"foreignKey:UserID"`
	DesignationID *int64                            `gorm:"column:designation_id"`
	Designation   *designationDatamodel.Designation `gorm:"foreignKey:DesignationID;constraint:OnDelete:SET NULL"`
	Department    string                            `gorm:"column:department;size:100;not null;default:''"`
	EmployeeCode  *string                           `gorm:"column:employee_code;size:50;uniqueIndex:employees_employee_code_key"`
	CreatedAt     time.Time                         `gorm:"column:created_at"`
	UpdatedAt     time.Time                         `gorm:"column:updated_at"`
}

func (Employee) TableName() string { return "employees" }

// Sequence is a named monotonically increasing counter.
type Sequence struct {
	Name  string `gorm:"primaryKey;column:name;size:50"`
	Value int64  `gorm:"column:value;not null"`
}

func (Sequence) TableName() string { return "sequences" }

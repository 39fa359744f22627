package employee

import (
	"fmt"
	"strings"

	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
)

const (
	CodePrefix   = "EMP"
	CodeSequence = "employee_code"
)

// Profile carries the optional attributes applied when an employee record is
// ensured for a user. Nil fields leave the stored value untouched.
type Profile struct {
	DesignationID *int64
	Department    *string
}

type Designation struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Employee is the directory view of one employee.
type Employee struct {
	ID           int64        `json:"id" db:"id"`
	UserID       int64        `json:"user_id" db:"user_id"`
	User         string       `json:"user" db:"username"`
	FullName     string       `json:"full_name" db:"-"`
	Email        string       `json:"email" db:"email"`
	Designation  *Designation `json:"designation" db:"-"`
	Department   string       `json:"department" db:"department"`
	EmployeeCode *string      `json:"employee_code" db:"employee_code"`
}

// FormatCode renders a sequence value as a human readable employee code.
func FormatCode(seq int64) string {
	return fmt.Sprintf("%s%04d", CodePrefix, seq)
}

func FullName(firstName, lastName string) string {
	return strings.TrimSpace(firstName + " " + lastName)
}

// DisplayName is "<full name or username> (<designation>)"; the suffix is
// omitted when the employee has no designation.
func DisplayName(e *employeeDatamodel.Employee) string {
	name := FullName(e.User.FirstName, e.User.LastName)
	if name == "" {
		name = e.User.Username
	}
	if e.Designation != nil {
		return fmt.Sprintf("%s (%s)", name, e.Designation.Name)
	}
	return name
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	out := &Employee{
		ID:           e.ID,
		UserID:       e.UserID,
		User:         e.User.Username,
		FullName:     FullName(e.User.FirstName, e.User.LastName),
		Email:        e.User.Email,
		Department:   e.Department,
		EmployeeCode: e.EmployeeCode,
	}
	if e.Designation != nil {
		out.Designation = &Designation{ID: e.Designation.ID, Name: e.Designation.Name}
	}
	return out
}

package auth

import "strings"

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RegisterDTO struct {
	Username      string  `json:"username" validate:"required,max=150"`
	Email         string  `json:"email" validate:"omitempty,email,max=254"`
	Password      string  `json:"password" validate:"required,min=6,max=128"`
	FirstName     string  `json:"first_name" validate:"max=150"`
	LastName      string  `json:"last_name" validate:"max=150"`
	DesignationID *int64  `json:"designation_id" validate:"omitempty,gt=0"`
	Department    *string `json:"department" validate:"omitempty,max=100"`
}

func (d *RegisterDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	if d.Department != nil {
		dep := strings.TrimSpace(*d.Department)
		d.Department = &dep
	}
}

type EmployeeSummary struct {
	ID            int64  `json:"id"`
	EmployeeCode  string `json:"employee_code"`
	DesignationID *int64 `json:"designation_id"`
	Department    string `json:"department"`
}

type RegisteredUser struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Employee  EmployeeSummary `json:"employee"`
}

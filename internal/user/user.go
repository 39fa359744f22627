package user

import (
	"time"

	"github.com/frahmantamala/feedback-management/internal/employee"
)

// User is the account view returned by GET /users/me.
type User struct {
	ID          int64              `json:"id" db:"id"`
	Username    string             `json:"username" db:"username"`
	Email       string             `json:"email" db:"email"`
	FirstName   string             `json:"first_name" db:"first_name"`
	LastName    string             `json:"last_name" db:"last_name"`
	IsActive    bool               `json:"is_active" db:"is_active"`
	LastLogin   *time.Time         `json:"last_login" db:"last_login"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	Permissions []string           `json:"permissions" db:"-"`
	Employee    *employee.Employee `json:"employee" db:"-"`
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/feedback-management/internal/employee"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db  *gorm.DB
	dbx *sqlx.DB
}

// NewEmployeeRepository writes through gorm and reads the directory
// projection through sqlx; both share one connection pool.
func NewEmployeeRepository(db *gorm.DB, dbx *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db, dbx: dbx}
}

// WithTx returns a repository bound to an open gorm transaction.
func (r *EmployeeRepository) WithTx(tx *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: tx, dbx: r.dbx}
}

type directoryRow struct {
	ID              int64   `db:"id"`
	UserID          int64   `db:"user_id"`
	Username        string  `db:"username"`
	FirstName       string  `db:"first_name"`
	LastName        string  `db:"last_name"`
	Email           string  `db:"email"`
	DesignationID   *int64  `db:"designation_id"`
	DesignationName *string `db:"designation_name"`
	Department      string  `db:"department"`
	EmployeeCode    *string `db:"employee_code"`
}

const directoryQuery = `
SELECT e.id, e.user_id, u.username, u.first_name, u.last_name, u.email,
       e.designation_id, d.name AS designation_name, e.department, e.employee_code
FROM employees e
JOIN users u ON u.id = e.user_id
LEFT JOIN designations d ON d.id = e.designation_id
ORDER BY e.id ASC`

func (r *EmployeeRepository) ListDirectory(ctx context.Context) ([]*employee.Employee, error) {
	var rows []directoryRow
	if err := r.dbx.SelectContext(ctx, &rows, r.dbx.Rebind(directoryQuery)); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	out := make([]*employee.Employee, 0, len(rows))
	for _, row := range rows {
		e := &employee.Employee{
			ID:           row.ID,
			UserID:       row.UserID,
			User:         row.Username,
			FullName:     employee.FullName(row.FirstName, row.LastName),
			Email:        row.Email,
			Department:   row.Department,
			EmployeeCode: row.EmployeeCode,
		}
		if row.DesignationID != nil && row.DesignationName != nil {
			e.Designation = &employee.Designation{ID: *row.DesignationID, Name: *row.DesignationName}
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *EmployeeRepository) GetByUserID(ctx context.Context, userID int64) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Designation").
		Where("user_id = ?", userID).
		First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// EnsureForUser creates the employee row for userID unless one exists. A
// concurrent creator losing the race sees created=false instead of an error.
// Codes come from an atomic counter so two first saves never share a code.
func (r *EmployeeRepository) EnsureForUser(ctx context.Context, userID int64, profile employee.Profile) (*employeeDatamodel.Employee, bool, error) {
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		department := ""
		if profile.Department != nil {
			department = *profile.Department
		}

		res := tx.Exec(
			`INSERT INTO employees (user_id, designation_id, department, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (user_id) DO NOTHING`,
			userID, profile.DesignationID, department, now, now)
		if res.Error != nil {
			return fmt.Errorf("insert employee: %w", res.Error)
		}

		if res.RowsAffected == 1 {
			created = true
			seq, err := r.nextValue(tx, employee.CodeSequence)
			if err != nil {
				return err
			}
			return tx.Exec(
				`UPDATE employees SET employee_code = ? WHERE user_id = ? AND employee_code IS NULL`,
				employee.FormatCode(seq), userID).Error
		}

		updates := map[string]interface{}{}
		if profile.DesignationID != nil {
			updates["designation_id"] = *profile.DesignationID
		}
		if profile.Department != nil {
			updates["department"] = *profile.Department
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = now
		return tx.Model(&employeeDatamodel.Employee{}).Where("user_id = ?", userID).Updates(updates).Error
	})
	if err != nil {
		return nil, false, err
	}

	emp, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if emp == nil {
		return nil, false, fmt.Errorf("employee for user %d vanished after ensure", userID)
	}
	return emp, created, nil
}

// nextValue bumps a named counter and returns the new value in one statement,
// so the row lock is held until the surrounding transaction ends.
func (r *EmployeeRepository) nextValue(tx *gorm.DB, name string) (int64, error) {
	var value int64
	err := tx.Raw(
		`INSERT INTO sequences (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`, name).Row().Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next %s value: %w", name, err)
	}
	return value, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/auth"
	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/user"
	"github.com/frahmantamala/feedback-management/internal/employee"
	employeePostgres "github.com/frahmantamala/feedback-management/internal/employee/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db        *gorm.DB
	employees *employeePostgres.EmployeeRepository
}

var _ auth.RepositoryAPI = (*Repository)(nil)

func NewRepository(db *gorm.DB, employees *employeePostgres.EmployeeRepository) *Repository {
	return &Repository{
		db:        db,
		employees: employees,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, username string) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := `SELECT id, username, password_hash, is_active FROM users WHERE username = ?`

	row := r.db.WithContext(ctx).Raw(query, username).Row()
	if err := row.Scan(&creds.UserID, &creds.Username, &creds.PasswordHash, &creds.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &creds, nil
}

func (r *Repository) GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error) {
	var user internal.User

	query := `SELECT id, username FROM users WHERE id = ? AND is_active = ?`
	row := r.db.WithContext(ctx).Raw(query, userID, true).Row()
	if err := row.Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	permQuery := `SELECT p.name
	             FROM permissions p
	             JOIN user_permissions up ON p.id = up.permission_id
	             WHERE up.user_id = ?
	             ORDER BY p.name`

	var permissions []string
	if err := r.db.WithContext(ctx).Raw(permQuery, userID).Scan(&permissions).Error; err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}

	user.Permissions = permissions
	return &user, nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// CreateUserWithEmployee inserts the user and ensures its employee record in
// one transaction; a failure in either leaves no user behind.
func (r *Repository) CreateUserWithEmployee(ctx context.Context, u *userDatamodel.User, profile employee.Profile) (*employeeDatamodel.Employee, error) {
	var emp *employeeDatamodel.Employee

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}

		var err error
		emp, _, err = r.employees.WithTx(tx).EnsureForUser(ctx, u.ID, profile)
		return err
	})
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"last_login": at, "updated_at": at}).Error
}

// GrantPermission creates the permission if needed and links it to the user.
// Granting twice is a no-op.
func (r *Repository) GrantPermission(ctx context.Context, userID int64, permission string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perm := userDatamodel.Permission{Name: permission, CreatedAt: time.Now().UTC()}
		if err := tx.Where(userDatamodel.Permission{Name: permission}).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("ensure permission %s: %w", permission, err)
		}

		link := userDatamodel.UserPermission{
			UserID:       userID,
			PermissionID: perm.ID,
			CreatedAt:    time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
	})
}

// GetUserIDByUsername resolves a username for operator commands.
func (r *Repository) GetUserIDByUsername(ctx context.Context, username string) (int64, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Select("id").Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, internal.NewNotFoundError(fmt.Sprintf("user %q not found", username), internal.ErrCodeUserNotFound)
		}
		return 0, err
	}
	return u.ID, nil
}

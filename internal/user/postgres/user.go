package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/feedback-management/internal/user"
	"github.com/jmoiron/sqlx"
)

type pgRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) user.Repository {
	return &pgRepo{db: db}
}

func (p *pgRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	query := p.db.Rebind(`SELECT id, username, email, first_name, last_name, is_active, last_login, created_at FROM users WHERE id = ?`)
	if err := p.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (p *pgRepo) GetPermissions(ctx context.Context, userID int64) ([]string, error) {
	var perms []string
	query := p.db.Rebind(`
SELECT p.name
FROM permissions p
JOIN user_permissions up ON up.permission_id = p.id
WHERE up.user_id = ?
ORDER BY p.name`)
	if err := p.db.SelectContext(ctx, &perms, query, userID); err != nil {
		return nil, fmt.Errorf("get permissions: %w", err)
	}
	return perms, nil
}

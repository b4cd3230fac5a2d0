package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const userColumns = `id, username, email, full_name, password_hash, is_verified, auth_provider, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email))
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (model.User, error) {
	var u model.User
	var provider string
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Verified,
			&provider, &u.CreatedAt, &u.UpdatedAt)

	if noRow(err) {
		return model.User{}, apierror.UserNotFound.WithDetails(arg)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	u.AuthProvider = model.AuthProvider(provider)

	roles, err := r.rolesOf(ctx, u.ID)
	if err != nil {
		return model.User{}, err
	}
	u.Roles = roles
	return u, nil
}

func (r *UserRepository) rolesOf(ctx context.Context, userID string) ([]model.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ur.role_name,
		        COALESCE(array_agg(rp.permission_name ORDER BY rp.permission_name)
		                 FILTER (WHERE rp.permission_name IS NOT NULL), '{}')
		 FROM user_roles ur
		 LEFT JOIN role_permissions rp ON rp.role_name = ur.role_name
		 WHERE ur.user_id = $1
		 GROUP BY ur.role_name
		 ORDER BY ur.role_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}
	defer rows.Close()

	roles := make([]model.Role, 0)
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.Name, &role.Permissions); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Create inserts the user and its role assignments in one transaction.
func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Username, u.Email, u.FullName, u.PasswordHash, u.Verified,
		string(u.AuthProvider), u.CreatedAt, u.UpdatedAt)
	if constraint, ok := uniqueViolation(err); ok {
		if strings.Contains(constraint, "email") {
			return apierror.EmailExists.WithDetails(u.Email)
		}
		return apierror.UsernameExists.WithDetails(u.Username)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	for _, role := range u.Roles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_name) VALUES ($1, $2)`, u.ID, role.Name); err != nil {
			return fmt.Errorf("assign role %s: %w", role.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_verified = true, updated_at = $2 WHERE id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.UserNotFound.WithDetails(userID)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.UserNotFound.WithDetails(userID)
	}
	return nil
}

func (r *UserRepository) UpdateFullName(ctx context.Context, userID string, fullName string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET full_name = $2, updated_at = $3 WHERE id = $1`,
		userID, fullName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update full name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.UserNotFound.WithDetails(userID)
	}
	return nil
}

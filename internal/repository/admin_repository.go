package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"preset-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrAdministratorNotFound      = errors.New("administrator not found")
	ErrAdministratorAlreadyExists = errors.New("administrator with this email already exists")
)

// AdminRepository defines the interface for administrator data access
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Administrator) error
	FindActiveByEmail(ctx context.Context, email string) (*domain.Administrator, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int, error)
}

type adminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.Administrator) error {
	query := `
		INSERT INTO administrators (id, username, email, password_hash, is_active, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		admin.ID,
		admin.Username,
		admin.Email,
		admin.PasswordHash,
		admin.IsActive,
		admin.CreatedAt,
		admin.LastLoginAt,
	)
	if err != nil {
		if isUniqueViolation(err, "administrators_email_key") {
			return ErrAdministratorAlreadyExists
		}
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	return nil
}

// FindActiveByEmail ignores deactivated administrators
func (r *adminRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.Administrator, error) {
	query := `
		SELECT id, username, email, password_hash, is_active, created_at, last_login_at
		FROM administrators
		WHERE email = $1 AND is_active = TRUE
	`

	admin := &domain.Administrator{}
	var lastLogin sql.NullTime
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&admin.ID,
		&admin.Username,
		&admin.Email,
		&admin.PasswordHash,
		&admin.IsActive,
		&admin.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdministratorNotFound
		}
		return nil, fmt.Errorf("failed to find administrator by email: %w", err)
	}

	if lastLogin.Valid {
		admin.LastLoginAt = &lastLogin.Time
	}
	return admin, nil
}

func (r *adminRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE administrators SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAdministratorNotFound
	}

	return nil
}

func (r *adminRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM administrators`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count administrators: %w", err)
	}
	return count, nil
}

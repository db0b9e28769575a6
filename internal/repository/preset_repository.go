package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"preset-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrPresetInUse    = errors.New("preset has purchases")
)

// PresetRepository defines the interface for preset data access
type PresetRepository interface {
	Create(ctx context.Context, preset *domain.Preset) error
	Update(ctx context.Context, preset *domain.Preset) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Preset, error)
	ListActive(ctx context.Context, categoryID *uuid.UUID) ([]*domain.Preset, error)
}

type presetRepository struct {
	db *sql.DB
}

func NewPresetRepository(db *sql.DB) PresetRepository {
	return &presetRepository{db: db}
}

const presetSelect = `
	SELECT p.id, p.name, p.description, p.price, p.category_id, c.name,
	       p.before_image_url, p.after_image_url, p.preset_file_url,
	       p.is_active, p.created_at, p.updated_at
	FROM presets p
	LEFT JOIN categories c ON c.id = p.category_id
`

func (r *presetRepository) Create(ctx context.Context, preset *domain.Preset) error {
	query := `
		INSERT INTO presets (id, name, description, price, category_id, before_image_url, after_image_url,
		                     preset_file_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		preset.ID,
		preset.Name,
		preset.Description,
		preset.Price,
		nullableUUID(preset.CategoryID),
		preset.BeforeImageURL,
		preset.AfterImageURL,
		preset.PresetFileURL,
		preset.IsActive,
		preset.CreatedAt,
		preset.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, "fk_presets_category") {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to create preset: %w", err)
	}

	return nil
}

func (r *presetRepository) Update(ctx context.Context, preset *domain.Preset) error {
	query := `
		UPDATE presets
		SET name = $2, description = $3, price = $4, category_id = $5, before_image_url = $6,
		    after_image_url = $7, preset_file_url = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		preset.ID,
		preset.Name,
		preset.Description,
		preset.Price,
		nullableUUID(preset.CategoryID),
		preset.BeforeImageURL,
		preset.AfterImageURL,
		preset.PresetFileURL,
		preset.IsActive,
		preset.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, "fk_presets_category") {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update preset: %w", err)
	}

	return requireAffected(result, ErrPresetNotFound)
}

// Delete fails with ErrPresetInUse while purchases reference the preset
func (r *presetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM presets WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err, "fk_purchases_preset") {
			return ErrPresetInUse
		}
		return fmt.Errorf("failed to delete preset: %w", err)
	}

	return requireAffected(result, ErrPresetNotFound)
}

// FindByID returns the preset regardless of its active flag
func (r *presetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Preset, error) {
	preset, err := scanPreset(r.db.QueryRowContext(ctx, presetSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("failed to find preset by ID: %w", err)
	}
	return preset, nil
}

// ListActive returns active presets newest first, optionally within one category
func (r *presetRepository) ListActive(ctx context.Context, categoryID *uuid.UUID) ([]*domain.Preset, error) {
	query := presetSelect + ` WHERE p.is_active = TRUE`
	args := []interface{}{}
	if categoryID != nil {
		query += ` AND p.category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	presets := []*domain.Preset{}
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		presets = append(presets, preset)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating presets: %w", err)
	}

	return presets, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreset(row rowScanner) (*domain.Preset, error) {
	preset := &domain.Preset{}
	var (
		categoryID   uuid.NullUUID
		categoryName sql.NullString
	)

	err := row.Scan(
		&preset.ID,
		&preset.Name,
		&preset.Description,
		&preset.Price,
		&categoryID,
		&categoryName,
		&preset.BeforeImageURL,
		&preset.AfterImageURL,
		&preset.PresetFileURL,
		&preset.IsActive,
		&preset.CreatedAt,
		&preset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		id := categoryID.UUID
		preset.CategoryID = &id
	}
	preset.CategoryName = categoryName.String
	return preset, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"preset-shop/internal/domain"
	"preset-shop/internal/repository"
	"preset-shop/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	MinPrice = decimal.RequireFromString("0.01")
	MaxPrice = decimal.RequireFromString("999999.99")
)

// PresetInput describes a new preset
type PresetInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  *uuid.UUID
	BeforeImage *Upload
	AfterImage  *Upload
	PresetFile  *Upload
}

// PresetPatch holds the fields an update changes; nil means unchanged.
// A new upload replaces the stored file.
type PresetPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *uuid.UUID
	IsActive    *bool
	BeforeImage *Upload
	AfterImage  *Upload
	PresetFile  *Upload
}

type PresetService interface {
	ListPresets(ctx context.Context, categoryID *uuid.UUID) ([]*domain.Preset, error)
	GetPreset(ctx context.Context, id uuid.UUID) (*domain.Preset, error)
	CreatePreset(ctx context.Context, input PresetInput) (*domain.Preset, error)
	UpdatePreset(ctx context.Context, id uuid.UUID, patch PresetPatch) (*domain.Preset, error)
	DeletePreset(ctx context.Context, id uuid.UUID) error
}

type presetService struct {
	presets repository.PresetRepository
	files   FileStorage
	logger  *zap.Logger
	now     func() time.Time
}

func NewPresetService(presets repository.PresetRepository, files FileStorage, logger *zap.Logger) PresetService {
	return &presetService{
		presets: presets,
		files:   files,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListPresets returns active presets newest first
func (s *presetService) ListPresets(ctx context.Context, categoryID *uuid.UUID) ([]*domain.Preset, error) {
	presets, err := s.presets.ListActive(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	return presets, nil
}

func (s *presetService) GetPreset(ctx context.Context, id uuid.UUID) (*domain.Preset, error) {
	preset, err := s.presets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPresetNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return preset, nil
}

func (s *presetService) CreatePreset(ctx context.Context, input PresetInput) (*domain.Preset, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, invalidf("name and description are required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}

	now := s.now()
	preset := &domain.Preset{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	batch := newUploadBatch(s.files, s.logger)
	if err := s.storeUploads(batch, preset, input.BeforeImage, input.AfterImage, input.PresetFile); err != nil {
		return nil, err
	}

	if err := s.presets.Create(ctx, preset); err != nil {
		batch.rollback()
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, invalidf("category does not exist")
		}
		s.logger.Error("Failed to create preset", zap.String("name", preset.Name), zap.Error(err))
		return nil, fmt.Errorf("failed to create preset: %w", err)
	}

	s.logger.Info("Preset created", zap.String("preset_id", preset.ID.String()), zap.String("name", preset.Name))
	return s.GetPreset(ctx, preset.ID)
}

func (s *presetService) UpdatePreset(ctx context.Context, id uuid.UUID, patch PresetPatch) (*domain.Preset, error) {
	preset, err := s.GetPreset(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		preset.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil && *patch.Description != "" {
		preset.Description = *patch.Description
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
		preset.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		preset.CategoryID = patch.CategoryID
	}
	if patch.IsActive != nil {
		preset.IsActive = *patch.IsActive
	}
	preset.UpdatedAt = s.now()

	batch := newUploadBatch(s.files, s.logger)
	if err := s.storeUploads(batch, preset, patch.BeforeImage, patch.AfterImage, patch.PresetFile); err != nil {
		return nil, err
	}

	if err := s.presets.Update(ctx, preset); err != nil {
		batch.rollback()
		switch {
		case errors.Is(err, repository.ErrPresetNotFound):
			return nil, ErrPresetNotFound
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, invalidf("category does not exist")
		}
		s.logger.Error("Failed to update preset", zap.String("preset_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to update preset: %w", err)
	}
	batch.commit()

	s.logger.Info("Preset updated", zap.String("preset_id", id.String()))
	return s.GetPreset(ctx, id)
}

// DeletePreset removes the preset and its files. Purchased presets cannot be deleted.
func (s *presetService) DeletePreset(ctx context.Context, id uuid.UUID) error {
	preset, err := s.GetPreset(ctx, id)
	if err != nil {
		return err
	}

	if err := s.presets.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrPresetInUse):
			return ErrPresetInUse
		case errors.Is(err, repository.ErrPresetNotFound):
			return ErrPresetNotFound
		}
		s.logger.Error("Failed to delete preset", zap.String("preset_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete preset: %w", err)
	}

	batch := newUploadBatch(s.files, s.logger)
	batch.replaced = []string{preset.BeforeImageURL, preset.AfterImageURL, preset.PresetFileURL}
	batch.commit()

	s.logger.Info("Preset deleted", zap.String("preset_id", id.String()))
	return nil
}

func (s *presetService) storeUploads(batch *uploadBatch, preset *domain.Preset, before, after, file *Upload) error {
	var err error
	if before != nil {
		if preset.BeforeImageURL, err = batch.image(storage.FolderPresetBefore, before, preset.BeforeImageURL); err != nil {
			return err
		}
	}
	if after != nil {
		if preset.AfterImageURL, err = batch.image(storage.FolderPresetAfter, after, preset.AfterImageURL); err != nil {
			return err
		}
	}
	if file != nil {
		if preset.PresetFileURL, err = batch.presetFile(file, preset.PresetFileURL); err != nil {
			return err
		}
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.LessThan(MinPrice) || price.GreaterThan(MaxPrice) {
		return invalidf("price must be between 0.01 and 999999.99")
	}
	if !price.Equal(price.Round(2)) {
		return invalidf("price must have at most two decimal places")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"preset-shop/internal/auth"
	"preset-shop/internal/config"
	"preset-shop/internal/domain"
	"preset-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var defaultCategories = []struct {
	name        string
	description string
}{
	{"Mobile Presets", "Lightroom presets optimized for mobile photography"},
	{"Lightroom Presets", "Professional Lightroom presets for desktop"},
}

// Seeder bootstraps an empty database with an administrator and default categories
type Seeder struct {
	admins     repository.AdminRepository
	categories repository.CategoryRepository
	hasher     auth.PasswordHasher
	cfg        config.SeedConfig
	logger     *zap.Logger
}

func NewSeeder(
	admins repository.AdminRepository,
	categories repository.CategoryRepository,
	hasher auth.PasswordHasher,
	cfg config.SeedConfig,
	logger *zap.Logger,
) *Seeder {
	return &Seeder{admins: admins, categories: categories, hasher: hasher, cfg: cfg, logger: logger}
}

// Seed is idempotent: each table is only seeded while empty
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedAdmin(ctx); err != nil {
		return err
	}
	return s.seedCategories(ctx)
}

func (s *Seeder) seedAdmin(ctx context.Context) error {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count administrators: %w", err)
	}
	if count > 0 {
		return nil
	}
	if s.cfg.AdminPassword == "" {
		s.logger.Warn("No administrators exist and SEED_ADMIN_PASSWORD is empty; skipping administrator seed")
		return nil
	}

	hash, err := s.hasher.Hash(s.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	admin := &domain.Administrator{
		ID:           uuid.New(),
		Username:     s.cfg.AdminUsername,
		Email:        s.cfg.AdminEmail,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdministratorAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to seed administrator: %w", err)
	}

	s.logger.Info("Seeded default administrator", zap.String("email", admin.Email))
	return nil
}

func (s *Seeder) seedCategories(ctx context.Context) error {
	count, err := s.categories.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, c := range defaultCategories {
		category := &domain.Category{
			ID:          uuid.New(),
			Name:        c.name,
			Description: c.description,
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.categories.Create(ctx, category); err != nil && !errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return fmt.Errorf("failed to seed category %q: %w", c.name, err)
		}
	}

	s.logger.Info("Seeded default categories", zap.Int("count", len(defaultCategories)))
	return nil
}

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

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPresetCount  = 10000
)

// ProductInput describes a new legacy product bundle
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	PresetCount int
	MainImage   *Upload
	BeforeImage *Upload
	AfterImage  *Upload
}

// ProductPatch holds the fields an update changes; nil means unchanged
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	PresetCount *int
	IsActive    *bool
	MainImage   *Upload
	BeforeImage *Upload
	AfterImage  *Upload
}

// ProductPage is one page of active products
type ProductPage struct {
	Items    []*domain.Product `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type ProductService interface {
	ListProducts(ctx context.Context, page, pageSize int) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	products repository.ProductRepository
	files    FileStorage
	logger   *zap.Logger
}

func NewProductService(products repository.ProductRepository, files FileStorage, logger *zap.Logger) ProductService {
	return &productService{products: products, files: files, logger: logger}
}

// ListProducts returns active products newest first. Out-of-range paging falls back to defaults.
func (s *productService) ListProducts(ctx context.Context, page, pageSize int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := s.products.ListActive(ctx, page, pageSize, "created_at", repository.SortOrderDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, invalidf("name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.PresetCount == 0 {
		input.PresetCount = 1
	}
	if err := validatePresetCount(input.PresetCount); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		PresetCount: input.PresetCount,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	batch := newUploadBatch(s.files, s.logger)
	if err := s.storeUploads(batch, product, input.MainImage, input.BeforeImage, input.AfterImage); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		batch.rollback()
		s.logger.Error("Failed to create product", zap.String("name", product.Name), zap.Error(err))
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*domain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil && *patch.Description != "" {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
		product.Price = *patch.Price
	}
	if patch.Category != nil && *patch.Category != "" {
		product.Category = *patch.Category
	}
	if patch.PresetCount != nil {
		if err := validatePresetCount(*patch.PresetCount); err != nil {
			return nil, err
		}
		product.PresetCount = *patch.PresetCount
	}
	if patch.IsActive != nil {
		product.IsActive = *patch.IsActive
	}

	batch := newUploadBatch(s.files, s.logger)
	if err := s.storeUploads(batch, product, patch.MainImage, patch.BeforeImage, patch.AfterImage); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		batch.rollback()
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to update product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	batch.commit()

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		s.logger.Error("Failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete product: %w", err)
	}

	batch := newUploadBatch(s.files, s.logger)
	batch.replaced = []string{product.ImageURL, product.BeforeImageURL, product.AfterImageURL}
	batch.commit()

	return nil
}

func (s *productService) storeUploads(batch *uploadBatch, product *domain.Product, main, before, after *Upload) error {
	var err error
	if main != nil {
		if product.ImageURL, err = batch.image(storage.FolderProducts, main, product.ImageURL); err != nil {
			return err
		}
	}
	if before != nil {
		if product.BeforeImageURL, err = batch.image(storage.FolderProducts, before, product.BeforeImageURL); err != nil {
			return err
		}
	}
	if after != nil {
		if product.AfterImageURL, err = batch.image(storage.FolderProducts, after, product.AfterImageURL); err != nil {
			return err
		}
	}
	return nil
}

func validatePresetCount(n int) error {
	if n < 1 || n > MaxPresetCount {
		return invalidf("preset count must be between 1 and 10000")
	}
	return nil
}

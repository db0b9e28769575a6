package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category groups presets in the catalog
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Preset is a downloadable photo-editing configuration sold through the catalog
type Preset struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	Price          decimal.Decimal `json:"price" db:"price"`
	CategoryID     *uuid.UUID      `json:"categoryId" db:"category_id"`
	CategoryName   string          `json:"categoryName,omitempty" db:"-"`
	BeforeImageURL string          `json:"beforeImageUrl,omitempty" db:"before_image_url"`
	AfterImageURL  string          `json:"afterImageUrl,omitempty" db:"after_image_url"`
	PresetFileURL  string          `json:"presetFileUrl,omitempty" db:"preset_file_url"`
	IsActive       bool            `json:"isActive" db:"is_active"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// Product is the legacy bundle listing that predates per-preset sales
type Product struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	Price          decimal.Decimal `json:"price" db:"price"`
	ImageURL       string          `json:"imageUrl,omitempty" db:"image_url"`
	BeforeImageURL string          `json:"beforeImageUrl,omitempty" db:"before_image_url"`
	AfterImageURL  string          `json:"afterImageUrl,omitempty" db:"after_image_url"`
	Category       string          `json:"category" db:"category"`
	PresetCount    int             `json:"presetCount" db:"preset_count"`
	IsActive       bool            `json:"isActive" db:"is_active"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

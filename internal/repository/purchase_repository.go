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
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrPurchaseAlreadyExists = errors.New("preset already purchased by this customer")
)

// PurchaseRepository stores entitlements. Purchases are insert-only.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	ExistsCompleted(ctx context.Context, customerID, presetID uuid.UUID) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.PurchaseRecord, error)
	FindPurchasedFile(ctx context.Context, customerID, presetID uuid.UUID) (string, error)
}

type purchaseRepository struct {
	db *sql.DB
}

func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Create relies on the (customer_id, preset_id) unique constraint to reject
// duplicates, including ones racing past an earlier existence check.
func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		INSERT INTO purchases (id, customer_id, preset_id, purchase_price, transaction_id, purchased_at, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		purchase.ID,
		purchase.CustomerID,
		purchase.PresetID,
		purchase.PurchasePrice,
		purchase.TransactionID,
		purchase.PurchasedAt,
		purchase.IsCompleted,
	)
	if err != nil {
		if isUniqueViolation(err, "purchases_customer_preset_key") {
			return ErrPurchaseAlreadyExists
		}
		if isForeignKeyViolation(err, "fk_purchases_preset") {
			return ErrPresetNotFound
		}
		if isForeignKeyViolation(err, "fk_purchases_customer") {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

func (r *purchaseRepository) ExistsCompleted(ctx context.Context, customerID, presetID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE customer_id = $1 AND preset_id = $2 AND is_completed = TRUE
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, customerID, presetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return exists, nil
}

// ListByCustomer returns the customer's purchases newest first with preset names
func (r *purchaseRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.PurchaseRecord, error) {
	query := `
		SELECT pu.id, pu.customer_id, pu.preset_id, pu.purchase_price, pu.transaction_id,
		       pu.purchased_at, pu.is_completed, pr.name
		FROM purchases pu
		JOIN presets pr ON pr.id = pu.preset_id
		WHERE pu.customer_id = $1
		ORDER BY pu.purchased_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	records := []*domain.PurchaseRecord{}
	for rows.Next() {
		record := &domain.PurchaseRecord{}
		err := rows.Scan(
			&record.ID,
			&record.CustomerID,
			&record.PresetID,
			&record.PurchasePrice,
			&record.TransactionID,
			&record.PurchasedAt,
			&record.IsCompleted,
			&record.PresetName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return records, nil
}

// FindPurchasedFile returns the preset file reference behind a completed
// purchase. It does not consult the preset's active flag.
func (r *purchaseRepository) FindPurchasedFile(ctx context.Context, customerID, presetID uuid.UUID) (string, error) {
	query := `
		SELECT pr.preset_file_url
		FROM purchases pu
		JOIN presets pr ON pr.id = pu.preset_id
		WHERE pu.customer_id = $1 AND pu.preset_id = $2 AND pu.is_completed = TRUE
	`

	var ref string
	if err := r.db.QueryRowContext(ctx, query, customerID, presetID).Scan(&ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPurchaseNotFound
		}
		return "", fmt.Errorf("failed to find purchased file: %w", err)
	}
	return ref, nil
}

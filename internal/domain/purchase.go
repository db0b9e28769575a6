package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DemoTransactionPrefix marks transaction ids that were not issued by a payment gateway
const DemoTransactionPrefix = "DEMO-"

// Purchase records that a customer owns a preset. Rows are insert-only.
type Purchase struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CustomerID    uuid.UUID       `json:"userId" db:"customer_id"`
	PresetID      uuid.UUID       `json:"presetId" db:"preset_id"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" db:"purchase_price"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	PurchasedAt   time.Time       `json:"purchasedAt" db:"purchased_at"`
	IsCompleted   bool            `json:"isCompleted" db:"is_completed"`
}

// PurchaseRecord is a purchase joined with the display name of its preset
type PurchaseRecord struct {
	Purchase
	PresetName string `json:"presetName"`
}

// NewDemoTransactionID returns DEMO- followed by 12 uppercase hex characters
func NewDemoTransactionID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return DemoTransactionPrefix + strings.ToUpper(hex[:12])
}

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"preset-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newPurchase(customerID, presetID uuid.UUID, price decimal.Decimal, at time.Time) *domain.Purchase {
	return &domain.Purchase{
		ID:            uuid.New(),
		CustomerID:    customerID,
		PresetID:      presetID,
		PurchasePrice: price,
		TransactionID: domain.NewDemoTransactionID(),
		PurchasedAt:   at,
		IsCompleted:   true,
	}
}

func TestPurchaseRepository_CreateAndExists(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewPurchaseRepository(testDB)
	customer := createTestCustomer(t, ctx)
	preset := createTestPreset(t, ctx, "9.99", "/uploads/presets/files/p.zip")

	exists, err := repo.ExistsCompleted(ctx, customer.ID, preset.ID)
	if err != nil || exists {
		t.Fatalf("expected no purchase yet, got %v (%v)", exists, err)
	}

	if err := repo.Create(ctx, newPurchase(customer.ID, preset.ID, preset.Price, now())); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err = repo.ExistsCompleted(ctx, customer.ID, preset.ID)
	if err != nil || !exists {
		t.Fatalf("expected purchase to exist, got %v (%v)", exists, err)
	}

	if err := repo.Create(ctx, newPurchase(customer.ID, preset.ID, preset.Price, now())); err != ErrPurchaseAlreadyExists {
		t.Errorf("expected ErrPurchaseAlreadyExists, got %v", err)
	}
}

func TestPurchaseRepository_ConcurrentDuplicatesLeaveOneRow(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewPurchaseRepository(testDB)
	customer := createTestCustomer(t, ctx)
	preset := createTestPreset(t, ctx, "4.50", "")

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[error]int{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, newPurchase(customer.ID, preset.ID, preset.Price, now()))
			mu.Lock()
			results[err]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if results[nil] != 1 || results[ErrPurchaseAlreadyExists] != workers-1 {
		t.Fatalf("unexpected outcomes: %v", results)
	}

	var rows int
	testDB.QueryRow(`SELECT COUNT(*) FROM purchases WHERE customer_id = $1 AND preset_id = $2`, customer.ID, preset.ID).Scan(&rows)
	if rows != 1 {
		t.Errorf("expected exactly one purchase row, got %d", rows)
	}
}

func TestPurchaseRepository_ListByCustomerNewestFirst(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewPurchaseRepository(testDB)
	customer := createTestCustomer(t, ctx)
	older := createTestPreset(t, ctx, "3.00", "")
	newer := createTestPreset(t, ctx, "7.25", "")

	base := now()
	if err := repo.Create(ctx, newPurchase(customer.ID, older.ID, older.Price, base.Add(-time.Hour))); err != nil {
		t.Fatalf("create older: %v", err)
	}
	if err := repo.Create(ctx, newPurchase(customer.ID, newer.ID, newer.Price, base)); err != nil {
		t.Fatalf("create newer: %v", err)
	}

	records, err := repo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].PresetID != newer.ID || records[0].PresetName != newer.Name {
		t.Errorf("newest purchase should be first, got %+v", records[0])
	}
	if !records[1].PurchasePrice.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("unexpected price snapshot %s", records[1].PurchasePrice)
	}

	others, err := repo.ListByCustomer(ctx, uuid.New())
	if err != nil || len(others) != 0 {
		t.Errorf("expected empty list for unknown customer, got %d (%v)", len(others), err)
	}
}

func TestPurchaseRepository_PriceSnapshotSurvivesRepricing(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	customer := createTestCustomer(t, ctx)
	preset := createTestPreset(t, ctx, "9.99", "")

	if err := NewPurchaseRepository(testDB).Create(ctx, newPurchase(customer.ID, preset.ID, preset.Price, now())); err != nil {
		t.Fatalf("create: %v", err)
	}

	preset.Price = decimal.RequireFromString("19.99")
	preset.UpdatedAt = now()
	if err := NewPresetRepository(testDB).Update(ctx, preset); err != nil {
		t.Fatalf("update preset: %v", err)
	}

	records, _ := NewPurchaseRepository(testDB).ListByCustomer(ctx, customer.ID)
	if len(records) != 1 || !records[0].PurchasePrice.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("purchase price must not follow the preset price, got %+v", records)
	}
}

func TestPurchaseRepository_FindPurchasedFile(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewPurchaseRepository(testDB)
	customer := createTestCustomer(t, ctx)
	preset := createTestPreset(t, ctx, "9.99", "/uploads/presets/files/golden.zip")

	if _, err := repo.FindPurchasedFile(ctx, customer.ID, preset.ID); err != ErrPurchaseNotFound {
		t.Fatalf("expected ErrPurchaseNotFound before purchase, got %v", err)
	}

	repo.Create(ctx, newPurchase(customer.ID, preset.ID, preset.Price, now()))

	ref, err := repo.FindPurchasedFile(ctx, customer.ID, preset.ID)
	if err != nil || ref != "/uploads/presets/files/golden.zip" {
		t.Fatalf("expected file reference, got %q (%v)", ref, err)
	}

	preset.IsActive = false
	preset.UpdatedAt = now()
	NewPresetRepository(testDB).Update(ctx, preset)

	ref, err = repo.FindPurchasedFile(ctx, customer.ID, preset.ID)
	if err != nil || ref == "" {
		t.Errorf("deactivated preset must stay downloadable, got %q (%v)", ref, err)
	}
}

func TestPurchaseRepository_UnknownReferences(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewPurchaseRepository(testDB)
	customer := createTestCustomer(t, ctx)
	preset := createTestPreset(t, ctx, "1.00", "")

	if err := repo.Create(ctx, newPurchase(customer.ID, uuid.New(), decimal.NewFromInt(1), now())); err != ErrPresetNotFound {
		t.Errorf("expected ErrPresetNotFound, got %v", err)
	}
	if err := repo.Create(ctx, newPurchase(uuid.New(), preset.ID, decimal.NewFromInt(1), now())); err != ErrCustomerNotFound {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestPresetRepository_DeleteRestrictedByPurchases(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	customer := createTestCustomer(t, ctx)
	preset := createTestPreset(t, ctx, "2.00", "")
	NewPurchaseRepository(testDB).Create(ctx, newPurchase(customer.ID, preset.ID, preset.Price, now()))

	if err := NewPresetRepository(testDB).Delete(ctx, preset.ID); err != ErrPresetInUse {
		t.Errorf("expected ErrPresetInUse, got %v", err)
	}
}

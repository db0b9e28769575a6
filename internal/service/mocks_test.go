package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"preset-shop/internal/auth"
	"preset-shop/internal/config"
	"preset-shop/internal/domain"
	"preset-shop/internal/repository"
	"preset-shop/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Mock repositories for testing

type mockAdminRepository struct {
	mu     sync.Mutex
	admins map[string]*domain.Administrator
}

func newMockAdminRepository() *mockAdminRepository {
	return &mockAdminRepository{admins: make(map[string]*domain.Administrator)}
}

func (m *mockAdminRepository) Create(ctx context.Context, admin *domain.Administrator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.admins[admin.Email]; exists {
		return repository.ErrAdministratorAlreadyExists
	}
	copied := *admin
	m.admins[admin.Email] = &copied
	return nil
}

func (m *mockAdminRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.Administrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin, exists := m.admins[email]
	if !exists || !admin.IsActive {
		return nil, repository.ErrAdministratorNotFound
	}
	copied := *admin
	return &copied, nil
}

func (m *mockAdminRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, admin := range m.admins {
		if admin.ID == id {
			admin.LastLoginAt = &at
			return nil
		}
	}
	return repository.ErrAdministratorNotFound
}

func (m *mockAdminRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.admins), nil
}

type mockCustomerRepository struct {
	mu        sync.Mutex
	customers map[string]*domain.Customer
	findErr   error
}

func newMockCustomerRepository() *mockCustomerRepository {
	return &mockCustomerRepository{customers: make(map[string]*domain.Customer)}
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.customers[customer.Email]; exists {
		return repository.ErrCustomerAlreadyExists
	}
	copied := *customer
	m.customers[customer.Email] = &copied
	return nil
}

func (m *mockCustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	customer, exists := m.customers[email]
	if !exists {
		return nil, repository.ErrCustomerNotFound
	}
	copied := *customer
	return &copied, nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, customer := range m.customers {
		if customer.ID == id {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, repository.ErrCustomerNotFound
}

func (m *mockCustomerRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.customers)
}

type mockCategoryRepository struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) nameTaken(name string, except uuid.UUID) bool {
	for id, c := range m.categories {
		if c.Name == name && id != except {
			return true
		}
	}
	return false
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(category.Name, uuid.Nil) {
		return repository.ErrCategoryAlreadyExists
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	if m.nameTaken(category.Name, category.ID) {
		return repository.ErrCategoryAlreadyExists
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) ListActive(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Category{}
	for _, c := range m.categories {
		if c.IsActive {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories), nil
}

type mockPresetRepository struct {
	mu        sync.Mutex
	presets   map[uuid.UUID]*domain.Preset
	purchases *mockPurchaseRepository
	failWrite error
	findErr   error
}

func newMockPresetRepository() *mockPresetRepository {
	return &mockPresetRepository{presets: make(map[uuid.UUID]*domain.Preset)}
}

func (m *mockPresetRepository) add(preset *domain.Preset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *preset
	m.presets[preset.ID] = &copied
}

func (m *mockPresetRepository) Create(ctx context.Context, preset *domain.Preset) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	m.add(preset)
	return nil
}

func (m *mockPresetRepository) Update(ctx context.Context, preset *domain.Preset) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[preset.ID]; !ok {
		return repository.ErrPresetNotFound
	}
	copied := *preset
	m.presets[preset.ID] = &copied
	return nil
}

func (m *mockPresetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.purchases != nil && m.purchases.referencesPreset(id) {
		return repository.ErrPresetInUse
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[id]; !ok {
		return repository.ErrPresetNotFound
	}
	delete(m.presets, id)
	return nil
}

func (m *mockPresetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	p, ok := m.presets[id]
	if !ok {
		return nil, repository.ErrPresetNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockPresetRepository) ListActive(ctx context.Context, categoryID *uuid.UUID) ([]*domain.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Preset{}
	for _, p := range m.presets {
		if !p.IsActive {
			continue
		}
		if categoryID != nil && (p.CategoryID == nil || *p.CategoryID != *categoryID) {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type purchaseKey struct {
	customerID uuid.UUID
	presetID   uuid.UUID
}

type mockPurchaseRepository struct {
	mu        sync.Mutex
	purchases map[purchaseKey]*domain.Purchase
	presets   *mockPresetRepository
	// existsLies makes ExistsCompleted report false so the insert path decides
	existsLies bool
	existsErr  error
}

func newMockPurchaseRepository(presets *mockPresetRepository) *mockPurchaseRepository {
	repo := &mockPurchaseRepository{purchases: make(map[purchaseKey]*domain.Purchase), presets: presets}
	presets.purchases = repo
	return repo
}

func (m *mockPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	if _, err := m.presets.FindByID(ctx, purchase.PresetID); err != nil {
		return repository.ErrPresetNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := purchaseKey{purchase.CustomerID, purchase.PresetID}
	if _, exists := m.purchases[key]; exists {
		return repository.ErrPurchaseAlreadyExists
	}
	copied := *purchase
	m.purchases[key] = &copied
	return nil
}

func (m *mockPurchaseRepository) ExistsCompleted(ctx context.Context, customerID, presetID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	if m.existsLies {
		return false, nil
	}
	p, ok := m.purchases[purchaseKey{customerID, presetID}]
	return ok && p.IsCompleted, nil
}

func (m *mockPurchaseRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.PurchaseRecord, error) {
	m.mu.Lock()
	var owned []*domain.Purchase
	for key, p := range m.purchases {
		if key.customerID == customerID {
			copied := *p
			owned = append(owned, &copied)
		}
	}
	m.mu.Unlock()

	records := []*domain.PurchaseRecord{}
	for _, p := range owned {
		record := &domain.PurchaseRecord{Purchase: *p}
		if preset, err := m.presets.FindByID(ctx, p.PresetID); err == nil {
			record.PresetName = preset.Name
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].PurchasedAt.After(records[j].PurchasedAt) })
	return records, nil
}

func (m *mockPurchaseRepository) FindPurchasedFile(ctx context.Context, customerID, presetID uuid.UUID) (string, error) {
	m.mu.Lock()
	p, ok := m.purchases[purchaseKey{customerID, presetID}]
	m.mu.Unlock()
	if !ok || !p.IsCompleted {
		return "", repository.ErrPurchaseNotFound
	}
	preset, err := m.presets.FindByID(ctx, presetID)
	if err != nil {
		return "", repository.ErrPurchaseNotFound
	}
	return preset.PresetFileURL, nil
}

func (m *mockPurchaseRepository) referencesPreset(presetID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.purchases {
		if key.presetID == presetID {
			return true
		}
	}
	return false
}

func (m *mockPurchaseRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.purchases)
}

// mockFileStorage records stored references; names containing "bad" are rejected
type mockFileStorage struct {
	mu      sync.Mutex
	files   map[string]bool
	deleted []string
	seq     int
}

func newMockFileStorage() *mockFileStorage {
	return &mockFileStorage{files: make(map[string]bool)}
}

func (m *mockFileStorage) save(folder, filename string, r io.Reader) (string, error) {
	if filename == "bad" {
		return "", fmt.Errorf("%w: rejected", storage.ErrInvalidFile)
	}
	io.Copy(io.Discard, r)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("/uploads/%s/%d", folder, m.seq)
	m.files[ref] = true
	return ref, nil
}

func (m *mockFileStorage) SaveImage(folder, filename string, r io.Reader) (string, error) {
	return m.save(folder, filename, r)
}

func (m *mockFileStorage) SavePresetFile(filename string, r io.Reader) (string, error) {
	return m.save("presets/files", filename, r)
}

func (m *mockFileStorage) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *mockFileStorage) has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[ref]
}

func (m *mockFileStorage) stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

var errDatabaseDown = errors.New("database down")

func testHasher() auth.PasswordHasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

func testTokenIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer(config.JWTConfig{
		Secret:      "test-secret",
		Issuer:      "PresetShopAPI",
		Audience:    "PresetShopClient",
		ExpiryHours: 24,
	})
}

// stubProductRepository keeps products in insertion order and ignores sorting
type stubProductRepository struct {
	mu       sync.Mutex
	products []*domain.Product
}

func (m *stubProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *product
	m.products = append(m.products, &copied)
	return nil
}

func (m *stubProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == product.ID {
			copied := *product
			m.products[i] = &copied
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *stubProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *stubProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *stubProductRepository) ListActive(ctx context.Context, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active []*domain.Product
	for _, p := range m.products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	start := (page - 1) * pageSize
	if start > len(active) {
		start = len(active)
	}
	end := start + pageSize
	if end > len(active) {
		end = len(active)
	}
	return active[start:end], len(active), nil
}

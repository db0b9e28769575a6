package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"preset-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_CustomerRoundTrip(t *testing.T) {
	requireDB(t)
	repo := NewCustomerRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("stored customers are found by email and id", prop.ForAll(
		func(local string, fullName string, city string) bool {
			email := local + "-" + uuid.NewString()[:8] + "@example.com"
			customer := &domain.Customer{
				ID:           uuid.New(),
				FullName:     fullName,
				Email:        email,
				PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
				City:         city,
				CreatedAt:    now(),
			}

			if err := repo.Create(ctx, customer); err != nil {
				t.Logf("FAIL: create: %v", err)
				return false
			}

			byEmail, err := repo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("FAIL: find by email: %v", err)
				return false
			}
			byID, err := repo.FindByID(ctx, customer.ID)
			if err != nil {
				t.Logf("FAIL: find by id: %v", err)
				return false
			}

			return byEmail.ID == customer.ID &&
				byID.Email == email &&
				byID.FullName == fullName &&
				byID.City == city &&
				byID.CreatedAt.Equal(customer.CreatedAt)
		},
		gen.RegexMatch(`[a-z]{5,10}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15} [A-Z][a-z]{2,15}`),
		gen.RegexMatch(`[A-Z][a-z]{2,12}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCustomerRepository_DuplicateEmail(t *testing.T) {
	requireDB(t)
	repo := NewCustomerRepository(testDB)
	ctx := context.Background()

	email := "dup-" + uuid.NewString() + "@x.io"
	first := &domain.Customer{ID: uuid.New(), FullName: "First", Email: email, PasswordHash: "h", CreatedAt: now()}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := &domain.Customer{ID: uuid.New(), FullName: "Second", Email: email, PasswordHash: "h", CreatedAt: now()}
	if err := repo.Create(ctx, second); err != ErrCustomerAlreadyExists {
		t.Fatalf("expected ErrCustomerAlreadyExists, got %v", err)
	}

	var count int
	testDB.QueryRow(`SELECT COUNT(*) FROM customers WHERE email = $1`, email).Scan(&count)
	if count != 1 {
		t.Errorf("expected exactly one row, got %d", count)
	}
}

func TestCustomerRepository_ConcurrentRegistrationKeepsOneRow(t *testing.T) {
	requireDB(t)
	repo := NewCustomerRepository(testDB)
	ctx := context.Background()
	email := "race-" + uuid.NewString() + "@x.io"

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &domain.Customer{ID: uuid.New(), FullName: "R", Email: email, PasswordHash: "h", CreatedAt: now()})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				succeeded++
			case ErrCustomerAlreadyExists:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Errorf("expected 1 success and %d conflicts, got %d and %d", workers-1, succeeded, conflicts)
	}
}

func TestCustomerRepository_NotFound(t *testing.T) {
	requireDB(t)
	repo := NewCustomerRepository(testDB)

	if _, err := repo.FindByEmail(context.Background(), "nobody-"+uuid.NewString()+"@x.io"); err != ErrCustomerNotFound {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := repo.FindByID(context.Background(), uuid.New()); err != ErrCustomerNotFound {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestAdminRepository_ActiveLookupAndLastLogin(t *testing.T) {
	requireDB(t)
	repo := NewAdminRepository(testDB)
	ctx := context.Background()

	active := &domain.Administrator{
		ID: uuid.New(), Username: "ops", Email: "ops-" + uuid.NewString() + "@x.io",
		PasswordHash: "h", IsActive: true, CreatedAt: now(),
	}
	inactive := &domain.Administrator{
		ID: uuid.New(), Username: "old", Email: "old-" + uuid.NewString() + "@x.io",
		PasswordHash: "h", IsActive: false, CreatedAt: now(),
	}
	for _, a := range []*domain.Administrator{active, inactive} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	found, err := repo.FindActiveByEmail(ctx, active.Email)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if found.LastLoginAt != nil {
		t.Error("new administrator should have no last login")
	}

	if _, err := repo.FindActiveByEmail(ctx, inactive.Email); err != ErrAdministratorNotFound {
		t.Errorf("inactive administrator: expected ErrAdministratorNotFound, got %v", err)
	}

	loginAt := now().Add(-time.Minute)
	if err := repo.UpdateLastLogin(ctx, active.ID, loginAt); err != nil {
		t.Fatalf("update last login: %v", err)
	}
	found, _ = repo.FindActiveByEmail(ctx, active.Email)
	if found.LastLoginAt == nil || !found.LastLoginAt.Equal(loginAt) {
		t.Errorf("expected last login %v, got %v", loginAt, found.LastLoginAt)
	}

	if err := repo.UpdateLastLogin(ctx, uuid.New(), loginAt); err != ErrAdministratorNotFound {
		t.Errorf("expected ErrAdministratorNotFound, got %v", err)
	}

	dup := *active
	dup.ID = uuid.New()
	if err := repo.Create(ctx, &dup); err != ErrAdministratorAlreadyExists {
		t.Errorf("expected ErrAdministratorAlreadyExists, got %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil || count < 2 {
		t.Errorf("expected at least 2 administrators, got %d (%v)", count, err)
	}
}

func TestIdentityKindsShareEmailsWithoutMerging(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	email := "both-" + uuid.NewString() + "@x.io"

	admin := &domain.Administrator{ID: uuid.New(), Username: "both", Email: email, PasswordHash: "h", IsActive: true, CreatedAt: now()}
	if err := NewAdminRepository(testDB).Create(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	customer := &domain.Customer{ID: uuid.New(), FullName: "Both", Email: email, PasswordHash: "h", CreatedAt: now()}
	if err := NewCustomerRepository(testDB).Create(ctx, customer); err != nil {
		t.Fatalf("same email as an administrator must be allowed for a customer: %v", err)
	}
}

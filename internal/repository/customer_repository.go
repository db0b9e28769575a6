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
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCustomerAlreadyExists = errors.New("customer with this email already exists")
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create inserts in a single statement; the unique email index decides duplicates
func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, full_name, email, password_hash, phone_number, address, city, country, postal_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.FullName,
		customer.Email,
		customer.PasswordHash,
		customer.PhoneNumber,
		customer.Address,
		customer.City,
		customer.Country,
		customer.PostalCode,
		customer.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			return ErrCustomerAlreadyExists
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

const customerColumns = `id, full_name, email, password_hash, phone_number, address, city, country, postal_code, created_at`

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	return r.findOne(ctx, query, email)
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *customerRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Customer, error) {
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&customer.ID,
		&customer.FullName,
		&customer.Email,
		&customer.PasswordHash,
		&customer.PhoneNumber,
		&customer.Address,
		&customer.City,
		&customer.Country,
		&customer.PostalCode,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	return customer, nil
}

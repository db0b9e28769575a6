package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"preset-shop/internal/auth"
	"preset-shop/internal/domain"
	"preset-shop/internal/metrics"
	"preset-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthResult is returned by every successful login or registration
type AuthResult struct {
	ID       uuid.UUID   `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Token    string      `json:"token"`
	Role     domain.Role `json:"role"`
}

// RegisterInput carries a new customer's profile and password
type RegisterInput struct {
	FullName    string
	Email       string
	Password    string
	PhoneNumber string
	Address     string
	City        string
	Country     string
	PostalCode  string
}

// TokenIssuer signs bearer tokens for authenticated identities
type TokenIssuer interface {
	Issue(identityID uuid.UUID, email string, role domain.Role) (string, error)
}

// AuthService defines administrator and customer authentication
type AuthService interface {
	AdminLogin(ctx context.Context, email, password string) (*AuthResult, error)
	UserLogin(ctx context.Context, email, password string) (*AuthResult, error)
	UserRegister(ctx context.Context, input RegisterInput) (*AuthResult, error)
}

type authService struct {
	admins    repository.AdminRepository
	customers repository.CustomerRepository
	hasher    auth.PasswordHasher
	tokens    TokenIssuer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(
	admins repository.AdminRepository,
	customers repository.CustomerRepository,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	return &authService{
		admins:    admins,
		customers: customers,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AdminLogin authenticates an active administrator and stamps the login time
func (s *authService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	admin, err := s.admins.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAdministratorNotFound) {
			s.rejectLogin("admin", email, "unknown or inactive administrator")
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal("admin login lookup", err)
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		s.rejectLogin("admin", email, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	if err := s.admins.UpdateLastLogin(ctx, admin.ID, s.now()); err != nil {
		return nil, s.internal("admin last login update", err)
	}

	token, err := s.tokens.Issue(admin.ID, admin.Email, domain.RoleAdmin)
	if err != nil {
		return nil, s.internal("admin token issue", err)
	}

	s.metrics.ObserveLogin("admin", metrics.ResultSuccess)
	s.logger.Info("Administrator logged in", zap.String("admin_id", admin.ID.String()))

	return &AuthResult{
		ID:       admin.ID,
		Email:    admin.Email,
		FullName: admin.Username,
		Token:    token,
		Role:     domain.RoleAdmin,
	}, nil
}

// UserLogin authenticates a customer
func (s *authService) UserLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	customer, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			s.rejectLogin("user", email, "unknown customer")
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal("user login lookup", err)
	}

	if !s.hasher.Verify(password, customer.PasswordHash) {
		s.rejectLogin("user", email, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(customer.ID, customer.Email, domain.RoleUser)
	if err != nil {
		return nil, s.internal("user token issue", err)
	}

	s.metrics.ObserveLogin("user", metrics.ResultSuccess)
	s.logger.Info("Customer logged in", zap.String("customer_id", customer.ID.String()))

	return customerResult(customer, token), nil
}

// UserRegister creates a customer account. The unique email index is the
// final word on duplicates; the lookup only avoids hashing for known emails.
func (s *authService) UserRegister(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if _, err := s.customers.FindByEmail(ctx, input.Email); err == nil {
		s.metrics.ObserveRegistration(metrics.ResultConflict)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, s.internal("registration lookup", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, s.internal("password hash", err)
	}

	customer := &domain.Customer{
		ID:           uuid.New(),
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
		PhoneNumber:  input.PhoneNumber,
		Address:      input.Address,
		City:         input.City,
		Country:      input.Country,
		PostalCode:   input.PostalCode,
		CreatedAt:    s.now(),
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrCustomerAlreadyExists) {
			s.metrics.ObserveRegistration(metrics.ResultConflict)
			return nil, ErrEmailTaken
		}
		return nil, s.internal("customer insert", err)
	}

	token, err := s.tokens.Issue(customer.ID, customer.Email, domain.RoleUser)
	if err != nil {
		return nil, s.internal("user token issue", err)
	}

	s.metrics.ObserveRegistration(metrics.ResultSuccess)
	s.logger.Info("Customer registered", zap.String("customer_id", customer.ID.String()))

	return customerResult(customer, token), nil
}

func (s *authService) rejectLogin(kind, email, reason string) {
	s.metrics.ObserveLogin(kind, metrics.ResultRejected)
	s.logger.Warn("Login rejected",
		zap.String("kind", kind),
		zap.String("email", email),
		zap.String("reason", reason),
	)
}

func (s *authService) internal(op string, err error) error {
	s.logger.Error("Authentication failure", zap.String("operation", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func customerResult(c *domain.Customer, token string) *AuthResult {
	return &AuthResult{
		ID:       c.ID,
		Email:    c.Email,
		FullName: c.FullName,
		Token:    token,
		Role:     domain.RoleUser,
	}
}

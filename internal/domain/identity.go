package domain

import (
	"time"

	"github.com/google/uuid"
)

// Administrator is a catalog operator. Administrators and customers live in
// separate tables and are never merged, even when they share an email.
type Administrator struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// Customer is a storefront buyer
type Customer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FullName     string    `json:"fullName" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	PhoneNumber  string    `json:"phoneNumber" db:"phone_number"`
	Address      string    `json:"address" db:"address"`
	City         string    `json:"city" db:"city"`
	Country      string    `json:"country" db:"country"`
	PostalCode   string    `json:"postalCode" db:"postal_code"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

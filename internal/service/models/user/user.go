package user

import (
	"strconv"
	"strings"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// User is a buyer account.
type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	RegistrationDate time.Time `json:"registrationDate"`
	Country          string    `json:"country"`
	PasswordHash     string    `json:"-"`
	IsBlocked        bool      `json:"isBlocked"`
	BalanceCents     int64     `json:"balanceCents"`
	TotalSpentCents  int64     `json:"totalSpentCents"`
}

// New validates the input and builds an unblocked user with zero balance.
func New(username, email, country, passwordHash string, now time.Time) (*User, error) {
	u := &User{
		ID:               uuid.New(),
		Username:         strings.TrimSpace(username),
		Email:            strings.TrimSpace(email),
		RegistrationDate: now.UTC(),
		PasswordHash:     passwordHash,
	}
	if err := validateLength("username", u.Username, 50); err != nil {
		return nil, err
	}
	if err := validateLength("email", u.Email, 100); err != nil {
		return nil, err
	}
	if !strings.Contains(u.Email, "@") {
		return nil, apperr.Invalid("email", "must contain @")
	}
	if passwordHash == "" {
		return nil, apperr.Invalid("password", "must not be empty")
	}
	if err := u.UpdateCountry(country); err != nil {
		return nil, err
	}

	return u, nil
}

// UpdateBalance replaces the balance.
func (u *User) UpdateBalance(newBalanceCents int64) error {
	if newBalanceCents < 0 {
		return apperr.Invalid("balance", "cannot be negative")
	}
	u.BalanceCents = newBalanceCents

	return nil
}

// TopUp adds a positive amount to the balance.
func (u *User) TopUp(amountCents int64) error {
	if amountCents <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	u.BalanceCents += amountCents

	return nil
}

// Debit charges a purchase against the balance and tracks total spending.
func (u *User) Debit(amountCents int64) error {
	if amountCents < 0 {
		return apperr.Invalid("amount", "cannot be negative")
	}
	if u.BalanceCents < amountCents {
		return apperr.ErrInsufficientFunds
	}
	u.BalanceCents -= amountCents
	u.TotalSpentCents += amountCents

	return nil
}

func (u *User) UpdateCountry(country string) error {
	country = strings.TrimSpace(country)
	if err := validateLength("country", country, 300); err != nil {
		return err
	}
	u.Country = country

	return nil
}

func (u *User) Block() { u.IsBlocked = true }

func (u *User) Unblock() { u.IsBlocked = false }

func validateLength(field, value string, max int) error {
	if value == "" || len(value) > max {
		return apperr.Invalid(field, "must be between 1 and "+strconv.Itoa(max)+" characters")
	}
	return nil
}

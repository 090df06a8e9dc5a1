package user

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
)

func TestNew(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		username string
		email    string
		country  string
		hash     string
		field    string
	}{
		{"valid", "neo", "neo@matrix.io", "NL", "hash", ""},
		{"empty username", " ", "neo@matrix.io", "NL", "hash", "username"},
		{"long username", strings.Repeat("a", 51), "neo@matrix.io", "NL", "hash", "username"},
		{"email without at", "neo", "neo.matrix.io", "NL", "hash", "email"},
		{"missing password", "neo", "neo@matrix.io", "NL", "", "password"},
		{"missing country", "neo", "neo@matrix.io", "", "hash", "country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New(tt.username, tt.email, tt.country, tt.hash, now)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if u.BalanceCents != 0 || u.IsBlocked {
					t.Errorf("new user should be unblocked with zero balance: %+v", u)
				}
				return
			}
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestBalance(t *testing.T) {
	u, err := New("neo", "neo@matrix.io", "NL", "hash", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if err := u.TopUp(0); !apperr.IsValidation(err) {
		t.Errorf("TopUp(0) = %v, want validation error", err)
	}
	if err := u.TopUp(1500); err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	if err := u.Debit(2000); !errors.Is(err, apperr.ErrInsufficientFunds) {
		t.Errorf("Debit over balance = %v", err)
	}
	if err := u.Debit(500); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if u.BalanceCents != 1000 || u.TotalSpentCents != 500 {
		t.Errorf("balance=%d spent=%d", u.BalanceCents, u.TotalSpentCents)
	}
	if err := u.UpdateBalance(-1); !apperr.IsValidation(err) {
		t.Errorf("UpdateBalance(-1) = %v", err)
	}
}

package order

import (
	"errors"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	if _, err := New(uuid.Nil, time.Now(), 100); !apperr.IsValidation(err) {
		t.Errorf("nil user: got %v, want validation error", err)
	}
	if _, err := New(uuid.New(), time.Now(), -1); !apperr.IsValidation(err) {
		t.Errorf("negative total: got %v, want validation error", err)
	}

	o, err := New(uuid.New(), time.Now(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != StatusPending || o.IsTerminal() {
		t.Errorf("new order is not pending: %+v", o)
	}
}

func TestTerminalTransitions(t *testing.T) {
	o, _ := New(uuid.New(), time.Now(), 100)
	if err := o.Complete(); err != nil {
		t.Fatal(err)
	}
	if !o.IsCompleted || o.Status != StatusCompleted {
		t.Errorf("unexpected state after Complete: %+v", o)
	}
	if err := o.MarkOverdue(); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("MarkOverdue on completed order: got %v, want conflict", err)
	}
	if o.IsOverdue {
		t.Error("completed order became overdue")
	}

	o, _ = New(uuid.New(), time.Now(), 100)
	if err := o.MarkOverdue(); err != nil {
		t.Fatal(err)
	}
	if err := o.Complete(); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Complete on overdue order: got %v, want conflict", err)
	}
}

func TestAllKeysAssigned(t *testing.T) {
	o, _ := New(uuid.New(), time.Now(), 100)
	if !o.AllKeysAssigned() {
		t.Error("order without items should be complete")
	}

	key := "AAAA-BBBB"
	o.Items = []orderitem.OrderItem{{ID: uuid.New(), Key: &key}, {ID: uuid.New()}}
	if o.AllKeysAssigned() {
		t.Error("order with a keyless item reported complete")
	}
}

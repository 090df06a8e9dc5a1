package gift

import (
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

func TestNewRejectsSelfGift(t *testing.T) {
	id := uuid.New()
	if _, err := New(id, id, uuid.New(), time.Now()); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := New(id, uuid.New(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseSource(t *testing.T) {
	for in, want := range map[string]Source{"": SourceAll, "sent": SourceSent, "Received": SourceReceived} {
		if got, err := ParseSource(in); err != nil || got != want {
			t.Errorf("ParseSource(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSource("x"); err == nil {
		t.Error("expected error")
	}
}

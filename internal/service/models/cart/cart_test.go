package cart

import (
	"testing"

	"github.com/google/uuid"
)

func TestAddRemove(t *testing.T) {
	c, err := New(uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	itemID := uuid.New()
	if _, added, err := c.AddItem(itemID); err != nil || !added {
		t.Fatalf("first AddItem: added=%v err=%v", added, err)
	}
	if _, added, _ := c.AddItem(itemID); added {
		t.Fatal("duplicate AddItem should be a no-op")
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(c.Items))
	}
	if !c.RemoveItem(itemID) || c.RemoveItem(itemID) {
		t.Fatal("RemoveItem should succeed once")
	}
	if len(c.OrderItemIDs()) != 0 {
		t.Fatal("cart should be empty")
	}
}

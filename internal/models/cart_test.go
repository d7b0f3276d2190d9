package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCartAddItemMergesDuplicateProduct(t *testing.T) {
	productID := primitive.NewObjectID()
	cart := &Cart{}

	cart.AddItem(productID, 2, 5.00)
	cart.AddItem(productID, 3, 4.50)

	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", cart.Items[0].Quantity)
	}
	if cart.Items[0].Price != 4.50 {
		t.Fatalf("expected price snapshot refreshed to 4.50, got %v", cart.Items[0].Price)
	}
}

func TestCartTotals(t *testing.T) {
	cart := &Cart{}
	cart.AddItem(primitive.NewObjectID(), 2, 5.00)
	cart.AddItem(primitive.NewObjectID(), 1, 3.25)

	if got := cart.TotalItems(); got != 3 {
		t.Fatalf("expected 3 total items, got %d", got)
	}
	if got := cart.TotalPrice(); got != 13.25 {
		t.Fatalf("expected total price 13.25, got %v", got)
	}
}

func TestCartSetItemQuantityZeroRemovesLine(t *testing.T) {
	productID := primitive.NewObjectID()
	cart := &Cart{}
	cart.AddItem(productID, 2, 5.00)

	if !cart.SetItemQuantity(productID, 0) {
		t.Fatal("expected the line to be found")
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}
	if cart.SetItemQuantity(productID, 1) {
		t.Fatal("expected update on a missing line to report false")
	}
}

func TestCartClearKeepsCartEmptiesItems(t *testing.T) {
	cart := &Cart{UserID: primitive.NewObjectID()}
	cart.AddItem(primitive.NewObjectID(), 4, 1.00)

	cart.Clear()

	if cart.Items == nil {
		t.Fatal("expected items slice to stay non-nil after clear")
	}
	if cart.TotalItems() != 0 {
		t.Fatalf("expected zero items after clear, got %d", cart.TotalItems())
	}
}

func TestFormatOrderNumber(t *testing.T) {
	at := time.UnixMilli(1736500123456)
	got := FormatOrderNumber(7, at)

	if got != "KM1234560007" {
		t.Fatalf("unexpected order number %q", got)
	}
}

func TestProductHasStock(t *testing.T) {
	tracked := &Product{Stock: Stock{Quantity: 1, TrackInventory: true}}
	if tracked.HasStock(2) {
		t.Fatal("expected insufficient stock for qty 2")
	}
	if !tracked.HasStock(1) {
		t.Fatal("expected stock for qty 1")
	}

	untracked := &Product{Stock: Stock{Quantity: 0, TrackInventory: false}}
	if !untracked.HasStock(100) {
		t.Fatal("untracked inventory should always have stock")
	}
}

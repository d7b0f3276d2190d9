package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one product line in a cart. Price is a snapshot taken when the
// item was added; checkout honors the snapshot, not the live product price.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

// Cart is owned by exactly one user. It is created lazily on first add and
// emptied, not deleted, on successful checkout. SessionID carries a guest
// cart identity until the items are merged into a user cart at login.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	SessionID string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Items     []CartItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// FindItem returns a pointer to the line for productID, or nil.
func (c *Cart) FindItem(productID primitive.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// AddItem merges qty into an existing line for the product or appends a new
// one, keeping at most one line per product. The price snapshot is refreshed
// on merge, matching the add-to-cart semantics.
func (c *Cart) AddItem(productID primitive.ObjectID, qty int, price float64) {
	if item := c.FindItem(productID); item != nil {
		item.Quantity += qty
		item.Price = price
		return
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  qty,
		Price:     price,
		AddedAt:   time.Now(),
	})
}

// SetItemQuantity updates the line for productID. A quantity of zero removes
// the line. Returns false when the product is not in the cart.
func (c *Cart) SetItemQuantity(productID primitive.ObjectID, qty int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if qty <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = qty
		}
		return true
	}
	return false
}

// RemoveItem deletes the line for productID, reporting whether it existed.
func (c *Cart) RemoveItem(productID primitive.ObjectID) bool {
	return c.SetItemQuantity(productID, 0)
}

// Clear empties the cart in place. The cart document itself persists.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusArchived = "archived"
)

// Stock is the nested inventory record on a product. Quantity is only
// decremented at payment confirmation, never at cart-add time.
type Stock struct {
	Quantity          int  `bson:"quantity" json:"quantity"`
	LowStockThreshold int  `bson:"lowStockThreshold" json:"lowStockThreshold"`
	TrackInventory    bool `bson:"trackInventory" json:"trackInventory"`
}

type ProductImage struct {
	URL       string `bson:"url" json:"url"`
	Alt       string `bson:"alt,omitempty" json:"alt,omitempty"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Slug         string             `bson:"slug" json:"slug"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Category     primitive.ObjectID `bson:"category" json:"category"`
	Price        float64            `bson:"price" json:"price"`
	ComparePrice float64            `bson:"comparePrice,omitempty" json:"comparePrice,omitempty"`
	SKU          string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Stock        Stock              `bson:"stock" json:"stock"`
	Images       []ProductImage     `bson:"images,omitempty" json:"images,omitempty"`
	Status       string             `bson:"status" json:"status"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	IsFeatured   bool               `bson:"isFeatured" json:"isFeatured"`
	SalesCount   int                `bson:"salesCount" json:"salesCount"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Available reports whether the product can currently be purchased at all,
// ignoring stock levels.
func (p *Product) Available() bool {
	return p.Status == ProductStatusActive && p.IsActive
}

// HasStock reports whether qty units can be sold. Products that do not track
// inventory always have stock.
func (p *Product) HasStock(qty int) bool {
	if !p.Stock.TrackInventory {
		return true
	}
	return p.Stock.Quantity >= qty
}

// PrimaryImage returns the URL of the image flagged primary, falling back to
// the first image.
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

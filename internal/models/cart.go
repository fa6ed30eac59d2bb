package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CartColor is the color selection captured when an item enters the cart.
type CartColor struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// CartSize is the size selection, with the stock seen at add-time.
type CartSize struct {
	Label string `json:"label"`
	Stock int    `json:"stock"`
}

// CartItem is one purchasable selection. LineID is unique per
// product+color+size combination; adding the same combination again
// increments the existing line instead of creating a new one.
type CartItem struct {
	LineID    string     `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Image     string     `json:"image"`
	Quantity  int        `json:"quantity"`
	Color     *CartColor `json:"color,omitempty"`
	Size      *CartSize  `json:"size,omitempty"`
	// DeliveryCharge overrides the product flag when set; nil defers to
	// the product record.
	DeliveryCharge *bool `json:"delivery_charge,omitempty"`
}

// LineIdentity derives the cart line id for a product+color+size combination.
func LineIdentity(productID uuid.UUID, color, size string) string {
	id := productID.String()
	if color != "" {
		id = fmt.Sprintf("%s:%s", id, strings.ToLower(color))
	}
	if size != "" {
		id = fmt.Sprintf("%s:%s", id, strings.ToLower(size))
	}
	return id
}

// CartRecord is the per-client persisted cart slot. Payload holds the
// serialized CartItem list as a single JSON blob.
type CartRecord struct {
	BaseModel
	ClientToken string `gorm:"uniqueIndex" json:"client_token"`
	Payload     string `gorm:"type:text" json:"payload"`
}

// CheckoutSnapshot is the second per-client slot: the last known
// checkout form state, kept so a reload or direct navigation to the
// checkout step can resume where the shopper left off.
type CheckoutSnapshot struct {
	BaseModel
	ClientToken string `gorm:"uniqueIndex" json:"client_token"`
	Version     int    `json:"version"`
	Payload     string `gorm:"type:text" json:"payload"`
}

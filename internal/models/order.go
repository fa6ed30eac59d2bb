package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted at checkout.
const (
	PaymentCash   = "cash"
	PaymentWallet = "wallet"
)

// Shipping zones for the two-tier flat delivery fee.
const (
	ZoneInside  = "inside"
	ZoneOutside = "outside"
)

// Customer is the contact and delivery information collected at checkout.
type Customer struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required,bdphone"`
	Address string `json:"address" validate:"required,min=10"`
	Notes   string `json:"notes" validate:"max=100"`
}

// WalletPayment carries manual mobile-wallet payment details. Verified
// stays false until an operator confirms the transaction.
type WalletPayment struct {
	WalletNumber string `json:"wallet_number"`
	TrxID        string `json:"trx_id"`
	Verified     bool   `json:"verified"`
}

// DraftOrder is the checkout hand-off package: cart snapshot, pricing
// breakdown, customer and payment method, frozen at submission time.
// It is assembled once and consumed exactly once by the submission
// pipeline.
type DraftOrder struct {
	Customer      Customer       `json:"customer"`
	Items         []CartItem     `json:"items"`
	Zone          string         `json:"zone"`
	ShippingFee   int            `json:"shipping_fee"`
	CouponCode    string         `json:"coupon_code"`
	Discount      int            `json:"discount"`
	Subtotal      int            `json:"subtotal"`
	Total         int            `json:"total"`
	PaymentMethod string         `json:"payment_method"`
	Payment       *WalletPayment `json:"payment,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Order is a persisted order, one row per order. CustomerPhone is
// indexed so the per-customer order history remains a cheap query.
type Order struct {
	BaseModel
	OrderCode       string     `gorm:"uniqueIndex" json:"order_code"`
	CustomerName    string     `json:"customer_name"`
	CustomerPhone   string     `gorm:"index" json:"customer_phone"`
	CustomerAddress string     `json:"customer_address"`
	Notes           string     `json:"notes"`
	Subtotal        int        `json:"subtotal"`
	ShippingZone    string     `json:"shipping_zone"`
	ShippingFee     int        `json:"shipping_fee"`
	CouponCode      string     `json:"coupon_code"`
	Discount        int        `json:"discount"`
	Total           int        `json:"total"`
	PaymentMethod   string     `json:"payment_method"`
	Status          string     `json:"status"`
	// OrderStatus: false = awaiting fulfillment, true = fulfilled. Rows
	// imported from the legacy store may have it unset, in which case
	// status derivation falls back to ShippingStatus.
	OrderStatus    *bool      `json:"order_status"`
	ShippingStatus string     `json:"shipping_status"`
	Cancelled      bool       `json:"cancelled"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	PlacedAt       time.Time  `json:"placed_at"`
	Items          []OrderItem `json:"items,omitempty"`
	// Wallet payment details, present only for wallet orders.
	WalletNumber string `json:"wallet_number,omitempty"`
	TrxID        string `json:"trx_id,omitempty"`
	TrxVerified  bool   `json:"trx_verified"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	LineID    string     `json:"line_id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	Size      string     `json:"size"`
	Quantity  int        `json:"quantity"`
	UnitPrice float64    `json:"unit_price"`
	LineTotal float64    `json:"line_total"`
}

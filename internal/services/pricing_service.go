package services

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/example/lotus/internal/models"
)

// ErrCouponRequired is returned when an empty coupon code is applied.
// Distinct from a rejected code: callers leave any prior discount
// untouched when they see it.
var ErrCouponRequired = errors.New("coupon code is required")

const (
	couponCode     = "save20"
	couponDiscount = 20
)

// Coupon is a coupon validation result.
type Coupon struct {
	Code     string `json:"code"`
	Discount int    `json:"discount"`
	Message  string `json:"message"`
}

// PricingService derives subtotal, shipping, discount and total from
// cart contents. Pure and deterministic; no I/O.
type PricingService struct {
	insideFee  int
	outsideFee int
}

// NewPricingService constructs a PricingService with the two-tier
// shipping fees.
func NewPricingService(insideFee, outsideFee int) *PricingService {
	return &PricingService{insideFee: insideFee, outsideFee: outsideFee}
}

// Subtotal sums floor(unit price) * quantity over all items. Prices are
// floored before multiplication; the storefront currency has no subunit
// in normal use.
func (p *PricingService) Subtotal(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += int(math.Floor(item.Price)) * item.Quantity
	}
	return total
}

// ShippingCharge is zero iff every line resolves to free delivery.
// Resolution order per item: the item's own tri-state flag when set,
// else the product record's flag, else charged. Otherwise the charge is
// the flat fee for the selected zone.
func (p *PricingService) ShippingCharge(items []models.CartItem, productFlags map[uuid.UUID]bool, zone string) int {
	charged := false
	for _, item := range items {
		if item.DeliveryCharge != nil {
			if *item.DeliveryCharge {
				charged = true
			}
			continue
		}
		if flag, ok := productFlags[item.ProductID]; ok {
			if flag {
				charged = true
			}
			continue
		}
		// Unknown both ways: assume charged.
		charged = true
	}

	if !charged || len(items) == 0 {
		return 0
	}

	if zone == models.ZoneInside {
		return p.insideFee
	}
	return p.outsideFee
}

// ApplyCoupon validates a coupon code. The single recognized code
// grants a fixed discount; any other non-empty code yields zero with a
// rejection message; an empty code is a distinct validation error.
func (p *PricingService) ApplyCoupon(code string) (Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Coupon{}, ErrCouponRequired
	}

	if strings.EqualFold(trimmed, couponCode) {
		return Coupon{
			Code:     couponCode,
			Discount: couponDiscount,
			Message:  "Coupon applied successfully",
		}, nil
	}

	return Coupon{
		Code:     trimmed,
		Discount: 0,
		Message:  "Invalid coupon code",
	}, nil
}

// Total is subtotal + shipping - discount. All operands are whole
// currency units, so no further flooring is needed. Not clamped: the
// checkout session guarantees the discount cannot exceed
// subtotal + shipping before a draft is built.
func (p *PricingService) Total(subtotal, shipping, discount int) int {
	return subtotal + shipping - discount
}

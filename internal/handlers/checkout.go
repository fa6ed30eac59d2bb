package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/lotus/internal/services"
)

// CheckoutHandler manages the checkout session and order submission.
type CheckoutHandler struct {
	cart     *services.CartService
	checkout *services.CheckoutService
	pricing  *services.PricingService
	orders   *services.OrderService
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(cart *services.CartService, checkout *services.CheckoutService, pricing *services.PricingService, orders *services.OrderService) *CheckoutHandler {
	return &CheckoutHandler{cart: cart, checkout: checkout, pricing: pricing, orders: orders}
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon validates a coupon code and returns the granted discount.
func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req applyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	coupon, err := h.pricing.ApplyCoupon(req.Code)
	if err == services.ErrCouponRequired {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"errors":  fiber.Map{"code": "coupon code is required"},
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": coupon.Discount > 0, "data": coupon})
}

// GetSession returns the resumable checkout state: last saved form
// snapshot plus a fresh pricing quote for the current cart. Entered
// directly (page reload, deep link) it restores where the shopper left
// off; with no cart and no snapshot the client is told to go back to
// the cart view.
func (h *CheckoutHandler) GetSession(c *fiber.Ctx) error {
	token, err := clientToken(c)
	if err != nil {
		return err
	}

	snapshot := h.checkout.LoadSnapshot(token)
	items := h.cart.ReadAll(token)

	if len(items) == 0 && snapshot == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":  false,
			"redirect": "cart",
		})
	}

	zone := ""
	couponCode := ""
	if snapshot != nil {
		zone = snapshot.Zone
		couponCode = snapshot.CouponCode
	}

	quote, err := h.checkout.BuildQuote(token, zone, couponCode)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"snapshot": snapshot,
		"quote":    quote,
	})
}

// SaveSession persists the checkout form state for reload resilience.
func (h *CheckoutHandler) SaveSession(c *fiber.Ctx) error {
	token, err := clientToken(c)
	if err != nil {
		return err
	}

	var state services.CheckoutState
	if err := c.BodyParser(&state); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.checkout.SaveSnapshot(token, state); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// Submit validates the checkout form, assembles the draft order and
// runs the submission pipeline.
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	token, err := clientToken(c)
	if err != nil {
		return err
	}

	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.checkout.BuildDraft(token, req)
	if err != nil {
		if err == services.ErrCartEmpty {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success":  false,
				"redirect": "cart",
			})
		}
		if ve, ok := services.AsValidationError(err); ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"success": false,
				"errors":  ve.Fields,
			})
		}
		return err
	}

	order, err := h.orders.Submit(token, draft)
	if err != nil {
		if ve, ok := services.AsValidationError(err); ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"success": false,
				"errors":  ve.Fields,
			})
		}
		// Generic retryable failure; the cause is already logged.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "order could not be placed, please try again",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_code": order.OrderCode,
			"status":     order.Status,
			"total":      order.Total,
			"placed_at":  order.PlacedAt,
		},
	})
}

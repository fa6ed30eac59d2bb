package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/lotus/internal/services"
)

// OrderHandler serves shopper-facing order lookups.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// History returns the order history for a customer phone, newest first.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone is required")
	}

	orders, err := h.orders.HistoryByPhone(phone)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// GetOrder returns a single order by its public code, for the
// confirmation view.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetByCode(c.Params("code"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
		"status":  services.DeriveStatus(order),
	})
}

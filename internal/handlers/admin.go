package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lotus/internal/models"
	"github.com/example/lotus/internal/services"
	"github.com/example/lotus/internal/utils"
)

// AdminHandler manages the back-office order console.
type AdminHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, orders: orders}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	var pendingOrders int64
	if err := h.db.Model(&models.Order{}).
		Where("cancelled = ? AND order_status = ?", false, false).
		Count(&pendingOrders).Error; err != nil {
		return err
	}

	// Counted directly rather than derived from the total: legacy rows
	// without the fulfillment flag are neither pending nor completed.
	var completedOrders int64
	if err := h.db.Model(&models.Order{}).
		Where("cancelled = ? AND order_status = ?", false, true).
		Count(&completedOrders).Error; err != nil {
		return err
	}

	var cancelledOrders int64
	if err := h.db.Model(&models.Order{}).
		Where("cancelled = ?", true).
		Count(&cancelledOrders).Error; err != nil {
		return err
	}

	var totalRevenue int64
	if err := h.db.Model(&models.Order{}).
		Where("cancelled = ?", false).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_orders":     totalOrders,
			"pending_orders":   pendingOrders,
			"cancelled_orders": cancelledOrders,
			"completed_orders": completedOrders,
			"total_revenue":    totalRevenue,
			"total_products":   totalProducts,
		},
	})
}

// ListOrders returns all orders with pagination and status filtering.
// The status filter accepts the derived console statuses.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	switch c.Query("status") {
	case services.StatusPending:
		query = query.Where("cancelled = ? AND order_status = ?", false, false)
	case services.StatusCompleted:
		query = query.Where("cancelled = ? AND order_status = ?", false, true)
	case services.StatusCancelled:
		query = query.Where("cancelled = ?", true)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where(
			"order_code ILIKE ? OR customer_phone ILIKE ? OR customer_name ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(orders))
	for i := range orders {
		data = append(data, fiber.Map{
			"order":  orders[i],
			"status": services.DeriveStatus(&orders[i]),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// CompleteOrder transitions a pending order to completed.
func (h *AdminHandler) CompleteOrder(c *fiber.Ctx) error {
	return h.applyTransition(c, h.orders.MarkCompleted)
}

// CancelOrder transitions a pending order to cancelled.
func (h *AdminHandler) CancelOrder(c *fiber.Ctx) error {
	return h.applyTransition(c, h.orders.MarkCancelled)
}

func (h *AdminHandler) applyTransition(c *fiber.Ctx, transition func(uuid.UUID) (*models.Order, error)) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := transition(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		if errors.Is(err, services.ErrInvalidTransition) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
		"status":  services.DeriveStatus(order),
	})
}

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/lotus/internal/models"
)

// Console order statuses derived from a persisted order.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusUnknown   = "unknown"
)

// ErrInvalidTransition is returned when an operator action does not
// apply to the order's current status.
var ErrInvalidTransition = errors.New("order is not pending")

// DeriveStatus classifies a persisted order for the admin console.
// Precedence: cancelled, then the fulfillment flag, then the legacy
// shipping-status field, then unknown.
func DeriveStatus(order *models.Order) string {
	if order.Cancelled {
		return StatusCancelled
	}
	if order.OrderStatus != nil {
		if *order.OrderStatus {
			return StatusCompleted
		}
		return StatusPending
	}
	if order.ShippingStatus != "" {
		return order.ShippingStatus
	}
	return StatusUnknown
}

// MarkCompleted transitions a pending order to completed. Only the
// target row is touched.
func (s *OrderService) MarkCompleted(orderID uuid.UUID) (*models.Order, error) {
	return s.transition(orderID, func(order *models.Order) error {
		fulfilled := true
		order.OrderStatus = &fulfilled
		return nil
	})
}

// MarkCancelled transitions a pending order to cancelled and stamps the
// cancellation time.
func (s *OrderService) MarkCancelled(orderID uuid.UUID) (*models.Order, error) {
	return s.transition(orderID, func(order *models.Order) error {
		now := time.Now()
		order.Cancelled = true
		order.CancelledAt = &now
		return nil
	})
}

func (s *OrderService) transition(orderID uuid.UUID, mutate func(*models.Order) error) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	if DeriveStatus(&order) != StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, DeriveStatus(&order))
	}

	if err := mutate(&order); err != nil {
		return nil, err
	}

	if err := s.db.Save(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

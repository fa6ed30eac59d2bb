package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lotus/internal/models"
	"github.com/example/lotus/pkg/rabbitmq"
)

// SubmissionState identifies where a draft order sits in the pipeline.
type SubmissionState string

const (
	StateDrafted           SubmissionState = "drafted"
	StateValidatingPayment SubmissionState = "validating_payment"
	StateDecrementingStock SubmissionState = "decrementing_stock"
	StatePersisting        SubmissionState = "persisting"
	StateNotifying         SubmissionState = "notifying"
	StateCompleted         SubmissionState = "completed"
	StateFailed            SubmissionState = "failed"
)

// OrderNotifier delivers the post-persist notifications. Failures are
// logged and never fail the order.
type OrderNotifier interface {
	NotifyOrderPlaced(order *models.Order) error
}

// OrderService runs the order submission pipeline and serves persisted
// orders.
type OrderService struct {
	db       *gorm.DB
	cart     *CartService
	checkout *CheckoutService
	notifier OrderNotifier
	mq       *rabbitmq.Client
}

// NewOrderService constructs an OrderService. notifier and mq may be
// nil; the corresponding steps are then skipped.
func NewOrderService(db *gorm.DB, cart *CartService, checkout *CheckoutService, notifier OrderNotifier, mq *rabbitmq.Client) *OrderService {
	return &OrderService{db: db, cart: cart, checkout: checkout, notifier: notifier, mq: mq}
}

// Submit drives a draft order through validation, stock decrement,
// persistence and notification. A *ValidationError return leaves the
// submission in the drafted state for the shopper to correct; any other
// error is a terminal pipeline failure for this attempt.
func (s *OrderService) Submit(clientToken string, draft *models.DraftOrder) (*models.Order, error) {
	state := StateDrafted

	if draft.PaymentMethod == models.PaymentWallet {
		state = StateValidatingPayment
		if fields := validateWalletPayment(draft.Payment); len(fields) > 0 {
			return nil, &ValidationError{Fields: fields}
		}
	}

	state = StateDecrementingStock
	applied, err := s.decrementStock(draft.Items)
	if err != nil {
		s.compensate(applied)
		log.Printf("[Order] submission failed in %s: %v", state, err)
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	state = StatePersisting
	order := buildOrder(draft)
	if err := s.db.Create(order).Error; err != nil {
		s.compensate(applied)
		log.Printf("[Order] submission failed in %s: %v", state, err)
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	// The order is durable from here on; remaining steps are best-effort.
	state = StateNotifying
	if s.notifier != nil {
		if err := s.notifier.NotifyOrderPlaced(order); err != nil {
			log.Printf("[Order] notification failed for %s: %v", order.OrderCode, err)
		}
	}
	if s.mq != nil {
		body, err := json.Marshal(map[string]interface{}{
			"order_code": order.OrderCode,
			"phone":      order.CustomerPhone,
			"total":      order.Total,
			"status":     order.Status,
		})
		if err == nil {
			if err := s.mq.Publish(rabbitmq.EventOrderCreated, body); err != nil {
				log.Printf("[Order] failed to publish order.created for %s: %v", order.OrderCode, err)
			}
		}
	}

	state = StateCompleted
	if err := s.cart.Clear(clientToken); err != nil {
		log.Printf("[Order] failed to clear cart for %s: %v", clientToken, err)
	}
	if err := s.checkout.ClearSnapshot(clientToken); err != nil {
		log.Printf("[Order] failed to clear checkout snapshot for %s: %v", clientToken, err)
	}

	log.Printf("[Order] %s placed, state %s", order.OrderCode, state)
	return order, nil
}

func validateWalletPayment(payment *models.WalletPayment) map[string]string {
	fields := map[string]string{}
	if payment == nil {
		fields["wallet_number"] = "wallet number is required"
		fields["trx_id"] = "transaction reference is required"
		return fields
	}

	if !bdPhonePattern.MatchString(payment.WalletNumber) {
		fields["wallet_number"] = "wallet number must be a valid 11-digit mobile number"
	}
	if len(strings.TrimSpace(payment.TrxID)) < 8 {
		fields["trx_id"] = "transaction reference must be at least 8 characters"
	}
	return fields
}

// appliedDecrement records one successful stock write so it can be
// compensated if a later step fails.
type appliedDecrement struct {
	productID uuid.UUID
	color     string
	size      string
	quantity  int
}

// decrementStock fans the per-line stock updates out concurrently and
// joins all-or-nothing: any failing line aborts the submission. Lines
// whose product no longer exists are logged and skipped.
func (s *OrderService) decrementStock(items []models.CartItem) ([]appliedDecrement, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied []appliedDecrement
		errs    []error
	)

	for _, item := range items {
		wg.Add(1)
		go func(item models.CartItem) {
			defer wg.Done()

			dec, err := s.decrementLine(item)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if dec != nil {
				applied = append(applied, *dec)
			}
		}(item)
	}
	wg.Wait()

	if len(errs) > 0 {
		return applied, errs[0]
	}
	return applied, nil
}

func (s *OrderService) decrementLine(item models.CartItem) (*appliedDecrement, error) {
	var product models.Product
	err := s.db.Preload("ColorVariants.Sizes").First(&product, "id = ?", item.ProductID).Error
	if err == gorm.ErrRecordNotFound {
		log.Printf("[Order] product %s for line %s not found, skipping stock decrement", item.ProductID, item.LineID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", item.ProductID, err)
	}

	dec := &appliedDecrement{productID: product.ID, quantity: item.Quantity}

	if item.Color != nil && len(product.ColorVariants) > 0 {
		variant := findVariant(product.ColorVariants, item.Color.Name)
		if variant != nil {
			if item.Size != nil {
				size := findSize(variant.Sizes, item.Size.Label)
				if size != nil {
					if err := s.adjustSizeStock(size.ID, -item.Quantity); err != nil {
						return nil, err
					}
					dec.color = variant.ColorName
					dec.size = size.Size
				}
			} else {
				if err := s.adjustVariantStock(variant.ID, -item.Quantity); err != nil {
					return nil, err
				}
				dec.color = variant.ColorName
			}
		}
	}

	if err := s.adjustFlatStock(product.ID, -item.Quantity); err != nil {
		return nil, err
	}

	return dec, nil
}

// compensate re-increments stock written by a submission that failed
// later in the pipeline. Best-effort: failures here are the accepted
// consistency risk and are logged loudly.
func (s *OrderService) compensate(applied []appliedDecrement) {
	for _, dec := range applied {
		if err := s.adjustFlatStock(dec.productID, dec.quantity); err != nil {
			log.Printf("[Order] COMPENSATION FAILED for product %s: %v", dec.productID, err)
			continue
		}
		if dec.color == "" {
			continue
		}

		var product models.Product
		if err := s.db.Preload("ColorVariants.Sizes").First(&product, "id = ?", dec.productID).Error; err != nil {
			log.Printf("[Order] COMPENSATION FAILED for product %s variants: %v", dec.productID, err)
			continue
		}
		variant := findVariant(product.ColorVariants, dec.color)
		if variant == nil {
			continue
		}
		if dec.size != "" {
			if size := findSize(variant.Sizes, dec.size); size != nil {
				if err := s.adjustSizeStock(size.ID, dec.quantity); err != nil {
					log.Printf("[Order] COMPENSATION FAILED for product %s size %s: %v", dec.productID, dec.size, err)
				}
			}
		} else {
			if err := s.adjustVariantStock(variant.ID, dec.quantity); err != nil {
				log.Printf("[Order] COMPENSATION FAILED for product %s color %s: %v", dec.productID, dec.color, err)
			}
		}
	}
}

func (s *OrderService) adjustFlatStock(productID uuid.UUID, delta int) error {
	return s.db.Model(&models.Product{}).Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func (s *OrderService) adjustVariantStock(variantID uuid.UUID, delta int) error {
	return s.db.Model(&models.ColorVariant{}).Where("id = ?", variantID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func (s *OrderService) adjustSizeStock(sizeID uuid.UUID, delta int) error {
	return s.db.Model(&models.SizeStock{}).Where("id = ?", sizeID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func findVariant(variants []models.ColorVariant, color string) *models.ColorVariant {
	for i := range variants {
		if strings.EqualFold(variants[i].ColorName, color) {
			return &variants[i]
		}
	}
	return nil
}

func findSize(sizes []models.SizeStock, label string) *models.SizeStock {
	for i := range sizes {
		if strings.EqualFold(sizes[i].Size, label) {
			return &sizes[i]
		}
	}
	return nil
}

func buildOrder(draft *models.DraftOrder) *models.Order {
	awaiting := false
	order := &models.Order{
		OrderCode:       GenerateOrderCode(),
		CustomerName:    draft.Customer.Name,
		CustomerPhone:   draft.Customer.Phone,
		CustomerAddress: draft.Customer.Address,
		Notes:           draft.Customer.Notes,
		Subtotal:        draft.Subtotal,
		ShippingZone:    draft.Zone,
		ShippingFee:     draft.ShippingFee,
		CouponCode:      draft.CouponCode,
		Discount:        draft.Discount,
		Total:           draft.Total,
		PaymentMethod:   draft.PaymentMethod,
		Status:          "confirmed",
		OrderStatus:     &awaiting,
		PlacedAt:        time.Now(),
	}

	if draft.PaymentMethod == models.PaymentWallet && draft.Payment != nil {
		order.WalletNumber = draft.Payment.WalletNumber
		order.TrxID = draft.Payment.TrxID
		order.TrxVerified = false
	}

	for _, item := range draft.Items {
		productID := item.ProductID
		oi := models.OrderItem{
			ProductID: &productID,
			LineID:    item.LineID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			LineTotal: item.Price * float64(item.Quantity),
		}
		if item.Color != nil {
			oi.Color = item.Color.Name
		}
		if item.Size != nil {
			oi.Size = item.Size.Label
		}
		order.Items = append(order.Items, oi)
	}

	return order
}

// GenerateOrderCode returns a short collision-resistant order token.
func GenerateOrderCode() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:10])
}

// HistoryByPhone returns the order history for a customer phone,
// newest first.
func (s *OrderService) HistoryByPhone(phone string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").
		Where("customer_phone = ?", phone).
		Order("placed_at desc").
		Find(&orders).Error
	return orders, err
}

// GetByCode returns a single order by its public code.
func (s *OrderService) GetByCode(code string) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "order_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

package services

import (
	"encoding/json"
	"log"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lotus/internal/models"
)

// snapshotVersion is stored with every checkout snapshot; snapshots
// written by a different schema version are ignored on load.
const snapshotVersion = 1

var bdPhonePattern = regexp.MustCompile(`^01[3-9][0-9]{8}$`)

// CheckoutState is the resumable checkout form state kept in the
// per-client snapshot slot.
type CheckoutState struct {
	Customer   models.Customer `json:"customer"`
	Zone       string          `json:"zone"`
	CouponCode string          `json:"coupon_code"`
}

// CheckoutRequest is a checkout submission.
type CheckoutRequest struct {
	Customer      models.Customer       `json:"customer"`
	TermsAccepted bool                  `json:"terms_accepted"`
	Zone          string                `json:"zone"`
	CouponCode    string                `json:"coupon_code"`
	PaymentMethod string                `json:"payment_method"`
	Payment       *models.WalletPayment `json:"payment,omitempty"`
}

// Quote is the pricing breakdown for the current cart.
type Quote struct {
	Items          []models.CartItem `json:"items"`
	Subtotal       int               `json:"subtotal"`
	ShippingFee    int               `json:"shipping_fee"`
	Discount       int               `json:"discount"`
	Total          int               `json:"total"`
	PaymentMethods []string          `json:"payment_methods"`
}

// CheckoutService validates customer input, resolves products and
// pricing, and packages a DraftOrder for the submission pipeline.
type CheckoutService struct {
	db       *gorm.DB
	cart     *CartService
	pricing  *PricingService
	validate *validator.Validate
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(db *gorm.DB, cart *CartService, pricing *PricingService) *CheckoutService {
	v := validator.New()
	_ = v.RegisterValidation("bdphone", func(fl validator.FieldLevel) bool {
		return bdPhonePattern.MatchString(fl.Field().String())
	})

	return &CheckoutService{db: db, cart: cart, pricing: pricing, validate: v}
}

// ValidateCustomer returns field-level errors for the customer form.
// An empty map means the form is valid.
func (s *CheckoutService) ValidateCustomer(customer models.Customer, termsAccepted bool) map[string]string {
	fields := map[string]string{}

	if err := s.validate.Struct(customer); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Name":
					fields["name"] = "name is required"
				case "Phone":
					fields["phone"] = "phone must be a valid 11-digit mobile number"
				case "Address":
					fields["address"] = "address must be at least 10 characters"
				case "Notes":
					fields["notes"] = "notes must be at most 100 characters"
				}
			}
		}
	}

	if !termsAccepted {
		fields["terms"] = "terms must be accepted"
	}

	return fields
}

// ResolveProducts loads the current product records for the cart lines.
// Missing products are simply absent from the result.
func (s *CheckoutService) ResolveProducts(items []models.CartItem) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := map[uuid.UUID]bool{}
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products := map[uuid.UUID]models.Product{}
	if len(ids) == 0 {
		return products, nil
	}

	var records []models.Product
	if err := s.db.Preload("ColorVariants.Sizes").Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}

	for _, p := range records {
		products[p.ID] = p
	}
	return products, nil
}

// PaymentMethods returns the methods available for the given cart. A
// cart containing any pre-order item (non-empty product type) is forced
// to wallet payment; otherwise cash is offered first as the default.
func PaymentMethods(items []models.CartItem, products map[uuid.UUID]models.Product) []string {
	for _, item := range items {
		if p, ok := products[item.ProductID]; ok && p.ProductType != "" {
			return []string{models.PaymentWallet}
		}
	}
	return []string{models.PaymentCash, models.PaymentWallet}
}

// BuildQuote computes the pricing breakdown for the current cart.
func (s *CheckoutService) BuildQuote(clientToken, zone, couponCode string) (*Quote, error) {
	items := s.cart.ReadAll(clientToken)

	products, err := s.ResolveProducts(items)
	if err != nil {
		return nil, err
	}

	flags := map[uuid.UUID]bool{}
	for id, p := range products {
		flags[id] = p.DeliveryCharge
	}

	discount := 0
	if couponCode != "" {
		coupon, err := s.pricing.ApplyCoupon(couponCode)
		if err == nil {
			discount = coupon.Discount
		}
	}

	subtotal := s.pricing.Subtotal(items)
	shipping := s.pricing.ShippingCharge(items, flags, zone)

	return &Quote{
		Items:          items,
		Subtotal:       subtotal,
		ShippingFee:    shipping,
		Discount:       discount,
		Total:          s.pricing.Total(subtotal, shipping, discount),
		PaymentMethods: PaymentMethods(items, products),
	}, nil
}

// SaveSnapshot persists the checkout form state for reload resilience.
func (s *CheckoutService) SaveSnapshot(clientToken string, state CheckoutState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	var record models.CheckoutSnapshot
	err = s.db.Where("client_token = ?", clientToken).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		record = models.CheckoutSnapshot{
			ClientToken: clientToken,
			Version:     snapshotVersion,
			Payload:     string(payload),
		}
		return s.db.Create(&record).Error
	}
	if err != nil {
		return err
	}

	record.Version = snapshotVersion
	record.Payload = string(payload)
	return s.db.Save(&record).Error
}

// LoadSnapshot returns the last saved checkout state, or nil when no
// usable snapshot exists.
func (s *CheckoutService) LoadSnapshot(clientToken string) *CheckoutState {
	var record models.CheckoutSnapshot
	if err := s.db.Where("client_token = ?", clientToken).First(&record).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("[Checkout] failed to load snapshot for %s: %v", clientToken, err)
		}
		return nil
	}

	if record.Version != snapshotVersion {
		log.Printf("[Checkout] snapshot version %d for %s not readable, ignoring", record.Version, clientToken)
		return nil
	}

	var state CheckoutState
	if err := json.Unmarshal([]byte(record.Payload), &state); err != nil {
		log.Printf("[Checkout] corrupt snapshot for %s, ignoring: %v", clientToken, err)
		return nil
	}
	return &state
}

// ClearSnapshot removes the checkout snapshot slot.
func (s *CheckoutService) ClearSnapshot(clientToken string) error {
	return s.db.Where("client_token = ?", clientToken).Delete(&models.CheckoutSnapshot{}).Error
}

// BuildDraft validates the submission and assembles the DraftOrder
// handed to the order pipeline. Prices are frozen at this point.
func (s *CheckoutService) BuildDraft(clientToken string, req CheckoutRequest) (*models.DraftOrder, error) {
	items := s.cart.ReadAll(clientToken)
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	fields := s.ValidateCustomer(req.Customer, req.TermsAccepted)

	if req.Zone != models.ZoneInside && req.Zone != models.ZoneOutside {
		fields["zone"] = "shipping zone must be selected"
	}

	products, err := s.ResolveProducts(items)
	if err != nil {
		return nil, err
	}

	methods := PaymentMethods(items, products)
	if req.PaymentMethod == "" {
		req.PaymentMethod = methods[0]
	}
	allowed := false
	for _, m := range methods {
		if m == req.PaymentMethod {
			allowed = true
			break
		}
	}
	if !allowed {
		fields["payment_method"] = "payment method not available for this cart"
	}

	flags := map[uuid.UUID]bool{}
	for id, p := range products {
		flags[id] = p.DeliveryCharge
	}

	discount := 0
	couponCode := ""
	if req.CouponCode != "" {
		coupon, err := s.pricing.ApplyCoupon(req.CouponCode)
		if err == nil && coupon.Discount > 0 {
			discount = coupon.Discount
			couponCode = coupon.Code
		}
	}

	subtotal := s.pricing.Subtotal(items)
	shipping := s.pricing.ShippingCharge(items, flags, req.Zone)

	// The pricing engine does not clamp; guard here so the total can
	// never go negative.
	if discount > subtotal+shipping {
		fields["coupon"] = "discount exceeds order amount"
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return &models.DraftOrder{
		Customer:      req.Customer,
		Items:         items,
		Zone:          req.Zone,
		ShippingFee:   shipping,
		CouponCode:    couponCode,
		Discount:      discount,
		Subtotal:      subtotal,
		Total:         s.pricing.Total(subtotal, shipping, discount),
		PaymentMethod: req.PaymentMethod,
		Payment:       req.Payment,
		CreatedAt:     time.Now(),
	}, nil
}

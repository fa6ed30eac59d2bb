package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/lotus/internal/models"
	"github.com/example/lotus/internal/services"
)

func newCheckout(t *testing.T) (*gorm.DB, *services.CartService, *services.CheckoutService) {
	t.Helper()
	db := setupDB(t)
	cart := services.NewCartService(db, nil)
	pricing := services.NewPricingService(60, 120)
	checkout := services.NewCheckoutService(db, cart, pricing)
	return db, cart, checkout
}

func validCustomer() models.Customer {
	return models.Customer{
		Name:    "Rahim Uddin",
		Phone:   "01712345678",
		Address: "House 12, Road 5, Dhanmondi, Dhaka",
	}
}

func TestCheckoutService_ValidateCustomer(t *testing.T) {
	_, _, checkout := newCheckout(t)

	assert.Empty(t, checkout.ValidateCustomer(validCustomer(), true))

	cases := []struct {
		name     string
		mutate   func(*models.Customer)
		terms    bool
		field    string
	}{
		{"missing name", func(c *models.Customer) { c.Name = "" }, true, "name"},
		{"short phone", func(c *models.Customer) { c.Phone = "0171234567" }, true, "phone"},
		{"invalid prefix", func(c *models.Customer) { c.Phone = "01212345678" }, true, "phone"},
		{"short address", func(c *models.Customer) { c.Address = "Dhaka" }, true, "address"},
		{"long notes", func(c *models.Customer) {
			for len(c.Notes) <= 100 {
				c.Notes += "please ring the bell "
			}
		}, true, "notes"},
		{"terms unchecked", func(c *models.Customer) {}, false, "terms"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			customer := validCustomer()
			tc.mutate(&customer)
			fields := checkout.ValidateCustomer(customer, tc.terms)
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestCheckoutService_PaymentMethods(t *testing.T) {
	db, cart, checkout := newCheckout(t)

	regular := models.Product{Slug: "shirt", Name: "Shirt", Price: 500, Stock: 10, Available: true}
	preorder := models.Product{Slug: "eid-panjabi", Name: "Eid Panjabi", Price: 1500, Stock: 5, Available: true, ProductType: "pre-order"}
	require.NoError(t, db.Create(&regular).Error)
	require.NoError(t, db.Create(&preorder).Error)

	_, err := cart.AddOrIncrement("client-1", models.CartItem{
		LineID: models.LineIdentity(regular.ID, "", ""), ProductID: regular.ID, Name: regular.Name, Price: regular.Price, Quantity: 1,
	})
	require.NoError(t, err)

	items := cart.ReadAll("client-1")
	products, err := checkout.ResolveProducts(items)
	require.NoError(t, err)
	assert.Equal(t, []string{models.PaymentCash, models.PaymentWallet}, services.PaymentMethods(items, products))

	// A pre-order item in the cart forces wallet payment.
	_, err = cart.AddOrIncrement("client-1", models.CartItem{
		LineID: models.LineIdentity(preorder.ID, "", ""), ProductID: preorder.ID, Name: preorder.Name, Price: preorder.Price, Quantity: 1,
	})
	require.NoError(t, err)

	items = cart.ReadAll("client-1")
	products, err = checkout.ResolveProducts(items)
	require.NoError(t, err)
	assert.Equal(t, []string{models.PaymentWallet}, services.PaymentMethods(items, products))
}

func TestCheckoutService_BuildDraft(t *testing.T) {
	db, cart, checkout := newCheckout(t)

	product := models.Product{Slug: "shirt", Name: "Shirt", Price: 499.99, Stock: 10, Available: true, DeliveryCharge: true}
	require.NoError(t, db.Create(&product).Error)

	_, err := cart.AddOrIncrement("client-1", models.CartItem{
		LineID: models.LineIdentity(product.ID, "", ""), ProductID: product.ID, Name: product.Name, Price: product.Price, Quantity: 1,
	})
	require.NoError(t, err)
	_, err = cart.SetQuantity("client-1", models.LineIdentity(product.ID, "", ""), 2)
	require.NoError(t, err)

	draft, err := checkout.BuildDraft("client-1", services.CheckoutRequest{
		Customer:      validCustomer(),
		TermsAccepted: true,
		Zone:          models.ZoneInside,
		CouponCode:    "save20",
	})
	require.NoError(t, err)

	assert.Equal(t, 998, draft.Subtotal)
	assert.Equal(t, 60, draft.ShippingFee)
	assert.Equal(t, 20, draft.Discount)
	assert.Equal(t, 1038, draft.Total)
	// Cash is the default when both methods are offered.
	assert.Equal(t, models.PaymentCash, draft.PaymentMethod)
	assert.Len(t, draft.Items, 1)
	assert.Equal(t, 2, draft.Items[0].Quantity)
}

func TestCheckoutService_BuildDraftEmptyCart(t *testing.T) {
	_, _, checkout := newCheckout(t)

	_, err := checkout.BuildDraft("client-1", services.CheckoutRequest{
		Customer:      validCustomer(),
		TermsAccepted: true,
		Zone:          models.ZoneInside,
	})
	assert.ErrorIs(t, err, services.ErrCartEmpty)
}

func TestCheckoutService_BuildDraftFieldErrors(t *testing.T) {
	db, cart, checkout := newCheckout(t)

	product := models.Product{Slug: "shirt", Name: "Shirt", Price: 500, Stock: 10, Available: true}
	require.NoError(t, db.Create(&product).Error)
	_, err := cart.AddOrIncrement("client-1", models.CartItem{
		LineID: models.LineIdentity(product.ID, "", ""), ProductID: product.ID, Name: product.Name, Price: product.Price, Quantity: 1,
	})
	require.NoError(t, err)

	customer := validCustomer()
	customer.Phone = "01212345678"

	_, err = checkout.BuildDraft("client-1", services.CheckoutRequest{
		Customer:      customer,
		TermsAccepted: false,
		Zone:          "nowhere",
	})
	ve, ok := services.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "phone")
	assert.Contains(t, ve.Fields, "terms")
	assert.Contains(t, ve.Fields, "zone")
}

func TestCheckoutService_Snapshot(t *testing.T) {
	db, _, checkout := newCheckout(t)

	assert.Nil(t, checkout.LoadSnapshot("client-1"))

	state := services.CheckoutState{
		Customer:   validCustomer(),
		Zone:       models.ZoneOutside,
		CouponCode: "save20",
	}
	require.NoError(t, checkout.SaveSnapshot("client-1", state))

	loaded := checkout.LoadSnapshot("client-1")
	require.NotNil(t, loaded)
	assert.Equal(t, state, *loaded)

	// Snapshots written by a different schema version are ignored.
	require.NoError(t, db.Model(&models.CheckoutSnapshot{}).
		Where("client_token = ?", "client-1").
		Update("version", 99).Error)
	assert.Nil(t, checkout.LoadSnapshot("client-1"))

	require.NoError(t, checkout.ClearSnapshot("client-1"))
	assert.Nil(t, checkout.LoadSnapshot("client-1"))
}

package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/lotus/internal/config"
	"github.com/example/lotus/internal/database"
	"github.com/example/lotus/internal/models"
	"github.com/example/lotus/internal/routes"
	"github.com/example/lotus/internal/utils"
)

var routesDBCounter int

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	routesDBCounter++
	dsn := fmt.Sprintf("file:routesdb%d?mode=memory&cache=shared", routesDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		TokenExpires:       time.Hour,
		ShippingFeeInside:  60,
		ShippingFeeOutside: 120,
	}

	app := fiber.New()
	routes.Register(app, db, cfg, nil)
	return app, db, cfg
}

func doJSON(t *testing.T, app *fiber.App, method, path, clientToken string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if clientToken != "" {
		req.Header.Set("X-Client-Token", clientToken)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func seedProduct(t *testing.T, db *gorm.DB) models.Product {
	t.Helper()
	product := models.Product{
		Slug: "classic-shirt", Name: "Classic Shirt",
		Price: 499.99, Stock: 10, Available: true, DeliveryCharge: true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestCartEndpoints(t *testing.T) {
	app, db, _ := newTestApp(t)
	product := seedProduct(t, db)

	// Cart routes without a client token are rejected.
	resp, _ := doJSON(t, app, "GET", "/api/cart/", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/cart/items", "client-1", map[string]interface{}{
		"product_id": product.ID.String(),
		"name":       product.Name,
		"price":      product.Price,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Same selection again increments the line instead of duplicating it.
	resp, _ = doJSON(t, app, "POST", "/api/cart/items", "client-1", map[string]interface{}{
		"product_id": product.ID.String(),
		"name":       product.Name,
		"price":      product.Price,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/cart/", "client-1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	line := items[0].(map[string]interface{})
	assert.EqualValues(t, 2, line["quantity"])

	// Another client's slot stays empty.
	_, body = doJSON(t, app, "GET", "/api/cart/", "client-2", nil)
	assert.Empty(t, body["data"])
}

func TestCheckoutFlow(t *testing.T) {
	app, db, _ := newTestApp(t)
	product := seedProduct(t, db)

	resp, _ := doJSON(t, app, "POST", "/api/cart/items", "client-1", map[string]interface{}{
		"product_id": product.ID.String(),
		"name":       product.Name,
		"price":      product.Price,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Session is resumable with a cart present.
	resp, body := doJSON(t, app, "GET", "/api/checkout/session", "client-1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	quote := body["quote"].(map[string]interface{})
	assert.EqualValues(t, 499, quote["subtotal"])

	// Empty slot with no snapshot is redirected back to the cart view.
	resp, body = doJSON(t, app, "GET", "/api/checkout/session", "client-9", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "cart", body["redirect"])

	// Invalid form is rejected with field-scoped errors.
	resp, body = doJSON(t, app, "POST", "/api/checkout/submit", "client-1", map[string]interface{}{
		"customer": map[string]string{"name": "Rahim Uddin", "phone": "0123", "address": "House 12, Road 5, Dhanmondi"},
		"zone":     "inside",
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "phone")
	assert.Contains(t, errs, "terms")

	resp, body = doJSON(t, app, "POST", "/api/checkout/submit", "client-1", map[string]interface{}{
		"customer": map[string]string{
			"name":    "Rahim Uddin",
			"phone":   "01712345678",
			"address": "House 12, Road 5, Dhanmondi, Dhaka",
		},
		"terms_accepted": true,
		"zone":           "inside",
		"coupon_code":    "SAVE20",
		"payment_method": "cash",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["order_code"], 10)
	// floor(499.99) + 60 shipping - 20 coupon
	assert.EqualValues(t, 539, data["total"])

	// Cart is emptied and the order is visible on the confirmation view.
	_, body = doJSON(t, app, "GET", "/api/cart/", "client-1", nil)
	assert.Empty(t, body["data"])

	code := data["order_code"].(string)
	resp, body = doJSON(t, app, "GET", "/api/orders/"+code, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])
}

func TestAuthMe(t *testing.T) {
	app, db, cfg := newTestApp(t)

	user := models.User{FirstName: "Rahim", LastName: "Uddin", Phone: "01712345678", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := utils.GenerateToken(cfg.JWTSecret, user.ID, false, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	profile := body["user"].(map[string]interface{})
	assert.Equal(t, "01712345678", profile["phone"])
	assert.Equal(t, false, profile["is_admin"])
}

var adminSeq int

func adminRequest(t *testing.T, app *fiber.App, cfg *config.Config, db *gorm.DB, method, path string, body io.Reader) *http.Response {
	t.Helper()

	adminSeq++
	admin := models.User{FirstName: "Operator", Phone: fmt.Sprintf("018%08d", adminSeq), PasswordHash: "x", IsAdmin: true}
	require.NoError(t, db.Create(&admin).Error)
	token, err := utils.GenerateToken(cfg.JWTSecret, admin.ID, true, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAdminDashboardStats(t *testing.T) {
	app, db, cfg := newTestApp(t)

	pending := false
	completed := true
	now := time.Now()
	orders := []models.Order{
		{OrderCode: "STAT000001", CustomerPhone: "01712345678", Total: 100, Status: "confirmed", OrderStatus: &pending},
		{OrderCode: "STAT000002", CustomerPhone: "01712345678", Total: 200, Status: "confirmed", OrderStatus: &completed},
		{OrderCode: "STAT000003", CustomerPhone: "01712345678", Total: 300, Status: "confirmed", OrderStatus: &pending, Cancelled: true, CancelledAt: &now},
		// Legacy row without the fulfillment flag: neither pending nor
		// completed, only part of the total.
		{OrderCode: "STAT000004", CustomerPhone: "01712345678", Total: 400, Status: "confirmed", ShippingStatus: "shipped"},
	}
	for i := range orders {
		require.NoError(t, db.Create(&orders[i]).Error)
	}

	resp := adminRequest(t, app, cfg, db, "GET", "/api/admin/stats", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	stats := body["data"].(map[string]interface{})
	assert.EqualValues(t, 4, stats["total_orders"])
	assert.EqualValues(t, 1, stats["pending_orders"])
	assert.EqualValues(t, 1, stats["completed_orders"])
	assert.EqualValues(t, 1, stats["cancelled_orders"])
	// Cancelled orders are excluded from revenue.
	assert.EqualValues(t, 700, stats["total_revenue"])
}

func TestAdminProductVariantReplacement(t *testing.T) {
	app, db, cfg := newTestApp(t)

	product := models.Product{
		Slug: "panjabi", Name: "Panjabi", Price: 1200, Stock: 20, Available: true,
		ColorVariants: []models.ColorVariant{
			{ColorName: "Blue", Stock: 8, Sizes: []models.SizeStock{{Size: "M", Stock: 3}, {Size: "L", Stock: 5}}},
		},
	}
	require.NoError(t, db.Create(&product).Error)
	oldVariantID := product.ColorVariants[0].ID

	payload, err := json.Marshal(map[string]interface{}{
		"slug": "panjabi", "name": "Panjabi", "price": 1200, "stock": 20, "available": true,
		"color_variants": []map[string]interface{}{
			{"color_name": "Red", "stock": 6, "sizes": []map[string]interface{}{{"size": "XL", "stock": 6}}},
		},
	})
	require.NoError(t, err)

	resp := adminRequest(t, app, cfg, db, "PUT", "/api/admin/products/"+product.ID.String(), bytes.NewReader(payload))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// No size rows survive under the replaced variant.
	var orphans int64
	require.NoError(t, db.Model(&models.SizeStock{}).
		Where("color_variant_id = ?", oldVariantID).
		Count(&orphans).Error)
	assert.EqualValues(t, 0, orphans)

	var reloaded models.Product
	require.NoError(t, db.Preload("ColorVariants.Sizes").First(&reloaded, "id = ?", product.ID).Error)
	require.Len(t, reloaded.ColorVariants, 1)
	assert.Equal(t, "Red", reloaded.ColorVariants[0].ColorName)
	require.Len(t, reloaded.ColorVariants[0].Sizes, 1)
	assert.Equal(t, "XL", reloaded.ColorVariants[0].Sizes[0].Size)

	// Deleting the product takes the whole variant tree with it.
	resp = adminRequest(t, app, cfg, db, "DELETE", "/api/admin/products/"+product.ID.String(), nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var remaining int64
	require.NoError(t, db.Model(&models.ColorVariant{}).
		Where("product_id = ?", product.ID).
		Count(&remaining).Error)
	assert.EqualValues(t, 0, remaining)
	require.NoError(t, db.Model(&models.SizeStock{}).Count(&remaining).Error)
	assert.EqualValues(t, 0, remaining)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	app, db, cfg := newTestApp(t)

	user := models.User{FirstName: "Shopper", Phone: "01712345678", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	admin := models.User{FirstName: "Operator", Phone: "01812345678", PasswordHash: "x", IsAdmin: true}
	require.NoError(t, db.Create(&admin).Error)

	req := httptest.NewRequest("GET", "/api/admin/stats", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	userToken, err := utils.GenerateToken(cfg.JWTSecret, user.ID, false, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	adminToken, err := utils.GenerateToken(cfg.JWTSecret, admin.ID, true, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/lotus/internal/config"
	"github.com/example/lotus/internal/handlers"
	"github.com/example/lotus/internal/middleware"
	"github.com/example/lotus/internal/services"
	"github.com/example/lotus/pkg/rabbitmq"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, mq *rabbitmq.Client) {
	smsService := services.NewSMSService(cfg.SMSAPIKey, cfg.SMSSenderID, cfg.SMSBaseURL, cfg.OperatorPhone)
	cartService := services.NewCartService(db, mq)
	pricingService := services.NewPricingService(cfg.ShippingFeeInside, cfg.ShippingFeeOutside)
	checkoutService := services.NewCheckoutService(db, cartService, pricingService)
	orderService := services.NewOrderService(db, cartService, checkoutService, smsService, mq)

	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	marketingHandler := handlers.NewMarketingHandler(db)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(cartService, checkoutService, pricingService, orderService)
	orderHandler := handlers.NewOrderHandler(orderService)
	adminHandler := handlers.NewAdminHandler(db, orderService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Storefront reads
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/slug/:slug", productHandler.GetProductBySlug)
	api.Get("/products/:id", productHandler.GetProduct)
	api.Get("/headlines", marketingHandler.ListHeadlines)
	api.Get("/banners", marketingHandler.ListBanners)

	// Cart (per-client slot, no account required)
	cart := api.Group("/cart")
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:lineId", cartHandler.SetQuantity)
	cart.Delete("/items/:lineId", cartHandler.RemoveItem)

	// Checkout session and submission
	checkout := api.Group("/checkout")
	checkout.Post("/coupon", checkoutHandler.ApplyCoupon)
	checkout.Get("/session", checkoutHandler.GetSession)
	checkout.Put("/session", checkoutHandler.SaveSession)
	checkout.Post("/submit", checkoutHandler.Submit)

	// Order lookups for the confirmation and history views
	api.Get("/orders", orderHandler.History)
	api.Get("/orders/:code", orderHandler.GetOrder)

	// Admin back-office
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminRequired())
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListOrders)
	admin.Put("/orders/:id/complete", adminHandler.CompleteOrder)
	admin.Put("/orders/:id/cancel", adminHandler.CancelOrder)

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)

	admin.Post("/headlines", marketingHandler.CreateHeadline)
	admin.Put("/headlines/:id", marketingHandler.UpdateHeadline)
	admin.Delete("/headlines/:id", marketingHandler.DeleteHeadline)

	admin.Post("/banners", marketingHandler.CreateBanner)
	admin.Put("/banners/:id", marketingHandler.UpdateBanner)
	admin.Delete("/banners/:id", marketingHandler.DeleteBanner)
}

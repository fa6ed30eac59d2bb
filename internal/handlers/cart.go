package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/lotus/internal/models"
	"github.com/example/lotus/internal/services"
)

// clientTokenHeader identifies the per-browser cart and checkout slots.
const clientTokenHeader = "X-Client-Token"

func clientToken(c *fiber.Ctx) (string, error) {
	token := c.Get(clientTokenHeader)
	if token == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "missing client token")
	}
	return token, nil
}

// CartHandler manages the per-client cart slot.
type CartHandler struct {
	cart *services.CartService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// GetCart returns the current cart.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	token, err := clientToken(c)
	if err != nil {
		return err
	}

	items := h.cart.ReadAll(token)
	return c.JSON(fiber.Map{"success": true, "data": items})
}

type addItemRequest struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Image          string  `json:"image"`
	Color          string  `json:"color"`
	ColorImage     string  `json:"color_image"`
	Size           string  `json:"size"`
	SizeStock      int     `json:"size_stock"`
	DeliveryCharge *bool   `json:"delivery_charge"`
}

// AddItem adds a product selection to the cart, incrementing the
// existing line when the same product+color+size is already present.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	token, err := clientToken(c)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}
	if req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid price")
	}

	item := models.CartItem{
		LineID:         models.LineIdentity(productID, req.Color, req.Size),
		ProductID:      productID,
		Name:           req.Name,
		Price:          req.Price,
		Image:          req.Image,
		Quantity:       1,
		DeliveryCharge: req.DeliveryCharge,
	}
	if req.Color != "" {
		item.Color = &models.CartColor{Name: req.Color, Image: req.ColorImage}
	}
	if req.Size != "" {
		item.Size = &models.CartSize{Label: req.Size, Stock: req.SizeStock}
	}

	items, err := h.cart.AddOrIncrement(token, item)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": items})
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetQuantity overwrites a line's quantity. Quantities below one are
// rejected; lines are removed through DELETE.
func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	token, err := clientToken(c)
	if err != nil {
		return err
	}

	var req setQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be at least 1")
	}

	items, err := h.cart.SetQuantity(token, c.Params("lineId"), req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

// RemoveItem deletes a cart line.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	token, err := clientToken(c)
	if err != nil {
		return err
	}

	items, err := h.cart.Remove(token, c.Params("lineId"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

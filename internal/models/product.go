package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	Slug             string         `gorm:"uniqueIndex" json:"slug"`
	Name             string         `json:"name"`
	ShortDescription string         `json:"short_description"`
	LongDescription  string         `json:"long_description"`
	Price            float64        `json:"price"`
	RegularPrice     float64        `json:"regular_price"`
	Discount         float64        `json:"discount"`
	Currency         string         `json:"currency"`
	HeroImage        string         `json:"hero_image"`
	GalleryImages    pq.StringArray `gorm:"type:text[]" json:"gallery_images"`
	Stock            int            `json:"stock"`
	DeliveryCharge   bool           `json:"delivery_charge"`
	Available        bool           `json:"available"`
	// ProductType marks pre-order items; non-empty forces wallet payment
	// at checkout.
	ProductType   string         `json:"product_type"`
	CategoryID    *uuid.UUID     `gorm:"type:uuid" json:"category_id"`
	Category      *Category      `json:"category,omitempty"`
	ColorVariants []ColorVariant `json:"color_variants,omitempty"`
}

type ColorVariant struct {
	BaseModel
	ProductID uuid.UUID   `gorm:"type:uuid;index" json:"product_id"`
	ColorName string      `json:"color_name"`
	Image     string      `json:"image"`
	Stock     int         `json:"stock"`
	Sizes     []SizeStock `json:"sizes,omitempty"`
}

type SizeStock struct {
	BaseModel
	ColorVariantID uuid.UUID `gorm:"type:uuid;index" json:"color_variant_id"`
	Size           string    `json:"size"`
	Stock          int       `json:"stock"`
}

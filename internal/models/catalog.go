package models

type Category struct {
	BaseModel
	Name         string    `json:"name"`
	Slug         string    `gorm:"uniqueIndex" json:"slug"`
	Subtitle     string    `json:"subtitle"`
	Description  string    `json:"description"`
	CardImage    string    `json:"card_image"`
	ProductCount int       `json:"product_count"`
	Products     []Product `json:"products,omitempty"`
}

// Headline is a rotating announcement line shown in the storefront header.
type Headline struct {
	BaseModel
	Text         string `json:"text"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

type Banner struct {
	BaseModel
	Title        string `json:"title"`
	Image        string `json:"image"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

package models

import "time"

type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"` // "food", "drink"
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	CategoryFood  = "food"
	CategoryDrink = "drink"
)

// MenuItemPatch carries a partial update; nil fields are left untouched.
type MenuItemPatch struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Price       *int64  `json:"price"`
	ImageURL    *string `json:"image_url"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// Empty reports whether the patch changes nothing.
func (p MenuItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil &&
		p.ImageURL == nil && p.Description == nil && p.Available == nil
}

// Apply copies the non-nil fields of p onto item.
func (p MenuItemPatch) Apply(item *MenuItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
}

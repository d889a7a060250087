package models

import "gorm.io/gorm"

// Product categories as stored by the back office.
const (
	CategorySnack   = "SNACK"
	CategoryPizza   = "PIZZA"
	CategoryDrink   = "DRINK"
	CategoryDessert = "DESSERT"
)

// CategoryLabels maps a category to the heading shown in the chat menu.
var CategoryLabels = map[string]string{
	CategorySnack:   "🍔 Lanches",
	CategoryPizza:   "🍕 Pizzas",
	CategoryDrink:   "🥤 Bebidas",
	CategoryDessert: "🍰 Sobremesas",
}

// Product is one orderable catalog entry of a tenant.
type Product struct {
	gorm.Model

	StoreID  string  `json:"store_id" gorm:"index"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category" gorm:"index"`
	Active   bool    `json:"active" gorm:"default:true"`
}

// IsComposite reports whether the product can be combined half-and-half.
func (p *Product) IsComposite() bool {
	return p.Category == CategoryPizza
}

package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment methods offered in the chat flow.
const (
	PaymentPix  = "PIX"
	PaymentCash = "CASH"
	PaymentCard = "CARD"
)

// PaymentLabels maps a payment method to its pt-BR chat label.
var PaymentLabels = map[string]string{
	PaymentPix:  "Pix",
	PaymentCash: "Dinheiro",
	PaymentCard: "Cartão",
}

// Order statuses.
const (
	OrderStatusPending = "PENDING"
)

// Order sources.
const (
	OrderSourceWhatsAppBot = "WHATSAPP_BOT"
)

// Order is the persisted result of a confirmed conversation. It carries a
// denormalized snapshot of the client and delivery data and is never mutated
// by the bot after creation.
type Order struct {
	gorm.Model

	// Reference is the internal identifier; OrderNumber is the human-facing
	// sequential number, monotonic per tenant only.
	Reference   string `json:"reference" gorm:"uniqueIndex"`
	OrderNumber int    `json:"order_number" gorm:"index"`
	StoreID     string `json:"store_id" gorm:"index"`

	ClientID        uint   `json:"client_id"`
	ClientName      string `json:"client_name"`
	ClientPhone     string `json:"client_phone"`
	DeliveryAddress string `json:"delivery_address"`

	Subtotal      float64 `json:"subtotal"`
	DeliveryFee   float64 `json:"delivery_fee"`
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
	Source        string  `json:"source"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

// OrderItem is one flattened cart line. Composite items persist as a single
// line carrying the second flavor's name.
type OrderItem struct {
	gorm.Model

	OrderID          uint    `json:"order_id" gorm:"index"`
	ProductID        uint    `json:"product_id"`
	ProductName      string  `json:"product_name"`
	Quantity         int     `json:"quantity"`
	UnitPrice        float64 `json:"unit_price"`
	IsHalfHalf       bool    `json:"is_half_half"`
	SecondFlavorName string  `json:"second_flavor_name"`
}

// BeforeCreate assigns the internal reference and defaults.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.Reference == "" {
		o.Reference = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.Source == "" {
		o.Source = OrderSourceWhatsAppBot
	}
	return nil
}

// ShortRef returns the short order identifier quoted back to the customer.
func (o *Order) ShortRef() string {
	if len(o.Reference) < 4 {
		return o.Reference
	}
	return o.Reference[:4]
}

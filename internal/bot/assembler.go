package bot

import (
	"fmt"

	"github.com/pedeja/pedeja-backend/internal/models"
)

// assembleOrder turns the completed session cart into a persisted order
// carrying a denormalized snapshot of the client and delivery data. The
// display number is the tenant's last number plus one.
func (e *Engine) assembleOrder(t *turn) (*models.Order, error) {
	number, err := e.store.NextOrderNumber(t.in.StoreID)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	subtotal := t.session.Subtotal()
	order := &models.Order{
		OrderNumber:     number,
		StoreID:         t.in.StoreID,
		ClientID:        t.client.ID,
		ClientName:      t.client.Name,
		ClientPhone:     t.client.Phone,
		DeliveryAddress: t.session.Address,
		Subtotal:        subtotal,
		DeliveryFee:     t.session.DeliveryFee,
		Total:           subtotal + t.session.DeliveryFee,
		PaymentMethod:   t.session.PaymentMethod,
		Status:          models.OrderStatusPending,
		Source:          models.OrderSourceWhatsAppBot,
	}

	for _, line := range t.session.Cart {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:        line.ProductID,
			ProductName:      line.Name,
			Quantity:         line.Quantity,
			UnitPrice:        line.Price,
			IsHalfHalf:       line.IsHalfHalf,
			SecondFlavorName: line.SecondFlavorName,
		})
	}

	if order.DeliveryAddress == "" {
		order.DeliveryAddress = "Não informado"
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentCash
	}

	return e.store.CreateOrder(order)
}

// NotifyDriver sends the delivery summary for an order to a driver's
// WhatsApp number. Called by the operator API, outside the chat flow.
func (e *Engine) NotifyDriver(orderID uint, driverPhone string) error {
	if driverPhone == "" {
		return fmt.Errorf("driver phone is required")
	}
	order, err := e.store.GetOrder(orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	return e.messenger.SendText(driverPhone, driverNotification(order))
}

package models

import "encoding/json"

// SessionState enumerates the steps of the conversational ordering flow.
type SessionState string

const (
	StateName         SessionState = "NAME"
	StateNameCheckout SessionState = "NAME_CHECKOUT"
	StateMenu         SessionState = "MENU"
	StateOrdering     SessionState = "ORDERING"
	StatePizza1       SessionState = "PIZZA_BUILDER_1"
	StatePizza2       SessionState = "PIZZA_BUILDER_2"
	StateAddress      SessionState = "ADDRESS"
	StateAddressNum   SessionState = "ADDRESS_NUMBER"
	StateAddressRef   SessionState = "ADDRESS_REF"
	StatePayment      SessionState = "PAYMENT"
	StateConfirm      SessionState = "CONFIRM"
)

// CartLine is one orderable unit in the session cart. Lines are immutable
// once added; the only correction path in this channel is a global reset.
type CartLine struct {
	ProductID        uint    `json:"product_id"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Quantity         int     `json:"quantity"`
	IsHalfHalf       bool    `json:"is_half_half,omitempty"`
	SecondFlavorName string  `json:"second_flavor_name,omitempty"`
}

// PendingComposite holds the first half of a half-and-half item while the
// second component is being selected.
type PendingComposite struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

// Coordinates is a latitude/longitude pair from a location-share event.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Session is the ordering state attached 1:1 to a conversation. The state
// determines which of the optional fields are populated; fields belonging to
// later steps stay zero until reached.
type Session struct {
	State            SessionState      `json:"state"`
	Cart             []CartLine        `json:"cart"`
	PendingComposite *PendingComposite `json:"pending_composite,omitempty"`
	Address          string            `json:"address,omitempty"`
	Location         *Coordinates      `json:"location,omitempty"`
	DeliveryFee      float64           `json:"delivery_fee,omitempty"`
	Total            float64           `json:"total,omitempty"`
	PaymentMethod    string            `json:"payment_method,omitempty"`
}

// NewSession returns a fresh session at the top-level menu with an empty cart.
func NewSession() *Session {
	return &Session{State: StateMenu, Cart: []CartLine{}}
}

// Reset clears the session back to the given state with an empty cart.
func (s *Session) Reset(state SessionState) {
	*s = Session{State: state, Cart: []CartLine{}}
}

// Subtotal sums price times quantity over the cart.
func (s *Session) Subtotal() float64 {
	var sum float64
	for _, line := range s.Cart {
		sum += line.Price * float64(line.Quantity)
	}
	return sum
}

// Encode serializes the session for the conversation's session blob.
func (s *Session) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSession parses a stored session blob. An empty or corrupt blob falls
// back to a fresh menu session so a broken row cannot wedge the conversation.
func DecodeSession(blob string) *Session {
	if blob == "" {
		return NewSession()
	}
	var s Session
	if err := json.Unmarshal([]byte(blob), &s); err != nil || s.State == "" {
		return NewSession()
	}
	if s.Cart == nil {
		s.Cart = []CartLine{}
	}
	return &s
}

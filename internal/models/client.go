package models

import (
	"strings"

	"gorm.io/gorm"
)

// PlaceholderName is assigned to clients created from an inbound message
// before they have told the bot their name.
const PlaceholderName = "Cliente"

// Client represents a customer reached through the WhatsApp channel.
type Client struct {
	gorm.Model

	StoreID string `json:"store_id" gorm:"index"`
	Name    string `json:"name"`
	Phone   string `json:"phone" gorm:"uniqueIndex"`
}

// BeforeCreate normalizes the phone number and fills the placeholder name.
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" {
		c.Name = PlaceholderName
	}
	return nil
}

// HasRealName reports whether the client ever provided a display name.
// A freshly synced client carries the placeholder or its own phone number.
func (c *Client) HasRealName() bool {
	return c.Name != "" && c.Name != PlaceholderName && c.Name != c.Phone
}

// FirstName returns the first word of the client's name for greetings.
func (c *Client) FirstName() string {
	parts := strings.Fields(c.Name)
	if len(parts) == 0 {
		return c.Name
	}
	return parts[0]
}

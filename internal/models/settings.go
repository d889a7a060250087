package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Fallback store coordinates (central São Paulo) when a tenant never set
// its own location.
const (
	DefaultStoreLat = -23.550520
	DefaultStoreLng = -46.633308
)

// FeeTier prices delivery for distances between MinKm and MaxKm, both ends
// inclusive.
type FeeTier struct {
	MinKm float64 `json:"minKm"`
	MaxKm float64 `json:"maxKm"`
	Price float64 `json:"price"`
}

// StoreSettings carries a tenant's branding and delivery configuration.
// DeliveryRanges is the tier table serialized as JSON, the format the back
// office writes.
type StoreSettings struct {
	gorm.Model

	StoreID        string  `json:"store_id" gorm:"uniqueIndex"`
	Name           string  `json:"name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DeliveryRanges string  `json:"delivery_ranges"`
}

// DisplayName returns the tenant name with a fallback for unbranded stores.
func (s *StoreSettings) DisplayName() string {
	if s == nil || s.Name == "" {
		return "Delivery Master"
	}
	return s.Name
}

// Coordinates returns the store location, falling back to the defaults when
// unset.
func (s *StoreSettings) Coordinates() (lat, lng float64) {
	if s == nil || (s.Latitude == 0 && s.Longitude == 0) {
		return DefaultStoreLat, DefaultStoreLng
	}
	return s.Latitude, s.Longitude
}

// FeeTiers parses the configured tier table. A missing or malformed table
// yields no tiers; the fee resolver then applies its fallback ladder.
func (s *StoreSettings) FeeTiers() []FeeTier {
	if s == nil || s.DeliveryRanges == "" {
		return nil
	}
	var tiers []FeeTier
	if err := json.Unmarshal([]byte(s.DeliveryRanges), &tiers); err != nil {
		return nil
	}
	return tiers
}

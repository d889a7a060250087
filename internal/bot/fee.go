package bot

import "github.com/pedeja/pedeja-backend/internal/models"

// FlatTextAddressFee is charged when the customer typed an address instead
// of sharing coordinates, since no distance can be computed.
const FlatTextAddressFee = 10.00

// ResolveFee prices a delivery distance against the tenant's tier table.
// The first tier with minKm <= d <= maxKm (both ends inclusive) wins. When
// no tier matches, a fixed ladder applies so a misconfigured tenant still
// gets a sane fee.
func ResolveFee(distanceKm float64, tiers []models.FeeTier) float64 {
	for _, tier := range tiers {
		if distanceKm >= tier.MinKm && distanceKm <= tier.MaxKm {
			return tier.Price
		}
	}

	switch {
	case distanceKm <= 2:
		return 5.00
	case distanceKm <= 5:
		return 8.00
	case distanceKm <= 10:
		return 15.00
	default:
		return 20.00
	}
}

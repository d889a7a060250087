package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedeja/pedeja-backend/internal/models"
)

func TestResolveFeeTierMatch(t *testing.T) {
	tiers := []models.FeeTier{
		{MinKm: 0, MaxKm: 2, Price: 5},
		{MinKm: 2, MaxKm: 6, Price: 8},
	}
	assert.Equal(t, 8.0, ResolveFee(3, tiers))
}

func TestResolveFeeFirstTierWins(t *testing.T) {
	// Distance 2 sits in both tiers; the first configured tier applies.
	tiers := []models.FeeTier{
		{MinKm: 0, MaxKm: 2, Price: 5},
		{MinKm: 2, MaxKm: 6, Price: 8},
	}
	assert.Equal(t, 5.0, ResolveFee(2, tiers))
}

func TestResolveFeeBoundsInclusive(t *testing.T) {
	tiers := []models.FeeTier{{MinKm: 1, MaxKm: 3, Price: 7}}
	assert.Equal(t, 7.0, ResolveFee(1, tiers))
	assert.Equal(t, 7.0, ResolveFee(3, tiers))
}

func TestResolveFeeFallbackLadder(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{1, 5.00},
		{2, 5.00},
		{3, 8.00},
		{5, 8.00},
		{7, 15.00},
		{10, 15.00},
		{25, 20.00},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveFee(tt.distance, nil), "distance %.1f", tt.distance)
	}
}

func TestResolveFeeOutOfRangeFallsBack(t *testing.T) {
	tiers := []models.FeeTier{{MinKm: 0, MaxKm: 1, Price: 3}}
	assert.Equal(t, 8.0, ResolveFee(3, tiers))
}

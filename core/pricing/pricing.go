// Package pricing computes the suggested price shown to candidates. The
// rules are an injected configuration value, resolved per call; they are
// advisory and never authoritative for settlement.
package pricing

import (
	"strings"

	"github.com/oficiosya/dispatch/core/model"
)

// Rules maps service categories and urgency levels to a suggested price.
type Rules struct {
	// BasePrices holds the per-category base price. Categories are
	// matched case-insensitively.
	BasePrices map[string]float64 `json:"base_prices"`
	// DefaultBase applies when the category is absent from BasePrices.
	DefaultBase float64 `json:"default_base"`
	// UrgencyMultipliers maps urgency level names (low, medium, high)
	// to a price multiplier.
	UrgencyMultipliers map[string]float64 `json:"urgency_multipliers"`
}

// SetDefaults fills zero values with the reference policy.
func (r *Rules) SetDefaults() {
	if r.DefaultBase == 0 {
		r.DefaultBase = 5000
	}
	if len(r.UrgencyMultipliers) == 0 {
		r.UrgencyMultipliers = map[string]float64{
			"low":    1.0,
			"medium": 1.25,
			"high":   1.5,
		}
	}
}

// SuggestedPrice returns the advisory price for a category and urgency.
func (r Rules) SuggestedPrice(category string, urgency model.Urgency) float64 {
	base := r.DefaultBase
	if p, ok := r.BasePrices[strings.ToLower(category)]; ok {
		base = p
	}
	mult := r.UrgencyMultipliers[urgency.String()]
	if mult == 0 {
		mult = 1
	}
	return base * mult
}

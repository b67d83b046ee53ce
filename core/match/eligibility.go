package match

import (
	"context"
	"strings"
	"time"

	"github.com/oficiosya/dispatch/core/model"
)

// categoryKeywords maps a requested service category to the specialty
// keywords that satisfy it. Matching is a case-insensitive substring test
// against each declared specialty.
var categoryKeywords = map[string][]string{
	"plomeria":      {"plomer", "gasista", "sanitar"},
	"electricidad":  {"electric", "iluminac"},
	"gas":           {"gasista", "gas"},
	"cerrajeria":    {"cerraj", "llave"},
	"albanileria":   {"alban", "construc", "mamposter"},
	"pintura":       {"pintor", "pintura"},
	"carpinteria":   {"carpint", "madera"},
	"refrigeracion": {"refriger", "aire", "climatiz"},
	"limpieza":      {"limpieza", "lavado"},
	"jardineria":    {"jardin", "poda", "paisaj"},
	"techista":      {"techo", "techista", "imperme"},
}

// IsEligible reports whether the professional's declared specialties
// satisfy the requested category. An empty category is universally
// compatible. Unknown categories fall back to matching the category name
// itself against the specialties.
func IsEligible(p model.ProfessionalSnapshot, category string) bool {
	if category == "" {
		return true
	}
	keywords, ok := categoryKeywords[strings.ToLower(category)]
	if !ok {
		keywords = []string{strings.ToLower(category)}
	}
	for _, spec := range p.Specialties {
		s := strings.ToLower(spec)
		for _, kw := range keywords {
			if strings.Contains(s, kw) {
				return true
			}
		}
	}
	return false
}

// AvailabilityStore answers whether a professional has an open slot in a
// time window. It is owned by the external availability subsystem.
type AvailabilityStore interface {
	HasOpenSlot(ctx context.Context, professionalID string, from, until time.Time) (bool, error)
}

// hasNearTermSlot consults the availability store for an open slot within
// the window. When the store cannot answer, the professional is treated
// as available: failing open trades false positives for reachability
// under degraded conditions. Revisiting that trade-off is a product
// decision, not an implementation detail.
func hasNearTermSlot(ctx context.Context, store AvailabilityStore, professionalID string, window time.Duration, now time.Time) bool {
	if store == nil {
		return true
	}
	ok, err := store.HasOpenSlot(ctx, professionalID, now, now.Add(window))
	if err != nil {
		return true
	}
	return ok
}

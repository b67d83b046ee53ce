package dispatch

import "fmt"

// Config defines the dispatch policy parameters.
type Config struct {
	// DefaultRadiusKm is the search radius of the initial dispatch.
	DefaultRadiusKm float64 `json:"default_radius_km"`
	// RedispatchRadiusKm is the widened radius used when topping up
	// after rejections.
	RedispatchRadiusKm float64 `json:"redispatch_radius_km"`
	// MaxCandidates bounds the number of candidates created by the
	// initial dispatch.
	MaxCandidates int `json:"max_candidates"`
	// CandidateFloor is the number of live candidates re-dispatch
	// maintains.
	CandidateFloor int `json:"candidate_floor"`
	// AvailabilityWindowHours is the near-term availability horizon.
	AvailabilityWindowHours int `json:"availability_window_hours"`
	// SettlementDeadlineHours is the escrow deadline from acceptance.
	SettlementDeadlineHours int `json:"settlement_deadline_hours"`
}

// SetDefaults fills zero values with the reference policy.
func (c *Config) SetDefaults() {
	if c.DefaultRadiusKm == 0 {
		c.DefaultRadiusKm = 15
	}
	if c.RedispatchRadiusKm == 0 {
		c.RedispatchRadiusKm = 20
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = 5
	}
	if c.CandidateFloor == 0 {
		c.CandidateFloor = 3
	}
	if c.AvailabilityWindowHours == 0 {
		c.AvailabilityWindowHours = 24
	}
	if c.SettlementDeadlineHours == 0 {
		c.SettlementDeadlineHours = 24
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.DefaultRadiusKm <= 0 || c.RedispatchRadiusKm <= 0 {
		return fmt.Errorf("dispatch: radii must be positive")
	}
	if c.RedispatchRadiusKm < c.DefaultRadiusKm {
		return fmt.Errorf("dispatch: redispatch radius must not be smaller than the default radius")
	}
	if c.MaxCandidates <= 0 || c.CandidateFloor <= 0 {
		return fmt.Errorf("dispatch: candidate counts must be positive")
	}
	if c.CandidateFloor > c.MaxCandidates {
		return fmt.Errorf("dispatch: candidate floor cannot exceed max candidates")
	}
	return nil
}

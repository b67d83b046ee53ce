package model

// ProfessionalSnapshot is the read model the matching pipeline consumes.
// It is owned by the professional-profile store and treated as immutable
// for the duration of one scoring pass.
type ProfessionalSnapshot struct {
	ID          string
	Lat         float64
	Lon         float64
	Specialties []string
	Available   bool

	// ReputationScore is the precomputed reputation input on a 0-100 scale.
	ReputationScore float64

	// Active credential and medal flags.
	Punctual         bool
	HighRating       bool
	HighVolume       bool
	IdentityVerified bool

	// Profile completeness signals.
	HasDescription  bool
	HasPhoto        bool
	YearsExperience int
	Verified        bool
}

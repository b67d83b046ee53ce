package dispatch

import (
	"context"

	"github.com/oficiosya/dispatch/core/match"
	"github.com/oficiosya/dispatch/core/model"
)

// Outcome classifies the result of a dispatch pass.
type Outcome string

const (
	// OutcomeDispatched means new candidates were created.
	OutcomeDispatched Outcome = "dispatched"
	// OutcomeNoop means the request needed no dispatch: it is already
	// assigned, terminal, or holds enough live candidates.
	OutcomeNoop Outcome = "noop"
	// OutcomeNoProfessionals means zero eligible professionals were
	// found. A valid terminal outcome, not a failure: the caller may
	// retry with a wider radius or escalate to manual dispatch.
	OutcomeNoProfessionals Outcome = "no_professionals"
)

// DispatchResult reports what a dispatch or re-dispatch pass did.
type DispatchResult struct {
	RequestID string
	Outcome   Outcome
	RadiusKm  float64
	Created   []model.ProfessionalCandidate
}

// CandidateFinder produces the ranked candidate set for a location and
// category. Implemented by match.Finder.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, lat, lon float64, category string, radiusKm float64, exclude map[string]bool) ([]match.ScoredProfessional, error)
}

// Package match turns the professional-profile read model into ranked,
// distance-bounded candidate sets: eligibility filtering, composite
// scoring and the finder queries for both directions (request → nearby
// professionals, professional → nearby requests).
package match

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oficiosya/dispatch/core/geo"
	"github.com/oficiosya/dispatch/core/model"
)

// maxResults bounds the ranked set returned by either query.
const maxResults = 10

// Directory lists the professional snapshots forming the working set of
// one matching pass. Scanning the whole set before filtering by distance
// is deliberate; indexing at scale is an extension point.
type Directory interface {
	Professionals(ctx context.Context) ([]model.ProfessionalSnapshot, error)
}

// RequestSource exposes the pending requests a professional may browse
// and whether a candidate record already links them to a request.
type RequestSource interface {
	PendingRequests(ctx context.Context) ([]model.UrgentRequest, error)
	IsCandidate(ctx context.Context, requestID, professionalID string) (bool, error)
}

// ScoredProfessional is one entry of a ranked candidate set.
type ScoredProfessional struct {
	Professional model.ProfessionalSnapshot
	DistanceKm   float64
	Score        float64
}

// NearbyRequest is one entry of the professional-initiated query. The
// AlreadyCandidate flag exists to avoid duplicate display; duplicate
// candidate creation is prevented by the orchestrator.
type NearbyRequest struct {
	Request          model.UrgentRequest
	DistanceKm       float64
	AlreadyCandidate bool
}

// Finder combines eligibility, availability and scoring into ranked
// candidate sets.
type Finder struct {
	directory    Directory
	availability AvailabilityStore
	requests     RequestSource
	window       time.Duration
	now          func() time.Time
}

// NewFinder creates a Finder. availability and requests may be nil when
// the corresponding gate or query direction is not used; window is the
// near-term availability horizon.
func NewFinder(directory Directory, availability AvailabilityStore, requests RequestSource, window time.Duration) (*Finder, error) {
	if directory == nil {
		return nil, fmt.Errorf("match: nil directory provided to NewFinder")
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Finder{
		directory:    directory,
		availability: availability,
		requests:     requests,
		window:       window,
		now:          time.Now,
	}, nil
}

// FindCandidates returns the eligible, available professionals within
// radiusKm of the origin, scored and ordered by score descending with
// ties broken by smaller distance then professional ID, truncated to the
// top ten. Professionals whose ID is present in exclude are skipped
// before ranking; exclude may be nil.
func (f *Finder) FindCandidates(ctx context.Context, lat, lon float64, category string, radiusKm float64, exclude map[string]bool) ([]ScoredProfessional, error) {
	pros, err := f.directory.Professionals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}

	now := f.now()
	var out []ScoredProfessional
	for _, p := range pros {
		if exclude[p.ID] || !p.Available {
			continue
		}
		if !IsEligible(p, category) {
			continue
		}
		d := geo.Distance(lat, lon, p.Lat, p.Lon)
		if d > radiusKm {
			continue
		}
		if !hasNearTermSlot(ctx, f.availability, p.ID, f.window, now) {
			continue
		}
		out = append(out, ScoredProfessional{
			Professional: p,
			DistanceKm:   d,
			Score:        Score(p, d),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Professional.ID < out[j].Professional.ID
	})
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// FindNearbyRequests returns the pending requests within radiusKm that
// the professional is eligible for, ordered by urgency descending, then
// distance, then request ID, each annotated with whether the
// professional is already a candidate.
func (f *Finder) FindNearbyRequests(ctx context.Context, lat, lon, radiusKm float64, p model.ProfessionalSnapshot) ([]NearbyRequest, error) {
	if f.requests == nil {
		return nil, fmt.Errorf("match: no request source configured")
	}
	reqs, err := f.requests.PendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	var out []NearbyRequest
	for _, r := range reqs {
		if !IsEligible(p, r.Category) {
			continue
		}
		d := geo.Distance(lat, lon, r.Lat, r.Lon)
		if d > radiusKm {
			continue
		}
		already, err := f.requests.IsCandidate(ctx, r.ID, p.ID)
		if err != nil {
			return nil, fmt.Errorf("candidate lookup for %s: %w", r.ID, err)
		}
		out = append(out, NearbyRequest{Request: r, DistanceKm: d, AlreadyCandidate: already})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Request.Urgency != out[j].Request.Urgency {
			return out[i].Request.Urgency > out[j].Request.Urgency
		}
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Request.ID < out[j].Request.ID
	})
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

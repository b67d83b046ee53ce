package match

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/oficiosya/dispatch/core/model"
)

const (
	originLat = -34.6037
	originLon = -58.3816
	// Degrees of latitude per kilometer, close enough for test fixtures.
	latPerKm = 1.0 / 111.19
)

type stubDirectory struct {
	pros []model.ProfessionalSnapshot
	err  error
}

func (d stubDirectory) Professionals(context.Context) ([]model.ProfessionalSnapshot, error) {
	return d.pros, d.err
}

type stubRequests struct {
	reqs       []model.UrgentRequest
	candidates map[string]bool // requestID
}

func (s stubRequests) PendingRequests(context.Context) ([]model.UrgentRequest, error) {
	return s.reqs, nil
}

func (s stubRequests) IsCandidate(_ context.Context, requestID, _ string) (bool, error) {
	return s.candidates[requestID], nil
}

func plomero(id string, distanceKm, reputation float64) model.ProfessionalSnapshot {
	return model.ProfessionalSnapshot{
		ID:              id,
		Lat:             originLat + distanceKm*latPerKm,
		Lon:             originLon,
		Specialties:     []string{"Plomero"},
		Available:       true,
		ReputationScore: reputation,
	}
}

func newTestFinder(t *testing.T, dir Directory) *Finder {
	t.Helper()
	f, err := NewFinder(dir, nil, nil, 24*time.Hour)
	if err != nil {
		t.Fatalf("finder: %v", err)
	}
	return f
}

func TestFindCandidatesRadiusAndRanking(t *testing.T) {
	dir := stubDirectory{pros: []model.ProfessionalSnapshot{
		plomero("pro-far", 12, 95),
		plomero("pro-mid", 4, 60),
		plomero("pro-near", 1, 90),
	}}
	f := newTestFinder(t, dir)

	got, err := f.FindCandidates(context.Background(), originLat, originLon, "plomeria", 10, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Professional.ID != "pro-near" || got[1].Professional.ID != "pro-mid" {
		t.Fatalf("wrong order: %s, %s", got[0].Professional.ID, got[1].Professional.ID)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not descending: %f <= %f", got[0].Score, got[1].Score)
	}
}

func TestFindCandidatesFiltersCategoryAndAvailability(t *testing.T) {
	electricista := plomero("pro-elec", 2, 80)
	electricista.Specialties = []string{"Electricista"}
	offline := plomero("pro-off", 2, 80)
	offline.Available = false

	f := newTestFinder(t, stubDirectory{pros: []model.ProfessionalSnapshot{
		electricista, offline, plomero("pro-ok", 3, 70),
	}})
	got, err := f.FindCandidates(context.Background(), originLat, originLon, "plomeria", 15, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].Professional.ID != "pro-ok" {
		t.Fatalf("expected only pro-ok, got %v", got)
	}
}

func TestFindCandidatesExcludes(t *testing.T) {
	f := newTestFinder(t, stubDirectory{pros: []model.ProfessionalSnapshot{
		plomero("pro-1", 1, 80),
		plomero("pro-2", 2, 80),
	}})
	got, err := f.FindCandidates(context.Background(), originLat, originLon, "plomeria", 15, map[string]bool{"pro-1": true})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].Professional.ID != "pro-2" {
		t.Fatalf("exclusion not honored: %v", got)
	}
}

func TestFindCandidatesTruncatesToTopTen(t *testing.T) {
	var pros []model.ProfessionalSnapshot
	for i := 0; i < 15; i++ {
		pros = append(pros, plomero(fmt.Sprintf("pro-%02d", i), float64(i)*0.3, 50))
	}
	f := newTestFinder(t, stubDirectory{pros: pros})
	got, err := f.FindCandidates(context.Background(), originLat, originLon, "plomeria", 15, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 results, got %d", len(got))
	}
}

func TestFindCandidatesDeterministicTieBreak(t *testing.T) {
	// Same location and profile: identical score and distance, so the
	// order must fall back to the professional ID.
	f := newTestFinder(t, stubDirectory{pros: []model.ProfessionalSnapshot{
		plomero("pro-b", 2, 80),
		plomero("pro-a", 2, 80),
	}})
	got, err := f.FindCandidates(context.Background(), originLat, originLon, "plomeria", 15, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got[0].Professional.ID != "pro-a" {
		t.Fatalf("tie not broken by ID: %s first", got[0].Professional.ID)
	}
}

func TestFindNearbyRequestsOrderAndAnnotation(t *testing.T) {
	reqs := []model.UrgentRequest{
		{ID: "req-low-near", Lat: originLat + 1*latPerKm, Lon: originLon, Urgency: model.UrgencyLow, Category: "plomeria", Status: model.RequestPending},
		{ID: "req-high-far", Lat: originLat + 6*latPerKm, Lon: originLon, Urgency: model.UrgencyHigh, Category: "plomeria", Status: model.RequestPending},
		{ID: "req-out", Lat: originLat + 30*latPerKm, Lon: originLon, Urgency: model.UrgencyHigh, Category: "plomeria", Status: model.RequestPending},
	}
	src := stubRequests{reqs: reqs, candidates: map[string]bool{"req-high-far": true}}
	f, err := NewFinder(stubDirectory{}, nil, src, 24*time.Hour)
	if err != nil {
		t.Fatalf("finder: %v", err)
	}

	got, err := f.FindNearbyRequests(context.Background(), originLat, originLon, 10, plomero("pro-1", 0, 80))
	if err != nil {
		t.Fatalf("find requests: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(got))
	}
	if got[0].Request.ID != "req-high-far" {
		t.Fatalf("urgency should sort before distance, got %s first", got[0].Request.ID)
	}
	if !got[0].AlreadyCandidate || got[1].AlreadyCandidate {
		t.Fatal("already-candidate annotation wrong")
	}
}

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oficiosya/dispatch/core/model"
	"github.com/oficiosya/dispatch/core/store"
)

func seedRequest(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.CreateRequest(context.Background(), model.UrgentRequest{
		ID:          id,
		RequesterID: "user-1",
		Status:      model.RequestPending,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}
}

func seedCandidate(t *testing.T, s *Store, requestID, professionalID string) {
	t.Helper()
	err := s.CreateCandidate(context.Background(), model.ProfessionalCandidate{
		RequestID:      requestID,
		ProfessionalID: professionalID,
		Status:         model.CandidateAvailable,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
}

func TestCreateRequestRejectsDuplicates(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	err := s.CreateRequest(context.Background(), model.UrgentRequest{ID: "req-1"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestTransitionRequestConditional(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")

	if err := s.TransitionRequest(context.Background(), "req-1", model.RequestPending, model.RequestAssigned); err != nil {
		t.Fatalf("transition: %v", err)
	}
	err := s.TransitionRequest(context.Background(), "req-1", model.RequestPending, model.RequestCancelled)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale transition should conflict, got %v", err)
	}
	err = s.TransitionRequest(context.Background(), "missing", model.RequestPending, model.RequestAssigned)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCandidateUniquePerProfessional(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	seedCandidate(t, s, "req-1", "pro-1")
	err := s.CreateCandidate(context.Background(), model.ProfessionalCandidate{
		RequestID: "req-1", ProfessionalID: "pro-1",
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate candidate should conflict, got %v", err)
	}
}

func TestCreateCandidateRequiresPendingRequest(t *testing.T) {
	s := New()
	err := s.CreateCandidate(context.Background(), model.ProfessionalCandidate{
		RequestID: "missing", ProfessionalID: "pro-1",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown request should be ErrNotFound, got %v", err)
	}

	seedRequest(t, s, "req-1")
	if err := s.TransitionRequest(context.Background(), "req-1", model.RequestPending, model.RequestCancelled); err != nil {
		t.Fatalf("transition: %v", err)
	}
	err = s.CreateCandidate(context.Background(), model.ProfessionalCandidate{
		RequestID: "req-1", ProfessionalID: "pro-1",
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("cancelled request must not acquire candidates, got %v", err)
	}
}

func TestTransitionCandidateRecordsResponse(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	seedCandidate(t, s, "req-1", "pro-1")
	at := time.Now()

	err := s.TransitionCandidate(context.Background(), "req-1", "pro-1",
		model.CandidateAvailable, model.CandidateDeclined, "ocupado", at)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	cands, _ := s.ListCandidates(context.Background(), "req-1")
	if cands[0].Status != model.CandidateDeclined || cands[0].Notes != "ocupado" || cands[0].RespondedAt == nil {
		t.Fatalf("response not recorded: %+v", cands[0])
	}

	err = s.TransitionCandidate(context.Background(), "req-1", "pro-1",
		model.CandidateAvailable, model.CandidateDeclined, "", at)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale candidate transition should conflict, got %v", err)
	}
}

func TestAcceptExclusiveHappyPath(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	seedCandidate(t, s, "req-1", "pro-1")
	seedCandidate(t, s, "req-1", "pro-2")
	price := 7500.0

	res, err := s.AcceptExclusive(context.Background(), "req-1", "pro-1", &price, time.Now())
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Accepted.Status != model.CandidateAccepted {
		t.Fatalf("accepted status = %s", res.Accepted.Status)
	}
	if len(res.Superseded) != 1 || res.Superseded[0].ProfessionalID != "pro-2" {
		t.Fatalf("superseded wrong: %+v", res.Superseded)
	}
	if res.Assignment.AgreedPrice == nil || *res.Assignment.AgreedPrice != price {
		t.Fatalf("price not carried to assignment: %+v", res.Assignment)
	}

	r, _ := s.GetRequest(context.Background(), "req-1")
	if r.Status != model.RequestAssigned {
		t.Fatalf("request status = %s", r.Status)
	}
	a, err := s.AssignmentForRequest(context.Background(), "req-1")
	if err != nil || a.ID != res.Assignment.ID {
		t.Fatalf("assignment lookup by request failed: %v", err)
	}
}

func TestAcceptExclusiveConflicts(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	seedCandidate(t, s, "req-1", "pro-1")
	seedCandidate(t, s, "req-1", "pro-2")

	if _, err := s.AcceptExclusive(context.Background(), "req-1", "pro-1", nil, time.Now()); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := s.AcceptExclusive(context.Background(), "req-1", "pro-2", nil, time.Now())
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second accept should conflict, got %v", err)
	}
	_, err = s.AcceptExclusive(context.Background(), "req-1", "pro-9", nil, time.Now())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown candidate should be ErrNotFound, got %v", err)
	}
}

func TestAcceptExclusiveConcurrent(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	pros := []string{"pro-1", "pro-2", "pro-3", "pro-4", "pro-5"}
	for _, p := range pros {
		seedCandidate(t, s, "req-1", p)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(pros))
	for i, p := range pros {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			_, errs[i] = s.AcceptExclusive(context.Background(), "req-1", p, nil, time.Now())
		}(i, p)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, store.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestCompleteAssignmentConditional(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	seedCandidate(t, s, "req-1", "pro-1")
	res, err := s.AcceptExclusive(context.Background(), "req-1", "pro-1", nil, time.Now())
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := s.CompleteAssignment(context.Background(), res.Assignment.ID, time.Now(), 42); err != nil {
		t.Fatalf("complete: %v", err)
	}
	a, _ := s.GetAssignment(context.Background(), res.Assignment.ID)
	if a.Status != model.AssignmentCompleted || a.ElapsedMinutes != 42 || a.CompletedAt == nil {
		t.Fatalf("completion not recorded: %+v", a)
	}
	err = s.CompleteAssignment(context.Background(), res.Assignment.ID, time.Now(), 43)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("double complete should conflict, got %v", err)
	}
}

func TestSupersedeAvailableLeavesResolved(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	seedCandidate(t, s, "req-1", "pro-1")
	seedCandidate(t, s, "req-1", "pro-2")
	if err := s.TransitionCandidate(context.Background(), "req-1", "pro-1",
		model.CandidateAvailable, model.CandidateDeclined, "", time.Now()); err != nil {
		t.Fatalf("decline: %v", err)
	}

	superseded, err := s.SupersedeAvailable(context.Background(), "req-1", time.Now())
	if err != nil {
		t.Fatalf("supersede: %v", err)
	}
	if len(superseded) != 1 || superseded[0].ProfessionalID != "pro-2" {
		t.Fatalf("only available candidates should be superseded: %+v", superseded)
	}
	cands, _ := s.ListCandidates(context.Background(), "req-1")
	for _, c := range cands {
		if c.ProfessionalID == "pro-1" && c.Status != model.CandidateDeclined {
			t.Fatalf("declined candidate must keep its status, got %s", c.Status)
		}
	}
}

func TestListCandidatesReturnsCopies(t *testing.T) {
	s := New()
	seedRequest(t, s, "req-1")
	seedCandidate(t, s, "req-1", "pro-1")

	cands, _ := s.ListCandidates(context.Background(), "req-1")
	cands[0].Status = model.CandidateDeclined
	again, _ := s.ListCandidates(context.Background(), "req-1")
	if again[0].Status != model.CandidateAvailable {
		t.Fatal("mutating a returned candidate must not affect the store")
	}
}

func TestDirectoryAndPendingRequests(t *testing.T) {
	s := New()
	s.UpsertProfessional(model.ProfessionalSnapshot{ID: "pro-1", Available: true})
	s.UpsertProfessional(model.ProfessionalSnapshot{ID: "pro-1", Available: false})
	pros, err := s.Professionals(context.Background())
	if err != nil || len(pros) != 1 || pros[0].Available {
		t.Fatalf("upsert should replace: %v %+v", err, pros)
	}

	seedRequest(t, s, "req-1")
	seedRequest(t, s, "req-2")
	if err := s.TransitionRequest(context.Background(), "req-2", model.RequestPending, model.RequestCancelled); err != nil {
		t.Fatalf("transition: %v", err)
	}
	pending, _ := s.PendingRequests(context.Background())
	if len(pending) != 1 || pending[0].ID != "req-1" {
		t.Fatalf("pending filter wrong: %+v", pending)
	}

	seedCandidate(t, s, "req-1", "pro-1")
	if ok, _ := s.IsCandidate(context.Background(), "req-1", "pro-1"); !ok {
		t.Fatal("IsCandidate should report the seeded candidate")
	}
	if ok, _ := s.IsCandidate(context.Background(), "req-1", "pro-2"); ok {
		t.Fatal("IsCandidate false positive")
	}
}

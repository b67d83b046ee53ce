package model

import "time"

// CandidateStatus is the lifecycle state of a proposed match.
type CandidateStatus string

const (
	CandidateAvailable  CandidateStatus = "available"
	CandidateAccepted   CandidateStatus = "accepted"
	CandidateDeclined   CandidateStatus = "declined"
	CandidateSuperseded CandidateStatus = "superseded"
)

// Live reports whether the candidate can still respond to the offer.
func (s CandidateStatus) Live() bool { return s == CandidateAvailable }

// ProfessionalCandidate is a proposed, not-yet-resolved match between one
// urgent request and one professional. For a given request at most one
// candidate ever reaches the accepted status; the others are superseded.
type ProfessionalCandidate struct {
	RequestID           string
	ProfessionalID      string
	DistanceKm          float64
	EstimatedArrivalMin int
	Status              CandidateStatus
	ProposedPrice       *float64
	Notes               string
	CreatedAt           time.Time
	RespondedAt         *time.Time
}

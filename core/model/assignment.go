package model

import "time"

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Assignment is the binding commitment created when a candidate accepts.
// Exactly zero or one assignment exists per urgent request.
type Assignment struct {
	ID             string
	RequestID      string
	ProfessionalID string
	AssignedAt     time.Time
	Status         AssignmentStatus
	AgreedPrice    *float64
	EscrowID       string
	CompletedAt    *time.Time
	ElapsedMinutes int
}

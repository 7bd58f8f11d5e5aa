package statemachine

import (
	"errors"

	"campus-queue-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.AppointmentStatus
	To    models.AppointmentStatus
	Actor string // "student", "admin"
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Admin calls a pending ticket to the counter
	{From: models.StatusPending, To: models.StatusInService, Actor: "admin"},
	// Owner or admin cancels a pending ticket
	{From: models.StatusPending, To: models.StatusCancelled, Actor: "student"},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: "admin"},
	// Owner reschedules: same state, new date/time and queue number
	{From: models.StatusPending, To: models.StatusPending, Actor: "student"},
	// Admin finishes serving
	{From: models.StatusInService, To: models.StatusCompleted, Actor: "admin"},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.AppointmentStatus
	To    models.AppointmentStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.AppointmentStatus) []models.AppointmentStatus {
	var nexts []models.AppointmentStatus
	seen := map[models.AppointmentStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.AppointmentStatus, actor string) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " -> " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.AppointmentStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

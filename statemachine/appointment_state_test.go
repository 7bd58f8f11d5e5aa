package statemachine_test

import (
	"testing"

	"campus-queue-api/models"
	"campus-queue-api/statemachine"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.AppointmentStatus
		to      models.AppointmentStatus
		actor   string
		allowed bool
	}{
		{"admin serves pending", models.StatusPending, models.StatusInService, "admin", true},
		{"student cannot serve", models.StatusPending, models.StatusInService, "student", false},
		{"student cancels pending", models.StatusPending, models.StatusCancelled, "student", true},
		{"admin cancels pending", models.StatusPending, models.StatusCancelled, "admin", true},
		{"student reschedules pending", models.StatusPending, models.StatusPending, "student", true},
		{"admin completes in_service", models.StatusInService, models.StatusCompleted, "admin", true},
		{"student cannot complete", models.StatusInService, models.StatusCompleted, "student", false},
		{"cannot complete pending", models.StatusPending, models.StatusCompleted, "admin", false},
		{"cannot serve in_service", models.StatusInService, models.StatusInService, "admin", false},
		{"cannot cancel in_service", models.StatusInService, models.StatusCancelled, "student", false},
		{"completed is terminal", models.StatusCompleted, models.StatusPending, "admin", false},
		{"cancelled is terminal", models.StatusCancelled, models.StatusPending, "student", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := statemachine.CanTransition(tt.from, tt.to, tt.actor)
			if tt.allowed && err != nil {
				t.Errorf("expected transition to be allowed, got: %v", err)
			}
			if !tt.allowed && err == nil {
				t.Error("expected transition to be rejected")
			}
		})
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	fromPending := statemachine.ValidTransitionsFrom(models.StatusPending)
	want := map[models.AppointmentStatus]bool{
		models.StatusInService: true,
		models.StatusCancelled: true,
		models.StatusPending:   true,
	}
	if len(fromPending) != len(want) {
		t.Fatalf("expected %d next states from pending, got %v", len(want), fromPending)
	}
	for _, s := range fromPending {
		if !want[s] {
			t.Errorf("unexpected next state %s from pending", s)
		}
	}

	if nexts := statemachine.ValidTransitionsFrom(models.StatusCompleted); len(nexts) != 0 {
		t.Errorf("completed should be terminal, got %v", nexts)
	}
	if nexts := statemachine.ValidTransitionsFrom(models.StatusCancelled); len(nexts) != 0 {
		t.Errorf("cancelled should be terminal, got %v", nexts)
	}
}

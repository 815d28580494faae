package domain

import (
	"testing"
	"time"
)

func TestReservationTransitions(t *testing.T) {
	tests := []struct {
		from, to ReservationStatus
		ok       bool
	}{
		{ReservationPending, ReservationApproved, true},
		{ReservationPending, ReservationRejected, true},
		{ReservationPending, ReservationCancelled, true},
		{ReservationPending, ReservationReady, false},
		{ReservationApproved, ReservationReady, true},
		{ReservationApproved, ReservationExpired, true},
		{ReservationApproved, ReservationCompleted, false},
		{ReservationReady, ReservationCompleted, true},
		{ReservationReady, ReservationCancelled, false},
		{ReservationCompleted, ReservationPending, false},
		{ReservationRejected, ReservationApproved, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []ReservationStatus{ReservationCompleted, ReservationRejected, ReservationCancelled, ReservationExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if ReservationReady.Terminal() {
		t.Error("ready is not terminal")
	}
}

func TestSourcesOf(t *testing.T) {
	got := SourcesOf(ReservationCancelled)
	if len(got) != 2 || got[0] != ReservationPending || got[1] != ReservationApproved {
		t.Fatalf("SourcesOf(cancelled) = %v", got)
	}
}

func TestFormatTimeSortsChronologically(t *testing.T) {
	a := FormatTime(time.Date(2025, 1, 9, 23, 0, 0, 0, time.UTC))
	b := FormatTime(time.Date(2025, 1, 10, 1, 0, 0, 0, time.FixedZone("ICT", 7*3600)))
	// b is 2025-01-09T18:00Z, before a.
	if !(b < a) {
		t.Fatalf("expected %s < %s", b, a)
	}
	back, err := ParseTime(a)
	if err != nil || !back.Equal(time.Date(2025, 1, 9, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("round trip: %v %v", back, err)
	}
}

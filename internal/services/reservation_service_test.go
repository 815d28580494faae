package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"equiploan/internal/domain"
	"equiploan/internal/services"
)

func reserve(t *testing.T, e *env, actor *domain.Actor, equipmentID string, startDay, endDay int) string {
	t.Helper()
	id, err := e.res.Create(context.Background(), actor, services.CreateReservation{
		EquipmentID: equipmentID, Start: at(startDay, 9, 0), End: at(endDay, 16, 0),
	})
	if err != nil {
		t.Fatalf("reserve %s: %v", equipmentID, err)
	}
	return id
}

func TestCreateReservation_SelfActionAutoApproval(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	staffID := reserve(t, e, staff, "eq-cam-1", 10, 11)
	adminID := reserve(t, e, admin, "eq-tripod-1", 10, 11)
	userID := reserve(t, e, student, "eq-laptop-1", 10, 11)
	e.flush()

	for _, c := range []struct {
		id    string
		actor *domain.Actor
	}{{staffID, staff}, {adminID, admin}} {
		r, _ := e.resRepo.Get(ctx, c.id)
		if r.Status != domain.ReservationApproved || r.ApprovedBy != c.actor.ID || r.ApprovedAt == "" {
			t.Fatalf("%s: %+v", c.actor.Role, r)
		}
	}
	if n := e.sink.count(domain.ActionSelfReserve, ""); n != 2 {
		t.Fatalf("want 2 self_reserve entries, got %d", n)
	}
	a, _ := e.sink.find(domain.ActionSelfReserve)
	if !a.IsSelfAction || a.TargetType != domain.TargetReservation {
		t.Fatalf("unexpected entry %+v", a)
	}

	r, _ := e.resRepo.Get(ctx, userID)
	if r.Status != domain.ReservationPending || r.ApprovedBy != "" {
		t.Fatalf("user reservation: %+v", r)
	}
}

func TestCreateReservation_ChecksConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	reserve(t, e, student, "eq-cam-1", 10, 12)

	_, err := e.res.Create(ctx, student, services.CreateReservation{EquipmentID: "eq-cam-2", Start: at(20, 9, 0), End: at(21, 9, 0)})
	var tc *services.TypeConflictError
	if !errors.As(err, &tc) {
		t.Fatalf("want type conflict, got %v", err)
	}
	_, err = e.res.Create(ctx, student2, services.CreateReservation{EquipmentID: "eq-cam-1", Start: at(11, 9, 0), End: at(11, 12, 0)})
	if !errors.Is(err, services.ErrTimeConflict) {
		t.Fatalf("want time conflict, got %v", err)
	}
	if _, err := e.res.Create(ctx, nil, services.CreateReservation{}); !errors.Is(err, services.ErrNotLoggedIn) {
		t.Fatalf("anonymous: %v", err)
	}
}

func TestCreateReservation_WindowRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, c := range []struct {
		name       string
		start, end time.Time
		field      string
	}{
		{"past start", time.Date(2019, 1, 1, 3, 0, 0, 0, services.Zone), time.Date(2019, 1, 2, 10, 0, 0, 0, services.Zone), "StartDate"},
		{"yesterday", at(6, 9, 0), at(8, 9, 0), "StartDate"},
		{"beyond horizon", at(38, 9, 0), at(39, 9, 0), "StartDate"},
		{"far future at night", time.Date(2031, 6, 1, 23, 0, 0, 0, services.Zone), time.Date(2031, 6, 2, 10, 0, 0, 0, services.Zone), "StartDate"},
		{"pickup before opening", at(10, 8, 0), at(11, 10, 0), "PickupTime"},
		{"pickup in break", at(10, 12, 30), at(11, 10, 0), "PickupTime"},
		{"return after closing", at(10, 9, 0), at(11, 23, 59), "ReturnTime"},
	} {
		var ve *services.ValidationError
		_, err := e.res.Create(ctx, student, services.CreateReservation{EquipmentID: "eq-cam-1", Start: c.start, End: c.end})
		if !errors.As(err, &ve) || ve.Field != c.field {
			t.Fatalf("%s: want %s error, got %v", c.name, c.field, err)
		}
	}
	if mine, _ := e.res.Mine(ctx, student); len(mine) != 0 {
		t.Fatalf("rejected windows must not create reservations, got %d", len(mine))
	}

	// the last day of the horizon, opening to closing
	if _, err := e.res.Create(ctx, student, services.CreateReservation{EquipmentID: "eq-cam-1", Start: at(37, 8, 30), End: at(37, 16, 30)}); err != nil {
		t.Fatalf("horizon edge: %v", err)
	}
}

func TestReservationLifecycle_ConvertToLoan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := reserve(t, e, student, "eq-cam-1", 10, 12)

	if err := e.res.MarkReady(ctx, staff, id); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("ready before approval: %v", err)
	}
	if _, err := e.res.ConvertToLoan(ctx, staff, id); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("convert before ready: %v", err)
	}
	if err := e.res.Approve(ctx, staff, id); err != nil {
		t.Fatal(err)
	}
	if err := e.res.Approve(ctx, staff, id); !errors.Is(err, services.ErrAlreadyProcessed) {
		t.Fatalf("second approve: %v", err)
	}
	if err := e.res.MarkReady(ctx, staff, id); err != nil {
		t.Fatal(err)
	}
	r, _ := e.resRepo.Get(ctx, id)
	if r.Status != domain.ReservationReady || r.ReadyBy != staff.ID || r.ReadyAt == "" {
		t.Fatalf("after ready: %+v", r)
	}

	loanID, err := e.res.ConvertToLoan(ctx, admin, id)
	if err != nil {
		t.Fatal(err)
	}
	l, err := e.loanRepo.Get(ctx, loanID)
	if err != nil {
		t.Fatal(err)
	}
	if l.Status != domain.LoanApproved || l.UserID != r.UserID || l.EquipmentID != r.EquipmentID ||
		l.StartDate != r.StartDate || l.EndDate != r.EndDate {
		t.Fatalf("loan does not mirror reservation: %+v vs %+v", l, r)
	}
	r, _ = e.resRepo.Get(ctx, id)
	if r.Status != domain.ReservationCompleted || r.LoanID != loanID {
		t.Fatalf("after convert: %+v", r)
	}
	eq, _ := e.eqRepo.Get(ctx, "eq-cam-1")
	if eq.Status != domain.EquipmentBorrowed {
		t.Fatalf("equipment status %s", eq.Status)
	}

	again, err := e.res.ConvertToLoan(ctx, admin, id)
	if err != nil || again != loanID {
		t.Fatalf("repeat convert: %q %v", again, err)
	}
	e.flush()
	if n := e.sink.count(domain.ActionConvertToLoan, id); n != 1 {
		t.Fatalf("want 1 convert_to_loan entry, got %d", n)
	}
	for _, action := range []domain.ActionType{domain.ActionApproveReservation, domain.ActionMarkReady} {
		if n := e.sink.count(action, id); n != 1 {
			t.Fatalf("want 1 %s entry, got %d", action, n)
		}
	}
	a, _ := e.sink.find(domain.ActionConvertToLoan)
	if a.Details["loan_id"] != loanID || a.TargetUserID != student.ID || a.IsSelfAction {
		t.Fatalf("convert entry %+v", a)
	}
}

func TestRejectReservation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := reserve(t, e, student, "eq-cam-1", 10, 12)

	var ve *services.ValidationError
	if err := e.res.Reject(ctx, staff, id, " "); !errors.As(err, &ve) || ve.Field != "Reason" {
		t.Fatalf("empty reason: %v", err)
	}
	if err := e.res.Reject(ctx, student, id, "no"); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("user reject: %v", err)
	}
	if err := e.res.Reject(ctx, staff, id, "ซ่อมบำรุง"); err != nil {
		t.Fatal(err)
	}
	r, _ := e.resRepo.Get(ctx, id)
	if r.Status != domain.ReservationRejected || r.RejectionReason != "ซ่อมบำรุง" {
		t.Fatalf("after reject: %+v", r)
	}
	if err := e.res.Approve(ctx, staff, id); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("approve rejected: %v", err)
	}
	if err := e.res.Approve(ctx, staff, "res-missing"); !errors.Is(err, services.ErrReservationNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestCancelReservation_Ownership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	own := reserve(t, e, student, "eq-cam-1", 10, 12)
	other := reserve(t, e, student, "eq-tripod-1", 10, 12)

	if err := e.res.Cancel(ctx, student2, own); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("foreign cancel: %v", err)
	}
	if err := e.res.Cancel(ctx, student, own); err != nil {
		t.Fatal(err)
	}
	if err := e.res.Cancel(ctx, student, own); !errors.Is(err, services.ErrAlreadyProcessed) {
		t.Fatalf("repeat cancel: %v", err)
	}
	if err := e.res.Cancel(ctx, staff, other); err != nil {
		t.Fatal(err)
	}
	e.flush()

	if n := e.sink.count(domain.ActionCancelReservation, own); n != 0 {
		t.Fatalf("borrower cancel must not be audited, got %d", n)
	}
	a, ok := e.sink.find(domain.ActionCancelReservation)
	if !ok || a.TargetID != other || a.TargetUserID != student.ID || a.IsSelfAction {
		t.Fatalf("staff cancel entry: %+v %v", a, ok)
	}
	for _, id := range []string{own, other} {
		if r, _ := e.resRepo.Get(ctx, id); r.Status != domain.ReservationCancelled {
			t.Fatalf("%s: %s", id, r.Status)
		}
	}
}

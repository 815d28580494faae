package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"equiploan/internal/domain"
	"equiploan/internal/repos"
	"equiploan/internal/services"
)

var (
	student  = &domain.Actor{ID: "u-student", Role: domain.RoleUser, UserType: "student"}
	student2 = &domain.Actor{ID: "u-student2", Role: domain.RoleUser, UserType: "student"}
	staff    = &domain.Actor{ID: "u-staff", Role: domain.RoleStaff, UserType: "staff"}
	admin    = &domain.Actor{ID: "u-admin", Role: domain.RoleAdmin, UserType: "staff"}
)

// at builds a wall-clock time on a January 2030 day.
func at(day, hh, mm int) time.Time {
	return time.Date(2030, time.January, day, hh, mm, 0, 0, services.Zone)
}

type memSink struct {
	mu      sync.Mutex
	entries []domain.StaffActivity
}

func (s *memSink) Insert(_ context.Context, a domain.StaffActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, a)
	return nil
}

func (s *memSink) count(action domain.ActionType, targetID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.ActionType == action && (targetID == "" || e.TargetID == targetID) {
			n++
		}
	}
	return n
}

func (s *memSink) find(action domain.ActionType) (domain.StaffActivity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ActionType == action {
			return e, true
		}
	}
	return domain.StaffActivity{}, false
}

type countingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *countingNotifier) Notify(_ context.Context, m domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	return nil
}

func (n *countingNotifier) count(kind, loanID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.sent {
		if m.Kind == kind && m.LoanID == loanID {
			c++
		}
	}
	return c
}

type env struct {
	db        *sqlx.DB
	loanRepo  *repos.LoanRepo
	resRepo   *repos.ReservationRepo
	eqRepo    *repos.EquipmentRepo
	settings  *repos.SettingsRepo
	special   *repos.SpecialLoanRepo
	conflicts *services.ConflictChecker
	loans     *services.LoanService
	res       *services.ReservationService
	cart      *services.CartService
	checkout  *services.CheckoutService
	logger    *services.ActivityLogger
	sink      *memSink
	notes     *countingNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repos.SeedDemoUsers(db); err != nil {
		t.Fatal(err)
	}

	e := &env{
		db:       db,
		loanRepo: repos.NewLoanRepo(db),
		resRepo:  repos.NewReservationRepo(db),
		eqRepo:   repos.NewEquipmentRepo(db),
		settings: repos.NewSettingsRepo(db),
		special:  repos.NewSpecialLoanRepo(db),
		sink:     &memSink{},
		notes:    &countingNotifier{},
	}
	e.logger = services.NewActivityLogger(e.sink, 64, nil)
	t.Cleanup(e.logger.Close)

	e.conflicts = services.NewConflictChecker(repos.NewConflictRepo(db), e.special)
	e.loans = services.NewLoanService(e.loanRepo, e.eqRepo, e.settings, e.conflicts, e.logger, e.notes, services.NoopInvalidator{})
	e.res = services.NewReservationService(e.resRepo, e.eqRepo, e.settings, e.conflicts, e.logger, services.NoopInvalidator{})
	e.cart = services.NewCartService(repos.NewCartRepo(db), e.eqRepo, e.settings)
	e.checkout = services.NewCheckoutService(e.cart, services.NewAvailabilityService(e.eqRepo, e.loanRepo),
		e.loans, e.res, e.loanRepo, e.settings, []byte("test-secret"))
	now := func() time.Time { return at(7, 9, 0) }
	e.loans.Now, e.res.Now, e.checkout.Now = now, now, now
	return e
}

// flush waits until every logged activity reached the sink. Call at most once per test,
// after the actions under test.
func (e *env) flush() { e.logger.Close() }

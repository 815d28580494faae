package handlers

import (
	"github.com/jmoiron/sqlx"

	"equiploan/internal/config"
	"equiploan/internal/repos"
	"equiploan/internal/services"
)

// Backends are the pluggable side channels. Nil fields fall back to the database cart,
// the database activity table, log-only notifications and no cache invalidation.
type Backends struct {
	Cart        services.CartStore
	Activity    services.ActivitySink
	Notifier    services.Notifier
	Invalidator services.Invalidator
}

type Deps struct {
	AuthHandler        *AuthHandler
	EquipmentHandler   *EquipmentHandler
	CartHandler        *CartHandler
	CheckoutHandler    *CheckoutHandler
	LoanHandler        *LoanHandler
	ReservationHandler *ReservationHandler
	StaffHandler       *StaffHandler

	// ActivityLog must be closed on shutdown so queued entries are written.
	ActivityLog *services.ActivityLogger
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, b Backends) *Deps {
	eqRepo := repos.NewEquipmentRepo(db)
	loanRepo := repos.NewLoanRepo(db)
	resRepo := repos.NewReservationRepo(db)
	settingsRepo := repos.NewSettingsRepo(db)
	activityRepo := repos.NewActivityRepo(db)

	if b.Cart == nil {
		b.Cart = repos.NewCartRepo(db)
	}
	if b.Activity == nil {
		b.Activity = activityRepo
	}
	if b.Notifier == nil {
		b.Notifier = services.LogNotifier{}
	}
	if b.Invalidator == nil {
		b.Invalidator = services.NoopInvalidator{}
	}

	activity := services.NewActivityLogger(b.Activity, cfg.ActivityBuffer, b.Invalidator)
	conflicts := services.NewConflictChecker(repos.NewConflictRepo(db), repos.NewSpecialLoanRepo(db))
	loanSvc := services.NewLoanService(loanRepo, eqRepo, settingsRepo, conflicts, activity, b.Notifier, b.Invalidator)
	resSvc := services.NewReservationService(resRepo, eqRepo, settingsRepo, conflicts, activity, b.Invalidator)
	cartSvc := services.NewCartService(b.Cart, eqRepo, settingsRepo)
	availSvc := services.NewAvailabilityService(eqRepo, loanRepo)
	checkoutSvc := services.NewCheckoutService(cartSvc, availSvc, loanSvc, resSvc, loanRepo, settingsRepo, auth.Secret)

	return &Deps{
		AuthHandler:        &AuthHandler{Auth: auth},
		EquipmentHandler:   &EquipmentHandler{Equipment: services.NewEquipmentService(eqRepo)},
		CartHandler:        &CartHandler{Cart: cartSvc},
		CheckoutHandler:    &CheckoutHandler{Checkout: checkoutSvc},
		LoanHandler:        &LoanHandler{Loans: loanSvc},
		ReservationHandler: &ReservationHandler{Reservations: resSvc},
		StaffHandler: &StaffHandler{
			Loans:        loanSvc,
			Reservations: resSvc,
			Activity:     services.NewActivityService(activityRepo),
		},
		ActivityLog: activity,
	}
}

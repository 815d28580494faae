package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"equiploan/internal/auth"
	"equiploan/internal/domain"
	applog "equiploan/internal/log"
	"equiploan/internal/repos"
)

type Mode string

const (
	ModeBorrow  Mode = "borrow"
	ModeReserve Mode = "reserve"
)

// CheckoutRequest is what the cart drawer submits. Borrow mode ignores StartDate and
// PickupTime: the loan starts now.
type CheckoutRequest struct {
	Mode       Mode   `json:"mode" form:"mode" validate:"required,oneof=borrow reserve"`
	StartDate  string `json:"start_date" form:"start_date" validate:"required_if=Mode reserve,omitempty,date"`
	PickupTime string `json:"pickup_time" form:"pickup_time" validate:"required_if=Mode reserve,omitempty,clock"`
	EndDate    string `json:"end_date" form:"end_date" validate:"required,date"`
	ReturnTime string `json:"return_time" form:"return_time" validate:"required,clock"`
}

type Schedule struct {
	Mode  Mode      `json:"mode"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// Review is the confirmation summary shown before submission. Token must be echoed back
// to Submit.
type Review struct {
	Items       []domain.CartItem `json:"items"`
	Unavailable []string          `json:"unavailable"`
	Schedule    Schedule          `json:"schedule"`
	Warnings    []string          `json:"warnings,omitempty"`
	CanSubmit   bool              `json:"can_submit"`
	Token       string            `json:"token,omitempty"`
}

// Result lists what a submission created, in cart order. When the loop stopped early,
// FailedItem names the equipment that failed; Created keeps the earlier successes.
type Result struct {
	Mode       Mode     `json:"mode"`
	Created    []string `json:"created"`
	FailedItem string   `json:"failed_item,omitempty"`
}

type CheckoutService struct {
	Cart         *CartService
	Availability *AvailabilityService
	Loans        *LoanService
	Reservations *ReservationService
	LoanRepo     *repos.LoanRepo
	Settings     *repos.SettingsRepo
	Secret       []byte
	ReviewTTL    time.Duration
	Now          func() time.Time
}

func NewCheckoutService(cart *CartService, avail *AvailabilityService, loans *LoanService,
	res *ReservationService, loanRepo *repos.LoanRepo, settings *repos.SettingsRepo, secret []byte) *CheckoutService {
	return &CheckoutService{
		Cart: cart, Availability: avail, Loans: loans, Reservations: res,
		LoanRepo: loanRepo, Settings: settings, Secret: secret,
		ReviewTTL: 15 * time.Minute, Now: time.Now,
	}
}

const evaluationWarning = "คุณมีแบบประเมินการยืมที่ยังไม่ได้ส่ง %d รายการ กรุณาส่งแบบประเมินหลังรับอุปกรณ์"

// Review validates the schedule, re-checks availability of every cart item and issues the
// token that unlocks Submit. Unavailable items are listed and block submission.
func (s *CheckoutService) Review(ctx context.Context, actor *domain.Actor, req CheckoutRequest) (*Review, error) {
	cart, sched, err := s.prepare(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	unavailable, err := s.Availability.Unavailable(ctx, cart.IDs())
	if err != nil {
		applog.Error(nil, "checkout.availability", err, map[string]any{"user_id": actor.ID})
		return nil, ErrConflictCheckFailed
	}

	rv := &Review{
		Items:       cart.Items(),
		Unavailable: unavailable,
		Schedule:    sched,
		CanSubmit:   len(unavailable) == 0,
	}
	if rv.Unavailable == nil {
		rv.Unavailable = []string{}
	}

	// soft warning only
	if n, err := s.LoanRepo.PendingEvaluations(ctx, actor.ID); err != nil {
		applog.Error(nil, "checkout.evaluations", err, map[string]any{"user_id": actor.ID})
	} else if n > 0 {
		rv.Warnings = append(rv.Warnings, fmt.Sprintf(evaluationWarning, n))
	}

	if rv.CanSubmit {
		tok, err := auth.GenerateReviewToken(s.Secret, actor.ID, digest(actor.ID, cart, sched), s.ReviewTTL)
		if err != nil {
			return nil, err
		}
		rv.Token = tok
	}
	return rv, nil
}

// Submit turns the reviewed cart into loans or reservations, one item at a time in cart
// order. The first failure stops the loop and is returned; requests already created stay
// in place. The cart is cleared only when every item went through.
func (s *CheckoutService) Submit(ctx context.Context, actor *domain.Actor, req CheckoutRequest, token string) (*Result, error) {
	cart, sched, err := s.prepare(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if token == "" || auth.ValidateReviewToken(s.Secret, token, actor.ID, digest(actor.ID, cart, sched)) != nil {
		return nil, ErrReviewRequired
	}

	unavailable, err := s.Availability.Unavailable(ctx, cart.IDs())
	if err != nil {
		applog.Error(nil, "checkout.availability", err, map[string]any{"user_id": actor.ID})
		return nil, ErrConflictCheckFailed
	}
	if len(unavailable) > 0 {
		return nil, ErrItemsUnavailable
	}

	res := &Result{Mode: sched.Mode, Created: []string{}}
	for _, it := range cart.Items() {
		var id string
		switch sched.Mode {
		case ModeBorrow:
			id, err = s.Loans.Submit(ctx, actor, SubmitLoan{
				EquipmentID: it.EquipmentID, Start: sched.Start, End: sched.End, ReturnTime: req.ReturnTime,
			})
		default:
			id, err = s.Reservations.Create(ctx, actor, CreateReservation{
				EquipmentID: it.EquipmentID, Start: sched.Start, End: sched.End,
			})
		}
		if err != nil {
			res.FailedItem = it.EquipmentID
			return res, fmt.Errorf("%s (%s): %w", it.Name, it.InventoryNumber, err)
		}
		res.Created = append(res.Created, id)
	}

	_ = s.Cart.Clear(ctx, actor)
	return res, nil
}

func (s *CheckoutService) prepare(ctx context.Context, actor *domain.Actor, req CheckoutRequest) (*Cart, Schedule, error) {
	if actor == nil {
		return nil, Schedule{}, ErrNotLoggedIn
	}
	if err := checkStruct(req); err != nil {
		return nil, Schedule{}, err
	}
	cart, err := s.Cart.Load(ctx, actor)
	if err != nil {
		return nil, Schedule{}, err
	}
	if cart.Len() == 0 {
		return nil, Schedule{}, ErrCartEmpty
	}
	cfg, err := s.Settings.SystemConfig(ctx)
	if err != nil {
		return nil, Schedule{}, fmt.Errorf("reading settings: %w", err)
	}
	sched, err := ResolveSchedule(cfg, actor.UserType, req, s.Now())
	if err != nil {
		return nil, Schedule{}, err
	}
	return cart, sched, nil
}

// ResolveSchedule turns the drawer's date and time fields into a concrete window and
// checks it against opening hours, the advance-booking horizon and the loan length limit.
func ResolveSchedule(cfg domain.SystemConfig, userType string, req CheckoutRequest, now time.Time) (Schedule, error) {
	now = now.In(Zone)

	if err := CheckClock(cfg, "ReturnTime", req.ReturnTime); err != nil {
		return Schedule{}, err
	}
	end, err := At(req.EndDate, req.ReturnTime)
	if err != nil {
		return Schedule{}, invalid("EndDate", fieldMessages["EndDate"])
	}

	sched := Schedule{Mode: req.Mode, End: end}
	switch req.Mode {
	case ModeBorrow:
		sched.Start = now.Truncate(time.Minute)
	case ModeReserve:
		if err := CheckClock(cfg, "PickupTime", req.PickupTime); err != nil {
			return Schedule{}, err
		}
		start, err := At(req.StartDate, req.PickupTime)
		if err != nil {
			return Schedule{}, invalid("StartDate", fieldMessages["StartDate"])
		}
		if err := CheckStartDay(cfg, start, now); err != nil {
			return Schedule{}, err
		}
		sched.Start = start
	default:
		return Schedule{}, invalid("Mode", fieldMessages["Mode"])
	}

	if err := CheckDuration(cfg, userType, sched.Start, sched.End); err != nil {
		return Schedule{}, err
	}
	sched.Days = CalendarDays(sched.Start, sched.End)
	return sched, nil
}

// digest fingerprints what the user confirmed. Borrow mode uses the start date only, so a
// review stays valid for the rest of the day.
func digest(userID string, cart *Cart, sched Schedule) string {
	start := domain.FormatTime(sched.Start)
	if sched.Mode == ModeBorrow {
		start = sched.Start.In(Zone).Format("2006-01-02")
	}
	parts := []string{userID, string(sched.Mode), start, domain.FormatTime(sched.End)}
	parts = append(parts, cart.IDs()...)
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}

package services

import (
	"context"

	"equiploan/internal/domain"
	applog "equiploan/internal/log"
)

// Notifier sends a borrower-facing message about a loan decision. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Invalidator tells list views that their data changed.
type Invalidator interface {
	Invalidate(ctx context.Context, views ...string) error
}

// View names published through the Invalidator.
const (
	ViewLoans             = "loans"
	ViewReservations      = "reservations"
	ViewEquipment         = "equipment"
	ViewStaffLoans        = "staff:loans"
	ViewStaffReservations = "staff:reservations"
	ViewStaffActivity     = "staff:activity"
)

// LogNotifier writes notifications to the application log. Used when no broker is set up.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	applog.Info(nil, "notify."+n.Kind, map[string]any{
		"loan_id": n.LoanID, "user_id": n.UserID, "equipment_id": n.EquipmentID, "reason": n.Reason,
	})
	return nil
}

type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(context.Context, ...string) error { return nil }

func notify(ctx context.Context, n Notifier, msg domain.Notification) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		applog.Error(nil, "notify.failed", err, map[string]any{"loan_id": msg.LoanID, "kind": msg.Kind})
	}
}

func invalidate(ctx context.Context, inv Invalidator, views ...string) {
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx, views...); err != nil {
		applog.Error(nil, "invalidate.failed", err, map[string]any{"views": views})
	}
}

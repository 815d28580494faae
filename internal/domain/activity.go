package domain

type ActionType string

const (
	ActionApproveLoan        ActionType = "approve_loan"
	ActionRejectLoan         ActionType = "reject_loan"
	ActionApproveReservation ActionType = "approve_reservation"
	ActionRejectReservation  ActionType = "reject_reservation"
	ActionMarkReady          ActionType = "mark_ready"
	ActionConvertToLoan      ActionType = "convert_to_loan"
	ActionCancelReservation  ActionType = "cancel_reservation"
	ActionSelfBorrow         ActionType = "self_borrow"
	ActionSelfReserve        ActionType = "self_reserve"
)

const (
	TargetLoan        = "loan"
	TargetReservation = "reservation"
)

// StaffActivity is one immutable audit record of a staff-performed state change.
type StaffActivity struct {
	ID           string         `db:"id" json:"id"`
	StaffID      string         `db:"staff_id" json:"staff_id"`
	StaffRole    Role           `db:"staff_role" json:"staff_role"`
	ActionType   ActionType     `db:"action_type" json:"action_type"`
	TargetType   string         `db:"target_type" json:"target_type"`
	TargetID     string         `db:"target_id" json:"target_id"`
	TargetUserID string         `db:"target_user_id" json:"target_user_id,omitempty"`
	IsSelfAction bool           `db:"is_self_action" json:"is_self_action"`
	DetailsJSON  string         `db:"details_json" json:"-"`
	Details      map[string]any `db:"-" json:"details,omitempty"`
	CreatedAt    string         `db:"created_at" json:"created_at"`
}

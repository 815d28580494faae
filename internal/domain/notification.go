package domain

// Notification tells a borrower that staff decided on one of their loan requests.
type Notification struct {
	Kind        string `json:"kind"` // loan_approved | loan_rejected
	LoanID      string `json:"loan_id"`
	UserID      string `json:"user_id"`
	EquipmentID string `json:"equipment_id"`
	StaffID     string `json:"staff_id"`
	Reason      string `json:"reason,omitempty"`
}

const (
	NotifyLoanApproved = "loan_approved"
	NotifyLoanRejected = "loan_rejected"
)

package domain

import "time"

// TimeLayout is the canonical text form of every timestamp column. All values are UTC so
// that string comparison in SQL orders them chronologically.
const TimeLayout = "2006-01-02T15:04:05Z"

func FormatTime(t time.Time) string { return t.UTC().Truncate(time.Second).Format(TimeLayout) }

func ParseTime(s string) (time.Time, error) { return time.Parse(TimeLayout, s) }

type EquipmentStatus string

const (
	EquipmentReady       EquipmentStatus = "ready"
	EquipmentBorrowed    EquipmentStatus = "borrowed"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentRetired     EquipmentStatus = "retired"
)

type EquipmentType struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Equipment struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	InventoryNumber string          `db:"inventory_number" json:"inventory_number"`
	ImagesJSON      string          `db:"images_json" json:"-"`
	Status          EquipmentStatus `db:"status" json:"status"`
	EquipmentTypeID string          `db:"equipment_type_id" json:"equipment_type_id,omitempty"`
	TypeName        string          `db:"type_name" json:"type_name,omitempty"`
}

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanReturned LoanStatus = "returned"
)

type LoanRequest struct {
	ID                  string     `db:"id" json:"id"`
	UserID              string     `db:"user_id" json:"user_id"`
	EquipmentID         string     `db:"equipment_id" json:"equipment_id"`
	StartDate           string     `db:"start_date" json:"start_date"`
	EndDate             string     `db:"end_date" json:"end_date"`
	ReturnTime          string     `db:"return_time" json:"return_time,omitempty"`
	Status              LoanStatus `db:"status" json:"status"`
	RejectionReason     string     `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ApprovedBy          string     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt          string     `db:"approved_at" json:"approved_at,omitempty"`
	ReturnedAt          string     `db:"returned_at" json:"returned_at,omitempty"`
	EvaluationSubmitted bool       `db:"evaluation_submitted" json:"evaluation_submitted"`
	CreatedAt           string     `db:"created_at" json:"created_at"`
}

type Reservation struct {
	ID              string            `db:"id" json:"id"`
	UserID          string            `db:"user_id" json:"user_id"`
	EquipmentID     string            `db:"equipment_id" json:"equipment_id"`
	StartDate       string            `db:"start_date" json:"start_date"`
	EndDate         string            `db:"end_date" json:"end_date"`
	Status          ReservationStatus `db:"status" json:"status"`
	RejectionReason string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ApprovedBy      string            `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      string            `db:"approved_at" json:"approved_at,omitempty"`
	ReadyAt         string            `db:"ready_at" json:"ready_at,omitempty"`
	ReadyBy         string            `db:"ready_by" json:"ready_by,omitempty"`
	LoanID          string            `db:"loan_id" json:"loan_id,omitempty"`
	CreatedAt       string            `db:"created_at" json:"created_at"`
}

// SpecialLoan is an administrator-created allocation that blocks a set of equipment for a
// date window outside the normal request flow.
type SpecialLoan struct {
	ID               string `db:"id" json:"id"`
	BorrowerName     string `db:"borrower_name" json:"borrower_name"`
	EquipmentIDsJSON string `db:"equipment_ids_json" json:"-"`
	LoanDate         string `db:"loan_date" json:"loan_date"`
	ReturnDate       string `db:"return_date" json:"return_date"`
	Status           string `db:"status" json:"status"`
}

type CartItem struct {
	EquipmentID     string `json:"equipment_id"`
	Name            string `json:"name"`
	InventoryNumber string `json:"inventory_number"`
	ImageURL        string `json:"image_url,omitempty"`
}

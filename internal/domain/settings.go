package domain

type LoanLimit struct {
	MaxDays  int `json:"max_days"`
	MaxItems int `json:"max_items"`
}

// SystemConfig is owned by the admin settings screens; this service only reads it.
type SystemConfig struct {
	MaxLoanDays           int                  `json:"max_loan_days"`
	MaxItemsPerUser       int                  `json:"max_items_per_user"`
	OpeningTime           string               `json:"opening_time"`
	ClosingTime           string               `json:"closing_time"`
	BreakStartTime        string               `json:"break_start_time,omitempty"`
	BreakEndTime          string               `json:"break_end_time,omitempty"`
	MaxAdvanceBookingDays int                  `json:"max_advance_booking_days"`
	LoanLimitsByType      map[string]LoanLimit `json:"loan_limits_by_type,omitempty"`
}

const DefaultMaxItems = 3

func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		MaxLoanDays:           7,
		MaxItemsPerUser:       DefaultMaxItems,
		OpeningTime:           "08:30",
		ClosingTime:           "16:30",
		BreakStartTime:        "12:00",
		BreakEndTime:          "13:00",
		MaxAdvanceBookingDays: 30,
		LoanLimitsByType: map[string]LoanLimit{
			"student": {MaxDays: 7, MaxItems: 3},
			"teacher": {MaxDays: 14, MaxItems: 5},
			"staff":   {MaxDays: 14, MaxItems: 5},
		},
	}
}

// LimitsFor resolves the borrowing limits for a user type, falling back to the global
// values and finally to DefaultMaxItems.
func (c SystemConfig) LimitsFor(userType string) LoanLimit {
	l := c.LoanLimitsByType[userType]
	if l.MaxDays <= 0 {
		l.MaxDays = c.MaxLoanDays
	}
	if l.MaxItems <= 0 {
		l.MaxItems = c.MaxItemsPerUser
	}
	if l.MaxItems <= 0 {
		l.MaxItems = DefaultMaxItems
	}
	return l
}

package domain

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationReady     ReservationStatus = "ready"
	ReservationCompleted ReservationStatus = "completed"
	ReservationRejected  ReservationStatus = "rejected"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

var validNext = map[ReservationStatus]map[ReservationStatus]bool{
	ReservationPending:   {ReservationApproved: true, ReservationRejected: true, ReservationCancelled: true},
	ReservationApproved:  {ReservationReady: true, ReservationCancelled: true, ReservationExpired: true},
	ReservationReady:     {ReservationCompleted: true},
	ReservationCompleted: {},
	ReservationRejected:  {},
	ReservationCancelled: {},
	ReservationExpired:   {},
}

func CanTransition(from, to ReservationStatus) bool {
	return validNext[from][to]
}

// SourcesOf lists the statuses from which a reservation may move to the given one.
func SourcesOf(to ReservationStatus) []ReservationStatus {
	var out []ReservationStatus
	for _, from := range []ReservationStatus{
		ReservationPending, ReservationApproved, ReservationReady, ReservationCompleted,
		ReservationRejected, ReservationCancelled, ReservationExpired,
	} {
		if validNext[from][to] {
			out = append(out, from)
		}
	}
	return out
}

func (s ReservationStatus) Terminal() bool { return len(validNext[s]) == 0 }

// Active reservation statuses block the equipment for their date window.
var ActiveReservationStatuses = []ReservationStatus{ReservationPending, ReservationApproved, ReservationReady}

// ActiveLoanStatuses block the equipment for their date window.
var ActiveLoanStatuses = []LoanStatus{LoanPending, LoanApproved}

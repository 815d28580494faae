package domain

import "fmt"

type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

type Capability int

const (
	CapBorrow Capability = iota
	CapReserve
	CapApproveLoans
	CapManageReservations
	CapAutoApprove
	CapViewActivity
	CapCancelAnyReservation
)

var capabilities = map[Role]map[Capability]bool{
	RoleUser: {
		CapBorrow:  true,
		CapReserve: true,
	},
	RoleStaff: {
		CapBorrow:               true,
		CapReserve:              true,
		CapApproveLoans:         true,
		CapManageReservations:   true,
		CapAutoApprove:          true,
		CapViewActivity:         true,
		CapCancelAnyReservation: true,
	},
	RoleAdmin: {
		CapBorrow:               true,
		CapReserve:              true,
		CapApproveLoans:         true,
		CapManageReservations:   true,
		CapAutoApprove:          true,
		CapViewActivity:         true,
		CapCancelAnyReservation: true,
	},
}

// ParseRole accepts only the known roles; anything else is an error rather than a
// silently unprivileged role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleStaff, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Can(c Capability) bool { return capabilities[r][c] }

// IsStaff reports whether the role acts on behalf of the equipment office.
func (r Role) IsStaff() bool { return r == RoleStaff || r == RoleAdmin }

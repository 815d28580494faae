package domain

type User struct {
	ID       string `db:"id"`
	Email    string `db:"email"`
	Name     string `db:"name"`
	Hash     string `db:"password_hash"`
	Role     Role   `db:"role"`
	UserType string `db:"user_type"`
}

// Actor is the resolved session of the caller. It is built once per request from the
// bearer token and passed to every service operation.
type Actor struct {
	ID       string
	Role     Role
	UserType string
}

func (a *Actor) Can(c Capability) bool { return a != nil && a.Role.Can(c) }

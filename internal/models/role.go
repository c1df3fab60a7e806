package models

// Role is the closed set of identities known to the system. It is stored
// as a plain string column but all authorization decisions go through the
// capability methods below instead of comparing raw strings in handlers.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleCustomer  Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleCustomer:
		return true
	}
	return false
}

// CanBook reports whether this role may create bookings and pay for them.
func (r Role) CanBook() bool {
	return r == RoleCustomer
}

// CanManageEvents reports whether this role may create events and ticket
// types and modify the ones it owns.
func (r Role) CanManageEvents() bool {
	return r == RoleOrganizer || r == RoleAdmin
}

// SeesAllBookings reports whether this role may list every booking in the
// system regardless of ownership.
func (r Role) SeesAllBookings() bool {
	return r == RoleAdmin
}

// SeesEventBookings reports whether this role may list bookings made
// against events it organizes.
func (r Role) SeesEventBookings() bool {
	return r == RoleOrganizer
}

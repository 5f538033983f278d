package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleTech  Role = "tech"
	RoleUser  Role = "user"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleTech, RoleUser}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTech, RoleUser:
		return true
	}
	return false
}

// User is an account that can log in: requesters, technicians and administrators.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	DisplayName  string
	Role         Role
	CreatedAt    time.Time
}

// IsTechnician reports whether the user may be assigned requests.
func (u *User) IsTechnician() bool {
	return u != nil && u.Role == RoleTech
}

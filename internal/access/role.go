package access

import (
	"errors"
	"fmt"
)

// ErrUnknownRole is returned when a role label does not name a known role.
var ErrUnknownRole = errors.New("unknown role")

// Role is a rank in the user hierarchy. Lower values are more privileged.
type Role int

const (
	RoleGod        Role = 1
	RoleAdmin      Role = 2
	RoleStoreAdmin Role = 3
	RoleCashier    Role = 4
)

var roleNames = map[Role]string{
	RoleGod:        "god",
	RoleAdmin:      "admin",
	RoleStoreAdmin: "store_admin",
	RoleCashier:    "cashier",
}

// Level returns the numeric rank of the role.
func (r Role) Level() int {
	return int(r)
}

// String returns the role label.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// StoreBound reports whether users with this role are confined to one store.
func (r Role) StoreBound() bool {
	return r >= RoleStoreAdmin
}

// Outranks reports whether r is strictly more privileged than other.
func (r Role) Outranks(other Role) bool {
	return r < other
}

// ParseRole maps a role label to its Role.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// RoleFromLevel maps a numeric level to a Role. Unset or out-of-range levels
// map to RoleCashier, the most restricted role.
func RoleFromLevel(level int) Role {
	r := Role(level)
	if !r.Valid() {
		return RoleCashier
	}
	return r
}

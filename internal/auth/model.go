package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	TenantID     *uuid.UUID // nil for the god user
	TokoID       *uuid.UUID // nil for tenant-wide users
	Username     string
	Name         string
	PasswordHash string
	Role         string
	Level        int
	IsGod        bool
	CreatedAt    time.Time
	DisabledAt   *time.Time
}

// Principal converts the user into the identity consumed by the access layer.
func (u *User) Principal() access.Principal {
	p := access.Principal{
		UserID:    u.ID.String(),
		Level:     u.Level,
		Role:      u.Role,
		IsGodUser: u.IsGod,
	}
	if u.TenantID != nil {
		p.TenantID = u.TenantID.String()
	}
	if u.TokoID != nil {
		p.TokoID = u.TokoID.String()
	}
	return p
}

// ListFilter holds optional filters and pagination for listing users.
type ListFilter struct {
	Role  *string
	Page  int
	Limit int
}

// Package access derives per-request tenant/store scopes from authenticated
// principals and turns them into parameterized SQL predicates.
package access

// Principal is the authenticated user as seen by the scoping layer.
type Principal struct {
	UserID    string
	TenantID  string
	Level     int // 0 when the token carries no level
	Role      string
	IsGodUser bool
	TokoID    string // assigned store, empty for tenant-wide users
}

// Rank returns the principal's role. The god flag wins over the level.
func (p Principal) Rank() Role {
	if p.IsGodUser {
		return RoleGod
	}
	return RoleFromLevel(p.Level)
}

// Params holds the tokoId values found in each request source.
type Params struct {
	Path  string
	Query string
	Body  string
}

// StoreID returns the first non-empty tokoId in path, query, body order.
func (p Params) StoreID() string {
	for _, v := range []string{p.Path, p.Query, p.Body} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Scope is the isolation boundary of a single request. It is a value type and
// is never shared between requests.
type Scope struct {
	TenantID      string
	StoreID       string
	Level         int
	Role          string
	IsGod         bool
	EnforceTenant bool
	EnforceStore  bool
}

// Resolve computes the scope for principal p. A tokoId supplied by the
// request wins over the principal's assigned store.
func Resolve(p Principal, params Params) Scope {
	rank := p.Rank()

	storeID := params.StoreID()
	if storeID == "" {
		storeID = p.TokoID
	}

	return Scope{
		TenantID:      p.TenantID,
		StoreID:       storeID,
		Level:         rank.Level(),
		Role:          p.Role,
		IsGod:         p.IsGodUser,
		EnforceTenant: !p.IsGodUser,
		EnforceStore:  !p.IsGodUser && rank.StoreBound(),
	}
}

// God returns the bypass scope used by system jobs.
func God() Scope {
	return Scope{
		Level: RoleGod.Level(),
		Role:  RoleGod.String(),
		IsGod: true,
	}
}

// Rank returns the scope's level as a Role.
func (s Scope) Rank() Role {
	if s.IsGod {
		return RoleGod
	}
	return RoleFromLevel(s.Level)
}

// HasStore reports whether the scope names a store.
func (s Scope) HasStore() bool {
	return s.StoreID != ""
}

// NeedsStore reports whether the scope requires a store it does not have.
func (s Scope) NeedsStore() bool {
	return s.EnforceStore && s.StoreID == ""
}

// CanSeeTenant reports whether rows owned by tenantID are visible.
func (s Scope) CanSeeTenant(tenantID string) bool {
	return !s.EnforceTenant || s.TenantID == tenantID
}

// CanSeeStore reports whether rows of store storeID in tenant tenantID are visible.
func (s Scope) CanSeeStore(tenantID, storeID string) bool {
	if !s.CanSeeTenant(tenantID) {
		return false
	}
	if s.EnforceStore && s.StoreID != "" {
		return s.StoreID == storeID
	}
	return true
}

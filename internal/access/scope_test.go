package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
)

func TestResolve_Flags(t *testing.T) {
	tests := []struct {
		name          string
		principal     access.Principal
		enforceTenant bool
		enforceStore  bool
		level         int
	}{
		{
			name:      "god user bypasses everything",
			principal: access.Principal{Level: 1, Role: "god", IsGodUser: true},
			level:     1,
		},
		{
			name:          "admin is tenant scoped",
			principal:     access.Principal{TenantID: "t1", Level: 2, Role: "admin"},
			enforceTenant: true,
			level:         2,
		},
		{
			name:          "store admin is store scoped",
			principal:     access.Principal{TenantID: "t1", Level: 3, Role: "store_admin", TokoID: "s1"},
			enforceTenant: true,
			enforceStore:  true,
			level:         3,
		},
		{
			name:          "cashier is store scoped",
			principal:     access.Principal{TenantID: "t1", Level: 4, Role: "cashier", TokoID: "s1"},
			enforceTenant: true,
			enforceStore:  true,
			level:         4,
		},
		{
			name:          "missing level is treated as cashier",
			principal:     access.Principal{TenantID: "t1", Role: "cashier"},
			enforceTenant: true,
			enforceStore:  true,
			level:         4,
		},
		{
			name:      "god flag wins over a restricted level",
			principal: access.Principal{Level: 4, IsGodUser: true},
			level:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := access.Resolve(tt.principal, access.Params{})

			assert.Equal(t, tt.principal.IsGodUser, s.IsGod)
			assert.Equal(t, tt.enforceTenant, s.EnforceTenant)
			assert.Equal(t, tt.enforceStore, s.EnforceStore)
			assert.Equal(t, tt.level, s.Level)
			assert.Equal(t, tt.principal.TenantID, s.TenantID)
			assert.Equal(t, tt.principal.Role, s.Role)
		})
	}
}

func TestResolve_StoreSourcePriority(t *testing.T) {
	p := access.Principal{TenantID: "t1", Level: 4, TokoID: "assigned"}

	tests := []struct {
		name   string
		params access.Params
		want   string
	}{
		{"path wins", access.Params{Path: "path", Query: "query", Body: "body"}, "path"},
		{"query before body", access.Params{Query: "query", Body: "body"}, "query"},
		{"body", access.Params{Body: "body"}, "body"},
		{"falls back to assigned store", access.Params{}, "assigned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := access.Resolve(p, tt.params)
			assert.Equal(t, tt.want, s.StoreID)
		})
	}
}

func TestResolve_NoStoreAnywhere(t *testing.T) {
	s := access.Resolve(access.Principal{TenantID: "t1", Level: 3}, access.Params{})

	assert.True(t, s.EnforceStore)
	assert.False(t, s.HasStore())
	assert.True(t, s.NeedsStore())
}

func TestScope_NeedsStore(t *testing.T) {
	assert.False(t, access.Scope{EnforceStore: false}.NeedsStore())
	assert.False(t, access.Scope{EnforceStore: true, StoreID: "abc"}.NeedsStore())
	assert.True(t, access.Scope{EnforceStore: true}.NeedsStore())
}

func TestScope_Visibility(t *testing.T) {
	cashier := access.Scope{TenantID: "t1", StoreID: "s1", EnforceTenant: true, EnforceStore: true}
	admin := access.Scope{TenantID: "t1", EnforceTenant: true}
	god := access.God()

	assert.True(t, cashier.CanSeeStore("t1", "s1"))
	assert.False(t, cashier.CanSeeStore("t1", "s2"))
	assert.False(t, cashier.CanSeeStore("t2", "s1"))

	assert.True(t, admin.CanSeeStore("t1", "s2"))
	assert.False(t, admin.CanSeeTenant("t2"))

	assert.True(t, god.CanSeeStore("any", "thing"))
	assert.Equal(t, access.RoleGod, god.Rank())
}

func TestContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := access.FromContext(ctx)
	assert.False(t, ok)

	s := access.Scope{TenantID: "t1", EnforceTenant: true}
	got, ok := access.FromContext(access.WithScope(ctx, s))
	require.True(t, ok)
	assert.Equal(t, s, got)

	p := access.Principal{UserID: "u1", TenantID: "t1"}
	gotP, ok := access.PrincipalFromContext(access.WithPrincipal(ctx, p))
	require.True(t, ok)
	assert.Equal(t, p, gotP)
}

func TestRole(t *testing.T) {
	r, err := access.ParseRole("store_admin")
	require.NoError(t, err)
	assert.Equal(t, access.RoleStoreAdmin, r)
	assert.Equal(t, 3, r.Level())
	assert.True(t, r.StoreBound())
	assert.False(t, access.RoleAdmin.StoreBound())

	_, err = access.ParseRole("owner")
	assert.ErrorIs(t, err, access.ErrUnknownRole)

	assert.Equal(t, access.RoleCashier, access.RoleFromLevel(0))
	assert.Equal(t, access.RoleCashier, access.RoleFromLevel(42))
	assert.Equal(t, access.RoleAdmin, access.RoleFromLevel(2))

	assert.True(t, access.RoleAdmin.Outranks(access.RoleCashier))
	assert.False(t, access.RoleCashier.Outranks(access.RoleCashier))
	assert.Equal(t, "god", access.RoleGod.String())
}

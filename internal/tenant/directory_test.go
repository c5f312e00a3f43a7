package tenant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/tenant"
)

type mockLookup struct {
	owners map[uuid.UUID]uuid.UUID
	calls  int
	err    error
}

func (m *mockLookup) StoreTenant(_ context.Context, storeID uuid.UUID) (uuid.UUID, error) {
	m.calls++
	if m.err != nil {
		return uuid.Nil, m.err
	}
	tenantID, ok := m.owners[storeID]
	if !ok {
		return uuid.Nil, tenant.ErrStoreNotFound
	}
	return tenantID, nil
}

func newFixture() (*mockLookup, uuid.UUID, uuid.UUID) {
	tenantID := uuid.New()
	storeID := uuid.New()
	return &mockLookup{owners: map[uuid.UUID]uuid.UUID{storeID: tenantID}}, tenantID, storeID
}

func TestDirectory_TenantOf_Caches(t *testing.T) {
	lookup, tenantID, storeID := newFixture()
	dir := tenant.NewDirectory(lookup, 8, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := dir.TenantOf(context.Background(), storeID)
		require.NoError(t, err)
		assert.Equal(t, tenantID, got)
	}
	assert.Equal(t, 1, lookup.calls)
	assert.Equal(t, 1, dir.Len())

	dir.Forget(storeID)
	_, err := dir.TenantOf(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.calls)
}

func TestDirectory_TenantOf_ErrorsAreNotCached(t *testing.T) {
	lookup, _, storeID := newFixture()
	lookup.err = errors.New("connection reset")
	dir := tenant.NewDirectory(lookup, 8, time.Minute)

	_, err := dir.TenantOf(context.Background(), storeID)
	assert.Error(t, err)
	assert.Equal(t, 0, dir.Len())
}

func TestDirectory_Locate(t *testing.T) {
	lookup, tenantID, storeID := newFixture()
	dir := tenant.NewDirectory(lookup, 8, time.Minute)

	tests := []struct {
		name    string
		scope   access.Scope
		wantErr error
	}{
		{
			name:  "admin of owning tenant",
			scope: access.Resolve(access.Principal{TenantID: tenantID.String(), Level: 2}, access.Params{Query: storeID.String()}),
		},
		{
			name:  "cashier assigned to the store",
			scope: access.Resolve(access.Principal{TenantID: tenantID.String(), Level: 4, TokoID: storeID.String()}, access.Params{}),
		},
		{
			name:  "god with any store",
			scope: access.Resolve(access.Principal{IsGodUser: true}, access.Params{Path: storeID.String()}),
		},
		{
			name:    "other tenant",
			scope:   access.Resolve(access.Principal{TenantID: uuid.NewString(), Level: 2}, access.Params{Query: storeID.String()}),
			wantErr: tenant.ErrStoreNotFound,
		},
		{
			name:    "unknown store",
			scope:   access.Resolve(access.Principal{TenantID: tenantID.String(), Level: 2}, access.Params{Query: uuid.NewString()}),
			wantErr: tenant.ErrStoreNotFound,
		},
		{
			name:    "malformed id",
			scope:   access.Resolve(access.Principal{TenantID: tenantID.String(), Level: 2}, access.Params{Query: "toko-1"}),
			wantErr: tenant.ErrStoreNotFound,
		},
		{
			name:    "no store",
			scope:   access.Resolve(access.Principal{TenantID: tenantID.String(), Level: 2}, access.Params{}),
			wantErr: tenant.ErrStoreRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTenant, gotStore, err := dir.Locate(context.Background(), tt.scope)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tenantID, gotTenant)
			assert.Equal(t, storeID, gotStore)
		})
	}
}

func TestDirectory_Check_NoStorePasses(t *testing.T) {
	lookup, tenantID, _ := newFixture()
	dir := tenant.NewDirectory(lookup, 8, time.Minute)

	scope := access.Resolve(access.Principal{TenantID: tenantID.String(), Level: 2}, access.Params{})
	assert.NoError(t, dir.Check(context.Background(), scope))
	assert.Equal(t, 0, lookup.calls)
}

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
)

var testPeriod = Period{
	From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
}

func TestBuild_StoreScopeBeforeSuffix(t *testing.T) {
	scope := access.Resolve(access.Principal{TenantID: "t1", Level: 3, TokoID: "s1"}, access.Params{})

	query, args, err := topProducts(testPeriod, 5).build(scope)
	require.NoError(t, err)

	assert.Contains(t, query, "AND s.tenant_id = $3 AND s.toko_id = $4 GROUP BY si.product_id")
	assert.True(t, strings.HasSuffix(query, "LIMIT $5"))
	assert.Equal(t, []any{testPeriod.From, testPeriod.To, "t1", "s1", 5}, args)
}

func TestBuild_TenantScope(t *testing.T) {
	scope := access.Resolve(access.Principal{TenantID: "t1", Level: 2}, access.Params{})

	query, args, err := purchaseTotals(testPeriod).build(scope)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(query, "AND pu.tenant_id = $3"))
	assert.NotContains(t, query, "toko_id")
	assert.Len(t, args, 3)
}

func TestBuild_GodIsUnfiltered(t *testing.T) {
	query, args, err := daily(testPeriod).build(access.God())
	require.NoError(t, err)

	assert.NotContains(t, query, "tenant_id")
	assert.True(t, strings.HasSuffix(query, "s.created_at < $2 GROUP BY day ORDER BY day ASC"))
	assert.Len(t, args, 2)
}

func TestBuild_PlaceholderCountMatchesArgs(t *testing.T) {
	scopes := []access.Scope{
		access.God(),
		access.Resolve(access.Principal{TenantID: "t1", Level: 2}, access.Params{}),
		access.Resolve(access.Principal{TenantID: "t1", Level: 4, TokoID: "s1"}, access.Params{}),
	}
	statements := []statement{
		salesTotals(testPeriod), costOfGoods(testPeriod), purchaseTotals(testPeriod),
		daily(testPeriod), topProducts(testPeriod, 10),
	}

	for _, scope := range scopes {
		for _, st := range statements {
			query, args, err := st.build(scope)
			require.NoError(t, err)
			assert.Equal(t, len(args), strings.Count(query, "$"), query)
		}
	}
}

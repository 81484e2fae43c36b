package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPlanSpecNormalize(t *testing.T) {
	price := decimal.NewFromFloat(-1)

	cases := []struct {
		name string
		spec PlanSpec
		ok   bool
	}{
		{"zero value", PlanSpec{}, true},
		{"typical", PlanSpec{MaxMembers: 5, MaxProjects: 3, PrivateStoragePerUser: 1 << 30}, true},
		{"negative members", PlanSpec{MaxMembers: -1}, false},
		{"negative storage", PlanSpec{SharedStoragePerProject: -1}, false},
		{"negative price", PlanSpec{Price: &price}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.ok, tc.spec.Normalize())
		})
	}
}

func TestPlanSpecNormalizeDefaultsCurrency(t *testing.T) {
	s := PlanSpec{}
	require.True(t, s.Normalize())
	require.Equal(t, DefaultCurrency, s.Currency)

	s = PlanSpec{Currency: "USD"}
	require.True(t, s.Normalize())
	require.Equal(t, "USD", s.Currency)
}

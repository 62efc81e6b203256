package balance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	totals Balance
}

func (r *stubRepo) Totals(ctx context.Context) (Balance, error) {
	return r.totals, nil
}

func TestBalanceIdentity(t *testing.T) {
	svc := NewService(&stubRepo{totals: Balance{Sales: 1200, Purchases: 450, Expenses: 300}})

	b, err := svc.GetBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(450), b.Balance)
	require.Equal(t, b.Sales-b.Purchases-b.Expenses, b.Balance)
}

func TestEmptyTablesCountAsZero(t *testing.T) {
	svc := NewService(&stubRepo{})

	b, err := svc.GetBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(0), b.Balance)
}

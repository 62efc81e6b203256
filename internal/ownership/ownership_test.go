package ownership

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]Share{{OwnerID: 1, Percentage: 100}}))
	require.NoError(t, Validate([]Share{
		{OwnerID: 1, Percentage: 60},
		{OwnerID: 2, Percentage: 40},
	}))
}

func TestValidateRejectsEmpty(t *testing.T) {
	require.ErrorIs(t, Validate(nil), ErrNoShares)
}

func TestValidateRejectsBadSum(t *testing.T) {
	require.ErrorIs(t, Validate([]Share{
		{OwnerID: 1, Percentage: 60},
		{OwnerID: 2, Percentage: 39},
	}), ErrBadSplit)

	require.ErrorIs(t, Validate([]Share{
		{OwnerID: 1, Percentage: 60},
		{OwnerID: 2, Percentage: 41},
	}), ErrBadSplit)
}

func TestValidateRejectsNonPositive(t *testing.T) {
	require.ErrorIs(t, Validate([]Share{
		{OwnerID: 1, Percentage: 100},
		{OwnerID: 2, Percentage: 0},
	}), ErrBadPercentage)
}

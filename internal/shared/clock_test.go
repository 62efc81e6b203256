package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCombineDateTime(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 20, 17, 45, 12, 999, time.UTC)

	combined := CombineDateTime(day, now)
	require.Equal(t, "2024-05-02 17:45:12", combined.Format(TimestampLayout))
}

func TestPeriodUsesFixedOffset(t *testing.T) {
	// 2024-06-01 01:30 UTC is still 2024-05 at UTC-3.
	stored := time.Date(2024, 6, 1, 1, 30, 0, 0, time.UTC)
	require.Equal(t, "2024-05", Period(stored, -3*time.Hour))
	require.Equal(t, "2024-06", Period(stored, 0))
}

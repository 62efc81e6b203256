package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, NormalizeName("alice"), NormalizeName(" Alice "))
	require.Equal(t, NormalizeName("ALICE"), NormalizeName("alice"))
	require.Equal(t, NormalizeName("Almacén"), NormalizeName("  almacén"))
	require.NotEqual(t, NormalizeName("alice"), NormalizeName("alicia"))
}

package pkg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	got, ok := NormalizeAddress("0xAbC0000000000000000000000000000000000001")
	require.True(t, ok)
	require.Equal(t, "0xabc0000000000000000000000000000000000001", got)

	// Same wallet in different casing normalizes to one identity.
	lower, ok := NormalizeAddress("0xabc0000000000000000000000000000000000001")
	require.True(t, ok)
	require.Equal(t, got, lower)

	for _, bad := range []string{
		"",
		"not-an-address",
		"0x123",
		"0xZZC0000000000000000000000000000000000001",
	} {
		_, ok := NormalizeAddress(bad)
		require.False(t, ok, "%q should be rejected", bad)
	}
}

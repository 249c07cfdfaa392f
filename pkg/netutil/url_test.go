package netutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRPCEndpoint(t *testing.T) {
	for _, tc := range []struct {
		value    string
		expected string
	}{
		{"http://127.0.0.1:8899", "http://127.0.0.1:8899"},
		{"127.0.0.1:8899", "http://127.0.0.1:8899"},
		{"localhost:8899", "http://localhost:8899"},
		{"https://api.devnet.solana.com", "https://api.devnet.solana.com"},
		{"api.mainnet-beta.solana.com", "http://api.mainnet-beta.solana.com"},
		{"http://[::1]:8899", "http://[::1]:8899"},
	} {
		actual, err := NormalizeRPCEndpoint(tc.value, false)
		require.NoError(t, err, tc.value)
		assert.Equal(t, tc.expected, actual)
	}
}

func TestNormalizeRPCEndpoint_Invalid(t *testing.T) {
	for _, value := range []string{
		"",
		"ftp://api.devnet.solana.com",
		"http://",
		"http://bad_host!:8899",
		"http://localhost:0",
		"http://localhost:70000",
		"http://" + strings.Repeat("a", 254),
	} {
		_, err := NormalizeRPCEndpoint(value, false)
		assert.Error(t, err, value)
	}

	_, err := NormalizeRPCEndpoint("http://api.devnet.solana.com", true)
	assert.Error(t, err)

	_, err = NormalizeRPCEndpoint("https://api.devnet.solana.com", true)
	assert.NoError(t, err)
}

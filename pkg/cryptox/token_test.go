package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"128-bit token", TokenSize128},
		{"256-bit token", TokenSize256},
		{"512-bit token", TokenSize512},
		{"custom size", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			// Verify token is unique (generate another and compare)
			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"zero size", 0},
		{"negative size", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.Error(t, err)
			require.Empty(t, token)
		})
	}
}

func TestGenerateToken_URLSafe(t *testing.T) {
	// RFC 6750 bearer tokens must stay within the unreserved character set;
	// base64url without padding guarantees that.
	token, err := GenerateToken(TokenSize512)
	require.NoError(t, err)
	require.NotContains(t, token, "+")
	require.NotContains(t, token, "/")
	require.NotContains(t, token, "=")
}

func TestMustGenerateToken(t *testing.T) {
	token := MustGenerateToken(TokenSize256)
	require.NotEmpty(t, token)
}

func TestMustGenerateToken_Panics(t *testing.T) {
	require.Panics(t, func() {
		MustGenerateToken(0)
	})
}

func TestSecureCompare(t *testing.T) {
	secret := MustGenerateToken(TokenSize512)

	require.True(t, SecureCompare(secret, secret))
	require.False(t, SecureCompare(secret, MustGenerateToken(TokenSize512)))
	require.False(t, SecureCompare(secret, ""))

	// Mismatch in the first byte and in the last byte both go through the
	// full comparison; subtle.ConstantTimeCompare never short-circuits.
	flippedFirst := "X" + secret[1:]
	flippedLast := secret[:len(secret)-1] + "X"
	require.False(t, SecureCompare(secret, flippedFirst))
	require.False(t, SecureCompare(secret, flippedLast))
	require.False(t, SecureCompare(secret, strings.ToLower(secret)) && SecureCompare(secret, strings.ToUpper(secret)))
}

func TestGenerateToken_EntropyQuality(t *testing.T) {
	// Generate multiple tokens and ensure they're all different
	const count = 100
	tokens := make(map[string]bool, count)

	for range count {
		token, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		require.NotContains(t, tokens, token, "duplicate token generated")
		tokens[token] = true
	}
}

package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateCredentialShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		cred, err := GenerateCredential()
		require.NoError(t, err)
		assert.Len(t, cred, CredentialLength)
		assert.Equal(t, strings.ToUpper(cred), cred)

		// The alphabet excludes visually ambiguous characters
		for _, forbidden := range "0O1IL" {
			assert.NotContains(t, cred, string(forbidden))
		}
		seen[cred] = true
	}
	assert.Greater(t, len(seen), 1, "credentials should not repeat")
}

func TestGenerateAccessCodeShape(t *testing.T) {
	code, err := GenerateAccessCode()
	require.NoError(t, err)
	assert.Len(t, code, AccessCodeLength)
	for _, r := range code {
		assert.Contains(t, credentialAlphabet, string(r))
	}
}

func TestHashCredentialRoundTrip(t *testing.T) {
	cred, err := GenerateCredential()
	require.NoError(t, err)

	digest, err := HashCredential(cred)
	require.NoError(t, err)

	// Only the one-way digest is ever stored
	assert.NotEqual(t, cred, digest)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(digest), []byte(cred)))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(digest), []byte("WRONG234")))
}

package utils

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Uppercase alphanumerics minus the visually ambiguous 0/O/1/I/L, since
// guests type these codes by hand
const credentialAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	CredentialLength = 8
	AccessCodeLength = 8
)

func randomString(length int) (string, error) {
	max := big.NewInt(int64(len(credentialAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = credentialAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateCredential produces the secret emailed to a guest at acceptance
func GenerateCredential() (string, error) {
	return randomString(CredentialLength)
}

// GenerateAccessCode produces the short code a guest pairs with their email
// before a credential exists
func GenerateAccessCode() (string, error) {
	return randomString(AccessCodeLength)
}

// HashCredential returns the one-way digest stored in place of a credential
func HashCredential(credential string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

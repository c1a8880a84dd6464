// Package crypto hashes short-lived secrets before they are stored.
package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns the bcrypt hash of secret at the given cost. Costs
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func HashSecret(secret string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	return string(hash), err
}

// CheckSecretHash reports whether secret matches the bcrypt hash.
func CheckSecretHash(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

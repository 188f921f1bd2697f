package auth

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword applies bcrypt with a fresh random salt; hashing the same
// password twice yields different strings. Called exactly once per
// password value, at the point it is first set.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ComparePassword checks a candidate against a stored hash. bcrypt's own
// comparison is constant-time.
func ComparePassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// RandomPassword backs accounts created through federated sign-in. The
// value is never disclosed, so password login fails naturally for those
// accounts while the record keeps the uniform shape.
func RandomPassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

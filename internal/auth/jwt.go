package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Bearer tokens live 7 days and are not renewable.
const tokenTTL = 7 * 24 * time.Hour

type JWT struct {
	secret []byte
}

// NewJWT refuses an empty secret: signing with a well-known fallback
// would make every deployment's tokens forgeable.
func NewJWT(secret string) (*JWT, error) {
	if secret == "" {
		return nil, errors.New("jwt: signing secret is not configured")
	}
	return &JWT{secret: []byte(secret)}, nil
}

func (j *JWT) Sign(userID uint64, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(j.secret)
}

// Verify checks signature and expiry. Every failure collapses to
// ErrInvalidToken so callers cannot tell a bad signature from an expired
// or malformed token.
func (j *JWT) Verify(tokenStr string) (uint64, string, error) {
	t, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil || !t.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	// jwt MapClaims numbers are float64
	idf, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return uint64(idf), email, nil
}

package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenMalformed is returned when the token is structurally invalid.
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrInvalidSignature is returned when the signature does not verify.
	ErrInvalidSignature = errors.New("token signature is invalid")
)

// Issuer creates and verifies signed bearer tokens. The signing key and
// algorithm are fixed for the lifetime of the process; key rotation is not
// supported.
type Issuer struct {
	signingKey []byte
	method     jwt.SigningMethod
}

// NewIssuer creates an Issuer signing with HMAC-SHA256.
func NewIssuer(signingKey []byte) *Issuer {
	return &Issuer{
		signingKey: signingKey,
		method:     jwt.SigningMethodHS256,
	}
}

// Issue produces a signed token with sub, exp, iat and jti claims. The jti
// keeps two tokens for the same subject distinct even when issued within the
// same second, which the session supersession check relies on.
func (i *Issuer) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of a token and returns its subject.
// Failures map onto ErrTokenMalformed, ErrTokenExpired and ErrInvalidSignature.
func (i *Issuer) Decode(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.signingKey, nil
		},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidSignature
		default:
			return "", ErrTokenMalformed
		}
	}

	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeUnsubscribe   = "unsubscribe"
	PurposePasswordReset = "password_reset"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongPurpose = errors.New("token issued for a different purpose")
)

var purposeTTL = map[string]time.Duration{
	PurposeUnsubscribe:   30 * 24 * time.Hour,
	PurposePasswordReset: time.Hour,
}

type purposeClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Tokens signs stateless single-purpose links such as unsubscribe and
// password reset.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

func (t *Tokens) Issue(email, purpose string) (string, error) {
	ttl, ok := purposeTTL[purpose]
	if !ok {
		ttl = time.Hour
	}

	now := t.now()
	claims := purposeClaims{
		Email:   NormalizeEmail(email),
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns the email carried by a token minted for purpose.
func (t *Tokens) Verify(tokenString, purpose string) (string, error) {
	var claims purposeClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return "", ErrWrongPurpose
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}

	return claims.Email, nil
}

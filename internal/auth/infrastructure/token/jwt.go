// Package token issues and verifies HS256 access tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmehra2102/storefront-core/internal/auth"
	"github.com/dmehra2102/storefront-core/internal/auth/application"
	"github.com/dmehra2102/storefront-core/internal/shared"
)

const CodeInvalidToken = "INVALID_TOKEN"

type claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret, issuer string, ttl time.Duration) (*JWT, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &JWT{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (j *JWT) Issue(p auth.Principal) (application.Token, error) {
	now := j.now()
	expires := now.Add(j.ttl)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
	if err != nil {
		return application.Token{}, shared.Infrastructure("token.sign", err)
	}
	return application.Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}

func (j *JWT) Verify(raw string) (auth.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || c.Subject == "" {
		return auth.Principal{}, shared.NewError(shared.KindUnauthorized, CodeInvalidToken, "invalid or expired access token")
	}
	return auth.Principal{UserID: c.Subject, Email: c.Email, EmailVerified: c.EmailVerified}, nil
}

// File: internal/token/inspector.go

// Package token inspects the JWTs the AUT issues. Tokens are decoded without
// signature verification; the signature is only checked when a shared secret
// is configured, since most deployments under test do not hand the suite
// their signing key.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veraqa/shoptest/api/schemas"
)

// Inspection is the decoded view of one token.
type Inspection struct {
	Header            map[string]any
	Claims            jwt.MapClaims
	Subject           string
	IssuedAt          time.Time
	ExpiresAt         time.Time
	SignatureVerified bool
}

// Valid reports whether the token had not expired at the given instant.
func (i Inspection) Valid(now time.Time) bool {
	return i.ExpiresAt.After(now)
}

// parserUnverified inspects token contents without checking the signature.
var parserUnverified = new(jwt.Parser)

// parserSkipClaims verifies signatures without validating claims; expiry is
// asserted separately so an expired token still yields a full inspection.
var parserSkipClaims = jwt.NewParser(jwt.WithoutClaimsValidation())

// Inspect decodes the token and checks the required claims {sub, iat, exp}.
// A structurally broken token wraps schemas.ErrMalformedResponse; a missing
// or non-numeric required claim wraps schemas.ErrAssertionMismatch.
func Inspect(tokenString, sharedSecret string) (Inspection, error) {
	parsed, _, err := parserUnverified.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Inspection{}, fmt.Errorf("failed to decode token: %v: %w", err, schemas.ErrMalformedResponse)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Inspection{}, fmt.Errorf("token claims are not an object: %w", schemas.ErrMalformedResponse)
	}

	insp := Inspection{
		Header: parsed.Header,
		Claims: claims,
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return insp, fmt.Errorf("required claim 'sub' missing: %w", schemas.ErrAssertionMismatch)
	}
	insp.Subject = sub

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return insp, fmt.Errorf("required claim 'iat' missing or not numeric: %w", schemas.ErrAssertionMismatch)
	}
	insp.IssuedAt = iat.Time

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return insp, fmt.Errorf("required claim 'exp' missing or not numeric: %w", schemas.ErrAssertionMismatch)
	}
	insp.ExpiresAt = exp.Time

	if sharedSecret != "" {
		verified, err := parserSkipClaims.Parse(tokenString, func(t *jwt.Token) (any, error) {
			// Restrict to HMAC so a key-confusion token cannot pass by
			// presenting a public key as the shared secret.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(sharedSecret), nil
		})
		if err != nil || !verified.Valid {
			return insp, fmt.Errorf("signature verification failed: %w", schemas.ErrAssertionMismatch)
		}
		insp.SignatureVerified = true
	}

	return insp, nil
}

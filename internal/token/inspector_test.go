// File: internal/token/inspector_test.go
package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veraqa/shoptest/api/schemas"
)

const testSecret = "shared-test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func fullClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": "42",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func TestInspectDecodesWithoutSecret(t *testing.T) {
	tok := signedToken(t, fullClaims())

	insp, err := Inspect(tok, "")
	require.NoError(t, err)
	assert.Equal(t, "42", insp.Subject)
	assert.False(t, insp.SignatureVerified)
	assert.True(t, insp.Valid(time.Now()))
	assert.Equal(t, "HS256", insp.Header["alg"])
}

func TestInspectVerifiesSignatureWithSecret(t *testing.T) {
	tok := signedToken(t, fullClaims())

	insp, err := Inspect(tok, testSecret)
	require.NoError(t, err)
	assert.True(t, insp.SignatureVerified)
}

func TestInspectRejectsWrongSecret(t *testing.T) {
	tok := signedToken(t, fullClaims())

	_, err := Inspect(tok, "a-different-secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrAssertionMismatch)
}

func TestInspectRejectsNonHMACWhenSecretSet(t *testing.T) {
	// alg=none with an empty signature must not satisfy the HMAC check.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, fullClaims())
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Inspect(s, testSecret)
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrAssertionMismatch)
}

func TestInspectRequiredClaims(t *testing.T) {
	cases := map[string]jwt.MapClaims{
		"missing sub": {"iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix()},
		"missing iat": {"sub": "42", "exp": time.Now().Add(time.Hour).Unix()},
		"missing exp": {"sub": "42", "iat": time.Now().Unix()},
		"string exp":  {"sub": "42", "iat": time.Now().Unix(), "exp": "tomorrow"},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Inspect(signedToken(t, claims), "")
			require.Error(t, err)
			assert.ErrorIs(t, err, schemas.ErrAssertionMismatch)
		})
	}
}

func TestInspectExpiredTokenStillDecodes(t *testing.T) {
	claims := fullClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	insp, err := Inspect(signedToken(t, claims), testSecret)
	require.NoError(t, err)
	assert.True(t, insp.SignatureVerified)
	assert.False(t, insp.Valid(time.Now()))
}

func TestInspectMalformedToken(t *testing.T) {
	_, err := Inspect("not-a-jwt", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrMalformedResponse)
}

func FuzzInspect(f *testing.F) {
	f.Add("eyJhbGciOiJIUzI1NiJ9.e30.x")
	f.Add("a.b.c")
	f.Add("")
	f.Fuzz(func(t *testing.T, raw string) {
		// Must never panic, whatever the input.
		_, _ = Inspect(raw, testSecret)
	})
}

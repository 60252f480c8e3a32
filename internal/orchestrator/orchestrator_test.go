// File: internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/config"
)

const (
	fakeSecret   = "orchestrator-test-secret"
	fakeEmail    = "testuser@example.com"
	fakeUsername = "testuser"
	fakePassword = "ValidPass123!"
	fakeUserID   = int64(42)
)

// fakeAUT serves just enough of the shop's API for the browser-free
// scenarios: login issuing a signed token, the bearer-guarded profile, and a
// deterministic product search.
func fakeAUT(t *testing.T) *httptest.Server {
	t.Helper()
	var issued string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req schemas.LoginRequest
		if err := jsoniter.NewDecoder(r.Body).Decode(&req); err != nil || req.Username != fakeUsername || req.Password != fakePassword {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error_message":"Invalid email or password"}`))
			return
		}
		now := time.Now()
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "42",
			"iat": now.Unix(),
			"exp": now.Add(time.Hour).Unix(),
		})
		signed, err := tok.SignedString([]byte(fakeSecret))
		require.NoError(t, err)
		issued = signed

		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(schemas.LoginResponse{
			AccessToken:  signed,
			RefreshToken: "refresh-" + signed[:12],
			TokenType:    "Bearer",
			UserID:       fakeUserID,
			Username:     fakeUsername,
			Email:        fakeEmail,
		})
	})
	mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if issued == "" || r.Header.Get("Authorization") != "Bearer "+issued {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(schemas.ProfileResponse{
			UserID:        fakeUserID,
			Username:      fakeUsername,
			Email:         fakeEmail,
			FirstName:     "Test",
			LastName:      "User",
			AccountStatus: "active",
		})
	})
	mux.HandleFunc("/api/products/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "laptop" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"products": []}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(schemas.SearchResponse{Products: []schemas.Product{
			{ProductID: 1, Name: "Laptop Pro", Price: 1299.99, Availability: "in_stock"},
			{ProductID: 2, Name: "Laptop Air", Price: 899.00, Availability: "in_stock"},
		}})
	})
	return httptest.NewServer(mux)
}

func testConfig(baseURL string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.AUT.BaseURL = baseURL
	cfg.Creds.ValidUser = config.Account{Email: fakeEmail, Username: fakeUsername, Password: fakePassword}
	cfg.JWT.SharedSecret = fakeSecret
	cfg.Timeouts.HTTP = 5 * time.Second
	cfg.Timeouts.DB = 500 * time.Millisecond
	return cfg
}

func TestRunUnknownScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	o := New(testConfig("http://aut.local"))
	_, err := o.Run(context.Background(), "no-such-scenario")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-scenario")
}

func TestRunSearchIdempotentAgainstFakeAUT(t *testing.T) {
	srv := fakeAUT(t)
	defer srv.Close()

	o := New(testConfig(srv.URL))
	result, err := o.Run(context.Background(), "search-idempotent")
	require.NoError(t, err)

	assert.Equal(t, "search-idempotent", result.ScenarioID)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, schemas.OverallPass, result.Overall)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "first-search", result.Outcomes[0].StepID)
	assert.Equal(t, schemas.StepPass, result.Outcomes[0].Status)
	assert.Equal(t, int64(2), result.Outcomes[0].Evidence["products"])
	assert.Equal(t, schemas.StepPass, result.Outcomes[1].Status)
}

func TestRunJWTProtectedProfileAgainstFakeAUT(t *testing.T) {
	srv := fakeAUT(t)
	defer srv.Close()

	o := New(testConfig(srv.URL))
	result, err := o.Run(context.Background(), "jwt-protected-profile")
	require.NoError(t, err)

	assert.Equal(t, schemas.OverallPass, result.Overall)
	require.Len(t, result.Outcomes, 3)
	for _, out := range result.Outcomes {
		assert.Equal(t, schemas.StepPass, out.Status, out.StepID)
	}
	claims := result.Outcomes[1]
	assert.Equal(t, "42", claims.Evidence["subject"])
	assert.Equal(t, true, claims.Evidence["signature_verified"])
}

func TestRunReportsLoginMismatchAsStepFail(t *testing.T) {
	srv := fakeAUT(t)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Creds.ValidUser.Password = "not-the-password"

	o := New(cfg)
	result, err := o.Run(context.Background(), "jwt-protected-profile")
	require.NoError(t, err)

	assert.Equal(t, schemas.OverallFail, result.Overall)
	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, schemas.StepFail, result.Outcomes[0].Status)
	assert.Equal(t, schemas.KindAssertionMismatch, result.Outcomes[0].ErrorKind)
	assert.Equal(t, schemas.StepSkipped, result.Outcomes[1].Status)
	assert.Equal(t, schemas.StepSkipped, result.Outcomes[2].Status)
}

func TestRunRecordsSetupFailureInsideResult(t *testing.T) {
	cfg := testConfig("http://aut.local")
	cfg.DB.Host = "127.0.0.1"
	cfg.DB.Port = 1

	o := New(cfg)
	result, err := o.Run(context.Background(), "register-duplicate")
	require.NoError(t, err)

	assert.Equal(t, schemas.OverallFail, result.Overall)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "setup-collaborators", result.Outcomes[0].StepID)
	assert.Equal(t, schemas.StepError, result.Outcomes[0].Status)
	assert.Equal(t, schemas.KindDbUnavailable, result.Outcomes[0].ErrorKind)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
}

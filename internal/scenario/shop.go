// File: internal/scenario/shop.go
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/dbverify"
	"github.com/veraqa/shoptest/internal/logscan"
	"github.com/veraqa/shoptest/internal/token"
)

func init() {
	register(Scenario{
		ID:    "cart-invalid-quantity",
		Title: "A zero quantity is rejected at the UI and the API and leaves no cart row",
		Needs: Needs{Browser: true, API: true, DB: true},
		Build: buildCartInvalidQuantity,
	})
	register(Scenario{
		ID:    "sql-injection-search",
		Title: "An injection payload is rejected, leaves the catalogue intact and is logged",
		Needs: Needs{Browser: true, API: true, DB: true, Logs: true},
		Build: buildSQLInjectionSearch,
	})
	register(Scenario{
		ID:    "search-idempotent",
		Title: "Repeated product searches return the same result set",
		Needs: Needs{API: true},
		Build: buildSearchIdempotent,
	})
	register(Scenario{
		ID:    "jwt-protected-profile",
		Title: "The issued token carries required claims and guards the profile endpoint",
		Needs: Needs{API: true},
		Build: buildJWTProtectedProfile,
	})
}

const injectionPayload = "1; DROP TABLE products; --"

func buildCartInvalidQuantity(env *Env) []Step {
	login := env.Pages.Login()
	dashboard := env.Pages.Dashboard()
	cart := env.Pages.Cart()
	user := env.Cfg.Creds.ValidUser

	const fixtureProductID = int64(1)

	return []Step{
		{ID: "ui-login", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := login.Go(ctx); err != nil {
				return nil, err
			}
			if err := login.Login(ctx, user.Email, user.Password); err != nil {
				return nil, err
			}
			return nil, dashboard.AwaitVisible(ctx)
		}},
		{ID: "ui-rejects-zero-quantity", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := cart.Go(ctx); err != nil {
				return nil, err
			}
			if err := cart.SetQuantity(ctx, "0"); err != nil {
				return nil, err
			}
			if err := cart.Add(ctx); err != nil {
				return nil, err
			}
			text, err := cart.AwaitError(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"expected": env.Cfg.Messages.InvalidQuantity, "observed": text}
			if text != env.Cfg.Messages.InvalidQuantity {
				return ev, schemas.Mismatch("cart error text", env.Cfg.Messages.InvalidQuantity, text)
			}
			return ev, nil
		}},
		{ID: "api-rejects-zero-quantity", Run: func(ctx context.Context) (schemas.Evidence, error) {
			loginResp, err := env.API.Login(ctx, schemas.LoginRequest{Username: user.Username, Password: user.Password})
			if err != nil {
				return nil, err
			}
			var session schemas.LoginResponse
			if err := loginResp.JSON(&session); err != nil {
				return nil, err
			}
			resp, err := env.API.AddCartItem(ctx, session.AccessToken, schemas.CartAddRequest{
				ProductID: fixtureProductID,
				Quantity:  0,
			})
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status), "body": resp.BodyText}
			if resp.Status < 400 || resp.Status > 499 {
				return ev, schemas.Mismatch("cart insert status", "4xx", resp.Status)
			}
			return ev, nil
		}},
		{ID: "db-has-no-cart-row", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.DB.DoesNotExist(ctx, "cart_items", dbverify.Row{
				"productId": fixtureProductID,
				"quantity":  0,
			})
		}},
	}
}

// catalogueColumns is the projection the integrity check compares; volatile
// columns (stock counters, timestamps) stay out of it.
var catalogueColumns = []string{"product_id", "name", "price"}

func buildSQLInjectionSearch(env *Env) []Step {
	search := env.Pages.Search()
	var seeded []dbverify.Row

	return []Step{
		{ID: "snapshot-catalogue", Run: func(ctx context.Context) (schemas.Evidence, error) {
			rows, err := env.DB.Query(ctx, "SELECT product_id, name, price FROM products")
			if err != nil {
				return nil, err
			}
			if len(rows) < 1 {
				return nil, schemas.Mismatch("seeded product rows", "at least 1", len(rows))
			}
			seeded = rows
			return schemas.Evidence{"product_rows": int64(len(rows))}, nil
		}},
		{ID: "submit-payload-in-ui", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := search.Go(ctx); err != nil {
				return nil, err
			}
			if err := search.Fill(ctx, "query", injectionPayload); err != nil {
				return nil, err
			}
			return nil, search.Click(ctx, "submit")
		}},
		{ID: "api-never-returns-5xx", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Search(ctx, injectionPayload)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status), "body": resp.BodyText}
			switch {
			case resp.Status == 200:
				var body schemas.SearchResponse
				if err := resp.JSON(&body); err != nil {
					return ev, err
				}
				if len(body.Products) != 0 {
					return ev, schemas.Mismatch("injection search result", "empty product set", fmt.Sprintf("%d products", len(body.Products)))
				}
			case resp.Status == 400 || resp.Status == 422:
			default:
				return ev, schemas.Mismatch("injection search status", "200 empty, 400 or 422", resp.Status)
			}
			return ev, nil
		}},
		{ID: "catalogue-survives", Run: func(ctx context.Context) (schemas.Evidence, error) {
			// No foreign rows appeared, and none of the seeded rows were lost:
			// containment in the snapshot plus an equal count pins the table
			// to exactly its pre-payload content.
			if err := env.DB.Subset(ctx, "products", catalogueColumns, seeded); err != nil {
				return nil, err
			}
			rows, err := env.DB.Query(ctx, "SELECT COUNT(*) AS n FROM products")
			if err != nil {
				return nil, err
			}
			if len(rows) != 1 {
				return nil, schemas.Mismatch("products count query", "one row", len(rows))
			}
			n, _ := rows[0]["n"].(int64)
			ev := schemas.Evidence{"product_rows": n, "seeded_rows": int64(len(seeded))}
			if n != int64(len(seeded)) {
				return ev, fmt.Errorf("products table holds %d rows, seeded %d: %w", n, len(seeded), schemas.ErrCountMismatch)
			}
			return ev, nil
		}},
		{ID: "security-log-records-payload", Run: func(ctx context.Context) (schemas.Evidence, error) {
			line, err := env.Logs.FindLine(ctx, logscan.Query{
				Path:           env.Cfg.Logs.Security,
				Substring:      env.Cfg.Messages.InjectionDetected,
				RequiredFields: []string{injectionPayload},
				Window:         logscan.Last(2 * time.Minute),
			})
			if err != nil {
				return nil, err
			}
			return schemas.Evidence{"line": line}, nil
		}},
	}
}

func buildSearchIdempotent(env *Env) []Step {
	const keyword = "laptop"
	var first schemas.SearchResponse

	fetch := func(ctx context.Context) (schemas.SearchResponse, int, error) {
		resp, err := env.API.Search(ctx, keyword)
		if err != nil {
			return schemas.SearchResponse{}, 0, err
		}
		if resp.Status != 200 {
			return schemas.SearchResponse{}, resp.Status, schemas.Mismatch("search status", 200, resp.Status)
		}
		var body schemas.SearchResponse
		if err := resp.JSON(&body); err != nil {
			return schemas.SearchResponse{}, resp.Status, err
		}
		return body, resp.Status, nil
	}

	return []Step{
		{ID: "first-search", Run: func(ctx context.Context) (schemas.Evidence, error) {
			body, status, err := fetch(ctx)
			if err != nil {
				return schemas.Evidence{"status": int64(status)}, err
			}
			first = body
			return schemas.Evidence{"products": int64(len(body.Products))}, nil
		}},
		{ID: "second-search-identical", Run: func(ctx context.Context) (schemas.Evidence, error) {
			body, status, err := fetch(ctx)
			if err != nil {
				return schemas.Evidence{"status": int64(status)}, err
			}
			ev := schemas.Evidence{"first": int64(len(first.Products)), "second": int64(len(body.Products))}
			if diff := cmp.Diff(first, body); diff != "" {
				return ev, schemas.Mismatch("repeated search result", "identical product set", diff)
			}
			return ev, nil
		}},
	}
}

func buildJWTProtectedProfile(env *Env) []Step {
	user := env.Cfg.Creds.ValidUser
	var session schemas.LoginResponse

	return []Step{
		{ID: "api-login-issues-token", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Login(ctx, schemas.LoginRequest{Username: user.Username, Password: user.Password})
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status)}
			if resp.Status != 200 {
				return ev, schemas.Mismatch("login status", 200, resp.Status)
			}
			if err := resp.JSON(&session); err != nil {
				return ev, err
			}
			if session.TokenType != "Bearer" {
				return ev, schemas.Mismatch("token type", "Bearer", session.TokenType)
			}
			if session.AccessToken == "" || session.RefreshToken == "" {
				return ev, schemas.Mismatch("token fields", "accessToken and refreshToken present", resp.BodyText)
			}
			return ev, nil
		}},
		{ID: "token-carries-required-claims", Run: func(ctx context.Context) (schemas.Evidence, error) {
			insp, err := token.Inspect(session.AccessToken, env.Cfg.JWT.SharedSecret)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{
				"subject":            insp.Subject,
				"expires_at":         insp.ExpiresAt.Format(time.RFC3339),
				"signature_verified": insp.SignatureVerified,
			}
			if !insp.Valid(time.Now()) {
				return ev, schemas.Mismatch("token expiry", "in the future", insp.ExpiresAt)
			}
			return ev, nil
		}},
		{ID: "profile-matches-login-identity", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Profile(ctx, session.AccessToken)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status)}
			if resp.Status != 200 {
				return ev, schemas.Mismatch("profile status", 200, resp.Status)
			}
			var profile schemas.ProfileResponse
			if err := resp.JSON(&profile); err != nil {
				return ev, err
			}
			if profile.UserID != session.UserID || profile.Email != session.Email || profile.Username != session.Username {
				return ev, schemas.Mismatch("profile identity",
					fmt.Sprintf("userId=%d email=%s username=%s", session.UserID, session.Email, session.Username),
					fmt.Sprintf("userId=%d email=%s username=%s", profile.UserID, profile.Email, profile.Username))
			}
			if resp.HasField("password") {
				return ev, schemas.Mismatch("profile body", "no password field", "password field present")
			}
			return ev, nil
		}},
	}
}

// File: internal/scenario/account.go
package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/dbverify"
	"github.com/veraqa/shoptest/internal/logscan"
)

func init() {
	register(Scenario{
		ID:    "register-duplicate",
		Title: "Second registration with the same email is rejected and leaves one row",
		Needs: Needs{API: true, DB: true},
		Build: buildRegisterDuplicate,
	})
	register(Scenario{
		ID:    "boundary-email-254",
		Title: "An email of exactly 254 characters registers and is echoed verbatim",
		Needs: Needs{API: true, DB: true},
		Build: buildBoundaryEmail,
	})
	register(Scenario{
		ID:    "boundary-password-128",
		Title: "A 128-character password is accepted, masked and usable for login",
		Needs: Needs{Browser: true, API: true, DB: true},
		Build: buildBoundaryPassword,
	})
	register(Scenario{
		ID:    "recovery-email-queued",
		Title: "Password reset queues an email and does not reveal unknown addresses",
		Needs: Needs{Browser: true, Logs: true},
		Build: buildRecoveryEmailQueued,
	})
}

const duplicateEmail = "duplicate@example.com"

func buildRegisterDuplicate(env *Env) []Step {
	var firstBody schemas.RegisterResponse

	registerReq := func(username string) schemas.RegisterRequest {
		return schemas.RegisterRequest{
			Username:  username,
			Email:     duplicateEmail,
			Password:  "ValidPass123!",
			FirstName: "Dup",
			LastName:  "User",
		}
	}

	return []Step{
		{ID: "reset-fixture-rows", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.DB.Delete(ctx, "users", dbverify.Row{"email": duplicateEmail})
		}},
		{ID: "first-registration-created", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Register(ctx, registerReq("firstuser"))
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status)}
			if resp.Status != 201 {
				return ev, schemas.Mismatch("first registration status", 201, resp.Status)
			}
			if err := resp.JSON(&firstBody); err != nil {
				return ev, err
			}
			if firstBody.Username != "firstuser" || firstBody.Email != duplicateEmail || firstBody.AccountStatus == "" {
				return ev, schemas.Mismatch("registration body", "userId/username/email/accountStatus populated", resp.BodyText)
			}
			if resp.HasField("password") {
				return ev, schemas.Mismatch("registration body", "no password field", "password field present")
			}
			return ev, nil
		}},
		{ID: "duplicate-registration-rejected", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Register(ctx, registerReq("seconduser"))
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status), "body": resp.BodyText}
			if resp.Status != 409 {
				return ev, schemas.Mismatch("duplicate registration status", 409, resp.Status)
			}
			var apiErr schemas.APIError
			if err := resp.JSON(&apiErr); err != nil {
				return ev, err
			}
			if !strings.Contains(apiErr.Text(), env.Cfg.Messages.DuplicateEmail) {
				return ev, schemas.Mismatch("duplicate message", env.Cfg.Messages.DuplicateEmail, apiErr.Text())
			}
			return ev, nil
		}},
		{ID: "db-holds-single-row", Run: func(ctx context.Context) (schemas.Evidence, error) {
			row, err := env.DB.ExistsExactlyOne(ctx, "users", dbverify.Row{"email": duplicateEmail})
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"username": fmt.Sprint(row["username"])}
			if fmt.Sprint(row["username"]) != "firstuser" {
				return ev, schemas.Mismatch("winning username", "firstuser", row["username"])
			}
			return ev, nil
		}},
	}
}

func buildBoundaryEmail(env *Env) []Step {
	// Exactly 254 characters including the domain.
	domain := "@example.com"
	email := strings.Repeat("a", 254-len(domain)) + domain

	return []Step{
		{ID: "reset-fixture-rows", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.DB.Delete(ctx, "users", dbverify.Row{"email": email})
		}},
		{ID: "register-boundary-email", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Register(ctx, schemas.RegisterRequest{
				Username:  "boundaryemail",
				Email:     email,
				Password:  "ValidPass123!",
				FirstName: "Edge",
				LastName:  "Case",
			})
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status), "email_length": int64(len(email))}
			if resp.Status != 201 {
				return ev, schemas.Mismatch("boundary email status", 201, resp.Status)
			}
			var body schemas.RegisterResponse
			if err := resp.JSON(&body); err != nil {
				return ev, err
			}
			if body.Email != email {
				return ev, schemas.Mismatch("echoed email", email, body.Email)
			}
			return ev, nil
		}},
		{ID: "db-row-created", Run: func(ctx context.Context) (schemas.Evidence, error) {
			_, err := env.DB.ExistsExactlyOne(ctx, "users", dbverify.Row{"email": email})
			return nil, err
		}},
		{ID: "cleanup-fixture-rows", ContinueOnError: true, Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.DB.Delete(ctx, "users", dbverify.Row{"email": email})
		}},
	}
}

func buildBoundaryPassword(env *Env) []Step {
	login := env.Pages.Login()
	password := "Aa1!" + strings.Repeat("a", 124)
	email := "boundary-password@example.com"

	return []Step{
		{ID: "ui-accepts-long-password", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := login.Go(ctx); err != nil {
				return nil, err
			}
			if err := login.Fill(ctx, "password", password); err != nil {
				return nil, err
			}
			masked, err := login.PasswordMasked(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"masked": masked, "password_length": int64(len(password))}
			if !masked {
				return ev, schemas.Mismatch("password input type", "password", "unmasked")
			}
			text, err := login.ErrorText(ctx)
			if err != nil {
				return ev, err
			}
			if text != "" {
				return ev, schemas.Mismatch("length validation error", "absent", text)
			}
			return ev, nil
		}},
		{ID: "reset-fixture-rows", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.DB.Delete(ctx, "users", dbverify.Row{"email": email})
		}},
		{ID: "register-with-long-password", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Register(ctx, schemas.RegisterRequest{
				Username:  "boundarypassword",
				Email:     email,
				Password:  password,
				FirstName: "Edge",
				LastName:  "Case",
			})
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status)}
			if resp.Status != 201 {
				return ev, schemas.Mismatch("registration status", 201, resp.Status)
			}
			return ev, nil
		}},
		{ID: "login-with-long-password", Run: func(ctx context.Context) (schemas.Evidence, error) {
			resp, err := env.API.Login(ctx, schemas.LoginRequest{Username: "boundarypassword", Password: password})
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"status": int64(resp.Status)}
			if resp.Status != 200 {
				return ev, schemas.Mismatch("login status", 200, resp.Status)
			}
			return ev, nil
		}},
		{ID: "cleanup-fixture-rows", ContinueOnError: true, Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.DB.Delete(ctx, "users", dbverify.Row{"email": email})
		}},
	}
}

func buildRecoveryEmailQueued(env *Env) []Step {
	recovery := env.Pages.Recovery()
	known := env.Cfg.Creds.ValidUser.Email
	unknown := env.Cfg.Creds.UnregisteredUser.Email

	var knownConfirmation string

	return []Step{
		{ID: "request-reset-known-address", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := recovery.Go(ctx); err != nil {
				return nil, err
			}
			if err := recovery.RequestPasswordReset(ctx, known); err != nil {
				return nil, err
			}
			var err error
			knownConfirmation, err = recovery.ConfirmationText(ctx)
			if err != nil {
				return nil, err
			}
			return schemas.Evidence{"confirmation": knownConfirmation}, nil
		}},
		{ID: "reset-email-queued", Run: func(ctx context.Context) (schemas.Evidence, error) {
			line, err := env.Logs.FindLine(ctx, logscan.Query{
				Path:           env.Cfg.Logs.EmailQueue,
				Substring:      known,
				RequiredFields: []string{env.Cfg.Messages.PasswordResetQueued},
				Window:         logscan.Last(2 * time.Minute),
			})
			if err != nil {
				return nil, err
			}
			return schemas.Evidence{"line": line}, nil
		}},
		{ID: "unknown-address-not-revealed", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := recovery.Go(ctx); err != nil {
				return nil, err
			}
			if err := recovery.RequestPasswordReset(ctx, unknown); err != nil {
				return nil, err
			}
			text, err := recovery.ConfirmationText(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"expected": knownConfirmation, "observed": text}
			if text != knownConfirmation {
				return ev, schemas.Mismatch("confirmation for unknown address", knownConfirmation, text)
			}
			return ev, nil
		}},
	}
}

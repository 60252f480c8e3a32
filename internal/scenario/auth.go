// File: internal/scenario/auth.go
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/logscan"
)

const sessionCookieFragment = "session"

func init() {
	register(Scenario{
		ID:    "login-valid",
		Title: "Valid login lands on the dashboard with a session cookie",
		Needs: Needs{Browser: true},
		Build: buildLoginValid,
	})
	register(Scenario{
		ID:    "login-invalid",
		Title: "Wrong password shows the configured error and sets no session cookie",
		Needs: Needs{Browser: true},
		Build: buildLoginInvalid,
	})
	register(Scenario{
		ID:    "login-lockout",
		Title: "Five failed attempts lock the account, correct password included",
		Needs: Needs{Browser: true, Logs: true},
		Build: buildLoginLockout,
	})
	register(Scenario{
		ID:    "remember-me",
		Title: "Restored cookies survive a session recycle and skip the login form",
		Needs: Needs{Browser: true},
		Build: buildRememberMe,
	})
	register(Scenario{
		ID:    "no-remember-me",
		Title: "Recycling without cookie restore lands back on the login form",
		Needs: Needs{Browser: true},
		Build: buildNoRememberMe,
	})
}

func buildLoginValid(env *Env) []Step {
	login := env.Pages.Login()
	dashboard := env.Pages.Dashboard()
	user := env.Cfg.Creds.ValidUser

	return []Step{
		{ID: "open-login-page", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, login.Go(ctx)
		}},
		{ID: "fill-credentials", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := login.Fill(ctx, "email", user.Email); err != nil {
				return nil, err
			}
			return nil, login.Fill(ctx, "password", user.Password)
		}},
		{ID: "password-masked", Run: func(ctx context.Context) (schemas.Evidence, error) {
			masked, err := login.PasswordMasked(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"masked": masked}
			if !masked {
				return ev, schemas.Mismatch("password input type", "password", "unmasked")
			}
			return ev, nil
		}},
		{ID: "submit", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, login.Click(ctx, "submit")
		}},
		{ID: "dashboard-visible", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, dashboard.AwaitVisible(ctx)
		}},
		{ID: "session-cookie-present", Run: func(ctx context.Context) (schemas.Evidence, error) {
			bag, err := env.Browser.SnapshotCookies(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"cookies": bag.Names()}
			if !bag.HasNameContaining(sessionCookieFragment) {
				return ev, schemas.Mismatch("session cookie", "name containing "+sessionCookieFragment, bag.Names())
			}
			return ev, nil
		}},
		{ID: "no-error-banner", Run: func(ctx context.Context) (schemas.Evidence, error) {
			text, err := dashboard.ErrorText(ctx)
			if err != nil {
				return nil, err
			}
			if text != "" {
				return schemas.Evidence{"error_text": text}, schemas.Mismatch("error banner", "absent", text)
			}
			return nil, nil
		}},
	}
}

func buildLoginInvalid(env *Env) []Step {
	login := env.Pages.Login()
	user := env.Cfg.Creds.ValidUser
	expected := env.Cfg.Messages.InvalidCredentials

	var urlBefore string

	return []Step{
		{ID: "open-login-page", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := login.Go(ctx); err != nil {
				return nil, err
			}
			var err error
			urlBefore, err = env.Browser.CurrentURL(ctx)
			return schemas.Evidence{"url": urlBefore}, err
		}},
		{ID: "submit-wrong-password", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, login.Login(ctx, user.Email, "WrongPassword123")
		}},
		{ID: "error-text-matches", Run: func(ctx context.Context) (schemas.Evidence, error) {
			text, err := login.AwaitError(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"expected": expected, "observed": text}
			if text != expected {
				return ev, schemas.Mismatch("login error text", expected, text)
			}
			return ev, nil
		}},
		{ID: "url-unchanged", Run: func(ctx context.Context) (schemas.Evidence, error) {
			url, err := env.Browser.CurrentURL(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"expected": urlBefore, "observed": url}
			if url != urlBefore {
				return ev, schemas.Mismatch("url after failed login", urlBefore, url)
			}
			return ev, nil
		}},
		{ID: "no-session-cookie", Run: func(ctx context.Context) (schemas.Evidence, error) {
			bag, err := env.Browser.SnapshotCookies(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"cookies": bag.Names()}
			if bag.HasNameContaining(sessionCookieFragment) {
				return ev, schemas.Mismatch("session cookie", "absent", bag.Names())
			}
			return ev, nil
		}},
	}
}

func buildLoginLockout(env *Env) []Step {
	login := env.Pages.Login()
	user := env.Cfg.Creds.LockedUser
	standard := env.Cfg.Messages.InvalidCredentials
	locked := env.Cfg.Messages.AccountLocked

	steps := []Step{
		{ID: "open-login-page", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, login.Go(ctx)
		}},
	}

	attempt := func(n int, password, expected string) Step {
		return Step{
			ID: fmt.Sprintf("failed-attempt-%d", n),
			Run: func(ctx context.Context) (schemas.Evidence, error) {
				if err := login.Login(ctx, user.Email, password); err != nil {
					return nil, err
				}
				text, err := login.AwaitError(ctx)
				if err != nil {
					return nil, err
				}
				ev := schemas.Evidence{"expected": expected, "observed": text}
				if text != expected {
					return ev, schemas.Mismatch(fmt.Sprintf("error after attempt %d", n), expected, text)
				}
				return ev, nil
			},
		}
	}

	// Attempts 1-4 keep showing the standard error; the fifth locks.
	for i := 1; i <= 4; i++ {
		steps = append(steps, attempt(i, fmt.Sprintf("WrongPass%d", i), standard))
	}
	steps = append(steps, attempt(5, "WrongPass5", locked))

	steps = append(steps, Step{
		ID: "correct-password-still-locked",
		Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := login.Login(ctx, user.Email, user.Password); err != nil {
				return nil, err
			}
			text, err := login.AwaitError(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"expected": locked, "observed": text}
			if text != locked {
				return ev, schemas.Mismatch("error after lockout with correct password", locked, text)
			}
			return ev, nil
		},
	})

	steps = append(steps, Step{
		ID:              "audit-log-records-failures",
		ContinueOnError: true,
		Run: func(ctx context.Context) (schemas.Evidence, error) {
			line, err := env.Logs.FindLine(ctx, logscan.Query{
				Path:           env.Cfg.Logs.AuthAudit,
				Substring:      env.Cfg.Messages.FailedLoginAudit,
				RequiredFields: []string{user.Email},
				Window:         logscan.Last(2 * time.Minute),
			})
			if err != nil {
				return nil, err
			}
			return schemas.Evidence{"line": line}, nil
		},
	})

	return steps
}

func buildRememberMe(env *Env) []Step {
	login := env.Pages.Login()
	dashboard := env.Pages.Dashboard()
	user := env.Cfg.Creds.ValidUser

	var bag schemas.CookieBag

	return []Step{
		{ID: "open-login-page", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, login.Go(ctx)
		}},
		{ID: "login-remember-me", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := login.LoginRememberMe(ctx, user.Email, user.Password); err != nil {
				return nil, err
			}
			return nil, dashboard.AwaitVisible(ctx)
		}},
		{ID: "snapshot-cookies", Run: func(ctx context.Context) (schemas.Evidence, error) {
			var err error
			bag, err = env.Browser.SnapshotCookies(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"cookies": bag.Names()}
			if !bag.HasNameContaining(sessionCookieFragment) {
				return ev, schemas.Mismatch("session cookie", "name containing "+sessionCookieFragment, bag.Names())
			}
			return ev, nil
		}},
		{ID: "recycle-session", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.Browser.Recycle(ctx)
		}},
		{ID: "restore-cookies", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.Browser.RestoreCookies(ctx, bag)
		}},
		{ID: "dashboard-without-login", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := env.Browser.Navigate(ctx, env.Cfg.AUT.BaseURL); err != nil {
				return nil, err
			}
			if err := dashboard.AwaitVisible(ctx); err != nil {
				return nil, err
			}
			formShown, err := login.FormVisible(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"login_form_visible": formShown}
			if formShown {
				return ev, schemas.Mismatch("login form after restore", "absent", "visible")
			}
			return ev, nil
		}},
	}
}

func buildNoRememberMe(env *Env) []Step {
	login := env.Pages.Login()
	dashboard := env.Pages.Dashboard()
	user := env.Cfg.Creds.ValidUser

	return []Step{
		{ID: "open-login-page", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, login.Go(ctx)
		}},
		{ID: "login-plain", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := login.Login(ctx, user.Email, user.Password); err != nil {
				return nil, err
			}
			return nil, dashboard.AwaitVisible(ctx)
		}},
		{ID: "recycle-session", Run: func(ctx context.Context) (schemas.Evidence, error) {
			return nil, env.Browser.Recycle(ctx)
		}},
		{ID: "login-form-returns", Run: func(ctx context.Context) (schemas.Evidence, error) {
			if err := env.Browser.Navigate(ctx, env.Cfg.AUT.BaseURL); err != nil {
				return nil, err
			}
			if err := login.WaitVisible(ctx, "login_form"); err != nil {
				return nil, err
			}
			dashShown, err := dashboard.Visible(ctx)
			if err != nil {
				return nil, err
			}
			ev := schemas.Evidence{"dashboard_visible": dashShown}
			if dashShown {
				return ev, schemas.Mismatch("dashboard after recycle without cookies", "absent", "visible")
			}
			return ev, nil
		}},
	}
}

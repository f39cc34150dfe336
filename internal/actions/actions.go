// Package actions implements the server actions invoked by the login page:
// validate, call the auth collaborator, and fold the outcome into a single
// JSON-friendly Result.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/partyline-dev/partyline/internal/auth"
	"github.com/partyline-dev/partyline/internal/models"
	"github.com/partyline-dev/partyline/internal/validation"
)

// Authenticator is the slice of the auth collaborator the actions use
type Authenticator interface {
	SignUpEmail(ctx context.Context, headers http.Header, body auth.SignUpBody) (*auth.AuthResult, error)
	SignInEmailResponse(ctx context.Context, headers http.Header, body auth.SignInBody) (*http.Response, error)
	SignOut(ctx context.Context, headers http.Header) (*auth.SignOutResult, error)
	GetSession(ctx context.Context, headers http.Header) (*auth.SessionData, error)
	SetRole(ctx context.Context, userID string, role models.Role) (*models.User, error)
}

// RequestInfo is the request an action runs against and the headers of the
// response it may add to
type RequestInfo struct {
	Request        *http.Request
	ResponseHeader http.Header
}

func (ri RequestInfo) headers() http.Header {
	if ri.Request == nil {
		return http.Header{}
	}
	return ri.Request.Header
}

// Result is the uniform action outcome
type Result struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Actions binds the server actions to an auth collaborator
type Actions struct {
	auth   Authenticator
	logger zerolog.Logger
}

// New creates the action set
func New(authn Authenticator, logger zerolog.Logger) *Actions {
	return &Actions{auth: authn, logger: logger}
}

func invalid[T any](v validation.Result[T]) Result {
	return Result{Errors: v.Errors, Error: v.Message}
}

// SignUp registers a user and signs them in
func (a *Actions) SignUp(ctx context.Context, ri RequestInfo, input validation.SignUpInput) Result {
	v := validation.Validate(input)
	if !v.Success {
		return invalid(v)
	}

	res, err := a.auth.SignUpEmail(ctx, ri.headers(), auth.SignUpBody{
		Email:    v.Data.Email,
		Password: v.Data.Password,
		Name:     v.Data.Name,
	})
	if err != nil {
		a.logger.Debug().Err(err).Msg("Sign up failed")
		return Result{Error: errorMessage(err, "Sign up failed")}
	}

	propagateCookies(ri.ResponseHeader, res.Cookies)
	return Result{Success: true, Data: res}
}

// SignIn verifies credentials and forwards the session cookie from the
// collaborator's raw response
func (a *Actions) SignIn(ctx context.Context, ri RequestInfo, input validation.SignInInput) Result {
	v := validation.Validate(input)
	if !v.Success {
		return invalid(v)
	}

	resp, err := a.auth.SignInEmailResponse(ctx, ri.headers(), auth.SignInBody{
		Email:    v.Data.Email,
		Password: v.Data.Password,
	})
	if err != nil {
		a.logger.Debug().Err(err).Msg("Sign in failed")
		return Result{Error: errorMessage(err, "Sign in failed")}
	}
	defer resp.Body.Close()

	if ri.ResponseHeader != nil {
		for _, c := range resp.Header.Values("Set-Cookie") {
			ri.ResponseHeader.Add("Set-Cookie", c)
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Error: errorMessage(err, "Sign in failed")}
	}

	var data map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return Result{Error: errorMessage(fmt.Errorf("failed to decode sign-in response: %w", err), "Sign in failed")}
		}
	}
	return Result{Success: true, Data: data}
}

// SignOut ends the current session
func (a *Actions) SignOut(ctx context.Context, ri RequestInfo) Result {
	res, err := a.auth.SignOut(ctx, ri.headers())
	if err != nil {
		a.logger.Debug().Err(err).Msg("Sign out failed")
		return Result{Error: errorMessage(err, "Sign out failed")}
	}

	propagateCookies(ri.ResponseHeader, res.Cookies)
	return Result{Success: true}
}

// GetSession returns the current session, or no data when signed out
func (a *Actions) GetSession(ctx context.Context, ri RequestInfo) Result {
	data, err := a.auth.GetSession(ctx, ri.headers())
	if err != nil {
		return Result{Error: errorMessage(err, "Failed to get session")}
	}
	if data == nil {
		return Result{Success: true}
	}
	propagateCookies(ri.ResponseHeader, data.Cookies)
	return Result{Success: true, Data: data}
}

// SetRole changes another user's role. Only admins may call it.
func (a *Actions) SetRole(ctx context.Context, ri RequestInfo, input validation.SetRoleInput) Result {
	v := validation.Validate(input)
	if !v.Success {
		return invalid(v)
	}

	sess, err := a.auth.GetSession(ctx, ri.headers())
	if err != nil {
		return Result{Error: errorMessage(err, "Failed to get session")}
	}
	if sess == nil || models.ParseRole(sess.User.Role) != models.RoleAdmin {
		return Result{Error: http.StatusText(http.StatusForbidden)}
	}
	propagateCookies(ri.ResponseHeader, sess.Cookies)

	user, err := a.auth.SetRole(ctx, v.Data.UserID, models.ParseRole(v.Data.Role))
	if err != nil {
		return Result{Error: errorMessage(err, "Failed to set role")}
	}

	a.logger.Info().
		Str("admin_id", sess.User.ID).
		Str("user_id", user.ID).
		Str("role", user.Role).
		Msg("Role changed")
	return Result{Success: true, Data: user}
}

func propagateCookies(h http.Header, cookies []*http.Cookie) {
	if h == nil {
		return
	}
	for _, c := range cookies {
		if v := c.String(); v != "" {
			h.Add("Set-Cookie", v)
		}
	}
}

// errorMessage pulls a human message out of a collaborator error. Those
// errors carry JSON like {"code":..,"message":..} or {"error":..}.
func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	msg := err.Error()

	var body map[string]any
	if json.Unmarshal([]byte(msg), &body) == nil {
		if m, ok := body["message"].(string); ok && m != "" {
			return m
		}
		switch e := body["error"].(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				return m
			}
		}
	}

	if msg != "" {
		return msg
	}
	return fallback
}

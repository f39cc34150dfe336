package interruptors

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/partyline-dev/partyline/internal/auth"
	"github.com/partyline-dev/partyline/internal/models"
)

// SessionResolver looks up the session carried by request headers.
// (nil, nil) means no session.
type SessionResolver interface {
	GetSession(ctx context.Context, headers http.Header) (*auth.SessionData, error)
}

// Role allow-sets, most restrictive first
var (
	AdminRoles  = []models.Role{models.RoleAdmin}
	HostRoles   = []models.Role{models.RoleAdmin, models.RoleHost}
	PlayerRoles = []models.Role{models.RoleAdmin, models.RoleHost, models.RolePlayer, models.RoleUser}
)

// Gate builds the authentication interruptors over a session resolver
type Gate struct {
	sessions SessionResolver
	logger   zerolog.Logger
}

// NewGate creates a gate
func NewGate(sessions SessionResolver, logger zerolog.Logger) *Gate {
	return &Gate{sessions: sessions, logger: logger}
}

// lookup resolves the request's session into a patch. Lookup errors are
// reported as "no session".
func (g *Gate) lookup(r *http.Request) *Patch {
	data, err := g.sessions.GetSession(r.Context(), r.Header)
	if err != nil {
		g.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Session lookup failed")
		return nil
	}
	if data == nil || data.User.ID == "" {
		return nil
	}

	patch := &Patch{
		User: &User{
			ID:    data.User.ID,
			Name:  data.User.Name,
			Email: data.User.Email,
			Image: data.User.Image,
			Role:  models.ParseRole(data.User.Role),
		},
		Session: &SessionSnapshot{
			ID:        data.Session.ID,
			UserID:    data.Session.UserID,
			ExpiresAt: data.Session.ExpiresAt,
		},
	}
	for _, c := range data.Cookies {
		if patch.Header == nil {
			patch.Header = http.Header{}
		}
		patch.Header.Add("Set-Cookie", c.String())
	}
	return patch
}

// RequireAuth redirects to the login page unless the request carries a
// valid session
func (g *Gate) RequireAuth(r *http.Request, _ AppContext) Outcome {
	patch := g.lookup(r)
	if patch == nil {
		return Outcome{Response: Redirect(LoginPath)}
	}
	return Outcome{Patch: patch}
}

// OptionalAuth sets the user when a session is present and never stops
// the chain
func (g *Gate) OptionalAuth(r *http.Request, _ AppContext) Outcome {
	return Outcome{Patch: g.lookup(r)}
}

// HasRole returns an interruptor that requires authentication and then one
// of roles. The auth redirect passes through unchanged; a role mismatch is
// a 403.
func (g *Gate) HasRole(roles ...models.Role) Interruptor {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(r *http.Request, ctx AppContext) Outcome {
		out := g.RequireAuth(r, ctx)
		if out.Response != nil {
			return out
		}

		// A denial still delivers any cookie the session lookup refreshed
		deny := func() Outcome {
			res := Forbidden()
			if out.Patch != nil && len(out.Patch.Header) > 0 {
				res.Header = out.Patch.Header.Clone()
			}
			return Outcome{Response: res}
		}

		ctx = ctx.Apply(out.Patch)
		if ctx.User == nil || !ctx.User.Role.Valid() {
			return deny()
		}
		if _, ok := allowed[ctx.User.Role]; !ok {
			g.logger.Debug().
				Str("user_id", ctx.User.ID).
				Str("role", ctx.User.Role.String()).
				Str("path", r.URL.Path).
				Msg("Role not permitted")
			return deny()
		}
		return out
	}
}

// IsAdmin admits admins only
func (g *Gate) IsAdmin(r *http.Request, ctx AppContext) Outcome {
	return g.HasRole(AdminRoles...)(r, ctx)
}

// IsHost admits admins and hosts
func (g *Gate) IsHost(r *http.Request, ctx AppContext) Outcome {
	return g.HasRole(HostRoles...)(r, ctx)
}

// IsPlayer admits every role
func (g *Gate) IsPlayer(r *http.Request, ctx AppContext) Outcome {
	return g.HasRole(PlayerRoles...)(r, ctx)
}

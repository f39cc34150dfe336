// Package interruptors holds the per-route request gates that run before a
// page renders. Each gate sees an immutable AppContext and returns an
// Outcome: a patch to apply, a response that ends the chain, or neither.
package interruptors

import (
	"net/http"
	"time"

	"github.com/partyline-dev/partyline/internal/models"
)

// LoginPath is where unauthenticated requests are sent
const LoginPath = "/user/login"

// User is the request-scoped view of the signed-in user
type User struct {
	ID    string
	Name  string
	Email string
	Image *string
	Role  models.Role
}

// SessionSnapshot is the request-scoped view of the active session
type SessionSnapshot struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// AppContext is the per-request state threaded through a chain. Header
// collects response headers (refreshed cookies) that must reach the client
// whether the page renders or the chain stops early.
type AppContext struct {
	User    *User
	Session *SessionSnapshot
	Header  http.Header
}

// Patch is a set of context updates. Nil fields leave the context as is;
// Header values are added to those already collected.
type Patch struct {
	User    *User
	Session *SessionSnapshot
	Header  http.Header
}

// Apply returns ctx with p folded in
func (ctx AppContext) Apply(p *Patch) AppContext {
	if p == nil {
		return ctx
	}
	if p.User != nil {
		ctx.User = p.User
	}
	if p.Session != nil {
		ctx.Session = p.Session
	}
	if len(p.Header) > 0 {
		h := ctx.Header.Clone()
		if h == nil {
			h = http.Header{}
		}
		for k, vs := range p.Header {
			for _, v := range vs {
				h.Add(k, v)
			}
		}
		ctx.Header = h
	}
	return ctx
}

// WriteHeader copies the collected response headers onto w
func (ctx AppContext) WriteHeader(w http.ResponseWriter) {
	for k, vs := range ctx.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
}

// Response ends a chain. It is sent as-is and the page does not render.
type Response struct {
	Status int
	Header http.Header
	Body   string
}

// Redirect returns a 302 to location
func Redirect(location string) *Response {
	h := http.Header{}
	h.Set("Location", location)
	return &Response{Status: http.StatusFound, Header: h}
}

// Forbidden returns a bare 403
func Forbidden() *Response {
	return &Response{Status: http.StatusForbidden, Body: http.StatusText(http.StatusForbidden)}
}

// Write sends the response
func (r *Response) Write(w http.ResponseWriter) {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if r.Body != "" && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(r.Status)
	if r.Body != "" {
		_, _ = w.Write([]byte(r.Body))
	}
}

// Outcome is what an interruptor hands back to the runner
type Outcome struct {
	Patch    *Patch
	Response *Response
}

// Continue is the empty outcome
var Continue = Outcome{}

// Interruptor is a single gate in a route's chain
type Interruptor func(r *http.Request, ctx AppContext) Outcome

// Run executes chain in order starting from an empty context. The first
// outcome carrying a Response stops the chain and is returned; otherwise
// every patch is applied before the next interruptor runs.
func Run(r *http.Request, chain ...Interruptor) (AppContext, *Response) {
	var ctx AppContext
	for _, in := range chain {
		out := in(r, ctx)
		if out.Response != nil {
			return ctx, out.Response
		}
		ctx = ctx.Apply(out.Patch)
	}
	return ctx, nil
}

package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"github.com/partyline-dev/partyline/internal/actions"
	"github.com/partyline-dev/partyline/internal/interruptors"
	"github.com/partyline-dev/partyline/internal/pages"
)

// maxActionBody caps server action payloads
const maxActionBody = 64 << 10

// PageHandler renders a route once its interruptors have passed
type PageHandler func(c *gin.Context, ctx interruptors.AppContext)

// Route binds a path to its interruptor chain and page
type Route struct {
	Method       string
	Path         string
	Interruptors []interruptors.Interruptor
	Page         PageHandler
}

// Prefix mounts routes under prefix
func Prefix(prefix string, routes []Route) []Route {
	prefix = strings.TrimRight(prefix, "/")
	out := make([]Route, len(routes))
	for i, r := range routes {
		r.Path = prefix + r.Path
		out[i] = r
	}
	return out
}

func (s *Server) routes() []Route {
	routes := []Route{
		{Path: "/", Page: s.hello},
		{Path: "/protected", Interruptors: []interruptors.Interruptor{s.gate.RequireAuth}, Page: s.home},
		{Path: "/admin", Interruptors: []interruptors.Interruptor{s.gate.IsAdmin}, Page: s.admin},
	}
	return append(routes, Prefix("/user", s.userRoutes())...)
}

func (s *Server) userRoutes() []Route {
	return []Route{
		{Path: "/login", Interruptors: []interruptors.Interruptor{s.gate.OptionalAuth}, Page: s.login},
		{Path: "/logout", Page: s.logout},
	}
}

// mount registers r on the router. The chain runs first; a short-circuit
// response is written as-is and the page is skipped.
func (s *Server) mount(r Route) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	chain := r.Interruptors
	page := r.Page
	s.router.Handle(method, r.Path, func(c *gin.Context) {
		ctx, res := interruptors.Run(c.Request, chain...)
		ctx.WriteHeader(c.Writer)
		if res != nil {
			res.Write(c.Writer)
			c.Abort()
			return
		}
		page(c, ctx)
	})
}

// render writes component inside the document shell
func (s *Server) render(c *gin.Context, status int, title string, component templ.Component) {
	var buf bytes.Buffer
	ctx := templ.WithChildren(c.Request.Context(), component)
	if err := pages.Document(title).Render(ctx, &buf); err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) hello(c *gin.Context, _ interruptors.AppContext) {
	c.String(http.StatusOK, "Hello, World!")
}

func (s *Server) home(c *gin.Context, ctx interruptors.AppContext) {
	s.render(c, http.StatusOK, "Home", pages.Home(*ctx.User))
}

func (s *Server) login(c *gin.Context, ctx interruptors.AppContext) {
	if ctx.User != nil {
		c.Redirect(http.StatusFound, "/protected")
		return
	}
	s.render(c, http.StatusOK, "Sign in", pages.Login())
}

func (s *Server) admin(c *gin.Context, _ interruptors.AppContext) {
	users, err := s.auth.ListUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	s.render(c, http.StatusOK, "Users", pages.Admin(users))
}

// logout ends the session and always lands on the home page
func (s *Server) logout(c *gin.Context, _ interruptors.AppContext) {
	res, err := s.auth.SignOut(c.Request.Context(), c.Request.Header)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sign out failed")
	} else {
		for _, ck := range res.Cookies {
			http.SetCookie(c.Writer, ck)
		}
	}
	c.Redirect(http.StatusFound, "/")
}

// @Summary Invoke a server action
// @Description Runs signUp, signIn, signOut, getSession or setRole. Always 200 with a result body.
// @Tags actions
// @Accept json
// @Produce json
// @Param name path string true "Action name"
// @Success 200 {object} actions.Result
// @Failure 404 {object} map[string]interface{}
// @Router /_actions/{name} [post]
func (s *Server) handleAction(c *gin.Context) {
	name := c.Param("name")

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxActionBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ri := actions.RequestInfo{Request: c.Request, ResponseHeader: c.Writer.Header()}
	result, ok := s.actions.Dispatch(c.Request.Context(), name, ri, raw)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown action"})
		return
	}

	c.JSON(http.StatusOK, result)
}

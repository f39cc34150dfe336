package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the auth HTTP API under /api/auth
func (s *Service) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/auth")
	g.Use(s.originCheck())
	{
		g.POST("/sign-up/email", s.handleSignUp)
		g.POST("/sign-in/email", s.handleSignIn)
		g.POST("/sign-out", s.handleSignOut)
		g.GET("/get-session", s.handleGetSession)
	}
}

// originCheck rejects cross-site state changes. Requests without an
// Origin header (server-to-server, curl) pass.
func (s *Service) originCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" || s.TrustedOrigin(origin) {
			c.Next()
			return
		}

		s.logger.Warn().Str("origin", origin).Str("path", c.Request.URL.Path).Msg("Rejected untrusted origin")
		respondWithError(c, ErrInvalidOrigin)
	}
}

// TrustedOrigin reports whether origin is the base URL or a configured
// trusted origin
func (s *Service) TrustedOrigin(origin string) bool {
	origin = strings.TrimRight(origin, "/")
	if base, err := url.Parse(s.opts.BaseURL); err == nil && base.Host != "" {
		if origin == base.Scheme+"://"+base.Host {
			return true
		}
	}
	for _, o := range s.opts.TrustedOrigins {
		if strings.TrimRight(o, "/") == origin {
			return true
		}
	}
	return false
}

// @Summary Email sign-up
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpBody true "Sign-up request"
// @Success 200 {object} AuthResult
// @Failure 400 {object} APIError
// @Failure 422 {object} APIError
// @Router /api/auth/sign-up/email [post]
func (s *Service) handleSignUp(c *gin.Context) {
	var body SignUpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST_BODY", "message": err.Error()})
		return
	}

	res, err := s.SignUpEmail(c.Request.Context(), c.Request.Header, body)
	if err != nil {
		respondWithError(c, err)
		return
	}

	setCookies(c, res.Cookies)
	c.JSON(http.StatusOK, res)
}

// @Summary Email sign-in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignInBody true "Sign-in request"
// @Success 200 {object} AuthResult
// @Failure 401 {object} APIError
// @Router /api/auth/sign-in/email [post]
func (s *Service) handleSignIn(c *gin.Context) {
	var body SignInBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST_BODY", "message": err.Error()})
		return
	}

	res, err := s.SignInEmail(c.Request.Context(), c.Request.Header, body)
	if err != nil {
		respondWithError(c, err)
		return
	}

	setCookies(c, res.Cookies)
	c.JSON(http.StatusOK, res)
}

// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} SignOutResult
// @Router /api/auth/sign-out [post]
func (s *Service) handleSignOut(c *gin.Context) {
	res, err := s.SignOut(c.Request.Context(), c.Request.Header)
	if err != nil {
		respondWithError(c, err)
		return
	}

	setCookies(c, res.Cookies)
	c.JSON(http.StatusOK, res)
}

// @Summary Current session
// @Description Returns the session and user, or null when signed out
// @Tags auth
// @Produce json
// @Success 200 {object} SessionData
// @Router /api/auth/get-session [get]
func (s *Service) handleGetSession(c *gin.Context) {
	data, err := s.GetSession(c.Request.Context(), c.Request.Header)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if data == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	setCookies(c, data.Cookies)
	c.JSON(http.StatusOK, data)
}

func setCookies(c *gin.Context, cookies []*http.Cookie) {
	for _, ck := range cookies {
		http.SetCookie(c.Writer, ck)
	}
}

// respondWithError writes err as {code, message}, hiding internal failures
func respondWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Err != nil {
			c.Error(apiErr.Err)
		}
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"code": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_SERVER_ERROR", "message": "Internal server error"})
}

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *ServiceSuite) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s.svc.RegisterRoutes(r)
	return r
}

func (s *ServiceSuite) TestHandlerSignUpAndGetSession() {
	r := s.router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-up/email",
		strings.NewReader(`{"email":"web@example.com","password":"password123","name":"Web"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/get-session", nil)
	req.AddCookie(cookies[0])
	r.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("web@example.com", body.User.Email)
}

func (s *ServiceSuite) TestHandlerGetSessionReissuesCookieAfterUpdateAge() {
	res := s.signUp("slide@example.com")
	s.now = s.now.Add(25 * time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/get-session", nil)
	req.AddCookie(res.Cookies[0])
	s.router().ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal("partyline.session_token", cookies[0].Name)
	s.Equal(7*24*60*60, cookies[0].MaxAge)
}

func (s *ServiceSuite) TestHandlerGetSessionSignedOut() {
	w := httptest.NewRecorder()
	s.router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/get-session", nil))

	s.Equal(http.StatusOK, w.Code)
	s.Equal("null", w.Body.String())
}

func (s *ServiceSuite) TestHandlerRejectsUntrustedOrigin() {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in/email",
		strings.NewReader(`{"email":"a@example.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example")
	s.router().ServeHTTP(w, req)

	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "INVALID_ORIGIN")
}

func (s *ServiceSuite) TestHandlerSignInFailure() {
	s.signUp("q@example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in/email",
		strings.NewReader(`{"email":"q@example.com","password":"nottheone1"}`))
	req.Header.Set("Content-Type", "application/json")
	s.router().ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("Invalid email or password", body["message"])
}

func (s *ServiceSuite) TestTrustedOrigin() {
	s.True(s.svc.TrustedOrigin("http://localhost:5173/"))
	s.False(s.svc.TrustedOrigin("http://localhost:9999"))
}

package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieOptions is the session cookie policy
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// cookieClaims is the signed payload of the session cookie
type cookieClaims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// cookieSigner signs and verifies session cookie values
type cookieSigner struct {
	secret []byte
}

func newCookieSigner(secret string) (*cookieSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth secret not configured")
	}
	return &cookieSigner{secret: []byte(secret)}, nil
}

// Sign wraps a session token in an HS256 JWT
func (s *cookieSigner) Sign(token string, issuedAt time.Time) (string, error) {
	claims := cookieClaims{
		SessionToken: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and returns the session token.
// Expiry is enforced by the session row, not the cookie.
func (s *cookieSigner) Verify(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &cookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse session cookie: %w", err)
	}

	claims, ok := token.Claims.(*cookieClaims)
	if !ok || !token.Valid || claims.SessionToken == "" {
		return "", fmt.Errorf("invalid session cookie")
	}
	return claims.SessionToken, nil
}

func (s *Service) sessionCookie(value string) *http.Cookie {
	c := s.opts.Cookie
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     c.Path,
		Domain:   c.Domain,
		MaxAge:   int(s.opts.SessionExpiresIn.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func (s *Service) expiredCookie() *http.Cookie {
	c := s.sessionCookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// sessionToken extracts and verifies the session token carried in headers
func (s *Service) sessionToken(headers http.Header) (string, bool) {
	req := http.Request{Header: headers}
	cookie, err := req.Cookie(s.opts.Cookie.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	token, err := s.signer.Verify(cookie.Value)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Rejected session cookie")
		return "", false
	}
	return token, true
}

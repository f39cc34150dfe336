// Package auth is the email/password authentication collaborator: it owns
// credential hashing, session issuance and the signed session cookie.
// Callers hand it request headers and get back payloads plus the cookies
// they must forward; it never writes to a response itself.
package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/partyline-dev/partyline/internal/models"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// Options configures the auth service
type Options struct {
	BaseURL          string
	TrustedOrigins   []string
	Secret           string
	Cookie           CookieOptions
	SessionExpiresIn time.Duration
	SessionUpdateAge time.Duration
	IPAddressHeaders []string
}

// DefaultOptions returns a 7 day session refreshed daily, with a Lax,
// non-secure cookie
func DefaultOptions() Options {
	return Options{
		BaseURL:        "http://localhost:5173",
		TrustedOrigins: []string{"http://localhost:5173"},
		Cookie: CookieOptions{
			Name:     "partyline.session_token",
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		},
		SessionExpiresIn: 7 * 24 * time.Hour,
		SessionUpdateAge: 24 * time.Hour,
		IPAddressHeaders: []string{"cf-connecting-ip", "x-forwarded-for"},
	}
}

// SignUpBody is the sign-up request
type SignUpBody struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Image    *string `json:"image,omitempty"`
}

// SignInBody is the sign-in request
type SignInBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by sign-up and sign-in
type AuthResult struct {
	Token   string         `json:"token"`
	User    models.User    `json:"user"`
	Cookies []*http.Cookie `json:"-"`
}

// SignOutResult carries the cookie that clears the session
type SignOutResult struct {
	Success bool           `json:"success"`
	Cookies []*http.Cookie `json:"-"`
}

// SessionData is a resolved session and its user. Cookies is set when the
// expiry slid forward and the browser must receive a fresh session cookie.
type SessionData struct {
	Session models.Session `json:"session"`
	User    models.User    `json:"user"`
	Cookies []*http.Cookie `json:"-"`
}

// Service handles authentication and session management
type Service struct {
	db     *gorm.DB
	opts   Options
	signer *cookieSigner
	logger zerolog.Logger
	now    func() time.Time
}

// New creates an auth service. Options left zero fall back to DefaultOptions.
func New(db *gorm.DB, opts Options, logger zerolog.Logger) (*Service, error) {
	def := DefaultOptions()
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = def.Cookie.Name
	}
	if opts.Cookie.Path == "" {
		opts.Cookie.Path = def.Cookie.Path
	}
	if opts.Cookie.SameSite == 0 {
		opts.Cookie.SameSite = def.Cookie.SameSite
	}
	if opts.SessionExpiresIn == 0 {
		opts.SessionExpiresIn = def.SessionExpiresIn
	}
	if opts.SessionUpdateAge == 0 {
		opts.SessionUpdateAge = def.SessionUpdateAge
	}
	if opts.IPAddressHeaders == nil {
		opts.IPAddressHeaders = def.IPAddressHeaders
	}

	signer, err := newCookieSigner(opts.Secret)
	if err != nil {
		return nil, err
	}

	return &Service{
		db:     db,
		opts:   opts,
		signer: signer,
		logger: logger,
		now:    time.Now,
	}, nil
}

// CookieName returns the session cookie name
func (s *Service) CookieName() string {
	return s.opts.Cookie.Name
}

// LoadOrCreateSecret returns the persisted auth secret, generating and
// storing one on first use
func LoadOrCreateSecret(db *gorm.DB) (string, error) {
	var cfg models.Config
	err := db.First(&cfg).Error
	if err == nil {
		return cfg.AuthSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	// 64 hex characters = 32 bytes of randomness
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate auth secret: %w", err)
	}

	cfg = models.Config{AuthSecret: hex.EncodeToString(secret)}
	if err := db.Create(&cfg).Error; err != nil {
		return "", fmt.Errorf("failed to store auth secret: %w", err)
	}
	return cfg.AuthSecret, nil
}

// SignUpEmail registers a credential user and signs them in
func (s *Service) SignUpEmail(ctx context.Context, headers http.Header, body SignUpBody) (*AuthResult, error) {
	email, err := checkCredentials(body.Email, body.Password)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, ErrFailedToCreateUser.with(err)
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	hash, err := HashPassword(body.Password)
	if err != nil {
		return nil, ErrFailedToCreateUser.with(err)
	}

	user := models.User{
		Name:  strings.TrimSpace(body.Name),
		Email: email,
		Image: body.Image,
		Role:  models.RoleUser.String(),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, ErrFailedToCreateUser.with(err)
	}

	account := models.Account{
		UserID:     user.ID,
		AccountID:  user.ID,
		ProviderID: models.CredentialProvider,
		Password:   hash,
	}
	if err := db.Create(&account).Error; err != nil {
		// No transactions over D1 HTTP; undo the user row by hand
		if delErr := db.Delete(&models.User{}, "id = ?", user.ID).Error; delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", user.ID).Msg("Failed to remove user after account creation failed")
		}
		return nil, ErrFailedToCreateUser.with(err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User signed up")

	return s.startSession(ctx, headers, user)
}

// SignInEmail verifies credentials and opens a session
func (s *Service) SignInEmail(ctx context.Context, headers http.Header, body SignInBody) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(body.Email))
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmailOrPassword
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	var account models.Account
	err := db.Where("user_id = ? AND provider_id = ?", user.ID, models.CredentialProvider).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmailOrPassword
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if err := VerifyPassword(body.Password, account.Password); err != nil {
		return nil, ErrInvalidEmailOrPassword
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User signed in")

	return s.startSession(ctx, headers, user)
}

// SignInEmailResponse is SignInEmail returning the raw HTTP response,
// with the session cookie in its Set-Cookie header
func (s *Service) SignInEmailResponse(ctx context.Context, headers http.Header, body SignInBody) (*http.Response, error) {
	res, err := s.SignInEmail(ctx, headers, body)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(struct {
		Redirect bool        `json:"redirect"`
		Token    string      `json:"token"`
		User     models.User `json:"user"`
	}{Token: res.Token, User: res.User})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-in response: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	for _, c := range res.Cookies {
		header.Add("Set-Cookie", c.String())
	}

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(payload)),
		ContentLength: int64(len(payload)),
	}, nil
}

// SignOut deletes the session named by the cookie in headers, if any
func (s *Service) SignOut(ctx context.Context, headers http.Header) (*SignOutResult, error) {
	if token, ok := s.sessionToken(headers); ok {
		if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
			return nil, fmt.Errorf("failed to delete session: %w", err)
		}
	}

	return &SignOutResult{Success: true, Cookies: []*http.Cookie{s.expiredCookie()}}, nil
}

// GetSession resolves the session carried in headers. A missing, invalid or
// expired session yields (nil, nil); only storage failures are errors.
func (s *Service) GetSession(ctx context.Context, headers http.Header) (*SessionData, error) {
	token, ok := s.sessionToken(headers)
	if !ok {
		return nil, nil
	}

	db := s.db.WithContext(ctx)

	var sess models.Session
	if err := db.Preload("User").Where("token = ?", token).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now()
	if sess.Expired(now) {
		if err := db.Delete(&models.Session{}, "id = ?", sess.ID).Error; err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to delete expired session")
		}
		return nil, nil
	}

	data := &SessionData{Session: sess, User: sess.User}

	// Slide the expiry once the session is older than the update age
	issuedAt := sess.ExpiresAt.Add(-s.opts.SessionExpiresIn)
	if !now.Before(issuedAt.Add(s.opts.SessionUpdateAge)) {
		s.refreshSession(db, data, token, now)
	}

	return data, nil
}

// refreshSession moves the expiry forward and re-issues the cookie so the
// browser keeps it as long as the row lives. Failures keep the old expiry.
func (s *Service) refreshSession(db *gorm.DB, data *SessionData, token string, now time.Time) {
	expiresAt := now.Add(s.opts.SessionExpiresIn)
	if err := db.Model(&data.Session).Update("expires_at", expiresAt).Error; err != nil {
		s.logger.Warn().Err(err).Str("session_id", data.Session.ID).Msg("Failed to refresh session")
		return
	}
	data.Session.ExpiresAt = expiresAt

	value, err := s.signer.Sign(token, now)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", data.Session.ID).Msg("Failed to re-sign session cookie")
		return
	}
	data.Cookies = []*http.Cookie{s.sessionCookie(value)}
}

// SetRole changes a user's role
func (s *Service) SetRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.User{}).Where("id = ?", userID).Update("role", role.String())
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := models.FindByID(db, userID, &user); err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("role", role.String()).Msg("User role updated")
	return &user, nil
}

// UserByEmail looks a user up by email
func (s *Service) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// ListUsers returns all users, newest first
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// PurgeExpiredSessions deletes every session past its expiry
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Service) startSession(ctx context.Context, headers http.Header, user models.User) (*AuthResult, error) {
	token, err := randomToken()
	if err != nil {
		return nil, ErrFailedToCreateSession.with(err)
	}

	now := s.now()
	sess := models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.opts.SessionExpiresIn),
		IPAddress: s.clientIP(headers),
		UserAgent: headers.Get("User-Agent"),
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, ErrFailedToCreateSession.with(err)
	}

	value, err := s.signer.Sign(token, now)
	if err != nil {
		return nil, ErrFailedToCreateSession.with(err)
	}

	return &AuthResult{
		Token:   token,
		User:    user,
		Cookies: []*http.Cookie{s.sessionCookie(value)},
	}, nil
}

func (s *Service) clientIP(headers http.Header) string {
	for _, name := range s.opts.IPAddressHeaders {
		v := headers.Get(name)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		return strings.TrimSpace(first)
	}
	return ""
}

// checkCredentials applies the collaborator's own minimal input rules
func checkCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	if n > maxPasswordLength {
		return "", ErrPasswordTooLong
	}
	return email, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

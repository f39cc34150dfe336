package actions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyline-dev/partyline/internal/auth"
	"github.com/partyline-dev/partyline/internal/models"
	"github.com/partyline-dev/partyline/internal/validation"
)

type fakeAuth struct {
	signUps []auth.SignUpBody
	signIns []auth.SignInBody
	setRole []string

	session *auth.SessionData
	err     error
}

func (f *fakeAuth) SignUpEmail(_ context.Context, _ http.Header, body auth.SignUpBody) (*auth.AuthResult, error) {
	f.signUps = append(f.signUps, body)
	if f.err != nil {
		return nil, f.err
	}
	return &auth.AuthResult{
		Token:   "tok",
		User:    models.User{Email: body.Email, Name: body.Name},
		Cookies: []*http.Cookie{{Name: "partyline.session_token", Value: "signed", Path: "/"}},
	}, nil
}

func (f *fakeAuth) SignInEmailResponse(_ context.Context, _ http.Header, body auth.SignInBody) (*http.Response, error) {
	f.signIns = append(f.signIns, body)
	if f.err != nil {
		return nil, f.err
	}
	h := http.Header{}
	h.Add("Set-Cookie", "partyline.session_token=signed; Path=/; HttpOnly; SameSite=Lax")
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     h,
		Body:       io.NopCloser(bytes.NewBufferString(`{"token":"tok","user":{"email":"` + body.Email + `"}}`)),
	}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, _ http.Header) (*auth.SignOutResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.SignOutResult{
		Success: true,
		Cookies: []*http.Cookie{{Name: "partyline.session_token", Value: "", Path: "/", MaxAge: -1}},
	}, nil
}

func (f *fakeAuth) GetSession(_ context.Context, _ http.Header) (*auth.SessionData, error) {
	return f.session, f.err
}

func (f *fakeAuth) SetRole(_ context.Context, userID string, role models.Role) (*models.User, error) {
	f.setRole = append(f.setRole, userID+":"+role.String())
	u := &models.User{Role: role.String()}
	u.ID = userID
	return u, nil
}

func requestInfo() RequestInfo {
	return RequestInfo{
		Request:        httptest.NewRequest(http.MethodPost, "/_actions/test", nil),
		ResponseHeader: http.Header{},
	}
}

func TestSignUpInvalidInputSkipsCollaborator(t *testing.T) {
	tests := []struct {
		name  string
		input validation.SignUpInput
		field string
	}{
		{"short password", validation.SignUpInput{Email: "a@example.com", Password: "1234567", Name: "Alice"}, "password"},
		{"short name", validation.SignUpInput{Email: "a@example.com", Password: "password123", Name: "A"}, "name"},
		{"bad email", validation.SignUpInput{Email: "nope", Password: "password123", Name: "Alice"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAuth{}
			res := New(fa, zerolog.Nop()).SignUp(context.Background(), requestInfo(), tt.input)

			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Errors)
			assert.Contains(t, res.Errors, tt.field)
			assert.NotEmpty(t, res.Error)
			assert.Empty(t, fa.signUps)
		})
	}
}

func TestSignUpCallsCollaboratorOnceWithCoercedPayload(t *testing.T) {
	fa := &fakeAuth{}
	ri := requestInfo()

	res := New(fa, zerolog.Nop()).SignUp(context.Background(), ri, validation.SignUpInput{
		Email:    "  Alice@Example.COM ",
		Password: "password123",
		Name:     " Alice ",
	})

	assert.True(t, res.Success)
	require.Len(t, fa.signUps, 1)
	assert.Equal(t, "alice@example.com", fa.signUps[0].Email)
	assert.Equal(t, "Alice", fa.signUps[0].Name)
	assert.Equal(t, "password123", fa.signUps[0].Password)
	assert.Contains(t, ri.ResponseHeader.Get("Set-Cookie"), "partyline.session_token=signed")
}

func TestSignUpCollaboratorErrorMessage(t *testing.T) {
	fa := &fakeAuth{err: auth.ErrUserAlreadyExists}

	res := New(fa, zerolog.Nop()).SignUp(context.Background(), requestInfo(), validation.SignUpInput{
		Email: "a@example.com", Password: "password123", Name: "Alice",
	})

	assert.False(t, res.Success)
	assert.Equal(t, "User already exists", res.Error)
	assert.Len(t, fa.signUps, 1)
}

func TestSignInPropagatesSetCookie(t *testing.T) {
	fa := &fakeAuth{}
	ri := requestInfo()

	res := New(fa, zerolog.Nop()).SignIn(context.Background(), ri, validation.SignInInput{
		Email: "Bob@Example.com", Password: "password123",
	})

	require.True(t, res.Success)
	require.Len(t, fa.signIns, 1)
	assert.Equal(t, "bob@example.com", fa.signIns[0].Email)
	assert.Equal(t, "partyline.session_token=signed; Path=/; HttpOnly; SameSite=Lax", ri.ResponseHeader.Get("Set-Cookie"))

	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tok", data["token"])
}

func TestSignInFailure(t *testing.T) {
	fa := &fakeAuth{err: auth.ErrInvalidEmailOrPassword}
	ri := requestInfo()

	res := New(fa, zerolog.Nop()).SignIn(context.Background(), ri, validation.SignInInput{
		Email: "bob@example.com", Password: "password123",
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid email or password", res.Error)
	assert.Empty(t, ri.ResponseHeader.Values("Set-Cookie"))
}

func TestSignOut(t *testing.T) {
	ri := requestInfo()
	res := New(&fakeAuth{}, zerolog.Nop()).SignOut(context.Background(), ri)

	assert.True(t, res.Success)
	assert.Contains(t, ri.ResponseHeader.Get("Set-Cookie"), "Max-Age=0")
}

func TestGetSession(t *testing.T) {
	a := New(&fakeAuth{}, zerolog.Nop())
	res := a.GetSession(context.Background(), requestInfo())
	assert.True(t, res.Success)
	assert.Nil(t, res.Data)

	a = New(&fakeAuth{err: errors.New("database is locked")}, zerolog.Nop())
	res = a.GetSession(context.Background(), requestInfo())
	assert.False(t, res.Success)
	assert.Equal(t, "database is locked", res.Error)
}

func TestGetSessionForwardsRefreshedCookie(t *testing.T) {
	refreshed := &auth.SessionData{
		User:    models.User{Email: "a@example.com"},
		Cookies: []*http.Cookie{{Name: "partyline.session_token", Value: "fresh", MaxAge: 604800}},
	}
	ri := requestInfo()

	res := New(&fakeAuth{session: refreshed}, zerolog.Nop()).GetSession(context.Background(), ri)

	assert.True(t, res.Success)
	assert.Equal(t, "partyline.session_token=fresh; Max-Age=604800", ri.ResponseHeader.Get("Set-Cookie"))
}

func TestSetRoleRequiresAdmin(t *testing.T) {
	host := &auth.SessionData{User: models.User{Role: "host"}}
	fa := &fakeAuth{session: host}

	res := New(fa, zerolog.Nop()).SetRole(context.Background(), requestInfo(), validation.SetRoleInput{UserID: "u1", Role: "player"})

	assert.False(t, res.Success)
	assert.Equal(t, "Forbidden", res.Error)
	assert.Empty(t, fa.setRole)
}

func TestSetRoleAsAdmin(t *testing.T) {
	admin := &auth.SessionData{User: models.User{Role: "admin"}}
	fa := &fakeAuth{session: admin}

	res := New(fa, zerolog.Nop()).SetRole(context.Background(), requestInfo(), validation.SetRoleInput{UserID: "u1", Role: "Host"})

	assert.True(t, res.Success)
	assert.Equal(t, []string{"u1:host"}, fa.setRole)
}

func TestDispatch(t *testing.T) {
	fa := &fakeAuth{}
	a := New(fa, zerolog.Nop())

	res, ok := a.Dispatch(context.Background(), "signUp", requestInfo(),
		[]byte(`{"email":"c@example.com","password":"password123","name":"Carol"}`))
	require.True(t, ok)
	assert.True(t, res.Success)
	assert.Len(t, fa.signUps, 1)

	res, ok = a.Dispatch(context.Background(), "signIn", requestInfo(), []byte(`{not json`))
	require.True(t, ok)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid request body", res.Error)
	assert.Empty(t, fa.signIns)

	_, ok = a.Dispatch(context.Background(), "dropTables", requestInfo(), nil)
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"signUp", "signIn", "signOut", "getSession", "setRole"}, Names())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New(`{"code":"X","message":"From message"}`), "From message"},
		{errors.New(`{"error":"From error"}`), "From error"},
		{errors.New(`{"error":{"message":"Nested"}}`), "Nested"},
		{errors.New("plain text"), "plain text"},
		{errors.New(""), "fallback"},
		{nil, "fallback"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorMessage(tt.err, "fallback"))
	}
}

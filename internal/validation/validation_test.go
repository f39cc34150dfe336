package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignUpNormalizes(t *testing.T) {
	res := Validate(SignUpInput{
		Email:    "  Alice@Example.COM ",
		Password: "password123",
		Name:     "  Alice ",
	})

	require.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "alice@example.com", res.Data.Email)
	assert.Equal(t, "Alice", res.Data.Name)
	assert.Equal(t, "password123", res.Data.Password)
}

func TestValidateSignUpFailures(t *testing.T) {
	tests := []struct {
		name      string
		input     SignUpInput
		wantPath  string
		wantError string
	}{
		{
			name:      "short password",
			input:     SignUpInput{Email: "a@b.co", Password: "1234567", Name: "Alice"},
			wantPath:  "password",
			wantError: "Password must be at least 8 characters",
		},
		{
			name:      "long password",
			input:     SignUpInput{Email: "a@b.co", Password: strings.Repeat("x", 129), Name: "Alice"},
			wantPath:  "password",
			wantError: "Password must be less than 128 characters",
		},
		{
			name:      "short name",
			input:     SignUpInput{Email: "a@b.co", Password: "password123", Name: "A"},
			wantPath:  "name",
			wantError: "Name must be at least 2 characters",
		},
		{
			name:      "name only whitespace around one rune",
			input:     SignUpInput{Email: "a@b.co", Password: "password123", Name: "  A  "},
			wantPath:  "name",
			wantError: "Name must be at least 2 characters",
		},
		{
			name:      "invalid email",
			input:     SignUpInput{Email: "not-an-email", Password: "password123", Name: "Alice"},
			wantPath:  "email",
			wantError: "Please enter a valid email address",
		},
		{
			name:      "missing email",
			input:     SignUpInput{Password: "password123", Name: "Alice"},
			wantPath:  "email",
			wantError: "Email is required",
		},
		{
			name:      "mismatched confirmation",
			input:     SignUpInput{Email: "a@b.co", Password: "password123", Name: "Alice", ConfirmPassword: "password124"},
			wantPath:  "confirmPassword",
			wantError: "Passwords don't match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)

			require.False(t, res.Success)
			require.NotEmpty(t, res.Errors)
			assert.Equal(t, tt.wantError, res.Errors[tt.wantPath])
			assert.Equal(t, tt.wantError, res.Message)
		})
	}
}

func TestValidateFirstMessageFollowsFieldOrder(t *testing.T) {
	res := Validate(SignUpInput{Email: "bad", Password: "short", Name: "A"})

	require.False(t, res.Success)
	assert.Len(t, res.Errors, 3)
	assert.Equal(t, "Please enter a valid email address", res.Message)
}

func TestValidateConfirmPasswordOptional(t *testing.T) {
	res := Validate(SignUpInput{Email: "a@b.co", Password: "password123", Name: "Al", ConfirmPassword: "password123"})
	assert.True(t, res.Success)
}

func TestValidateSignIn(t *testing.T) {
	res := Validate(SignInInput{Email: " BOB@example.com", Password: "password123"})
	require.True(t, res.Success)
	assert.Equal(t, "bob@example.com", res.Data.Email)

	res = Validate(SignInInput{Email: "bob@example.com"})
	require.False(t, res.Success)
	assert.Equal(t, "Password must be at least 8 characters", res.Errors["password"])
}

func TestValidateResetPassword(t *testing.T) {
	res := Validate(ResetPasswordInput{Token: "tok", Password: "password123", ConfirmPassword: "password123"})
	assert.True(t, res.Success)

	res = Validate(ResetPasswordInput{Password: "password123", ConfirmPassword: "nope"})
	require.False(t, res.Success)
	assert.Equal(t, "Reset token is required", res.Errors["token"])
	assert.Equal(t, "Passwords don't match", res.Errors["confirmPassword"])

	req := Validate(ResetPasswordRequestInput{Email: " X@Y.io "})
	require.True(t, req.Success)
	assert.Equal(t, "x@y.io", req.Data.Email)
}

func TestValidateSetRole(t *testing.T) {
	res := Validate(SetRoleInput{UserID: "u1", Role: " HOST "})
	require.True(t, res.Success)
	assert.Equal(t, "host", res.Data.Role)

	res = Validate(SetRoleInput{UserID: "u1", Role: "owner"})
	require.False(t, res.Success)
	assert.Equal(t, "Role must be one of: admin, host, player, user", res.Errors["role"])
}

func TestDecode(t *testing.T) {
	res := Decode[SignInInput]([]byte(`{"email":"A@B.co","password":"password123"}`))
	require.True(t, res.Success)
	assert.Equal(t, "a@b.co", res.Data.Email)

	res = Decode[SignInInput]([]byte(`{"email":`))
	require.False(t, res.Success)
	assert.Equal(t, "Invalid request body", res.Message)

	res = Decode[SignInInput](nil)
	require.False(t, res.Success)
	assert.Equal(t, "Email is required", res.Errors["email"])
}

package validation

import "strings"

// messages maps "<field>.<tag>" to the message shown on the form
var messages = map[string]string{
	"email.required":          "Email is required",
	"email.email":             "Please enter a valid email address",
	"password.min":            "Password must be at least 8 characters",
	"password.max":            "Password must be less than 128 characters",
	"name.min":                "Name must be at least 2 characters",
	"name.max":                "Name must be less than 100 characters",
	"confirmPassword.eqfield": "Passwords don't match",
	"token.required":          "Reset token is required",
	"userId.required":         "User is required",
	"role.required":           "Role is required",
	"role.oneof":              "Role must be one of: admin, host, player, user",
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignInInput is the sign-in form
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8,max=128"`
}

func (in SignInInput) Normalized() SignInInput {
	in.Email = normalizeEmail(in.Email)
	return in
}

// SignUpInput is the sign-up form. ConfirmPassword is checked only when sent.
type SignUpInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=8,max=128"`
	Name            string `json:"name" validate:"min=2,max=100"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"omitempty,eqfield=Password"`
}

func (in SignUpInput) Normalized() SignUpInput {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	return in
}

// ResetPasswordRequestInput asks for a reset link
type ResetPasswordRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

func (in ResetPasswordRequestInput) Normalized() ResetPasswordRequestInput {
	in.Email = normalizeEmail(in.Email)
	return in
}

// ResetPasswordInput confirms a reset with a new password
type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

func (in ResetPasswordInput) Normalized() ResetPasswordInput {
	in.Token = strings.TrimSpace(in.Token)
	return in
}

// SetRoleInput changes a user's role (admin only)
type SetRoleInput struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=admin host player user"`
}

func (in SetRoleInput) Normalized() SetRoleInput {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	return in
}

package auth

import (
	"encoding/json"
	"net/http"
)

// APIError is a structured auth failure. Error() is its JSON encoding so
// callers that only see the message can still recover code and text.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	b, err := json.Marshal(e)
	if err != nil {
		return e.Message
	}
	return string(b)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches on Code so sentinels compare equal to wrapped copies
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

func (e *APIError) with(err error) *APIError {
	cp := *e
	cp.Err = err
	return &cp
}

var (
	ErrUserAlreadyExists      = &APIError{Status: http.StatusUnprocessableEntity, Code: "USER_ALREADY_EXISTS", Message: "User already exists"}
	ErrInvalidEmailOrPassword = &APIError{Status: http.StatusUnauthorized, Code: "INVALID_EMAIL_OR_PASSWORD", Message: "Invalid email or password"}
	ErrInvalidEmail           = &APIError{Status: http.StatusBadRequest, Code: "INVALID_EMAIL", Message: "Invalid email"}
	ErrPasswordTooShort       = &APIError{Status: http.StatusBadRequest, Code: "PASSWORD_TOO_SHORT", Message: "Password too short"}
	ErrPasswordTooLong        = &APIError{Status: http.StatusBadRequest, Code: "PASSWORD_TOO_LONG", Message: "Password too long"}
	ErrFailedToCreateUser     = &APIError{Status: http.StatusInternalServerError, Code: "FAILED_TO_CREATE_USER", Message: "Failed to create user"}
	ErrFailedToCreateSession  = &APIError{Status: http.StatusInternalServerError, Code: "FAILED_TO_CREATE_SESSION", Message: "Failed to create session"}
	ErrUserNotFound           = &APIError{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
	ErrInvalidRole            = &APIError{Status: http.StatusBadRequest, Code: "INVALID_ROLE", Message: "Invalid role"}
	ErrInvalidOrigin          = &APIError{Status: http.StatusForbidden, Code: "INVALID_ORIGIN", Message: "Invalid origin"}
	ErrUnauthorized           = &APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Unauthorized"}
)

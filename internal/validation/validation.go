// Package validation wraps go-playground/validator with a uniform result
// shape used by the server actions: field-keyed messages plus the first
// message overall.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Schema is an input type that knows how to coerce itself (trim, lowercase)
// before its struct tags are checked.
type Schema[T any] interface {
	Normalized() T
}

// Result is the outcome of validating one input.
type Result[T any] struct {
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
}

const (
	fallbackMessage    = "Validation failed"
	invalidBodyMessage = "Invalid request body"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names so error keys match the wire format
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate normalizes input and checks it against its struct tags.
func Validate[T Schema[T]](input T) Result[T] {
	data := input.Normalized()

	err := instance().Struct(data)
	if err == nil {
		return Result[T]{Success: true, Data: data}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Result[T]{
			Errors:  map[string]string{"": err.Error()},
			Message: fallbackMessage,
		}
	}

	result := Result[T]{Errors: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		path := fieldPath(fe)
		msg := message(path, fe)
		if _, seen := result.Errors[path]; !seen {
			result.Errors[path] = msg
		}
		if result.Message == "" {
			result.Message = msg
		}
	}
	return result
}

// Decode unmarshals a JSON body into T and validates it. A malformed body is
// reported as a validation failure, never as an error.
func Decode[T Schema[T]](raw []byte) Result[T] {
	var input T
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &input); err != nil {
			return Result[T]{
				Errors:  map[string]string{"body": invalidBodyMessage},
				Message: invalidBodyMessage,
			}
		}
	}
	return Validate(input)
}

// fieldPath drops the top-level struct name from the namespace,
// e.g. "SignUpInput.email" -> "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(path string, fe validator.FieldError) string {
	if msg, ok := messages[path+"."+fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", path, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be less than %s characters", path, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", path, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", path)
	}
}

// Package validation runs the same `binding` struct tags gin uses, so
// services can re-check inputs that did not come through a handler.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error is a client-side input error. Err holds validator output when the
// failure came from struct tags; Fields holds hand-written rule failures.
type Error struct {
	Err    error
	Fields []FieldError
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "validation failed: " + e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FieldErrors reports the failures keyed by their JSON paths.
func (e *Error) FieldErrors() []FieldError {
	var raw validator.ValidationErrors
	if errors.As(e.Err, &raw) {
		return Fields(raw)
	}
	return e.Fields
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.SetTagName("binding")
		Configure(instance)
	})
	return instance
}

// Configure installs the project rules on v: JSON field names in error
// paths and the maxbytes rule. Gin's engine and the service-side validator
// both go through it so handlers and services agree.
func Configure(v *validator.Validate) {
	useJSONNames(v)
	// maxbytes bounds the encoded length; bcrypt only reads 72 bytes.
	_ = v.RegisterValidation("maxbytes", maxBytes)
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// useJSONNames makes v report fields by their json (or form) tag, so error
// paths read like the request body, e.g. "navItems[1].link".
func useJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name, _, _ := strings.Cut(sf.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return sf.Name
	})
}

func Struct(v any) error {
	if err := get().Struct(v); err != nil {
		return &Error{Err: err}
	}
	return nil
}

func Field(field, rule, message string) error {
	return &Error{Fields: []FieldError{{Field: field, Rule: rule, Message: message}}}
}

// Fields converts validator output into client-facing field errors.
func Fields(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FieldError{
			Field:   path(fe),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: Message(fe.Tag(), fe.Param()),
		})
	}
	return out
}

// path drops the root struct name from the namespace.
func path(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok && rest != "" {
		return rest
	}
	return fe.Field()
}

func Message(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "maxbytes":
		return "must be at most " + param + " bytes"
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "eqfield":
		return "must match " + param
	case "startswith":
		return "must start with " + param
	case "uuid":
		return "must be a valid id"
	case "url", "http_url":
		return "must be a valid URL"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}

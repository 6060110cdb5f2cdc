// Package validation configures request body validation for the API.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	rowBoundRgx = regexp.MustCompile(`^([A-D][A-Z]|[A-Z])$`)
	seatCodeRgx = regexp.MustCompile(`^[A-Za-z]{1,2}[0-9]+$`)
)

// New returns a validator with the custom tags used by request bodies:
//
//	rowbound  last row of a seat plan, "A".."Z" or "AA".."DZ"
//	seatcode  a seat such as "A12" or "ab3"
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister(v, "rowbound", matches(rowBoundRgx))
	mustRegister(v, "seatcode", matches(seatCodeRgx))
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// mustRegister panics when tag cannot be registered, like regexp.MustCompile.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Error is returned for a body that fails validation.  Fields maps the
// JSON field name to a readable message.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+" "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// EchoValidator adapts a validator.Validate to echo's Validator interface.
type EchoValidator struct {
	V *validator.Validate
}

// NewEchoValidator returns an EchoValidator backed by New().
func NewEchoValidator() *EchoValidator {
	return &EchoValidator{V: New()}
}

// Validate implements echo.Validator.
func (ev *EchoValidator) Validate(i any) error {
	err := ev.V.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = Message(fe)
	}
	return out
}

// Message converts a field error into a readable message.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "alphanum":
		return "must contain only letters and digits"
	case "url":
		return "must be a valid URL"
	case "rowbound":
		return "must be a row label between A and DZ"
	case "seatcode":
		return "must be a seat code such as A12"
	default:
		return "is invalid"
	}
}

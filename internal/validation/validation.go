// Package validation adapts go-playground/validator to the charter error types.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"jet_charter/internal/charter"
)

// New returns a validator that names fields by their tagKey struct tag
// (json, form, ...) instead of their Go names
func New(tagKey string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get(tagKey), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Translate converts the first validator failure in err into a
// *charter.ValidationError naming the field path. Other errors pass through.
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]

	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "email":
		msg = "must be a valid email address"
	case "len":
		msg = fmt.Sprintf("must be %s characters", fe.Param())
	case "max":
		msg = fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		msg = fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		msg = fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		msg = fmt.Sprintf("must match layout %s", fe.Param())
	case "alphanum":
		msg = "must contain only letters and digits"
	case "nefield":
		msg = "must differ from " + fe.Param()
	default:
		msg = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return &charter.ValidationError{Field: field, Message: msg}
}

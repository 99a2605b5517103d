package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// checkStruct validates s and returns its field errors tagged with line.
func checkStruct(line int, s any) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Line: line, Field: "input", Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Line: line, Field: fe.Field(), Message: describeTag(fe)})
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must have at least %s item(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	case "numeric":
		return "must contain only digits"
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// parseDate parses a YYYY-MM-DD value already checked by the validator.
func parseDate(line int, field, value string) (time.Time, ValidationErrors) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, ValidationErrors{{Line: line, Field: field, Message: "must be a date in " + dateLayout + " format"}}
	}
	return t, nil
}

// checkAmount rejects negative money values, and zero unless allowZero.
func checkAmount(line int, field string, d decimal.Decimal, allowZero bool) ValidationErrors {
	if d.IsNegative() {
		return ValidationErrors{{Line: line, Field: field, Message: "cannot be negative"}}
	}
	if !allowZero && d.IsZero() {
		return ValidationErrors{{Line: line, Field: field, Message: "is required"}}
	}
	return nil
}

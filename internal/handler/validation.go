package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/pkg/response"
)

// Validator wraps go-playground/validator with the decimal comparison tags
// used by the request DTOs: decimal_gt, decimal_gte and decimal_lte.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator {
	v := validator.New()

	// report json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// decimals are validated through their canonical string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gt", decimalCompare(func(c int) bool { return c > 0 }))
	_ = v.RegisterValidation("decimal_gte", decimalCompare(func(c int) bool { return c >= 0 }))
	_ = v.RegisterValidation("decimal_lte", decimalCompare(func(c int) bool { return c <= 0 }))

	return &Validator{v: v}
}

func decimalCompare(ok func(cmp int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(value.Cmp(bound))
	}
}

func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors maps validator.ValidationErrors to readable field messages.
func ToFieldErrors(err error) []response.FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []response.FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]response.FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		var msg string
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "decimal_gt", "gt":
			msg = "must be greater than " + e.Param()
		case "decimal_gte", "gte", "min":
			msg = "must be at least " + e.Param()
		case "decimal_lte", "lte", "max":
			msg = "must be at most " + e.Param()
		case "oneof":
			msg = "must be one of: " + e.Param()
		case "email":
			msg = "must be a valid email address"
		case "url":
			msg = "must be a valid URL"
		default:
			msg = e.Tag() + " validation failed"
		}
		out = append(out, response.FieldError{Field: field, Message: msg})
	}
	return out
}

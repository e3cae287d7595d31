package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"usof/internal/models"

	"github.com/go-playground/validator/v10"
)

// rule adapts one of the string checks above to a validator tag.
func rule(check func(string) error) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return check(fl.Field().String()) == nil
	}
}

var rules = map[string]func(string) error{
	"password":  ValidatePassword,
	"login":     ValidateLogin,
	"mailbox":   ValidateEmail,
	"full_name": ValidateFullName,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("query"), ",")
		}
		return name
	})

	for tag, check := range rules {
		if err := v.RegisterValidation(tag, rule(check)); err != nil {
			panic(fmt.Sprintf("validation: register %s: %v", tag, err))
		}
	}
	return v
}

// Struct validates a tagged request struct. The first failing field is
// reported as a VALIDATION_ERROR.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return models.NewValidationError(message(fieldErrs[0]))
	}
	return models.NewValidationError(err.Error())
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if check, ok := rules[fe.Tag()]; ok {
		if err := check(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	}

	unit := "characters"
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = "items"
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Float64:
		unit = ""
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		if unit == "" {
			return fmt.Sprintf("%s must be at least %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at least %s %s", field, fe.Param(), unit)
	case "max", "lte":
		if unit == "" {
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at most %s %s", field, fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

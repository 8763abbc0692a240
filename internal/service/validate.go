package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct collects every failed rule of s, keyed by top level field.
func validateStruct(v *validator.Validate, s interface{}) *ValidationError {
	out := &ValidationError{}

	err := v.Struct(s)
	if err == nil {
		return out
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		out.Add("non_field_errors", err.Error())
		return out
	}

	for _, fe := range errs {
		field, sub := splitNamespace(fe.Namespace())
		msg := fieldMessage(fe)
		if sub != "" {
			msg = sub + ": " + msg
		}
		out.Add(field, msg)
	}
	return out
}

// splitNamespace turns "RecipeInput.ingredients[1].amount" into
// ("ingredients", "ingredients[1].amount").
func splitNamespace(ns string) (string, string) {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns, ""
	}
	top := rest
	if i := strings.IndexAny(rest, ".["); i >= 0 {
		top = rest[:i]
	}
	if top == rest {
		return top, ""
	}
	return top, rest
}

func fieldMessage(fe validator.FieldError) string {
	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if isCollection {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isCollection {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "unique":
		return "must not contain duplicates"
	case "email":
		return "enter a valid email address"
	case "hexcolor":
		return "must be a hex color such as #E26C2D"
	case "username":
		return "may contain only letters, digits and @/./+/-/_"
	case "slug":
		return "may contain only letters, digits, hyphens and underscores"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

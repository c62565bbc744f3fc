// Package validation checks request structs with go-playground/validator and
// converts failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the library tags registered:
//
//	book_status   one of want-to-read, reading, finished
//	rating_type   simple or detailed
//	star_rating   0-5 in half steps
//	strong_password  passes domain.ValidatePassword
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("book_status", func(fl validator.FieldLevel) bool {
		return domain.BookStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("rating_type", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseRatingType(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("star_rating", func(fl validator.FieldLevel) bool {
		return domain.ValidateRating(fl.Field().Float()) == nil
	})
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return domain.ValidatePassword(fl.Field().String()).IsValid
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against a tag, reporting failures under field.
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.v.Var(value, tag); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return domainerrors.ValidationWithDetails("validation failed",
				map[string]string{field: v.friendlyMessage(validationErrs[0])})
		}
		return err
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

//nolint:gocyclo // one case per tag
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s entries", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not have more than %s entries", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "book_status":
		return "must be one of: want-to-read, reading, finished"
	case "rating_type":
		return "must be simple or detailed"
	case "star_rating":
		return "must be between 0 and 5 in steps of 0.5"
	case "strong_password":
		return domain.ValidatePassword(fmt.Sprint(e.Value())).Message()
	default:
		return "is invalid"
	}
}

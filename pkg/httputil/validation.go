package httputil

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/orfevre/attendance-backend/pkg/errors"
)

var validate = newValidator()

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockTimePattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// isodate: YYYY-MM-DD
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isoDatePattern.MatchString(fl.Field().String())
	})
	// clocktime: HH:MM or HH:MM:SS
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		return clockTimePattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate validates a struct using go-playground/validator
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.BadRequest(err.Error())
		}
		details := make(map[string]string)

		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "clocktime":
		return "must be a time in HH:MM or HH:MM:SS format"
	default:
		return "invalid value"
	}
}

// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

var (
	validate        = newValidator()
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9@.+_-]+$`)
)

// newValidator reports fields under their JSON names and knows the
// marketplace specific tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	for tag, fn := range map[string]validator.Func{
		"password":  validatePassword,
		"username":  validateUsername,
		"ph_mobile": validatePhilippineMobile,
		"pig_breed": validatePigBreed,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return toSnakeCase(field.Name)
	}
	return name
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validatePassword requires at least 8 characters that are not all digits.
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	for _, char := range password {
		if !unicode.IsDigit(char) {
			return true
		}
	}
	return false
}

func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()

	if len(username) < 3 || len(username) > 150 {
		return false
	}

	return usernamePattern.MatchString(username)
}

func validatePhilippineMobile(fl validator.FieldLevel) bool {
	_, err := NormalizePhone(fl.Field().String())
	return err == nil
}

func validatePigBreed(fl validator.FieldLevel) bool {
	return models.IsValidBreed(fl.Field().String())
}

// ValidationError is one failed rule, reported per field.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, ValidationError{Field: e.Field(), Tag: e.Tag(), Message: getValidationMessage(e)})
	}
	return out
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "password":
		return "Password must contain at least 8 characters and cannot be entirely numeric"
	case "username":
		return "Username must be 3-150 characters: letters, digits and @/./+/-/_ only"
	case "ph_mobile":
		if v, ok := e.Value().(string); ok {
			if _, err := NormalizePhone(v); err != nil {
				return err.Error()
			}
		}
		return "Invalid contact number"
	case "pig_breed":
		return "Select a valid breed"
	default:
		return e.Field() + " is invalid"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// internal/validation/validation.go
package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"samudaya.club/internal/auth"
)

var validate *validator.Validate
var alphaSpaceRegex = regexp.MustCompile(`^[\p{L}\s-]+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("complex_password", validateComplexPassword)
	validate.RegisterValidation("valid_phone", validatePhone)
	validate.RegisterValidation("alpha_space", validateAlphaSpace)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func ValidateStruct(data interface{}) url.Values {
	err := validate.Struct(data)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) url.Values {
	errorsMap := url.Values{}
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrs {
			errorsMap.Add(fieldErr.Field(), getErrorMessage(fieldErr))
		}
	} else {
		errorsMap.Add("general", "Validation failed: "+err.Error())
	}
	return errorsMap
}

func getErrorMessage(err validator.FieldError) string {
	fieldName := err.Field()
	switch err.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Minimum value/length for this field is %s.", err.Param())
	case "max":
		return fmt.Sprintf("Maximum value/length for this field is %s.", err.Param())
	case "eqfield":
		return fmt.Sprintf("Value must match the %s field.", err.Param())
	case "oneof":
		return fmt.Sprintf("Choose one of the allowed values: %s.", err.Param())
	case "datetime":
		return fmt.Sprintf("Enter a date in the %s format.", err.Param())
	case "complex_password":
		return "Password must contain letters, digits and symbols."
	case "valid_phone":
		return "Enter a valid phone number (e.g. +91XXXXXXXXXX)."
	case "alpha_space":
		return "This field may only contain letters, spaces and dashes."
	default:
		return fmt.Sprintf("Invalid value for field %s (tag: %s).", fieldName, err.Tag())
	}
}

func validateAlphaSpace(fl validator.FieldLevel) bool {
	return alphaSpaceRegex.MatchString(fl.Field().String())
}

// ValidateAlphaSpace checks a bare string against the alpha_space rule, for
// callers validating individual fields outside a struct.
func ValidateAlphaSpace(s string) bool {
	return alphaSpaceRegex.MatchString(s)
}

func validateComplexPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if password == "" {
		return true
	}
	return auth.IsPasswordComplex(password)
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return false
	}
	return auth.ValidatePhone(phone)
}

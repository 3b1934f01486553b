// Package validation is the default field validator for registration drafts.
// The workflow only depends on the service.FieldValidator interface, so
// front-ends with their own schema can replace it.
package validation

import (
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"

	"signupgate/internal/signup/models"
)

const (
	phonePattern = `^01[016789]-?[0-9]{3,4}-?[0-9]{4}$`
	codePattern  = `^[0-9]{6}$`
)

// Schema validates every draft field. On blur, empty fields are skipped so a
// half-filled form only reports fields the user has actually entered.
type Schema struct{}

func New() *Schema {
	return &Schema{}
}

func (s *Schema) Validate(d models.RegistrationDraft, trigger models.Trigger) models.FieldErrors {
	errs := models.FieldErrors{}
	check := func(field, value string, rule func(string) string) {
		if value == "" {
			if trigger == models.TriggerSubmit {
				errs[field] = "this field is required"
			}
			return
		}
		if msg := rule(value); msg != "" {
			errs[field] = msg
		}
	}

	check(models.FieldEmail, d.Email, validateEmail)
	check(models.FieldVerificationCode, d.VerificationCode, validateCode)
	check(models.FieldUsername, d.Username, validateUsername)
	check(models.FieldPassword, d.Password, validatePassword)
	check(models.FieldPasswordConfirm, d.PasswordConfirm, func(v string) string {
		if v != d.Password {
			return "passwords do not match"
		}
		return ""
	})
	check(models.FieldPhoneNumber, d.PhoneNumber, validatePhone)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateEmail is exposed for callers that only gate on the address.
func ValidateEmail(address string) string {
	if address == "" {
		return "email is required"
	}
	return validateEmail(address)
}

func validateEmail(v string) string {
	if !govalidator.StringLength(v, "3", "255") || !govalidator.IsEmail(v) {
		return "enter a valid email address"
	}
	return ""
}

func validateCode(v string) string {
	if !govalidator.Matches(v, codePattern) {
		return "verification code must be 6 digits"
	}
	return ""
}

func validateUsername(v string) string {
	if strings.TrimSpace(v) != v {
		return "name cannot start or end with spaces"
	}
	if !govalidator.RuneLength(v, "2", "20") {
		return "name must be between 2 and 20 characters"
	}
	return ""
}

func validatePassword(v string) string {
	if !govalidator.RuneLength(v, "8", "20") {
		return "password must be between 8 and 20 characters"
	}
	var letter, digit, special bool
	for _, r := range v {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !letter || !digit || !special {
		return "password must contain a letter, a digit and a special character"
	}
	return ""
}

func validatePhone(v string) string {
	if !govalidator.Matches(v, phonePattern) {
		return "enter a valid mobile number"
	}
	return ""
}

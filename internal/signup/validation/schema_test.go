package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signupgate/internal/signup/models"
)

func validDraft() models.RegistrationDraft {
	return models.RegistrationDraft{
		Email:            "a@b.com",
		VerificationCode: "123456",
		Username:         "Kim Minji",
		Password:         "s3cret!pass",
		PasswordConfirm:  "s3cret!pass",
		PhoneNumber:      "010-1234-5678",
	}
}

func TestSchemaAcceptsValidDraft(t *testing.T) {
	s := New()
	assert.Nil(t, s.Validate(validDraft(), models.TriggerSubmit))
	assert.Nil(t, s.Validate(validDraft(), models.TriggerBlur))
}

func TestSchemaBlurSkipsEmptyFields(t *testing.T) {
	s := New()
	errs := s.Validate(models.RegistrationDraft{Email: "a@b.com"}, models.TriggerBlur)
	assert.False(t, errs.HasErrors())

	errs = s.Validate(models.RegistrationDraft{}, models.TriggerSubmit)
	assert.Len(t, errs, 6)
	assert.Equal(t, "this field is required", errs[models.FieldEmail])
}

func TestSchemaFieldRules(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(d *models.RegistrationDraft)
		field string
	}{
		{"malformed email", func(d *models.RegistrationDraft) { d.Email = "not-an-email" }, models.FieldEmail},
		{"short code", func(d *models.RegistrationDraft) { d.VerificationCode = "123" }, models.FieldVerificationCode},
		{"letters in code", func(d *models.RegistrationDraft) { d.VerificationCode = "12a456" }, models.FieldVerificationCode},
		{"one-letter name", func(d *models.RegistrationDraft) { d.Username = "K" }, models.FieldUsername},
		{"padded name", func(d *models.RegistrationDraft) { d.Username = " Kim" }, models.FieldUsername},
		{"short password", func(d *models.RegistrationDraft) { d.Password, d.PasswordConfirm = "a1!", "a1!" }, models.FieldPassword},
		{"password without special", func(d *models.RegistrationDraft) { d.Password, d.PasswordConfirm = "abcdefg12", "abcdefg12" }, models.FieldPassword},
		{"confirmation mismatch", func(d *models.RegistrationDraft) { d.PasswordConfirm = "other!pass1" }, models.FieldPasswordConfirm},
		{"landline number", func(d *models.RegistrationDraft) { d.PhoneNumber = "02-123-4567" }, models.FieldPhoneNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(&d)
			errs := New().Validate(d, models.TriggerBlur)
			assert.Contains(t, errs, tt.field)
			assert.Len(t, errs, 1, "only %s should fail: %v", tt.field, errs)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.Equal(t, "email is required", ValidateEmail(""))
	assert.NotEmpty(t, ValidateEmail("nope"))
	assert.Empty(t, ValidateEmail("a@b.com"))
}

func TestPhoneWithoutDashes(t *testing.T) {
	d := validDraft()
	d.PhoneNumber = "01012345678"
	assert.Nil(t, New().Validate(d, models.TriggerSubmit))
}

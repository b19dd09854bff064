package validation_test

import (
	"errors"
	"testing"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_ProfileRequiredFields(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		form    domain.ProfileForm
		field   string
		message string
	}{
		{
			name:    "missing company name",
			form:    domain.ProfileForm{ContactPerson: "Wayan", Phone: "081234567890"},
			field:   "CompanyName",
			message: "Company name is required",
		},
		{
			name:    "whitespace contact person",
			form:    domain.ProfileForm{CompanyName: "Acme", ContactPerson: "   ", Phone: "081234567890"},
			field:   "ContactPerson",
			message: "Contact person is required",
		},
		{
			name:    "missing phone",
			form:    domain.ProfileForm{CompanyName: "Acme", ContactPerson: "Wayan"},
			field:   "Phone",
			message: "Phone number is required",
		},
		{
			name:    "bad email",
			form:    domain.ProfileForm{CompanyName: "Acme", ContactPerson: "Wayan", Phone: "0812", Email: "nope"},
			field:   "Email",
			message: "Please enter a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Struct(v, tt.form)

			var verr *domain.ErrValidation
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestStruct_ValidProfileWithoutEmail(t *testing.T) {
	v := validation.New()

	err := validation.Struct(v, domain.ProfileForm{CompanyName: "Acme", ContactPerson: "Wayan", Phone: "0812"})

	assert.NoError(t, err)
}

func TestStruct_OTPRequests(t *testing.T) {
	v := validation.New()

	err := validation.Struct(v, domain.GenerateOTPRequest{Phone: "+62 812-345"})
	require.Error(t, err)
	assert.Equal(t, "Please enter a valid phone number", err.Error())

	assert.NoError(t, validation.Struct(v, domain.GenerateOTPRequest{Phone: "+62 812-3456-7890"}))

	err = validation.Struct(v, domain.VerifyOTPRequest{Phone: "081234567890", OTP: "12345"})
	require.Error(t, err)
	assert.Equal(t, "Please enter a valid 6-digit OTP", err.Error())

	assert.NoError(t, validation.Struct(v, domain.VerifyOTPRequest{Phone: "081234567890", OTP: "123456"}))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "6281234567890", validation.Digits("+62 (812) 3456-7890"))
	assert.Equal(t, "", validation.Digits("abc"))
}

func TestFormatValidationErrors_AllFailures(t *testing.T) {
	v := validation.New()

	msgs := validation.FormatValidationErrors(v.Struct(domain.ProfileForm{}))

	assert.ElementsMatch(t, []string{
		"Company name is required",
		"Contact person is required",
		"Phone number is required",
	}, msgs)
}

// Package validation wires go-playground/validator with the portal's custom
// tags and turns validator errors into user-facing domain errors.
package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPhoneDigits is the minimum number of digits a phone number must carry.
const MinPhoneDigits = 10

var otpRegex = regexp.MustCompile(`^[0-9]{6}$`)

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("phone_digits", PhoneDigits)
	_ = v.RegisterValidation("otp_code", OTPCode)
	_ = v.RegisterValidation("required_trimmed", RequiredTrimmed)
}

// PhoneDigits accepts any formatting as long as there are enough digits.
func PhoneDigits(fl validator.FieldLevel) bool {
	return len(Digits(fl.Field().String())) >= MinPhoneDigits
}

// OTPCode validates a six-digit one-time password.
func OTPCode(fl validator.FieldLevel) bool {
	return otpRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

// RequiredTrimmed rejects empty and whitespace-only strings.
func RequiredTrimmed(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

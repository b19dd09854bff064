package validation

import (
	"errors"
	"fmt"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to user-facing labels.
var FieldLabels = map[string]string{
	"CompanyName":   "Company name",
	"ContactPerson": "Contact person",
	"Phone":         "Phone number",
	"Email":         "Email",
	"OTP":           "OTP",
	"WarehouseName": "Warehouse name",
	"DocumentID":    "Document ID",
}

// Struct validates s and returns the first failure as *domain.ErrValidation.
// Non-validator errors (e.g. passing a non-struct) are returned unchanged.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	first := verrs[0]
	return &domain.ErrValidation{
		Field:   first.Field(),
		Message: formatSingleError(first),
	}
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.StructField())

	switch e.Tag() {
	case "required", "required_trimmed":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please enter a valid email address"
	case "phone_digits":
		return "Please enter a valid phone number"
	case "otp_code":
		return "Please enter a valid 6-digit OTP"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func getFieldLabel(field string) string {
	if label, ok := FieldLabels[field]; ok {
		return label
	}
	return field
}

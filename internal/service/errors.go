package service

import (
	"errors"
	"net/http"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
)

// Messages shown to the supplier when the backend fails without saying why.
const (
	MsgSubmitFailed     = "There was an error submitting the form. Please try again."
	MsgAccessDenied     = "Access denied. There was an issue with your account permissions."
	MsgVerifyFailed     = "Token verification failed after supplier creation"
	MsgLoadFailed       = "Failed to load supplier data"
	MsgProfileFailed    = "Failed to update profile"
	MsgProductFailed    = "Failed to update product"
	MsgDeleteFailed     = "Failed to delete product"
	MsgAddProductFailed = "Failed to add products"
)

// userFacing unwraps errors that already speak to the user and replaces the
// rest with fallback. A 403 from the backend always reads as access denied.
func userFacing(err error, fallback string) error {
	var (
		unauthorized *domain.ErrUnauthorized
		validation   *domain.ErrValidation
		blocked      *domain.ErrStepBlocked
		forbidden    *domain.ErrForbidden
		conflict     *domain.ErrConflict
		notFound     *domain.ErrNotFound
		upstream     *domain.ErrUpstream
	)
	switch {
	case errors.As(err, &unauthorized):
		return unauthorized
	case errors.As(err, &validation):
		return validation
	case errors.As(err, &blocked):
		return blocked
	case errors.As(err, &forbidden):
		return forbidden
	case errors.As(err, &conflict):
		return conflict
	case errors.As(err, &notFound):
		return notFound
	case errors.As(err, &upstream):
		if upstream.Status == http.StatusForbidden {
			return &domain.ErrForbidden{Message: MsgAccessDenied}
		}
		if upstream.Message != "" {
			return upstream
		}
		return &domain.ErrUpstream{Status: upstream.Status, Message: fallback}
	default:
		return &domain.ErrUpstream{Status: http.StatusBadGateway, Message: fallback}
	}
}

func isUnauthorized(err error) bool {
	var unauthorized *domain.ErrUnauthorized
	return errors.As(err, &unauthorized)
}

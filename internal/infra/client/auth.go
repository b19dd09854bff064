package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
)

// GenerateOTP asks the backend to send a one-time password to the phone.
func (b *Backend) GenerateOTP(ctx context.Context, req domain.GenerateOTPRequest) (*domain.GenerateOTPResponse, error) {
	var out domain.GenerateOTPResponse
	err := b.do(ctx, request{
		op:     "GenerateOTP",
		method: http.MethodPost,
		path:   "/auth/generate-otp",
		encode: jsonBody(req),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP exchanges phone + OTP for a bearer token and the user record.
func (b *Backend) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.VerifyOTPResponse, error) {
	var out domain.VerifyOTPResponse
	err := b.do(ctx, request{
		op:     "VerifyOTP",
		method: http.MethodPost,
		path:   "/auth/verify-otp",
		encode: jsonBody(req),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyToken validates the session's stored token and returns the current user.
func (b *Backend) VerifyToken(ctx context.Context) (*domain.VerifyTokenResponse, error) {
	var out domain.VerifyTokenResponse
	err := b.do(ctx, request{
		op:     "VerifyToken",
		method: http.MethodGet,
		path:   "/auth/verify-token",
		out:    &out,
		retry:  true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend to end the session's token.
func (b *Backend) Logout(ctx context.Context) error {
	return b.do(ctx, request{
		op:     "Logout",
		method: http.MethodPost,
		path:   "/auth/logout",
		encode: jsonBody(struct{}{}),
	})
}

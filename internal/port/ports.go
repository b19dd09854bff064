// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
)

// AuthBackend is the procurement backend's authentication API.
// The calling browser session is taken from ctx (domain.WithSessionID).
type AuthBackend interface {
	GenerateOTP(ctx context.Context, req domain.GenerateOTPRequest) (*domain.GenerateOTPResponse, error)
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.VerifyOTPResponse, error)
	VerifyToken(ctx context.Context) (*domain.VerifyTokenResponse, error)
	Logout(ctx context.Context) error
}

// SupplierBackend is the procurement backend's supplier API.
type SupplierBackend interface {
	CreateSupplier(ctx context.Context, upload domain.ProfileUpload) (*domain.CreateSupplierResponse, error)
	UpdateBusiness(ctx context.Context, supplierID string, data domain.BusinessData) (*domain.BusinessUpdateResponse, error)
	GetMySupplier(ctx context.Context) (*domain.MySupplierResponse, error)
	UpdateProfile(ctx context.Context, upload domain.ProfileUpload) (*domain.ProfileUpdateResponse, error)
}

// TokenStore persists the backend bearer token of each browser session.
// Get returns "" and no error when the session holds no token.
type TokenStore interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Set(ctx context.Context, sessionID, token string) error
	Delete(ctx context.Context, sessionID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Package service holds the supplier portal's use cases: session and login,
// the application draft, the step gate, submission and the supplier dashboard.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/port"
	"github.com/boddenberg/supplier-portal-bfa/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var sessionTracer = otel.Tracer("service/session")

// OTPResendCooldown is how long a session waits before another OTP may be sent.
const OTPResendCooldown = 60 * time.Second

const (
	msgOTPSendFailed = "Failed to send OTP. Please try again."
	msgInvalidOTP    = "Invalid OTP. Please try again."
)

// OTPChallenge is returned once an OTP was sent.
type OTPChallenge struct {
	Phone string `json:"phone"`
	// ResendAfter is the cooldown in seconds before the next request is accepted.
	ResendAfter int    `json:"resendAfter"`
	Message     string `json:"message,omitempty"`
}

// LoginResult is the outcome of a successful OTP verification.
type LoginResult struct {
	Session domain.Session `json:"session"`
	Next    string         `json:"next"`
}

// SessionService owns authentication state: token bootstrap, OTP login, logout.
type SessionService struct {
	auth       port.AuthBackend
	tokens     port.TokenStore
	workspaces *Workspaces
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     *zap.Logger

	bootstraps singleflight.Group
	now        func() time.Time
}

// NewSessionService creates the session service.
func NewSessionService(
	auth port.AuthBackend,
	tokens port.TokenStore,
	workspaces *Workspaces,
	validate *validator.Validate,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		auth:       auth,
		tokens:     tokens,
		workspaces: workspaces,
		validate:   validate,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// ============================================================
// Bootstrap
// ============================================================

// Bootstrap returns the session, verifying the persisted token with the
// backend the first time a workspace is seen. It fails closed: any problem
// with the token leaves the session unauthenticated and the token deleted.
func (s *SessionService) Bootstrap(ctx context.Context) domain.Session {
	ws, sid, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return domain.Session{}
	}

	ws.mu.Lock()
	if ws.verified {
		sess := ws.session.Clone()
		ws.mu.Unlock()
		return sess
	}
	ws.mu.Unlock()

	// Concurrent first requests of one session share a single verification.
	v, _, _ := s.bootstraps.Do(sid, func() (any, error) {
		return s.verify(context.WithoutCancel(ctx), ws, sid), nil
	})
	return v.(domain.Session)
}

func (s *SessionService) verify(ctx context.Context, ws *Workspace, sid string) domain.Session {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Bootstrap")
	defer span.End()

	ws.mu.Lock()
	if ws.verified {
		sess := ws.session.Clone()
		ws.mu.Unlock()
		return sess
	}
	ws.mu.Unlock()

	user := s.userFromToken(ctx, sid)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if user != nil {
		ws.session = domain.Session{User: user, IsAuthenticated: true}
	} else {
		ws.session = domain.Session{}
	}
	ws.verified = true
	return ws.session.Clone()
}

func (s *SessionService) userFromToken(ctx context.Context, sid string) *domain.UserRecord {
	token, err := s.tokens.Get(ctx, sid)
	if err != nil {
		s.logger.Warn("token store unavailable during bootstrap", zap.Error(err))
		return nil
	}
	if token == "" {
		return nil
	}

	resp, err := s.auth.VerifyToken(ctx)
	if err == nil && resp.Success && resp.User != nil {
		return resp.User
	}

	if err != nil {
		s.logger.Info("stored token rejected", zap.Error(err))
	} else {
		s.logger.Info("stored token rejected", zap.Bool("success", resp.Success))
	}
	if delErr := s.tokens.Delete(ctx, sid); delErr != nil {
		s.logger.Warn("failed to delete token", zap.Error(delErr))
	}
	return nil
}

// ============================================================
// OTP login
// ============================================================

// RequestOTP asks the backend to send a one-time password.
func (s *SessionService) RequestOTP(ctx context.Context, phone string) (*OTPChallenge, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.RequestOTP")
	defer span.End()

	req := domain.GenerateOTPRequest{Phone: phone}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	ws, _, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return nil, err
	}

	// The cooldown slot is taken before the backend call so concurrent
	// requests cannot both send; a failed send gives it back.
	ws.mu.Lock()
	previous := ws.otpSentAt
	if !previous.IsZero() {
		if wait := OTPResendCooldown - s.now().Sub(previous); wait > 0 {
			ws.mu.Unlock()
			return nil, &domain.ErrConflict{
				Message: fmt.Sprintf("Please wait %d seconds before requesting a new OTP", int(wait.Round(time.Second).Seconds())),
			}
		}
	}
	reserved := s.now()
	ws.otpSentAt = reserved
	ws.mu.Unlock()

	release := func() {
		ws.mu.Lock()
		if ws.otpSentAt.Equal(reserved) {
			ws.otpSentAt = previous
		}
		ws.mu.Unlock()
	}

	resp, err := s.auth.GenerateOTP(ctx, req)
	if err != nil {
		release()
		return nil, userFacing(err, msgOTPSendFailed)
	}
	if !resp.Success {
		release()
		return nil, &domain.ErrValidation{Field: "phone", Message: firstNonEmpty(resp.Message, msgOTPSendFailed)}
	}

	if resp.OTP != "" {
		s.logger.Debug("development OTP issued", zap.String("otp", resp.OTP))
	}
	s.metrics.IncrAuthEvent("otp_requested")

	return &OTPChallenge{
		Phone:       phone,
		ResendAfter: int(OTPResendCooldown.Seconds()),
		Message:     resp.Message,
	}, nil
}

// VerifyOTP exchanges the OTP for a token, logs the session in and returns
// the step the user should land on.
func (s *SessionService) VerifyOTP(ctx context.Context, phone, otp string) (*LoginResult, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.VerifyOTP")
	defer span.End()

	req := domain.VerifyOTPRequest{Phone: phone, OTP: otp}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	ws, sid, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.auth.VerifyOTP(ctx, req)
	if err != nil {
		// A rejected code comes back as 401 before any token exists.
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			return nil, &domain.ErrValidation{Field: "otp", Message: firstNonEmpty(unauthorized.Message, msgInvalidOTP)}
		}
		return nil, userFacing(err, msgInvalidOTP)
	}
	if !resp.Success || resp.Token == "" || resp.User == nil {
		return nil, &domain.ErrValidation{Field: "otp", Message: firstNonEmpty(resp.Message, msgInvalidOTP)}
	}

	if err := s.tokens.Set(ctx, sid, resp.Token); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}

	ws.mu.Lock()
	ws.session = domain.Session{User: resp.User, IsAuthenticated: true}
	ws.verified = true
	ws.otpSentAt = time.Time{}
	next := domain.ResolveRoute(ws.gateInput(), domain.RouteLogin).Path
	sess := ws.session.Clone()
	ws.mu.Unlock()

	s.metrics.IncrAuthEvent("login")
	s.logger.Info("supplier logged in", zap.Bool("has_supplier_data", sess.HasSupplierData()))

	return &LoginResult{Session: sess, Next: next}, nil
}

// Login replaces the session's user wholesale and marks it authenticated.
func (s *SessionService) Login(ctx context.Context, user domain.UserRecord) error {
	ws, _, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.session = domain.Session{User: &user, IsAuthenticated: true}
	ws.verified = true
	return nil
}

// ============================================================
// Logout
// ============================================================

// Logout ends the session. The backend call is best effort; the token is
// always dropped. It returns the step to show next.
func (s *SessionService) Logout(ctx context.Context) (string, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Logout")
	defer span.End()

	_, sid, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return "", err
	}

	if token, _ := s.tokens.Get(ctx, sid); token != "" {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed", zap.Error(err))
		}
	}

	s.clear(ctx, sid)
	s.metrics.IncrAuthEvent("logout")
	return domain.RouteLogin, nil
}

// ForceLogout drops the session after the backend rejected its token.
func (s *SessionService) ForceLogout(ctx context.Context) {
	sid := domain.SessionIDFromContext(ctx)
	if sid == "" {
		return
	}
	s.clear(ctx, sid)
	s.metrics.IncrAuthEvent("forced_logout")
	s.logger.Info("session forcibly logged out")
}

func (s *SessionService) clear(ctx context.Context, sid string) {
	if err := s.tokens.Delete(context.WithoutCancel(ctx), sid); err != nil {
		s.logger.Warn("failed to delete token", zap.Error(err))
	}

	ws := s.workspaces.Get(sid)
	ws.mu.Lock()
	ws.session = domain.Session{}
	ws.verified = true
	ws.mu.Unlock()
}

// ============================================================
// Helpers
// ============================================================

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

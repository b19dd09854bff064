package service

import (
	"context"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"

	"go.uber.org/zap"
)

// NavigationService answers where a requested step actually lands.
type NavigationService struct {
	sessions   *SessionService
	workspaces *Workspaces
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNavigationService creates the navigation service.
func NewNavigationService(sessions *SessionService, workspaces *Workspaces, metrics *observability.Metrics, logger *zap.Logger) *NavigationService {
	return &NavigationService{
		sessions:   sessions,
		workspaces: workspaces,
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve applies the step gate to path for the request's session.
func (s *NavigationService) Resolve(ctx context.Context, path string) (domain.RouteDecision, error) {
	s.sessions.Bootstrap(ctx)

	var d domain.RouteDecision
	err := s.workspaces.with(ctx, func(ws *Workspace) error {
		d = domain.ResolveRoute(ws.gateInput(), path)
		return nil
	})
	if err != nil {
		return domain.RouteDecision{}, err
	}

	if d.Redirected {
		s.metrics.IncrGateRedirect(d.Path)
		s.logger.Debug("step redirected",
			zap.String("requested", d.Requested),
			zap.String("path", d.Path),
		)
	}
	return d, nil
}

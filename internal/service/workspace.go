package service

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/catalog"
	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
)

// Workspace is the in-memory state of one browser session. All fields are
// guarded by mu; callers outside this package only ever see copies.
type Workspace struct {
	mu sync.Mutex

	session    domain.Session
	draft      domain.ApplicationDraft
	selection  catalog.Selection
	submitting bool
	receipt    *domain.SubmissionReceipt
	// verified is set once the persisted token was checked against the backend.
	verified bool
	otpSentAt time.Time
}

func newWorkspace() *Workspace {
	return &Workspace{
		draft:     domain.NewDraft(),
		selection: catalog.NewSelection(),
	}
}

// Workspaces hands out the workspace of each browser session.
// Idle workspaces expire; a new one starts from an empty draft.
type Workspaces struct {
	items   *cache.InMemory[*Workspace]
	metrics *observability.Metrics
}

// NewWorkspaces creates a registry whose workspaces expire after ttl without use.
func NewWorkspaces(ttl time.Duration, metrics *observability.Metrics) *Workspaces {
	return &Workspaces{
		items:   cache.New[*Workspace](ttl, cache.WithSlidingExpiry()),
		metrics: metrics,
	}
}

// Get returns the session's workspace, creating it on first use.
func (w *Workspaces) Get(sessionID string) *Workspace {
	ws, existed := w.items.GetOrCreate(sessionID, newWorkspace)
	if !existed {
		w.metrics.SetWorkspaces(w.items.Len())
	}
	return ws
}

// Close stops the expiry loop.
func (w *Workspaces) Close() {
	w.items.Close()
}

// workspaceFor resolves the workspace bound to the request context.
func (w *Workspaces) workspaceFor(ctx context.Context) (*Workspace, string, error) {
	sid := domain.SessionIDFromContext(ctx)
	if sid == "" {
		return nil, "", &domain.ErrUnauthorized{Message: "missing browser session"}
	}
	return w.Get(sid), sid, nil
}

// gateInput reads the step gate inputs. Caller holds ws.mu.
func (ws *Workspace) gateInput() domain.GateInput {
	return domain.GateInput{
		IsAuthenticated: ws.session.IsAuthenticated,
		HasSupplierData: ws.session.HasSupplierData(),
		HasProducts:     ws.draft.HasProducts(),
	}
}

// with runs fn on the request's workspace while holding its lock.
func (w *Workspaces) with(ctx context.Context, fn func(ws *Workspace) error) error {
	ws, _, err := w.workspaceFor(ctx)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return fn(ws)
}

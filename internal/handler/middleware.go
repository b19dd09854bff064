package handler

import (
	"net/http"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"

	"go.uber.org/zap"
)

// SessionMiddleware binds the browser session id from the signed cookie to the
// request context. Requests without a valid cookie get a new session.
func SessionMiddleware(cookies *SessionCookies, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				sid    string
				issued bool
			)
			if c, err := r.Cookie(cookies.cfg.Name); err == nil {
				id, at, err := cookies.Parse(c.Value)
				if err != nil {
					logger.Debug("session: rejected cookie",
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
				} else {
					sid = id
					issued = !cookies.needsRefresh(at)
				}
			}
			if sid == "" {
				sid = NewSessionID()
			}

			if !issued {
				cookie, err := cookies.Issue(sid)
				if err != nil {
					logger.Error("session: failed to issue cookie", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				http.SetCookie(w, cookie)
			}

			ctx := domain.WithSessionID(r.Context(), sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthMiddleware lets only authenticated sessions through. The session
// is bootstrapped from the stored token the first time it is seen.
func RequireAuthMiddleware(sessions *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.Bootstrap(r.Context()).IsAuthenticated {
				logger.Debug("auth: anonymous session", zap.String("path", r.URL.Path))
				writeRedirectError(w, r, http.StatusUnauthorized, msgAuthRequired, domain.RouteLogin, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodyMiddleware caps request bodies; documents and pictures travel inline.
func MaxBodyMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

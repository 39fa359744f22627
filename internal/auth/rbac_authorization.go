package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/transport"
)

// RBACAuthorization guards routes by permission. It must run after AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
		logger:      logger,
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := ra.CurrentUser(w, r)
			if !ok {
				return
			}

			allowed, err := ra.checker.HasPermission(r.Context(), user.Permissions, permission)
			if err != nil {
				ra.logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "user_id", user.ID, "permission", permission)
				ra.HandleServiceError(w, r, err)
				return
			}
			if !allowed {
				ra.deny(w, r, user, permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := ra.CurrentUser(w, r)
			if !ok {
				return
			}

			isAdmin, err := ra.checker.IsAdminCtx(r.Context(), user.Permissions)
			if err != nil {
				ra.logger.ErrorContext(r.Context(), "admin check failed", "error", err, "user_id", user.ID)
				ra.HandleServiceError(w, r, err)
				return
			}
			if !isAdmin {
				ra.deny(w, r, user, internal.PermissionAdmin)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) deny(w http.ResponseWriter, r *http.Request, user *internal.User, permission string) {
	ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
		"user_id", user.ID,
		"required_permission", permission,
		"user_permissions", user.Permissions)
	ra.WriteAppError(w, internal.ErrPermissionDenied)
}

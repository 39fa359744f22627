package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/auth"
	"github.com/frahmantamala/feedback-management/internal/designation"
	"github.com/frahmantamala/feedback-management/internal/employee"
	"github.com/frahmantamala/feedback-management/internal/feedback"
	"github.com/frahmantamala/feedback-management/internal/question"
	"github.com/frahmantamala/feedback-management/internal/transport/middleware"
	"github.com/frahmantamala/feedback-management/internal/transport/swagger"
	"github.com/frahmantamala/feedback-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// PermissionManageQuestions allows creating feedback questions without full admin.
const PermissionManageQuestions = "manage_questions"

// Handlers groups everything the router mounts. Nil handlers are skipped,
// which lets tests mount a subset.
type Handlers struct {
	Auth        *auth.Handler
	RBAC        *auth.RBACAuthorization
	User        *user.Handler
	Employee    *employee.Handler
	Designation *designation.Handler
	Question    *question.Handler
	Feedback    *feedback.Handler
	Health      *HealthHandler

	// AuthLimiter throttles the unauthenticated /auth routes when set.
	AuthLimiter    *middleware.RateLimiter
	OpenAPISpec    []byte
	AllowedOrigins string
	RequestTimeout time.Duration
}

func RegisterAllRoutes(router chi.Router, h Handlers, logger *slog.Logger) {
	router.Use(middleware.ContextLogger(logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware)
	if h.AllowedOrigins != "" {
		router.Use(middleware.CORS(h.AllowedOrigins))
	}
	if h.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(h.RequestTimeout))
	}

	router.Get("/", Home)

	if len(h.OpenAPISpec) > 0 {
		router.Get(swagger.SpecPath, swagger.SpecHandler(h.OpenAPISpec))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			if h.AuthLimiter != nil {
				ar.Use(h.AuthLimiter.Middleware)
			}
			ar.Post("/register", h.Auth.Register)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/token/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.Employee != nil {
				pr.Get("/employees", h.Employee.ListEmployees)
			}

			if h.Designation != nil {
				pr.Get("/designations", h.Designation.ListDesignations)
				pr.With(adminOnly(h.RBAC)).Post("/designations", h.Designation.CreateDesignation)
			}

			if h.Question != nil {
				pr.Get("/questions", h.Question.ListQuestions)
				pr.With(requirePermission(h.RBAC, PermissionManageQuestions)).Post("/questions", h.Question.CreateQuestion)
			}

			if h.Feedback != nil {
				pr.Route("/feedback", func(fr chi.Router) {
					fr.Post("/submit", h.Feedback.SubmitFeedback)
					fr.Get("/my", h.Feedback.ListMyFeedback)

					fr.Group(func(ar chi.Router) {
						ar.Use(adminOnly(h.RBAC))
						ar.Get("/admin", h.Feedback.AdminFilter)
						ar.Post("/admin", h.Feedback.AdminFilter)
					})
				})
			}
		})
	})
}

// adminOnly and requirePermission fail closed when no authorizer is wired.
func adminOnly(rbac *auth.RBACAuthorization) func(http.Handler) http.Handler {
	if rbac == nil {
		return denyAll
	}
	return rbac.RequireAdmin()
}

func requirePermission(rbac *auth.RBACAuthorization, permission string) func(http.Handler) http.Handler {
	if rbac == nil {
		return denyAll
	}
	return rbac.Middleware(permission)
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, body := internal.ErrPermissionDenied.ToHTTPResponse()
		writeJSON(w, status, body)
	})
}

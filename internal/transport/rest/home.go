package rest

import "net/http"

type endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   string `json:"auth"`
}

var endpoints = []endpoint{
	{http.MethodPost, "/api/v1/auth/register", "public"},
	{http.MethodPost, "/api/v1/auth/login", "public"},
	{http.MethodPost, "/api/v1/auth/token/refresh", "public"},
	{http.MethodGet, "/api/v1/employees", "authenticated"},
	{http.MethodGet, "/api/v1/designations", "authenticated"},
	{http.MethodPost, "/api/v1/designations", "admin"},
	{http.MethodGet, "/api/v1/questions", "authenticated"},
	{http.MethodPost, "/api/v1/questions", "manage_questions"},
	{http.MethodPost, "/api/v1/feedback/submit", "authenticated"},
	{http.MethodGet, "/api/v1/feedback/my", "authenticated"},
	{http.MethodGet, "/api/v1/feedback/admin", "admin"},
	{http.MethodPost, "/api/v1/feedback/admin", "admin"},
	{http.MethodGet, "/api/v1/users/me", "authenticated"},
	{http.MethodGet, "/api/v1/health", "public"},
}

// Home lists the API surface for humans poking at the root URL.
func Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "feedback-management",
		"docs":      "/swagger/index.html",
		"openapi":   "/openapi.yml",
		"endpoints": endpoints,
	})
}

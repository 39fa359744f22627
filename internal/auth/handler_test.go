package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/auth"
	"github.com/frahmantamala/feedback-management/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
	return body.Error.Code
}

func jsonBody(v interface{}) *bytes.Reader {
	b, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return bytes.NewReader(b)
}

var _ = Describe("Auth Handler", func() {
	var (
		repo    *mockUserRepository
		service *auth.Service
		handler *auth.Handler
		rbac    *auth.RBACAuthorization
		ok      http.Handler
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		tokens := auth.NewJWTTokenGenerator(testAccessSecret, testRefreshSecret, 15*time.Minute, time.Hour)
		service = auth.NewService(repo, &mockDesignations{}, tokens, &recordingPublisher{}, testLogger(), bcrypt.MinCost)
		handler = auth.NewHandler(transport.NewBaseHandler(testLogger()), service)
		rbac = auth.NewRBACAuthorization(auth.NewPermissionChecker(), testLogger())
		ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _ := internal.UserFromContext(r.Context())
			w.Header().Set("X-User", u.Username)
			w.WriteHeader(http.StatusNoContent)
		})
	})

	login := func(username string) string {
		_, err := service.Register(context.Background(), auth.RegisterDTO{Username: username, Password: "secret123"})
		Expect(err).NotTo(HaveOccurred())
		pair, err := service.Authenticate(context.Background(), auth.LoginDTO{Username: username, Password: "secret123"})
		Expect(err).NotTo(HaveOccurred())
		return pair.AccessToken
	}

	Describe("Register", func() {
		It("should answer 201 with the employee summary", func() {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(map[string]string{
				"username": "alice",
				"password": "secret123",
			}))
			handler.Register(w, r)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var out auth.RegisteredUser
			Expect(json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed())
			Expect(out.Employee.EmployeeCode).To(Equal("EMP0001"))
			Expect(w.Body.String()).NotTo(ContainSubstring("secret123"))
		})

		It("should answer 400 for a malformed body", func() {
			w := httptest.NewRecorder()
			handler.Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{")))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodeInvalidRequestBody)))
		})
	})

	Describe("Login", func() {
		It("should answer 401 for bad credentials", func() {
			login("alice")
			w := httptest.NewRecorder()
			handler.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(map[string]string{
				"username": "alice",
				"password": "nope",
			})))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodeInvalidCredentials)))
		})
	})

	Describe("AuthMiddleware", func() {
		It("should reject a request without a token", func() {
			w := httptest.NewRecorder()
			handler.AuthMiddleware(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodeMissingToken)))
		})

		It("should reject an invalid token", func() {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer nope")
			w := httptest.NewRecorder()
			handler.AuthMiddleware(ok).ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodeInvalidToken)))
		})

		It("should load the caller into the context", func() {
			token := login("alice")
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "bearer "+token)
			w := httptest.NewRecorder()
			handler.AuthMiddleware(ok).ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Header().Get("X-User")).To(Equal("alice"))
		})

		It("should reject a token of a deactivated user", func() {
			token := login("alice")
			repo.deactivate("alice")
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.AuthMiddleware(ok).ServeHTTP(w, r)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RBACAuthorization", func() {
		serve := func(mw func(http.Handler) http.Handler, user *internal.User) *httptest.ResponseRecorder {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(internal.ContextWithUser(r.Context(), user))
			w := httptest.NewRecorder()
			mw(ok).ServeHTTP(w, r)
			return w
		}

		It("should let admins through RequireAdmin", func() {
			w := serve(rbac.RequireAdmin(), &internal.User{ID: 1, Username: "root", Permissions: []string{"admin"}})
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("should answer 403 for non admins", func() {
			w := serve(rbac.RequireAdmin(), &internal.User{ID: 2, Username: "bob"})
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodePermissionDenied)))
		})

		It("should accept the named permission or admin", func() {
			mw := rbac.Middleware("manage_questions")
			Expect(serve(mw, &internal.User{ID: 3, Username: "qm", Permissions: []string{"manage_questions"}}).Code).To(Equal(http.StatusNoContent))
			Expect(serve(mw, &internal.User{ID: 1, Username: "root", Permissions: []string{"admin"}}).Code).To(Equal(http.StatusNoContent))
			Expect(serve(mw, &internal.User{ID: 2, Username: "bob", Permissions: []string{"other"}}).Code).To(Equal(http.StatusForbidden))
		})

		It("should answer 401 when no user is in the context", func() {
			w := httptest.NewRecorder()
			rbac.RequireAdmin()(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})

package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/user"
	"github.com/frahmantamala/feedback-management/internal/employee"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*RegisteredUser, error)
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error)
}

type RepositoryAPI interface {
	GetCredentials(ctx context.Context, username string) (*Credentials, error)
	GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreateUserWithEmployee(ctx context.Context, u *userDatamodel.User, profile employee.Profile) (*employeeDatamodel.Employee, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	GrantPermission(ctx context.Context, userID int64, permission string) error
}

// DesignationLookup is the slice of the designation catalog registration needs.
type DesignationLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, username string) (string, error)
	GenerateRefreshToken(userID int64, username string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// Credentials is what login needs to verify a password.
type Credentials struct {
	UserID       int64
	Username     string
	PasswordHash string
	IsActive     bool
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

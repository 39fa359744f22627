package auth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/core/common/dberrors"
	"github.com/frahmantamala/feedback-management/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/user"
	"github.com/frahmantamala/feedback-management/internal/core/events"
	"github.com/frahmantamala/feedback-management/internal/employee"
	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type Service struct {
	repo         RepositoryAPI
	designations DesignationLookup
	tokens       TokenGeneratorAPI
	publisher    events.Publisher
	logger       *slog.Logger
	bcryptCost   int
	now          func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(repo RepositoryAPI, designations DesignationLookup, tokens TokenGeneratorAPI, publisher events.Publisher, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:         repo,
		designations: designations,
		tokens:       tokens,
		publisher:    publisher,
		logger:       logger,
		bcryptCost:   bcryptCost,
		now:          time.Now,
	}
}

// Register creates the user and its employee record in one transaction.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*RegisteredUser, error) {
	dto.Normalize()

	v := validation.NewValidator()
	v.Field("username", dto.Username).Custom(func(value interface{}) *internal.AppError {
		if name, _ := value.(string); name != "" && !usernamePattern.MatchString(name) {
			return internal.NewValidationFieldError("username",
				"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
				internal.ErrCodeValidationFailed)
		}
		return nil
	})
	if err := internal.Merge(validation.ValidateStruct(dto), v.Validate()); err != nil {
		return nil, err
	}

	taken, err := s.repo.UsernameExists(ctx, dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to check username", err)
	}
	if taken {
		return nil, usernameTaken()
	}

	if dto.DesignationID != nil {
		ok, err := s.designations.Exists(ctx, *dto.DesignationID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check designation", err)
		}
		if !ok {
			return nil, invalidDesignation(*dto.DesignationID)
		}
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := s.now().UTC()
	u := &userDatamodel.User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	emp, err := s.repo.CreateUserWithEmployee(ctx, u, employee.Profile{
		DesignationID: dto.DesignationID,
		Department:    dto.Department,
	})
	if err != nil {
		if dberrors.IsDuplicateConstraint(err, "users_username_key", "users.username") {
			return nil, usernameTaken()
		}
		// the designation may be deleted between the check above and the insert
		if dto.DesignationID != nil && dberrors.IsForeignKeyViolation(err) {
			return nil, invalidDesignation(*dto.DesignationID)
		}
		return nil, internal.NewInternalError("failed to register user", err)
	}

	code := ""
	if emp.EmployeeCode != nil {
		code = *emp.EmployeeCode
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "employee_id", emp.ID, "employee_code", code)
	s.publisher.Publish(ctx, events.NewEmployeeRegisteredEvent(u.ID, emp.ID, u.Username, code))

	return &RegisteredUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Employee: EmployeeSummary{
			ID:            emp.ID,
			EmployeeCode:  code,
			DesignationID: emp.DesignationID,
			Department:    emp.Department,
		},
	}, nil
}

func usernameTaken() *internal.AppError {
	return internal.NewValidationFieldError("username", "A user with that username already exists.", internal.ErrCodeUsernameTaken)
}

func invalidDesignation(id int64) *internal.AppError {
	return internal.NewValidationFieldError("designation_id",
		fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id),
		internal.ErrCodeInvalidDesignation)
}

// Authenticate validates credentials and returns tokens. Unknown usernames
// still pay for one bcrypt comparison so timing does not reveal them.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := validation.ValidateStruct(dto); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to load credentials", err)
	}
	if creds == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(dto.Password))
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	tokens, err := s.issue(creds.UserID, creds.Username)
	if err != nil {
		return AuthTokens{}, err
	}

	if err := s.repo.UpdateLastLogin(ctx, creds.UserID, s.now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login", "user_id", creds.UserID, "error", err)
	}

	return tokens, nil
}

// RefreshTokens exchanges a valid refresh token for a new token pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	if err := validation.ValidateStruct(RefreshTokenDTO{RefreshToken: refreshToken}); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	user, err := s.repo.GetUserWithPermissions(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issue(user.ID, user.Username)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

// GetUserWithPermissions returns nil when the user does not exist or is inactive.
func (s *Service) GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error) {
	return s.repo.GetUserWithPermissions(ctx, userID)
}

// GrantPermission is used by operators from the CLI.
func (s *Service) GrantPermission(ctx context.Context, userID int64, permission string) error {
	return s.repo.GrantPermission(ctx, userID, permission)
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issue(userID int64, username string) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(userID, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(userID, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue refresh token", err)
	}
	return AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	})
	return s.dummyHash
}

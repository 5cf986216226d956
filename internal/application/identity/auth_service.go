// Package identity implements employee authentication and account
// management over the encrypted employee store.
package identity

import (
	"context"
	"strings"

	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/auth"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EmployeeStore is the employee lookup the auth flows depend on.
// Satisfied by persistence.EmployeeRepository.
type EmployeeStore interface {
	GetByLogin(ctx context.Context, login string) (*models.Employee, error)
	GetByID(ctx context.Context, id int) (*models.Employee, error)
}

// AuthService handles login, refresh and session introspection
type AuthService struct {
	employees EmployeeStore
	jwt       *auth.JWTService
	log       *zap.Logger
}

// NewAuthService creates the auth service
func NewAuthService(employees EmployeeStore, jwt *auth.JWTService, log *zap.Logger) *AuthService {
	return &AuthService{employees: employees, jwt: jwt, log: log}
}

// invalidCredentials deliberately does not reveal whether the login or
// the password was wrong.
func invalidCredentials() error {
	return shared.NewDomainError("INVALID_CREDENTIALS", "Invalid login or password")
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	login := strings.TrimSpace(strings.ToLower(input.Login))
	employee, err := s.employees.GetByLogin(ctx, login)
	if err != nil {
		s.log.Warn("login attempt for unknown account", zap.String("login", login))
		return nil, invalidCredentials()
	}
	if !employee.IsActive() {
		s.log.Warn("login attempt for inactive account",
			zap.Int("employee_id", employee.ID),
			zap.Bool("blocked", employee.IsBlocked),
			zap.Bool("deleted", employee.IsDeleted))
		return nil, shared.ErrAccountBlocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(input.Password)); err != nil {
		s.log.Warn("wrong password", zap.Int("employee_id", employee.ID))
		return nil, invalidCredentials()
	}

	pair, err := s.jwt.GenerateTokenPair(employee.ID, employee.RoleID)
	if err != nil {
		return nil, err
	}
	s.log.Info("employee logged in", zap.Int("employee_id", employee.ID))
	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		Employee:              employeeInfo(employee),
	}, nil
}

// Refresh exchanges a refresh token for a fresh pair. The account state
// is re-checked so blocked employees cannot keep rotating tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	employeeID, err := claims.EmployeeID()
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	if !employee.IsActive() {
		return nil, shared.ErrAccountBlocked
	}

	pair, err := s.jwt.GenerateTokenPair(employee.ID, employee.RoleID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		Employee:              employeeInfo(employee),
	}, nil
}

// Me returns the current employee's projection
func (s *AuthService) Me(ctx context.Context, employeeID int) (*EmployeeInfo, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	info := employeeInfo(employee)
	return &info, nil
}

// HashPassword derives the bcrypt hash stored for an employee
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var _ EmployeeStore = (*persistence.EmployeeRepository)(nil)

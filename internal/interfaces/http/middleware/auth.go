package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/infrastructure/auth"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware
const (
	ContextEmployeeKey   = "employee"
	ContextEmployeeIDKey = "employee_id"
	ContextRoleIDKey     = "role_id"
	ContextClaimsKey     = "token_claims"
)

// EmployeeLoader resolves an authenticated employee id to the account
// row so blocked and deleted accounts can be rejected per request.
type EmployeeLoader interface {
	GetByID(ctx context.Context, id int) (*models.Employee, error)
}

// AuthConfig configures the employee authentication middleware
type AuthConfig struct {
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	Employees EmployeeLoader
	Log       *zap.Logger
}

// EmployeeAuth authenticates requests by the employee access token. The
// token is read from the employee_access_token cookie, falling back to
// a Bearer header for non-browser clients. Blocked or deleted accounts
// get 403 even while their token is still valid.
func EmployeeAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			unauthorized(c, "Missing access token")
			return
		}

		claims, err := cfg.JWT.ValidateAccessToken(token)
		if err != nil {
			unauthorized(c, "Invalid or expired access token")
			return
		}

		ctx := c.Request.Context()
		if cfg.Blacklist != nil && claims.ID != "" {
			revoked, err := cfg.Blacklist.IsBlacklisted(ctx, claims.ID)
			if err != nil && cfg.Log != nil {
				// Fail open on blacklist backend errors: revocation is
				// best-effort, expiry still bounds the token lifetime.
				cfg.Log.Warn("token blacklist check failed", zap.Error(err))
			}
			if revoked {
				unauthorized(c, "Token has been revoked")
				return
			}
		}

		employeeID, err := claims.EmployeeID()
		if err != nil {
			unauthorized(c, "Invalid token subject")
			return
		}

		employee, err := cfg.Employees.GetByID(ctx, employeeID)
		if err != nil {
			unauthorized(c, "Unknown employee account")
			return
		}
		if !employee.IsActive() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeAccountBlocked, "Employee account is blocked or deleted"))
			return
		}

		c.Set(ContextEmployeeKey, employee)
		c.Set(ContextEmployeeIDKey, employee.ID)
		c.Set(ContextRoleIDKey, employee.RoleID)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin gates a route group to the admin roles. Must run after
// EmployeeAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		employee := CurrentEmployee(c)
		if employee == nil {
			unauthorized(c, "Authentication required")
			return
		}
		if !employee.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Administrator role required"))
			return
		}
		c.Next()
	}
}

// CurrentEmployee returns the authenticated employee, or nil outside an
// authenticated context
func CurrentEmployee(c *gin.Context) *models.Employee {
	value, ok := c.Get(ContextEmployeeKey)
	if !ok {
		return nil
	}
	employee, ok := value.(*models.Employee)
	if !ok {
		return nil
	}
	return employee
}

// CurrentEmployeeID returns the authenticated employee id, or 0
func CurrentEmployeeID(c *gin.Context) int {
	return c.GetInt(ContextEmployeeIDKey)
}

// CurrentClaims returns the validated token claims, or nil
func CurrentClaims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(auth.CookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	return ""
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}

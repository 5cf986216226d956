package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/auth"
	"github.com/taxgeo/backend/internal/infrastructure/config"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

type fakeLoader struct {
	employees map[int]*models.Employee
}

func (f *fakeLoader) GetByID(_ context.Context, id int) (*models.Employee, error) {
	employee, ok := f.employees[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return employee, nil
}

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-test-secret-test-secret",
		Algorithm:              "HS256",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "taxgeo-test",
	})
}

func authTestRouter(t *testing.T, loader EmployeeLoader, jwtService *auth.JWTService, admin bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	chain := []gin.HandlerFunc{EmployeeAuth(AuthConfig{
		JWT:       jwtService,
		Employees: loader,
		Log:       zap.NewNop(),
	})}
	if admin {
		chain = append(chain, RequireAdmin())
	}
	engine.GET("/protected", append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"employee_id": CurrentEmployeeID(c)})
	})...)
	return engine
}

func requestWithCookie(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	return req
}

func TestEmployeeAuth_CookieAccepted(t *testing.T) {
	jwtService := testJWTService()
	loader := &fakeLoader{employees: map[int]*models.Employee{
		7: {BaseModel: models.BaseModel{ID: 7}, Login: "inspector", RoleID: 1},
	}}
	engine := authTestRouter(t, loader, jwtService, false)

	pair, err := jwtService.GenerateTokenPair(7, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, requestWithCookie(pair.AccessToken))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"employee_id":7`)
}

func TestEmployeeAuth_BearerFallback(t *testing.T) {
	jwtService := testJWTService()
	loader := &fakeLoader{employees: map[int]*models.Employee{
		7: {BaseModel: models.BaseModel{ID: 7}, RoleID: 1},
	}}
	engine := authTestRouter(t, loader, jwtService, false)

	pair, err := jwtService.GenerateTokenPair(7, 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmployeeAuth_MissingToken(t *testing.T) {
	engine := authTestRouter(t, &fakeLoader{}, testJWTService(), false)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, requestWithCookie(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmployeeAuth_RefreshTokenRejected(t *testing.T) {
	jwtService := testJWTService()
	loader := &fakeLoader{employees: map[int]*models.Employee{7: {BaseModel: models.BaseModel{ID: 7}}}}
	engine := authTestRouter(t, loader, jwtService, false)

	pair, err := jwtService.GenerateTokenPair(7, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, requestWithCookie(pair.RefreshToken))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmployeeAuth_BlockedAccount(t *testing.T) {
	jwtService := testJWTService()
	loader := &fakeLoader{employees: map[int]*models.Employee{
		7: {BaseModel: models.BaseModel{ID: 7}, RoleID: 1, IsBlocked: true},
	}}
	engine := authTestRouter(t, loader, jwtService, false)

	pair, err := jwtService.GenerateTokenPair(7, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, requestWithCookie(pair.AccessToken))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACCOUNT_BLOCKED")
}

func TestRequireAdmin(t *testing.T) {
	jwtService := testJWTService()
	loader := &fakeLoader{employees: map[int]*models.Employee{
		1: {BaseModel: models.BaseModel{ID: 1}, RoleID: 1},
		3: {BaseModel: models.BaseModel{ID: 3}, RoleID: models.RoleAdmin},
		4: {BaseModel: models.BaseModel{ID: 4}, RoleID: models.RoleSuperAdmin},
	}}
	engine := authTestRouter(t, loader, jwtService, true)

	tests := []struct {
		employeeID int
		roleID     int
		want       int
	}{
		{1, 1, http.StatusForbidden},
		{3, models.RoleAdmin, http.StatusOK},
		{4, models.RoleSuperAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		pair, err := jwtService.GenerateTokenPair(tt.employeeID, tt.roleID)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, requestWithCookie(pair.AccessToken))
		assert.Equal(t, tt.want, rec.Code, "role %d", tt.roleID)
	}
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/auth"
	"github.com/taxgeo/backend/internal/infrastructure/config"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

type fakeEmployees struct {
	byLogin map[string]*models.Employee
	byID    map[int]*models.Employee
}

func (f *fakeEmployees) GetByLogin(_ context.Context, login string) (*models.Employee, error) {
	if e, ok := f.byLogin[login]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeEmployees) GetByID(_ context.Context, id int) (*models.Employee, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func testJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-test-secret-test-secret",
		Algorithm:              "HS256",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "test",
	})
}

func employee(t *testing.T, id int, login, password string) *models.Employee {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	e := &models.Employee{Login: login, PasswordHash: hash, RoleID: models.RoleAdmin}
	e.ID = id
	return e
}

func newAuthService(t *testing.T, employees ...*models.Employee) (*AuthService, *fakeEmployees) {
	t.Helper()
	store := &fakeEmployees{byLogin: map[string]*models.Employee{}, byID: map[int]*models.Employee{}}
	for _, e := range employees {
		store.byLogin[e.Login] = e
		store.byID[e.ID] = e
	}
	return NewAuthService(store, testJWT(), zap.NewNop()), store
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newAuthService(t, employee(t, 42, "inspector", "correct horse"))

	result, err := svc.Login(context.Background(), LoginInput{Login: "Inspector", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, 42, result.Employee.ID)
	assert.True(t, result.Employee.IsAdmin)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthService(t, employee(t, 42, "inspector", "correct horse"))

	_, err := svc.Login(context.Background(), LoginInput{Login: "inspector", Password: "battery staple"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestLogin_UnknownLoginSameError(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), LoginInput{Login: "ghost", Password: "x"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code,
		"unknown login and wrong password must be indistinguishable")
}

func TestLogin_BlockedAccount(t *testing.T) {
	blocked := employee(t, 42, "inspector", "correct horse")
	blocked.IsBlocked = true
	svc, _ := newAuthService(t, blocked)

	_, err := svc.Login(context.Background(), LoginInput{Login: "inspector", Password: "correct horse"})
	assert.ErrorIs(t, err, shared.ErrAccountBlocked)
}

func TestRefresh_RoundTrip(t *testing.T) {
	svc, _ := newAuthService(t, employee(t, 42, "inspector", "correct horse"))

	login, err := svc.Login(context.Background(), LoginInput{Login: "inspector", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 42, refreshed.Employee.ID)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	svc, _ := newAuthService(t, employee(t, 42, "inspector", "correct horse"))

	login, err := svc.Login(context.Background(), LoginInput{Login: "inspector", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.AccessToken)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestRefresh_BlockedMidSession(t *testing.T) {
	emp := employee(t, 42, "inspector", "correct horse")
	svc, store := newAuthService(t, emp)

	login, err := svc.Login(context.Background(), LoginInput{Login: "inspector", Password: "correct horse"})
	require.NoError(t, err)

	store.byID[42].IsBlocked = true
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrAccountBlocked)
}

func TestMe(t *testing.T) {
	svc, _ := newAuthService(t, employee(t, 42, "inspector", "correct horse"))

	info, err := svc.Me(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "inspector", info.Login)

	_, err = svc.Me(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

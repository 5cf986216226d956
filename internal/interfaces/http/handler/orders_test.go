package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxgeo/backend/internal/application/orders"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func newOrdersRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, mock := newTestDB(t)
	service := orders.NewService(&persistence.Database{DB: gdb}, storage.NewStubObjectStorage(), zap.NewNop())

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewOrdersHandler(service, nil, zap.NewNop()).RegisterRoutes(api)
	return engine, mock
}

func TestOrderRoutesRunAuthChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb, _ := newTestDB(t)
	service := orders.NewService(&persistence.Database{DB: gdb}, storage.NewStubObjectStorage(), zap.NewNop())

	reject := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "UNAUTHORIZED"}})
	}
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewOrdersHandler(service, nil, zap.NewNop(), reject).RegisterRoutes(api)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPatch, "/api/v1/orders/5"},
		{http.MethodDelete, "/api/v1/orders/5"},
		{http.MethodPost, "/api/v1/risks/bulk-assign"},
		{http.MethodDelete, "/api/v1/order-files/5"},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s bypassed the auth chain", route.method, route.path)
	}
}

func patchOrder(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/5", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestPatchOrder_EmptyBodyRejected(t *testing.T) {
	engine, mock := newOrdersRouter(t)

	rec := patchOrder(engine, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMPTY_PATCH", errorCode(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchOrder_UnknownFieldRejected(t *testing.T) {
	engine, mock := newOrdersRouter(t)

	rec := patchOrder(engine, `{"is_ordered": true}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_FIELD", errorCode(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchOrder_AppliesUpdate(t *testing.T) {
	engine, mock := newOrdersRouter(t)

	existing := sqlmock.NewRows([]string{"id", "status_id"}).AddRow(5, 1)
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1`).
		WithArgs(5, 1).
		WillReturnRows(existing)
	mock.ExpectExec(`UPDATE "orders" SET "status_id"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	updated := sqlmock.NewRows([]string{"id", "status_id"}).AddRow(5, 2)
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1`).
		WithArgs(5, 1).
		WillReturnRows(updated)

	rec := patchOrder(engine, `{"status_id": 2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_Returns201(t *testing.T) {
	engine, mock := newOrdersRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"status_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 9, body.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkAssign_RequiresOrderID(t *testing.T) {
	engine, mock := newOrdersRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risks/bulk-assign",
		strings.NewReader(`{"risk_ids":[1,2]}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func newDictionaryRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, mock := newTestDB(t)
	repo := persistence.NewRepository[models.Oked](gdb, zap.NewNop())
	bind := func(c *gin.Context) (persistence.Filter, error) {
		var model models.Oked
		filter := persistence.NewDictionaryFilter(&model)
		if err := c.ShouldBindQuery(filter); err != nil {
			return nil, err
		}
		return filter, nil
	}

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewCRUDHandler("oked", repo, bind, zap.NewNop()).RegisterRoutes(api)
	return engine, mock
}

func okedRows(codes ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "code"})
	for i, code := range codes {
		rows.AddRow(i+1, code)
	}
	return rows
}

func TestCRUDList_BareArrayWithoutPageSize(t *testing.T) {
	engine, mock := newDictionaryRouter(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "dic_oked"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "dic_oked" ORDER BY id ASC`).
		WillReturnRows(okedRows("01.11", "01.12"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/oked", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUDList_PaginatedEnvelope(t *testing.T) {
	engine, mock := newDictionaryRouter(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "dic_oked"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT \* FROM "dic_oked" ORDER BY id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 2).
		WillReturnRows(okedRows("01.13", "01.14"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/oked?page=2&page_size=2", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data      []map[string]any `json:"data"`
		Page      int              `json:"page"`
		Total     int64            `json:"total"`
		PageCount int              `json:"page_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, int64(5), body.Total)
	assert.Equal(t, 3, body.PageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUDList_SortFieldValidated(t *testing.T) {
	engine, mock := newDictionaryRouter(t)

	// A sort field outside the allowlist must fall back to id.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "dic_oked"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "dic_oked" ORDER BY id DESC`).
		WillReturnRows(okedRows())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/oked?sort_by=name_kz&sort_order=desc", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUDGetByID_NotFound(t *testing.T) {
	engine, mock := newDictionaryRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "dic_oked" WHERE id = \$1`).
		WithArgs(42, 1).
		WillReturnRows(okedRows())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/oked/42", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestCRUDGetByID_BadID(t *testing.T) {
	engine, _ := newDictionaryRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/oked/abc", nil)
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCRUDCount(t *testing.T) {
	engine, mock := newDictionaryRouter(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "dic_oked" WHERE code = \$1`).
		WithArgs("01.11").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/oked/count?code=01.11", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())
}

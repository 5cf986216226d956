package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestNewPaginated(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		page      *int
		pageSize  *int
		wantPage  int
		wantCount int
	}{
		{"full pages", 10, intPtr(2), intPtr(5), 2, 2},
		{"partial last page", 11, intPtr(1), intPtr(5), 1, 3},
		{"no page defaults to one", 7, nil, intPtr(10), 1, 1},
		{"no page size", 7, intPtr(3), nil, 3, 1},
		{"empty result", 0, intPtr(1), intPtr(20), 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginated([]int{}, tt.total, tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.wantCount, p.PageCount)
		})
	}
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeEmptyPatch))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeAlreadyExists))
	assert.Equal(t, http.StatusForbidden, GetHTTPStatus(ErrCodeAccountBlocked))
	assert.Equal(t, http.StatusUnauthorized, GetHTTPStatus(ErrCodeInvalidCredentials))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_NEW"))
}

// Package dto defines the wire shapes of the HTTP API: the paginated
// list envelope, the error envelope, and the error-code to status map.
package dto

import "math"

// ErrorInfo is the body of every error response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an error for transport
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// NewErrorResponse creates an error envelope
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorInfo{Code: code, Message: message}}
}

// Paginated is the list envelope returned when the client sets
// page_size. Listing without page_size returns the bare array instead.
type Paginated struct {
	Data      any   `json:"data"`
	Page      int   `json:"page"`
	Total     int64 `json:"total"`
	PageCount int   `json:"page_count"`
}

// NewPaginated builds the envelope. PageCount is ceil(total/pageSize),
// or 1 when pageSize is absent or zero.
func NewPaginated(data any, total int64, page, pageSize *int) Paginated {
	p := Paginated{Data: data, Page: 1, Total: total, PageCount: 1}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if pageSize != nil && *pageSize > 0 {
		p.PageCount = int(math.Ceil(float64(total) / float64(*pageSize)))
	}
	return p
}

// ListQuery carries the pagination and ordering query parameters shared
// by every list endpoint.
type ListQuery struct {
	Page      *int   `form:"page" binding:"omitempty,min=1"`
	PageSize  *int   `form:"page_size" binding:"omitempty,min=1,max=1000"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// CountResponse is the body of GET /count endpoints
type CountResponse struct {
	Count int64 `json:"count"`
}

// Package handler contains the HTTP handlers and the generic CRUD
// endpoint generator the dictionary and entity routers are built from.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// BaseHandler provides response helpers shared by all handlers
type BaseHandler struct {
	log *zap.Logger
}

// NewBaseHandler creates a base handler
func NewBaseHandler(log *zap.Logger) BaseHandler {
	return BaseHandler{log: log}
}

// OK writes a 200 with the payload as-is
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 with the payload
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent writes a 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest writes a 400 with the given code
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(code, message))
}

// BindError writes a 400 for a failed request binding
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	h.BadRequest(c, dto.ErrCodeValidation, err.Error())
}

// Error translates a service error into an HTTP response. Domain errors
// carry their own code; anything else is an opaque 500.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if status >= http.StatusInternalServerError && h.log != nil {
			h.log.Error("request failed",
				zap.String("path", c.FullPath()),
				zap.Error(err))
		}
		c.JSON(status, dto.NewErrorResponse(domainErr.Code, domainErr.Message))
		return
	}

	if h.log != nil {
		h.log.Error("unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.ErrCodeInternal, "Internal server error"))
}

func parsePositiveInt(raw string) (int, bool) {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// PathID parses the named integer path parameter, writing a 400 and
// returning ok=false when it is not a positive integer.
func (h *BaseHandler) PathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		h.BadRequest(c, dto.ErrCodeValidation, "Parameter "+name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

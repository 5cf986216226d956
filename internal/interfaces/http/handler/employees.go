package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/application/identity"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// EmployeesHandler serves employee account administration. All routes
// require an authenticated admin.
type EmployeesHandler struct {
	BaseHandler
	service    *identity.EmployeeService
	middleware []gin.HandlerFunc
}

// NewEmployeesHandler creates the employee admin handler; mw is the
// auth chain (employee auth + admin role check).
func NewEmployeesHandler(service *identity.EmployeeService, log *zap.Logger, mw ...gin.HandlerFunc) *EmployeesHandler {
	return &EmployeesHandler{
		BaseHandler: NewBaseHandler(log),
		service:     service,
		middleware:  mw,
	}
}

// RegisterRoutes mounts the employee admin routes
func (h *EmployeesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/employees")
	g.Use(h.middleware...)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/:id/block", h.Block)
	g.POST("/:id/unblock", h.Unblock)
	g.DELETE("/:id", h.Delete)
}

// Create handles POST /employees, returning 409 on a duplicate login
func (h *EmployeesHandler) Create(c *gin.Context) {
	var input identity.CreateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindError(c, err)
		return
	}
	info, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, info)
}

// List handles GET /employees
func (h *EmployeesHandler) List(c *gin.Context) {
	var lq dto.ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		h.BindError(c, err)
		return
	}
	var filter persistence.EmployeeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	rows, total, err := h.service.List(c.Request.Context(), &filter, lq.PageSize, lq.Page)
	if err != nil {
		h.Error(c, err)
		return
	}
	if lq.PageSize != nil {
		h.OK(c, dto.NewPaginated(rows, total, lq.Page, lq.PageSize))
		return
	}
	h.OK(c, rows)
}

// Block handles POST /employees/:id/block
func (h *EmployeesHandler) Block(c *gin.Context) {
	h.setBlocked(c, true)
}

// Unblock handles POST /employees/:id/unblock
func (h *EmployeesHandler) Unblock(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *EmployeesHandler) setBlocked(c *gin.Context, blocked bool) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.SetBlocked(c.Request.Context(), id, blocked); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Delete handles DELETE /employees/:id (soft delete)
func (h *EmployeesHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

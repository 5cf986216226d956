package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/application/orders"
	"github.com/taxgeo/backend/internal/infrastructure/cache"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// maxUploadSize bounds a single execution file
const maxUploadSize = 32 << 20

// OrdersHandler serves the risk-workorder workflow: orders, bulk risk
// assignment, executions and their files. Writes invalidate the cached
// order and risk namespaces. Every route requires an authenticated
// employee.
type OrdersHandler struct {
	BaseHandler
	service    *orders.Service
	store      *cache.ResponseCache
	middleware []gin.HandlerFunc
}

// NewOrdersHandler creates the orders handler; mw is the auth chain
func NewOrdersHandler(service *orders.Service, store *cache.ResponseCache, log *zap.Logger, mw ...gin.HandlerFunc) *OrdersHandler {
	return &OrdersHandler{
		BaseHandler: NewBaseHandler(log),
		service:     service,
		store:       store,
		middleware:  mw,
	}
}

// RegisterRoutes mounts the order workflow routes
func (h *OrdersHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/orders")
	g.Use(h.middleware...)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Patch)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/risks", h.AssignRisks)
	g.POST("/:id/executions", h.CreateExecution)
	g.POST("/:id/executions/:execution_id/files", h.AttachFile)

	risks := rg.Group("/risks")
	risks.Use(h.middleware...)
	risks.POST("/bulk-assign", h.BulkAssign)
	risks.POST("/bulk-unassign", h.BulkUnassign)

	files := rg.Group("/order-files")
	files.Use(h.middleware...)
	files.GET("/:id/download-url", h.FileDownloadURL)
	files.DELETE("/:id", h.DeleteFile)
}

func (h *OrdersHandler) invalidate(c *gin.Context) {
	if h.store == nil {
		return
	}
	ctx := c.Request.Context()
	h.store.Invalidate(ctx, "orders")
	h.store.Invalidate(ctx, "risks")
}

// Create handles POST /orders
func (h *OrdersHandler) Create(c *gin.Context) {
	var input orders.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.Created(c, order)
}

// List handles GET /orders
func (h *OrdersHandler) List(c *gin.Context) {
	var lq dto.ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		h.BindError(c, err)
		return
	}
	var filter persistence.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	ordered := orderedFilter{
		Filter: &filter,
		order: persistence.ValidateSortField(lq.SortBy, persistence.OrderSortFields, "id") +
			" " + persistence.ValidateSortOrder(lq.SortOrder),
	}
	rows, total, err := h.service.ListOrders(c.Request.Context(), ordered, lq.PageSize, lq.Page)
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

// Get handles GET /orders/:id
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Patch handles PATCH /orders/:id. The body is a free-form field map;
// an empty map is rejected with 400.
func (h *OrdersHandler) Patch(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.service.PatchOrder(c.Request.Context(), id, values)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, order)
}

// Delete handles DELETE /orders/:id, releasing assigned risks
func (h *OrdersHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.NoContent(c)
}

type riskSetRequest struct {
	OrderID int   `json:"order_id"`
	RiskIDs []int `json:"risk_ids"`
}

type riskSetResponse struct {
	Updated int64 `json:"updated"`
}

// AssignRisks handles POST /orders/:id/risks
func (h *OrdersHandler) AssignRisks(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req riskSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	updated, err := h.service.AssignRisks(c.Request.Context(), id, req.RiskIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, riskSetResponse{Updated: updated})
}

// BulkAssign handles POST /risks/bulk-assign with an explicit order id
func (h *OrdersHandler) BulkAssign(c *gin.Context) {
	var req riskSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.OrderID <= 0 {
		h.BadRequest(c, dto.ErrCodeValidation, "order_id is required")
		return
	}
	updated, err := h.service.AssignRisks(c.Request.Context(), req.OrderID, req.RiskIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, riskSetResponse{Updated: updated})
}

// BulkUnassign handles POST /risks/bulk-unassign
func (h *OrdersHandler) BulkUnassign(c *gin.Context) {
	var req riskSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	updated, err := h.service.UnassignRisks(c.Request.Context(), req.RiskIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, riskSetResponse{Updated: updated})
}

// CreateExecution handles POST /orders/:id/executions
func (h *OrdersHandler) CreateExecution(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var input orders.CreateExecutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindError(c, err)
		return
	}
	execution, err := h.service.CreateExecution(c.Request.Context(), id, input)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.Created(c, execution)
}

// AttachFile handles the multipart upload of one execution file
func (h *OrdersHandler) AttachFile(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	executionID, ok := h.PathID(c, "execution_id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, dto.ErrCodeValidation, "Multipart field 'file' is required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge,
			dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "File exceeds maximum allowed size"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.Error(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.Error(c, err)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	row, err := h.service.AttachFile(c.Request.Context(), orderID, executionID,
		fileHeader.Filename, contentType, data)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.Created(c, row)
}

type downloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileDownloadURL handles GET /order-files/:id/download-url
func (h *OrdersHandler) FileDownloadURL(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	url, expiresAt, err := h.service.FileDownloadURL(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, downloadURLResponse{URL: url, ExpiresAt: expiresAt.UTC()})
}

// DeleteFile handles DELETE /order-files/:id
func (h *OrdersHandler) DeleteFile(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteFile(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.NoContent(c)
}

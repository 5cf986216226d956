package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/application/receipts"
	"github.com/taxgeo/backend/internal/infrastructure/cache"
	"github.com/taxgeo/backend/internal/infrastructure/telemetry"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"github.com/taxgeo/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// ReceiptsHandler serves the ClickHouse-backed cash register and
// receipt endpoints
type ReceiptsHandler struct {
	BaseHandler
	service *receipts.Service
	store   *cache.ResponseCache
	metrics *telemetry.APIMetrics
}

// NewReceiptsHandler creates the receipts handler
func NewReceiptsHandler(service *receipts.Service, store *cache.ResponseCache, metrics *telemetry.APIMetrics, log *zap.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{
		BaseHandler: NewBaseHandler(log),
		service:     service,
		store:       store,
		metrics:     metrics,
	}
}

// RegisterRoutes mounts the receipt routes
func (h *ReceiptsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/receipts")
	g.Use(middleware.ResponseCache(h.store, "receipts", h.metrics))

	g.GET("/kkms", h.FindKkms)
	g.GET("/kkms/:id", h.KkmByID)
	g.GET("/kkms/:id/receipts", h.ReceiptsByKkm)
	g.GET("/kkms/:id/stats", h.KkmStats)
	g.GET("/by-organization/:id", h.ReceiptsByOrganization)
	g.GET("/fiscal-sign", h.ReceiptsByFiscalSign)
}

type receiptsListQuery struct {
	Limit   uint64 `form:"limit"`
	Details bool   `form:"include_organization_details"`
	Year    int    `form:"year"`
}

// FindKkms looks registers up by organization, registration number or
// serial number. Exactly one selector is required.
func (h *ReceiptsHandler) FindKkms(c *gin.Context) {
	organizationID := c.Query("organization_id")
	regNumber := c.Query("reg_number")
	serialNumber := c.Query("serial_number")

	ctx := c.Request.Context()
	switch {
	case organizationID != "":
		id, ok := h.queryInt(c, "organization_id")
		if !ok {
			return
		}
		rows, err := h.service.KkmsByOrganization(ctx, int64(id))
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, rows)
	case regNumber != "":
		rows, err := h.service.KkmsByRegNumber(ctx, regNumber)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, rows)
	case serialNumber != "":
		rows, err := h.service.KkmsBySerialNumber(ctx, serialNumber)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, rows)
	default:
		h.BadRequest(c, dto.ErrCodeInvalidInput,
			"One of organization_id, reg_number or serial_number is required")
	}
}

// KkmByID returns one register by its ClickHouse id
func (h *ReceiptsHandler) KkmByID(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.service.KkmsByID(c.Request.Context(), int64(id))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rows)
}

// ReceiptsByKkm returns the latest receipts of one register
func (h *ReceiptsHandler) ReceiptsByKkm(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q receiptsListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	rows, err := h.service.ReceiptsByKkm(c.Request.Context(), int64(id), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rows)
}

// KkmStats returns the daily and yearly rollups of one register
func (h *ReceiptsHandler) KkmStats(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q receiptsListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	stats, err := h.service.StatsByKkm(c.Request.Context(), int64(id), q.Year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}

// ReceiptsByOrganization returns the receipts of all registers of one
// taxpayer, optionally enriched with the organization dimension.
func (h *ReceiptsHandler) ReceiptsByOrganization(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q receiptsListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	rows, err := h.service.ReceiptsByOrganization(c.Request.Context(), int64(id), q.Limit, q.Details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rows)
}

// ReceiptsByFiscalSign finds receipts by fiscal sign across the
// registers of one taxpayer
func (h *ReceiptsHandler) ReceiptsByFiscalSign(c *gin.Context) {
	organizationID, ok := h.queryInt(c, "organization_id")
	if !ok {
		return
	}
	fiskalSign := c.Query("fiskal_sign")
	var q receiptsListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	rows, err := h.service.ReceiptsByFiscalSign(c.Request.Context(), organizationID, fiskalSign, q.Limit, q.Details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rows)
}

func (h *ReceiptsHandler) queryInt(c *gin.Context, name string) (int, bool) {
	value, ok := parsePositiveInt(c.Query(name))
	if !ok {
		h.BadRequest(c, dto.ErrCodeValidation, "Parameter "+name+" must be a positive integer")
		return 0, false
	}
	return value, true
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/application/analytics"
	"github.com/taxgeo/backend/internal/infrastructure/cache"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/telemetry"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"github.com/taxgeo/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// analyticsQuery binds the scope parameters shared by the analytical
// endpoints. Territory stays an opaque string here; the service decides
// whether it is WKT or hex-WKB.
type analyticsQuery struct {
	Region    string `form:"region"`
	Territory string `form:"territory"`
	Year      int    `form:"year"`
	OblastID  *int   `form:"oblast_id"`
	RaionID   *int   `form:"raion_id"`
}

func (q analyticsQuery) toQuery() analytics.Query {
	region := persistence.Region(q.Region)
	if region == "" {
		region = persistence.RegionRK
	}
	return analytics.Query{
		Region:    region,
		Territory: q.Territory,
		Year:      q.Year,
		OblastID:  q.OblastID,
		RaionID:   q.RaionID,
	}
}

// AnalyticsHandler serves the monthly-series and summary analytics
type AnalyticsHandler struct {
	BaseHandler
	service *analytics.Service
	store   *cache.ResponseCache
	metrics *telemetry.APIMetrics
}

// NewAnalyticsHandler creates the analytics handler
func NewAnalyticsHandler(service *analytics.Service, store *cache.ResponseCache, metrics *telemetry.APIMetrics, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler: NewBaseHandler(log),
		service:     service,
		store:       store,
		metrics:     metrics,
	}
}

// RegisterRoutes mounts the analytics routes
func (h *AnalyticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/analytics")
	g.Use(middleware.ResponseCache(h.store, "analytics", h.metrics))

	g.GET("/organizations/monthly", h.OrganizationsMonthly)
	g.GET("/organizations/count", h.OrganizationsCount)
	g.GET("/esf", h.EsfTotals)
	g.GET("/esf/monthly", h.EsfMonthly)
	g.GET("/tax-revenue", h.TaxRevenue)
	g.GET("/tax-revenue/monthly", h.TaxRevenueMonthly)
	g.GET("/receipts/:organization_id", h.ReceiptsMonthly)
	g.GET("/population", h.Population)
	g.GET("/population/monthly", h.PopulationMonthly)
}

func (h *AnalyticsHandler) bind(c *gin.Context) (analytics.Query, bool) {
	var q analyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return analytics.Query{}, false
	}
	return q.toQuery(), true
}

// OrganizationsMonthly returns the monthly active-taxpayer series
func (h *AnalyticsHandler) OrganizationsMonthly(c *gin.Context) {
	q, ok := h.bind(c)
	if !ok {
		return
	}
	series, err := h.service.OrganizationsMonthly(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, series)
}

// OrganizationsCount returns the taxpayer count at the year boundary
func (h *AnalyticsHandler) OrganizationsCount(c *gin.Context) {
	q, ok := h.bind(c)
	if !ok {
		return
	}
	count, err := h.service.OrganizationsCount(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: count})
}

// EsfTotals returns the yearly invoice turnover indexed by source
func (h *AnalyticsHandler) EsfTotals(c *gin.Context) {
	q, ok := h.bind(c)
	if !ok {
		return
	}
	summary, err := h.service.EsfTotals(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// EsfMonthly returns the monthly invoice turnover per direction
func (h *AnalyticsHandler) EsfMonthly(c *gin.Context) {
	q, ok := h.bind(c)
	if !ok {
		return
	}
	series, err := h.service.EsfMonthly(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, series)
}

// TaxRevenue returns the republican-budget revenue total
func (h *AnalyticsHandler) TaxRevenue(c *gin.Context) {
	h.taxRevenue(c, false)
}

// TaxRevenueMonthly returns the revenue split by month
func (h *AnalyticsHandler) TaxRevenueMonthly(c *gin.Context) {
	h.taxRevenue(c, true)
}

func (h *AnalyticsHandler) taxRevenue(c *gin.Context, monthly bool) {
	q, ok := h.bind(c)
	if !ok {
		return
	}
	summary, err := h.service.TaxRevenue(c.Request.Context(), q, monthly)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// ReceiptsMonthly returns the monthly receipt rollup of one taxpayer
func (h *AnalyticsHandler) ReceiptsMonthly(c *gin.Context) {
	organizationID, ok := h.PathID(c, "organization_id")
	if !ok {
		return
	}
	var q analyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	series, err := h.service.ReceiptsMonthly(c.Request.Context(), organizationID, q.Year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, series)
}

// Population returns the population totals for the year
func (h *AnalyticsHandler) Population(c *gin.Context) {
	h.population(c, false)
}

// PopulationMonthly returns the population series anchored per month
func (h *AnalyticsHandler) PopulationMonthly(c *gin.Context) {
	h.population(c, true)
}

func (h *AnalyticsHandler) population(c *gin.Context, monthly bool) {
	q, ok := h.bind(c)
	if !ok {
		return
	}
	summary, err := h.service.Population(c.Request.Context(), q, monthly)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

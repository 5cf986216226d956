package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FilterBinder builds a filter from the request query string
type FilterBinder func(c *gin.Context) (persistence.Filter, error)

// CRUDHandler generates the read surface of one entity: GET '' (list,
// paginated envelope when page_size is set, bare array otherwise),
// GET /count and GET /:id. Every dictionary and entity router is an
// instance of this type.
type CRUDHandler[M any] struct {
	BaseHandler
	prefix     string
	repo       *persistence.Repository[M]
	bindFilter FilterBinder
	sortFields map[string]bool
	middleware []gin.HandlerFunc
}

// NewCRUDHandler creates a CRUD handler for one entity. The prefix
// becomes both the route segment and the cache namespace.
func NewCRUDHandler[M any](prefix string, repo *persistence.Repository[M], bind FilterBinder, log *zap.Logger) *CRUDHandler[M] {
	return &CRUDHandler[M]{
		BaseHandler: NewBaseHandler(log),
		prefix:      prefix,
		repo:        repo,
		bindFilter:  bind,
		sortFields:  persistence.CommonSortFields,
	}
}

// WithSortFields replaces the sort-field allowlist
func (h *CRUDHandler[M]) WithSortFields(fields map[string]bool) *CRUDHandler[M] {
	h.sortFields = fields
	return h
}

// WithMiddleware attaches middleware to every route of this entity
func (h *CRUDHandler[M]) WithMiddleware(mw ...gin.HandlerFunc) *CRUDHandler[M] {
	h.middleware = append(h.middleware, mw...)
	return h
}

// Prefix returns the route segment, which doubles as the cache namespace
func (h *CRUDHandler[M]) Prefix() string {
	return h.prefix
}

// RegisterRoutes mounts the entity routes on the given group
func (h *CRUDHandler[M]) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/" + h.prefix)
	g.Use(h.middleware...)
	g.GET("", h.List)
	g.GET("/count", h.Count)
	g.GET("/:id", h.GetByID)
}

// List handles GET ''
func (h *CRUDHandler[M]) List(c *gin.Context) {
	var lq dto.ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		h.BindError(c, err)
		return
	}
	filter, err := h.bindFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	// A fixed ordering keeps pagination stable across requests.
	ordered := orderedFilter{
		Filter: filter,
		order: persistence.ValidateSortField(lq.SortBy, h.sortFields, "id") +
			" " + persistence.ValidateSortOrder(lq.SortOrder),
	}

	rows, total, err := h.repo.GetMany(c.Request.Context(), ordered, lq.PageSize, lq.Page)
	if err != nil {
		h.Error(c, err)
		return
	}
	if rows == nil {
		rows = []M{}
	}

	if lq.PageSize != nil {
		h.OK(c, dto.NewPaginated(rows, total, lq.Page, lq.PageSize))
		return
	}
	h.OK(c, rows)
}

// Count handles GET /count
func (h *CRUDHandler[M]) Count(c *gin.Context) {
	filter, err := h.bindFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}
	count, err := h.repo.Count(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: count})
}

// GetByID handles GET /:id
func (h *CRUDHandler[M]) GetByID(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	row, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// orderedFilter decorates a filter with a validated ORDER BY clause.
// GORM strips the ordering from the count projection, so the total of
// GetMany is unaffected.
type orderedFilter struct {
	persistence.Filter
	order string
}

func (f orderedFilter) Apply(query *gorm.DB) *gorm.DB {
	return f.Filter.Apply(query).Order(f.order)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/infrastructure/cache"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"github.com/taxgeo/backend/internal/infrastructure/telemetry"
	"github.com/taxgeo/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entities mounts the read routers of the domain tables: taxpayers and
// their cash registers, risks, the address registry, customs and
// logistics records, and the reporting rollups.
type Entities struct {
	db      *gorm.DB
	store   *cache.ResponseCache
	metrics *telemetry.APIMetrics
	log     *zap.Logger
}

// NewEntities creates the entity router set
func NewEntities(db *gorm.DB, store *cache.ResponseCache, metrics *telemetry.APIMetrics, log *zap.Logger) *Entities {
	return &Entities{db: db, store: store, metrics: metrics, log: log}
}

// RegisterRoutes mounts every entity under its own prefix
func (e *Entities) RegisterRoutes(rg *gin.RouterGroup) {
	registerEntity[models.Organization](e, rg, "organizations", bindQueryFilter[persistence.OrganizationFilter]).
		WithSortFields(persistence.OrganizationSortFields)
	registerEntity[models.Kkm](e, rg, "kkms", bindQueryFilter[persistence.KkmFilter])
	registerEntity[models.Risk](e, rg, "risks", bindQueryFilter[persistence.RiskFilter])
	registerEntity[models.AddressObject](e, rg, "address-objects", bindQueryFilter[persistence.AddressObjectFilter])
	registerEntity[models.Declaration](e, rg, "declarations", bindQueryFilter[persistence.DeclarationFilter])
	registerEntity[models.Booking](e, rg, "bookings", bindQueryFilter[persistence.BookingFilter])
	registerEntity[models.CustomsVehicle](e, rg, "customs-vehicles", bindQueryFilter[persistence.CustomsVehicleFilter])

	// Tables without a dedicated filter take the id-only one.
	registerPlain[models.Person](e, rg, "persons")
	registerPlain[models.Crossing](e, rg, "crossings")
	registerPlain[models.Seal](e, rg, "seals")
	registerPlain[models.TransportCompany](e, rg, "transport-companies")
	registerPlain[models.Camera](e, rg, "cameras")
	registerPlain[models.CameraEvent](e, rg, "camera-events")
	registerPlain[models.WeighingStation](e, rg, "weighing-stations")
	registerPlain[models.WeighingEvent](e, rg, "weighing-events")
	registerPlain[models.Warehouse](e, rg, "warehouses")
	registerPlain[models.Road](e, rg, "roads")
	registerPlain[models.RoadService](e, rg, "road-services")

	// Reporting rollups, read-only like everything above.
	registerPlain[models.Fno](e, rg, "fno")
	registerPlain[models.ReceiptsDaily](e, rg, "receipts-daily")
	registerPlain[models.ReceiptsAnnual](e, rg, "receipts-annual")
	registerPlain[models.EsfSellerAnnual](e, rg, "esf-seller-annual")
	registerPlain[models.EsfBuyerAnnual](e, rg, "esf-buyer-annual")
	registerPlain[models.Population](e, rg, "population")
	registerPlain[models.NalogPostuplenie](e, rg, "tax-receipts")
}

// bindQueryFilter binds a filter struct from the query string. F must
// implement persistence.Filter on its pointer receiver, which all the
// concrete filter types do.
func bindQueryFilter[F any, PF interface {
	*F
	persistence.Filter
}](c *gin.Context) (persistence.Filter, error) {
	filter := PF(new(F))
	if err := c.ShouldBindQuery(filter); err != nil {
		return nil, err
	}
	return filter, nil
}

func registerEntity[M any](e *Entities, rg *gin.RouterGroup, prefix string, bind FilterBinder) *CRUDHandler[M] {
	repo := persistence.NewRepository[M](e.db, e.log)
	h := NewCRUDHandler(prefix, repo, bind, e.log).
		WithMiddleware(middleware.ResponseCache(e.store, prefix, e.metrics))
	h.RegisterRoutes(rg)
	return h
}

func registerPlain[M any](e *Entities, rg *gin.RouterGroup, prefix string) {
	bind := func(c *gin.Context) (persistence.Filter, error) {
		var model M
		filter := persistence.NewEntityFilter(&model)
		if err := c.ShouldBindQuery(filter); err != nil {
			return nil, err
		}
		return filter, nil
	}
	registerEntity[M](e, rg, prefix, bind)
}

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

// Dictionaries mounts a read-only CRUD router for every dic_* table.
// All of them share the DictionaryFilter; the tax-office catalog gets
// its hierarchy filter on top.
type Dictionaries struct {
	db      *gorm.DB
	store   *cache.ResponseCache
	metrics *telemetry.APIMetrics
	log     *zap.Logger
}

// NewDictionaries creates the dictionary router set
func NewDictionaries(db *gorm.DB, store *cache.ResponseCache, metrics *telemetry.APIMetrics, log *zap.Logger) *Dictionaries {
	return &Dictionaries{db: db, store: store, metrics: metrics, log: log}
}

// RegisterRoutes mounts every dictionary under its own prefix
func (d *Dictionaries) RegisterRoutes(rg *gin.RouterGroup) {
	registerDictionary[models.Oked](d, rg, "oked")
	registerDictionary[models.TaxRegime](d, rg, "tax-regimes")
	registerDictionary[models.RegistrationType](d, rg, "registration-types")
	registerDictionary[models.RiskDegree](d, rg, "risk-degrees")
	registerDictionary[models.RiskType](d, rg, "risk-types")
	registerDictionary[models.RiskName](d, rg, "risk-names")
	registerDictionary[models.OrderStatus](d, rg, "order-statuses")
	registerDictionary[models.OrderType](d, rg, "order-types")
	registerDictionary[models.CustomsProcedure](d, rg, "customs-procedures")
	registerDictionary[models.CustomsDocumentType](d, rg, "customs-document-types")
	registerDictionary[models.BookingStatus](d, rg, "booking-statuses")
	registerDictionary[models.DeclarationStatus](d, rg, "declaration-statuses")
	registerDictionary[models.DeclarationType](d, rg, "declaration-types")
	registerDictionary[models.InspectionStatus](d, rg, "inspection-statuses")
	registerDictionary[models.SealStatus](d, rg, "seal-statuses")
	registerDictionary[models.VehicleMake](d, rg, "vehicle-makes")
	registerDictionary[models.VehicleType](d, rg, "vehicle-types")
	registerDictionary[models.PackageType](d, rg, "package-types")
	registerDictionary[models.CargoType](d, rg, "cargo-types")
	registerDictionary[models.Kato](d, rg, "kato")
	registerDictionary[models.Oblast](d, rg, "oblasts")
	registerDictionary[models.Raion](d, rg, "raions")
	registerDictionary[models.AddressObjectType](d, rg, "address-object-types")

	d.registerUgd(rg)
}

// registerUgd mounts the tax-office catalog with its hierarchy filter
func (d *Dictionaries) registerUgd(rg *gin.RouterGroup) {
	repo := persistence.NewRepository[models.Ugd](d.db, d.log)
	bind := func(c *gin.Context) (persistence.Filter, error) {
		var filter persistence.UgdFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			return nil, err
		}
		return &filter, nil
	}
	NewCRUDHandler("ugd", repo, bind, d.log).
		WithMiddleware(middleware.ResponseCache(d.store, "ugd", d.metrics)).
		RegisterRoutes(rg)
}

func registerDictionary[M any](d *Dictionaries, rg *gin.RouterGroup, prefix string) {
	repo := persistence.NewRepository[M](d.db, d.log)
	bind := func(c *gin.Context) (persistence.Filter, error) {
		var model M
		filter := persistence.NewDictionaryFilter(&model)
		if err := c.ShouldBindQuery(filter); err != nil {
			return nil, err
		}
		return filter, nil
	}
	NewCRUDHandler(prefix, repo, bind, d.log).
		WithMiddleware(middleware.ResponseCache(d.store, prefix, d.metrics)).
		RegisterRoutes(rg)
}

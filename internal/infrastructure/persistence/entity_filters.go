package persistence

import (
	"time"

	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// Concrete filter objects. Fields are optional; populated fields project
// to predicates per the conventions in filter.go. The `form` tags let
// handlers bind them straight from the query string.

// DictionaryFilter covers every dic_* table
type DictionaryFilter struct {
	target any

	ID     *int    `form:"id"`
	IDIn   []int   `form:"id__in"`
	Code   *string `form:"code"`
	NameRu *string `form:"name_ru"`
	Search *string `form:"search"`
}

// NewDictionaryFilter binds the filter to a concrete dictionary model
func NewDictionaryFilter(target any) *DictionaryFilter {
	return &DictionaryFilter{target: target}
}

func (f *DictionaryFilter) Model() any { return f.target }

func (f *DictionaryFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "id", f.ID)
	query = In(query, "id", f.IDIn)
	query = Eq(query, "code", f.Code)
	query = ILikeContains(query, "name_ru", f.NameRu)
	return Search(query, []string{"code", "name_ru", "name_kz"}, f.Search)
}

// EntityFilter is the minimal id-only filter for tables that carry no
// dedicated filter type
type EntityFilter struct {
	target any

	ID   *int  `form:"id"`
	IDIn []int `form:"id__in"`
}

// NewEntityFilter binds the filter to a concrete model
func NewEntityFilter(target any) *EntityFilter {
	return &EntityFilter{target: target}
}

func (f *EntityFilter) Model() any { return f.target }

func (f *EntityFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "id", f.ID)
	return In(query, "id", f.IDIn)
}

// UgdFilter adds the hierarchy fields of the tax-office catalog
type UgdFilter struct {
	DictionaryFilter

	ParentID *int  `form:"parent_id"`
	OblastID *int  `form:"oblast_id"`
	RaionID  *int  `form:"raion_id"`
	IDInSet  []int `form:"-"`
}

func (f *UgdFilter) Model() any { return &models.Ugd{} }

func (f *UgdFilter) Apply(query *gorm.DB) *gorm.DB {
	query = f.DictionaryFilter.Apply(query)
	query = Eq(query, "parent_id", f.ParentID)
	query = Eq(query, "oblast_id", f.OblastID)
	query = Eq(query, "raion_id", f.RaionID)
	return In(query, "id", f.IDInSet)
}

// OrganizationFilter filters the taxpayer dimension. UgdID applies to the
// organization row itself; the nested Ugd filter joins the office
// catalog and applies its own fields there.
type OrganizationFilter struct {
	ID           *int       `form:"id"`
	IDIn         []int      `form:"id__in"`
	IinBin       *string    `form:"iin_bin"`
	IinBinPrefix *string    `form:"iin_bin__startswith"`
	NameRu       *string    `form:"name_ru"`
	UgdID        *int       `form:"ugd_id"`
	UgdIDIn      []int      `form:"ugd_id__in"`
	OkedID       *int       `form:"oked_id"`
	TaxRegimeID  *int       `form:"tax_regime_id"`
	ParentBin    *string    `form:"parent_bin"`
	Active       *bool      `form:"active"`
	DateStartGte *time.Time `form:"date_start__gte" time_format:"2006-01-02"`
	DateStartLte *time.Time `form:"date_start__lte" time_format:"2006-01-02"`
	Search       *string    `form:"search"`

	// The ugd__ fields are the HTTP spelling of the nested office filter.
	UgdCode     *string `form:"ugd__code"`
	UgdParentID *int    `form:"ugd__parent_id"`
	UgdOblastID *int    `form:"ugd__oblast_id"`
	UgdRaionID  *int    `form:"ugd__raion_id"`

	// Ugd is the programmatic form of the nested filter; when set it wins
	// over the ugd__ fields.
	Ugd *UgdFilter `form:"-"`
}

func (f *OrganizationFilter) Model() any { return &models.Organization{} }

func (f *OrganizationFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "organizations.id", f.ID)
	query = In(query, "organizations.id", f.IDIn)
	query = Eq(query, "organizations.iin_bin", f.IinBin)
	query = ILikePrefix(query, "organizations.iin_bin", f.IinBinPrefix)
	query = ILikeContains(query, "organizations.name_ru", f.NameRu)
	query = Eq(query, "organizations.ugd_id", f.UgdID)
	query = In(query, "organizations.ugd_id", f.UgdIDIn)
	query = Eq(query, "organizations.oked_id", f.OkedID)
	query = Eq(query, "organizations.tax_regime_id", f.TaxRegimeID)
	query = Eq(query, "organizations.parent_bin", f.ParentBin)
	if f.Active != nil {
		if *f.Active {
			query = query.Where("organizations.date_stop IS NULL")
		} else {
			query = query.Where("organizations.date_stop IS NOT NULL")
		}
	}
	if f.DateStartGte != nil {
		query = query.Where("organizations.date_start >= ?", *f.DateStartGte)
	}
	if f.DateStartLte != nil {
		query = query.Where("organizations.date_start <= ?", *f.DateStartLte)
	}
	query = Search(query, []string{"organizations.iin_bin", "organizations.name_ru", "organizations.name_kz"}, f.Search)
	if ugd := f.ugdFilter(); ugd != nil {
		query = Nested(query, "LEFT JOIN dic_ugd ON dic_ugd.id = organizations.ugd_id", &joinedUgdFilter{inner: ugd})
	}
	return query
}

// ugdFilter resolves the nested office filter from either form
func (f *OrganizationFilter) ugdFilter() *UgdFilter {
	if f.Ugd != nil {
		return f.Ugd
	}
	if f.UgdCode == nil && f.UgdParentID == nil && f.UgdOblastID == nil && f.UgdRaionID == nil {
		return nil
	}
	ugd := &UgdFilter{
		ParentID: f.UgdParentID,
		OblastID: f.UgdOblastID,
		RaionID:  f.UgdRaionID,
	}
	ugd.Code = f.UgdCode
	return ugd
}

// joinedUgdFilter re-applies a UgdFilter with columns qualified by the
// joined table
type joinedUgdFilter struct {
	inner *UgdFilter
}

func (f *joinedUgdFilter) Model() any { return &models.Ugd{} }

func (f *joinedUgdFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "dic_ugd.id", f.inner.ID)
	query = In(query, "dic_ugd.id", f.inner.IDIn)
	query = Eq(query, "dic_ugd.code", f.inner.Code)
	query = Eq(query, "dic_ugd.parent_id", f.inner.ParentID)
	query = Eq(query, "dic_ugd.oblast_id", f.inner.OblastID)
	return Eq(query, "dic_ugd.raion_id", f.inner.RaionID)
}

// KkmFilter filters cash registers
type KkmFilter struct {
	ID             *int    `form:"id"`
	IDIn           []int   `form:"id__in"`
	OrganizationID *int    `form:"organization_id"`
	RegNumber      *string `form:"reg_number"`
	SerialNumber   *string `form:"serial_number"`
	Search         *string `form:"search"`
}

func (f *KkmFilter) Model() any { return &models.Kkm{} }

func (f *KkmFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "kkms.id", f.ID)
	query = In(query, "kkms.id", f.IDIn)
	query = Eq(query, "kkms.organization_id", f.OrganizationID)
	query = Eq(query, "kkms.reg_number", f.RegNumber)
	query = Eq(query, "kkms.serial_number", f.SerialNumber)
	return Search(query, []string{"kkms.reg_number", "kkms.serial_number"}, f.Search)
}

// RiskFilter filters risk rows; the nested organization filter joins the
// taxpayer dimension.
type RiskFilter struct {
	ID             *int  `form:"id"`
	IDIn           []int `form:"id__in"`
	OrganizationID *int  `form:"organization_id"`
	RiskTypeID     *int  `form:"risk_type_id"`
	RiskNameID     *int  `form:"risk_name_id"`
	RiskDegreeID   *int  `form:"risk_degree_id"`
	RiskDegreeIDIn []int `form:"risk_degree_id__in"`
	OrderID        *int  `form:"order_id"`
	IsOrdered      *bool `form:"is_ordered"`

	// The organization__ fields are the HTTP spelling of the nested
	// taxpayer filter.
	OrgIinBin *string `form:"organization__iin_bin"`
	OrgNameRu *string `form:"organization__name_ru"`
	OrgUgdID  *int    `form:"organization__ugd_id"`
	OrgOkedID *int    `form:"organization__oked_id"`

	// Organization is the programmatic form; when set it wins over the
	// organization__ fields.
	Organization *OrganizationFilter `form:"-"`
}

func (f *RiskFilter) Model() any { return &models.Risk{} }

func (f *RiskFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "risks.id", f.ID)
	query = In(query, "risks.id", f.IDIn)
	query = Eq(query, "risks.organization_id", f.OrganizationID)
	query = Eq(query, "risks.risk_type_id", f.RiskTypeID)
	query = Eq(query, "risks.risk_name_id", f.RiskNameID)
	query = Eq(query, "risks.risk_degree_id", f.RiskDegreeID)
	query = In(query, "risks.risk_degree_id", f.RiskDegreeIDIn)
	query = Eq(query, "risks.order_id", f.OrderID)
	query = Eq(query, "risks.is_ordered", f.IsOrdered)
	if org := f.organizationFilter(); org != nil {
		query = Nested(query, "LEFT JOIN organizations ON organizations.id = risks.organization_id", org)
	}
	return query
}

// organizationFilter resolves the nested taxpayer filter from either form
func (f *RiskFilter) organizationFilter() *OrganizationFilter {
	if f.Organization != nil {
		return f.Organization
	}
	if f.OrgIinBin == nil && f.OrgNameRu == nil && f.OrgUgdID == nil && f.OrgOkedID == nil {
		return nil
	}
	return &OrganizationFilter{
		IinBin: f.OrgIinBin,
		NameRu: f.OrgNameRu,
		UgdID:  f.OrgUgdID,
		OkedID: f.OrgOkedID,
	}
}

// OrderFilter filters orders
type OrderFilter struct {
	ID         *int  `form:"id"`
	IDIn       []int `form:"id__in"`
	StatusID   *int  `form:"status_id"`
	StatusIDIn []int `form:"status_id__in"`
	TypeID     *int  `form:"type_id"`
	EmployeeID *int  `form:"employee_id"`
}

func (f *OrderFilter) Model() any { return &models.Order{} }

func (f *OrderFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "orders.id", f.ID)
	query = In(query, "orders.id", f.IDIn)
	query = Eq(query, "orders.status_id", f.StatusID)
	query = In(query, "orders.status_id", f.StatusIDIn)
	query = Eq(query, "orders.type_id", f.TypeID)
	return Eq(query, "orders.employee_id", f.EmployeeID)
}

// OrderExecutionFilter filters field-work execution steps
type OrderExecutionFilter struct {
	ID         *int `form:"id"`
	OrderID    *int `form:"order_id"`
	EmployeeID *int `form:"employee_id"`
}

func (f *OrderExecutionFilter) Model() any { return &models.OrderExecution{} }

func (f *OrderExecutionFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "order_executions.id", f.ID)
	query = Eq(query, "order_executions.order_id", f.OrderID)
	return Eq(query, "order_executions.employee_id", f.EmployeeID)
}

// AddressObjectFilter filters the address registry
type AddressObjectFilter struct {
	ID       *int    `form:"id"`
	ParentID *int    `form:"parent_id"`
	TypeID   *int    `form:"type_id"`
	IsLeaf   *bool   `form:"is_leaf"`
	RcoCode  *string `form:"rco_code"`
	KatoCode *string `form:"kato_code__startswith"`
	Search   *string `form:"search"`
}

func (f *AddressObjectFilter) Model() any { return &models.AddressObject{} }

func (f *AddressObjectFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "id", f.ID)
	query = Eq(query, "parent_id", f.ParentID)
	query = Eq(query, "type_id", f.TypeID)
	query = Eq(query, "is_leaf", f.IsLeaf)
	query = Eq(query, "rco_code", f.RcoCode)
	query = ILikePrefix(query, "kato_code", f.KatoCode)
	return Search(query, []string{"name_ru", "name_kz", "full_address_ru"}, f.Search)
}

// EmployeeFilter filters employee accounts
type EmployeeFilter struct {
	ID        *int    `form:"id"`
	Login     *string `form:"login"`
	RoleID    *int    `form:"role_id"`
	UgdID     *int    `form:"ugd_id"`
	IsBlocked *bool   `form:"is_blocked"`
	IsDeleted *bool   `form:"is_deleted"`
}

func (f *EmployeeFilter) Model() any { return &models.Employee{} }

func (f *EmployeeFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "id", f.ID)
	query = Eq(query, "login", f.Login)
	query = Eq(query, "role_id", f.RoleID)
	query = Eq(query, "ugd_id", f.UgdID)
	query = Eq(query, "is_blocked", f.IsBlocked)
	return Eq(query, "is_deleted", f.IsDeleted)
}

// DeclarationFilter filters customs declarations
type DeclarationFilter struct {
	ID             *int    `form:"id"`
	StatusID       *int    `form:"status_id"`
	TypeID         *int    `form:"type_id"`
	ProcedureID    *int    `form:"procedure_id"`
	OrganizationID *int    `form:"organization_id"`
	Number         *string `form:"number"`
	Search         *string `form:"search"`
}

func (f *DeclarationFilter) Model() any { return &models.Declaration{} }

func (f *DeclarationFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "id", f.ID)
	query = Eq(query, "status_id", f.StatusID)
	query = Eq(query, "type_id", f.TypeID)
	query = Eq(query, "procedure_id", f.ProcedureID)
	query = Eq(query, "organization_id", f.OrganizationID)
	query = Eq(query, "number", f.Number)
	return Search(query, []string{"number"}, f.Search)
}

// BookingFilter filters border-crossing bookings
type BookingFilter struct {
	ID              *int `form:"id"`
	StatusID        *int `form:"status_id"`
	VehicleID       *int `form:"vehicle_id"`
	CustomsOfficeID *int `form:"customs_office_id"`
}

func (f *BookingFilter) Model() any { return &models.Booking{} }

func (f *BookingFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "id", f.ID)
	query = Eq(query, "status_id", f.StatusID)
	query = Eq(query, "vehicle_id", f.VehicleID)
	return Eq(query, "customs_office_id", f.CustomsOfficeID)
}

// CustomsVehicleFilter filters tracked vehicles
type CustomsVehicleFilter struct {
	ID                 *int    `form:"id"`
	MakeID             *int    `form:"make_id"`
	TypeID             *int    `form:"type_id"`
	TransportCompanyID *int    `form:"transport_company_id"`
	PlateNumber        *string `form:"plate_number"`
	Search             *string `form:"search"`
}

func (f *CustomsVehicleFilter) Model() any { return &models.CustomsVehicle{} }

func (f *CustomsVehicleFilter) Apply(query *gorm.DB) *gorm.DB {
	query = Eq(query, "id", f.ID)
	query = Eq(query, "make_id", f.MakeID)
	query = Eq(query, "type_id", f.TypeID)
	query = Eq(query, "transport_company_id", f.TransportCompanyID)
	query = Eq(query, "plate_number", f.PlateNumber)
	return Search(query, []string{"plate_number"}, f.Search)
}

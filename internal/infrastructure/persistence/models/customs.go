package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/taxgeo/backend/internal/infrastructure/geo"
)

// Booking is a border-crossing appointment
type Booking struct {
	BaseModel
	StatusID        *int       `gorm:"index" json:"status_id"`
	VehicleID       *int       `gorm:"index" json:"vehicle_id"`
	CustomsOfficeID *int       `gorm:"index" json:"customs_office_id"`
	BookedAt        *time.Time `json:"booked_at"`
	PlannedAt       *time.Time `json:"planned_at"`

	Status *BookingStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
}

func (Booking) TableName() string { return "bookings" }

// Crossing records an entry/exit pair against a customs office
type Crossing struct {
	BaseModel
	VehicleID       *int       `gorm:"index" json:"vehicle_id"`
	CustomsOfficeID *int       `gorm:"index" json:"customs_office_id"`
	EnteredAt       *time.Time `gorm:"index" json:"entered_at"`
	ExitedAt        *time.Time `json:"exited_at"`
}

func (Crossing) TableName() string { return "crossings" }

// Declaration carries the financial figures of a customs declaration
type Declaration struct {
	BaseModel
	StatusID      *int             `gorm:"index" json:"status_id"`
	TypeID        *int             `gorm:"index" json:"type_id"`
	ProcedureID   *int             `gorm:"index" json:"procedure_id"`
	OrganizationID *int            `gorm:"index" json:"organization_id"`
	Number        *string          `gorm:"type:varchar(50);index" json:"number"`
	DeclaredAt    *time.Time       `json:"declared_at"`
	TotalSum      *decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_sum"`
	CustomsSum    *decimal.Decimal `gorm:"type:numeric(18,2)" json:"customs_sum"`
	DutySum       *decimal.Decimal `gorm:"type:numeric(18,2)" json:"duty_sum"`
	VatSum        *decimal.Decimal `gorm:"type:numeric(18,2)" json:"vat_sum"`
	ExciseSum     *decimal.Decimal `gorm:"type:numeric(18,2)" json:"excise_sum"`

	Status    *DeclarationStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	Type      *DeclarationType   `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Procedure *CustomsProcedure  `gorm:"foreignKey:ProcedureID" json:"procedure,omitempty"`
}

func (Declaration) TableName() string { return "declarations" }

// Seal is a navigation seal attached to a vehicle for transit
type Seal struct {
	BaseModel
	StatusID    *int       `gorm:"index" json:"status_id"`
	VehicleID   *int       `gorm:"index" json:"vehicle_id"`
	Number      *string    `gorm:"type:varchar(50);index" json:"number"`
	InstalledAt *time.Time `json:"installed_at"`
	RemovedAt   *time.Time `json:"removed_at"`

	Status *SealStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
}

func (Seal) TableName() string { return "seals" }

// CustomsVehicle is a tracked transport unit with its last known
// position and the time it was observed there.
type CustomsVehicle struct {
	BaseModel
	MakeID             *int          `gorm:"index" json:"make_id"`
	TypeID             *int          `gorm:"index" json:"type_id"`
	TransportCompanyID *int          `gorm:"index" json:"transport_company_id"`
	PlateNumber        *string       `gorm:"type:varchar(20);index" json:"plate_number"`
	Geometry           *geo.Geometry `gorm:"type:geometry(Point,4326)" json:"geometry,omitempty"`
	LocatedAt          *time.Time    `json:"located_at"`

	Make             *VehicleMake      `gorm:"foreignKey:MakeID" json:"make,omitempty"`
	Type             *VehicleType      `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	TransportCompany *TransportCompany `gorm:"foreignKey:TransportCompanyID" json:"transport_company,omitempty"`
}

func (CustomsVehicle) TableName() string { return "customs_vehicles" }

type TransportCompany struct {
	BaseModel
	Bin    *string `gorm:"type:varchar(12);index" json:"bin"`
	NameRu *string `gorm:"type:varchar(1000)" json:"name_ru"`
	NameKz *string `gorm:"type:varchar(1000)" json:"name_kz"`
}

func (TransportCompany) TableName() string { return "transport_companies" }

// Camera is a roadside recognition camera
type Camera struct {
	BaseModel
	Code     *string       `gorm:"type:varchar(50);index" json:"code"`
	NameRu   *string       `gorm:"type:varchar(500)" json:"name_ru"`
	RoadID   *int          `gorm:"index" json:"road_id"`
	Geometry *geo.Geometry `gorm:"type:geometry(Point,4326)" json:"geometry,omitempty"`
}

func (Camera) TableName() string { return "cameras" }

type CameraEvent struct {
	BaseModel
	CameraID    int        `gorm:"not null;index" json:"camera_id"`
	PlateNumber *string    `gorm:"type:varchar(20);index" json:"plate_number"`
	OccurredAt  *time.Time `gorm:"index" json:"occurred_at"`
}

func (CameraEvent) TableName() string { return "camera_events" }

type WeighingStation struct {
	BaseModel
	Code     *string       `gorm:"type:varchar(50);index" json:"code"`
	NameRu   *string       `gorm:"type:varchar(500)" json:"name_ru"`
	RoadID   *int          `gorm:"index" json:"road_id"`
	Geometry *geo.Geometry `gorm:"type:geometry(Point,4326)" json:"geometry,omitempty"`
}

func (WeighingStation) TableName() string { return "weighing_stations" }

type WeighingEvent struct {
	BaseModel
	StationID   int              `gorm:"not null;index" json:"station_id"`
	PlateNumber *string          `gorm:"type:varchar(20);index" json:"plate_number"`
	WeightKg    *decimal.Decimal `gorm:"type:numeric(12,3)" json:"weight_kg"`
	OccurredAt  *time.Time       `gorm:"index" json:"occurred_at"`
}

func (WeighingEvent) TableName() string { return "weighing_events" }

type Warehouse struct {
	BaseModel
	NameRu    *string       `gorm:"type:varchar(1000)" json:"name_ru"`
	AddressID *int          `gorm:"index" json:"address_id"`
	Geometry  *geo.Geometry `gorm:"type:geometry(Point,4326)" json:"geometry,omitempty"`
}

func (Warehouse) TableName() string { return "warehouses" }

// Road and RoadService form the road-network hierarchy
type Road struct {
	BaseModel
	Code     *string       `gorm:"type:varchar(50);index" json:"code"`
	NameRu   *string       `gorm:"type:varchar(500)" json:"name_ru"`
	Geometry *geo.Geometry `gorm:"type:geometry(Geometry,4326)" json:"geometry,omitempty"`
}

func (Road) TableName() string { return "roads" }

type RoadService struct {
	BaseModel
	RoadID   int           `gorm:"not null;index" json:"road_id"`
	NameRu   *string       `gorm:"type:varchar(500)" json:"name_ru"`
	Geometry *geo.Geometry `gorm:"type:geometry(Point,4326)" json:"geometry,omitempty"`
}

func (RoadService) TableName() string { return "road_services" }

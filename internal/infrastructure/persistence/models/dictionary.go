package models

// Dictionary is the shape shared by the bilingual reference tables
type Dictionary struct {
	BaseModel
	Code   *string `gorm:"type:varchar(50);index" json:"code"`
	NameRu *string `gorm:"type:varchar(500)" json:"name_ru"`
	NameKz *string `gorm:"type:varchar(500)" json:"name_kz"`
}

// Ugd is a tax office node; offices hang off an oblast or a raion and
// may have a parent office.
type Ugd struct {
	Dictionary
	ParentID *int `gorm:"index" json:"parent_id"`
	OblastID *int `gorm:"index" json:"oblast_id"`
	RaionID  *int `gorm:"index" json:"raion_id"`
}

func (Ugd) TableName() string { return "dic_ugd" }

// Oked is the industry classifier
type Oked struct {
	Dictionary
}

func (Oked) TableName() string { return "dic_oked" }

type TaxRegime struct {
	Dictionary
}

func (TaxRegime) TableName() string { return "dic_tax_regime" }

type RegistrationType struct {
	Dictionary
}

func (RegistrationType) TableName() string { return "dic_registration_type" }

type RiskDegree struct {
	Dictionary
}

func (RiskDegree) TableName() string { return "dic_risk_degree" }

type RiskType struct {
	Dictionary
}

func (RiskType) TableName() string { return "dic_risk_type" }

type RiskName struct {
	Dictionary
	RiskTypeID *int `gorm:"index" json:"risk_type_id"`
}

func (RiskName) TableName() string { return "dic_risk_name" }

type OrderStatus struct {
	Dictionary
}

func (OrderStatus) TableName() string { return "dic_order_status" }

type OrderType struct {
	Dictionary
}

func (OrderType) TableName() string { return "dic_order_type" }

type CustomsProcedure struct {
	Dictionary
}

func (CustomsProcedure) TableName() string { return "dic_customs_procedure" }

type CustomsDocumentType struct {
	Dictionary
}

func (CustomsDocumentType) TableName() string { return "dic_customs_document_type" }

type BookingStatus struct {
	Dictionary
}

func (BookingStatus) TableName() string { return "dic_booking_status" }

type DeclarationStatus struct {
	Dictionary
}

func (DeclarationStatus) TableName() string { return "dic_declaration_status" }

type DeclarationType struct {
	Dictionary
}

func (DeclarationType) TableName() string { return "dic_declaration_type" }

type InspectionStatus struct {
	Dictionary
}

func (InspectionStatus) TableName() string { return "dic_inspection_status" }

type SealStatus struct {
	Dictionary
}

func (SealStatus) TableName() string { return "dic_seal_status" }

type VehicleMake struct {
	Dictionary
}

func (VehicleMake) TableName() string { return "dic_vehicle_make" }

type VehicleType struct {
	Dictionary
}

func (VehicleType) TableName() string { return "dic_vehicle_type" }

type PackageType struct {
	Dictionary
}

func (PackageType) TableName() string { return "dic_package_type" }

type CargoType struct {
	Dictionary
}

func (CargoType) TableName() string { return "dic_cargo_type" }

// Kato holds the administrative territorial classifier
type Kato struct {
	Dictionary
}

func (Kato) TableName() string { return "dic_kato" }

// Oblast and Raion are the first two administrative subdivision levels;
// analytics and demographics pivot on them.
type Oblast struct {
	Dictionary
}

func (Oblast) TableName() string { return "dic_oblast" }

type Raion struct {
	Dictionary
	OblastID *int `gorm:"index" json:"oblast_id"`
}

func (Raion) TableName() string { return "dic_raion" }

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/taxgeo/backend/internal/infrastructure/crypto"
	"github.com/taxgeo/backend/internal/infrastructure/geo"
)

// Person is an individual ("dic_fl"). The identifier and the name parts
// are encrypted at the column boundary.
type Person struct {
	BaseModel
	Iin        crypto.EncryptedIIN  `gorm:"type:varchar(36);uniqueIndex" json:"iin"`
	LastName   crypto.EncryptedName `gorm:"type:varchar(300)" json:"last_name"`
	FirstName  crypto.EncryptedName `gorm:"type:varchar(300)" json:"first_name"`
	MiddleName crypto.EncryptedName `gorm:"type:varchar(300)" json:"middle_name"`
	BirthDate  *time.Time           `gorm:"type:date" json:"birth_date"`
}

func (Person) TableName() string { return "dic_fl" }

// Organization is the taxpayer dimension. DateStart/DateStop bound the
// registration window; a NULL DateStop means still registered.
type Organization struct {
	BaseModel
	IinBin             string        `gorm:"type:varchar(12);uniqueIndex;not null" json:"iin_bin"`
	NameRu             *string       `gorm:"type:varchar(1000)" json:"name_ru"`
	NameKz             *string       `gorm:"type:varchar(1000)" json:"name_kz"`
	DateStart          *time.Time    `gorm:"type:date;index" json:"date_start"`
	DateStop           *time.Time    `gorm:"type:date;index" json:"date_stop"`
	UgdID              *int          `gorm:"index" json:"ugd_id"`
	OkedID             *int          `gorm:"index" json:"oked_id"`
	TaxRegimeID        *int          `gorm:"index" json:"tax_regime_id"`
	RegistrationTypeID *int          `gorm:"index" json:"registration_type_id"`
	LeaderID           *int          `gorm:"index" json:"leader_id"`
	AddressID          *int          `gorm:"index" json:"address_id"`
	ParentBin          *string       `gorm:"type:varchar(12);index" json:"parent_bin"`
	Geometry           *geo.Geometry `gorm:"type:geometry(Point,4326)" json:"geometry,omitempty"`

	Ugd     *Ugd           `gorm:"foreignKey:UgdID" json:"ugd,omitempty"`
	Oked    *Oked          `gorm:"foreignKey:OkedID" json:"oked,omitempty"`
	Leader  *Person        `gorm:"foreignKey:LeaderID" json:"leader,omitempty"`
	Address *AddressObject `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Kkms    []Kkm          `gorm:"foreignKey:OrganizationID" json:"kkms,omitempty"`
}

func (Organization) TableName() string { return "organizations" }

// Kkm is a registered cash register installed at an address
type Kkm struct {
	BaseModel
	OrganizationID int           `gorm:"not null;index" json:"organization_id"`
	RegNumber      *string       `gorm:"type:varchar(50);index" json:"reg_number"`
	SerialNumber   *string       `gorm:"type:varchar(50);index" json:"serial_number"`
	AddressID      *int          `gorm:"index" json:"address_id"`
	Geometry       *geo.Geometry `gorm:"type:geometry(Point,4326)" json:"geometry,omitempty"`

	Organization *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Address      *AddressObject `gorm:"foreignKey:AddressID" json:"address,omitempty"`
}

func (Kkm) TableName() string { return "kkms" }

// ReceiptsDaily is the per-day-per-KKM rollup, materialized upstream
// and read-only here.
type ReceiptsDaily struct {
	BaseModel
	KkmID      int             `gorm:"not null;index" json:"kkm_id"`
	Date       time.Time       `gorm:"column:date_;type:date;not null;index" json:"date_"`
	CheckSum   decimal.Decimal `gorm:"type:numeric(18,2)" json:"check_sum"`
	CheckCount int             `gorm:"not null;default:0" json:"check_count"`
}

func (ReceiptsDaily) TableName() string { return "receipts_daily" }

// ReceiptsAnnual is the per-year-per-KKM rollup
type ReceiptsAnnual struct {
	BaseModel
	KkmID      int             `gorm:"not null;index" json:"kkm_id"`
	Year       int             `gorm:"not null;index" json:"year"`
	CheckSum   decimal.Decimal `gorm:"type:numeric(18,2)" json:"check_sum"`
	CheckCount int             `gorm:"not null;default:0" json:"check_count"`
}

func (ReceiptsAnnual) TableName() string { return "receipts_annual" }

// Fno holds tax report turnover figures keyed by
// (organization, form type, year); each reporting period has its own
// column as in the source schema.
type Fno struct {
	BaseModel
	OrganizationID int              `gorm:"not null;index:idx_fno_org_form_year,unique" json:"organization_id"`
	FormType       string           `gorm:"type:varchar(10);not null;index:idx_fno_org_form_year,unique" json:"form_type"`
	Year           int              `gorm:"not null;index:idx_fno_org_form_year,unique" json:"year"`
	TurnoverQ1     *decimal.Decimal `gorm:"type:numeric(18,2)" json:"turnover_q1"`
	TurnoverQ2     *decimal.Decimal `gorm:"type:numeric(18,2)" json:"turnover_q2"`
	TurnoverQ3     *decimal.Decimal `gorm:"type:numeric(18,2)" json:"turnover_q3"`
	TurnoverQ4     *decimal.Decimal `gorm:"type:numeric(18,2)" json:"turnover_q4"`
	TurnoverYear   *decimal.Decimal `gorm:"type:numeric(18,2)" json:"turnover_year"`
}

func (Fno) TableName() string { return "fno" }

// ESF (electronic invoice) rollups come in four annual/daily tables
// plus two monthly tables; all are read-only materializations.

type EsfSellerAnnual struct {
	BaseModel
	OrganizationID int             `gorm:"not null;index" json:"organization_id"`
	Year           int             `gorm:"not null;index" json:"year"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_amount"`
}

func (EsfSellerAnnual) TableName() string { return "esf_seller_annual" }

type EsfSellerDaily struct {
	BaseModel
	OrganizationID int             `gorm:"not null;index" json:"organization_id"`
	Date           time.Time       `gorm:"column:date_;type:date;not null;index" json:"date_"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_amount"`
}

func (EsfSellerDaily) TableName() string { return "esf_seller_daily" }

type EsfBuyerAnnual struct {
	BaseModel
	OrganizationID int             `gorm:"not null;index" json:"organization_id"`
	Year           int             `gorm:"not null;index" json:"year"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_amount"`
}

func (EsfBuyerAnnual) TableName() string { return "esf_buyer_annual" }

type EsfBuyerDaily struct {
	BaseModel
	OrganizationID int             `gorm:"not null;index" json:"organization_id"`
	Date           time.Time       `gorm:"column:date_;type:date;not null;index" json:"date_"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_amount"`
}

func (EsfBuyerDaily) TableName() string { return "esf_buyer_daily" }

type EsfSellerMonthly struct {
	BaseModel
	OrganizationID int             `gorm:"not null;index" json:"organization_id"`
	Year           int             `gorm:"not null;index" json:"year"`
	Month          int             `gorm:"not null" json:"month"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_amount"`
}

func (EsfSellerMonthly) TableName() string { return "esf_seller_monthly" }

type EsfBuyerMonthly struct {
	BaseModel
	OrganizationID int             `gorm:"not null;index" json:"organization_id"`
	Year           int             `gorm:"not null;index" json:"year"`
	Month          int             `gorm:"not null" json:"month"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_amount"`
}

func (EsfBuyerMonthly) TableName() string { return "esf_buyer_monthly" }

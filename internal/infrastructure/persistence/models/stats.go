package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Population holds demographic counts keyed by region and anchor date.
// Only a few anchor dates exist per year (quarter starts plus ad-hoc
// snapshots), which is why the analytics layer resolves anchors instead
// of assuming a continuous series.
type Population struct {
	BaseModel
	OblastID  *int      `gorm:"index:idx_population_region_date" json:"oblast_id"`
	RaionID   *int      `gorm:"index:idx_population_region_date" json:"raion_id"`
	Date      time.Time `gorm:"column:date_;type:date;not null;index:idx_population_region_date" json:"date_"`
	PeopleNum *int64    `json:"people_num"`
	ManNum    *int64    `json:"man_num"`
	WomanNum  *int64    `json:"woman_num"`
}

func (Population) TableName() string { return "population" }

// NalogPostuplenie is a monthly tax-revenue total per tax office and
// budget code. Rb marks republic-budget rows.
type NalogPostuplenie struct {
	BaseModel
	UgdID int             `gorm:"not null;index" json:"ugd_id"`
	Kbk   string          `gorm:"type:varchar(20);not null;index" json:"kbk"`
	Date  time.Time       `gorm:"column:date_;type:date;not null;index" json:"date_"`
	Summa decimal.Decimal `gorm:"type:numeric(18,2)" json:"summa"`
	Rb    bool            `gorm:"not null;default:false" json:"rb"`

	Ugd *Ugd `gorm:"foreignKey:UgdID" json:"ugd,omitempty"`
}

func (NalogPostuplenie) TableName() string { return "nalog_postuplenie" }

package models

import (
	"github.com/lib/pq"
	"github.com/taxgeo/backend/internal/infrastructure/geo"
)

// AddressObject is a node in the multi-level address registry
// (administrative unit, sub-unit, ground, building, room). The path
// array is materialized from parent edges; IsLeaf reflects the absence
// of children.
type AddressObject struct {
	BaseModel
	ParentID      *int           `gorm:"index" json:"parent_id"`
	NameRu        *string        `gorm:"type:varchar(500)" json:"name_ru"`
	NameKz        *string        `gorm:"type:varchar(500)" json:"name_kz"`
	RcoCode       *string        `gorm:"type:varchar(20);index" json:"rco_code"`
	KatoCode      *string        `gorm:"type:varchar(20);index" json:"kato_code"`
	TypeID        *int           `gorm:"index" json:"type_id"`
	FullAddressRu *string        `gorm:"type:text" json:"full_address_ru"`
	FullAddressKz *string        `gorm:"type:text" json:"full_address_kz"`
	Path          pq.Int64Array  `gorm:"type:integer[]" json:"path"`
	IsLeaf        bool           `gorm:"not null;default:false" json:"is_leaf"`
	Geometry      *geo.Geometry  `gorm:"type:geometry(Geometry,4326)" json:"geometry,omitempty"`
	Parent        *AddressObject `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}

func (AddressObject) TableName() string { return "address_objects" }

// AddressObjectType classifies registry nodes
type AddressObjectType struct {
	Dictionary
}

func (AddressObjectType) TableName() string { return "dic_address_object_type" }

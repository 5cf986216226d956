package geo

import (
	"database/sql/driver"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
)

// Geometry is a GORM column type for PostGIS geometry columns. PostGIS
// returns geometry as hex-encoded EWKB text, which is what Scan expects;
// Value encodes the same way so round trips preserve the SRID.
type Geometry struct {
	Geom geom.T
}

// NewPoint builds a POINT geometry at SRID 4326
func NewPoint(lon, lat float64) Geometry {
	return Geometry{Geom: geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRID)}
}

// IsZero reports whether the column holds no geometry; GORM uses this to
// skip the field on insert when empty.
func (g Geometry) IsZero() bool {
	return g.Geom == nil
}

// GormDataType declares the column type
func (Geometry) GormDataType() string {
	return fmt.Sprintf("geometry(Geometry,%d)", SRID)
}

// Value implements driver.Valuer
func (g Geometry) Value() (driver.Value, error) {
	if g.Geom == nil {
		return nil, nil
	}
	return ewkbhex.Encode(g.Geom, ewkbhex.NDR)
}

// Scan implements sql.Scanner
func (g *Geometry) Scan(src any) error {
	if src == nil {
		g.Geom = nil
		return nil
	}

	var encoded string
	switch v := src.(type) {
	case string:
		encoded = v
	case []byte:
		encoded = string(v)
	default:
		return fmt.Errorf("geo: cannot scan %T into geometry column", src)
	}

	decoded, err := ewkbhex.Decode(encoded)
	if err != nil {
		return fmt.Errorf("geo: decode geometry: %w", err)
	}
	g.Geom = decoded
	return nil
}

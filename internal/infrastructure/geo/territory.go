// Package geo handles caller-supplied territory geometries and the
// PostGIS-backed geometry column type. All geometries are bound to
// SRID 4326.
package geo

import (
	"regexp"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/taxgeo/backend/internal/domain/shared"
)

// SRID is the geographic coordinate reference system used by every
// geometry column in the service.
const SRID = 4326

var (
	hexPattern  = regexp.MustCompile(`^[0-9A-Fa-f]+$`)
	sridPattern = regexp.MustCompile(`^[Ss][Rr][Ii][Dd]=(\d+);`)
)

// Territory is a parsed caller-supplied territory polygon, pre-encoded
// for SQL binding.
type Territory struct {
	geometry geom.T
	ewkbHex  string
}

// ParseTerritory classifies an opaque territory string and decodes it.
// An even-length string of hex digits is treated as hex-encoded (E)WKB —
// the shape of fixtures copied straight out of the database — anything
// else as WKT. A pathological WKT value that happens to be even-length
// hex-only would be misread; callers needing disambiguation can send an
// `SRID=4326;...` EWKT prefix, which is stripped before the WKT parse.
// Any SRID other than 4326 is rejected.
func ParseTerritory(value string) (*Territory, error) {
	if value == "" {
		return nil, shared.ErrInvalidTerritory
	}

	if m := sridPattern.FindStringSubmatch(value); m != nil {
		if m[1] != "4326" {
			return nil, shared.ErrInvalidTerritory
		}
		value = value[len(m[0]):]
	}

	var (
		g   geom.T
		err error
	)
	if len(value)%2 == 0 && hexPattern.MatchString(value) {
		g, err = ewkbhex.Decode(value)
	} else {
		g, err = wkt.Unmarshal(value)
	}
	if err != nil {
		return nil, shared.ErrInvalidTerritory
	}

	g, err = withSRID(g)
	if err != nil {
		return nil, shared.ErrInvalidTerritory
	}

	encoded, err := ewkbhex.Encode(g, ewkbhex.NDR)
	if err != nil {
		return nil, shared.ErrInvalidTerritory
	}

	return &Territory{geometry: g, ewkbHex: encoded}, nil
}

// Geom returns the decoded geometry
func (t *Territory) Geom() geom.T {
	return t.geometry
}

// EWKBHex returns the hex-encoded EWKB form used as a SQL bind value,
// e.g. `ST_GeomFromEWKB(decode(?, 'hex'))`.
func (t *Territory) EWKBHex() string {
	return t.ewkbHex
}

// WKT re-serializes the territory as WKT
func (t *Territory) WKT() (string, error) {
	return wkt.Marshal(t.geometry)
}

// withSRID stamps SRID 4326 onto a decoded geometry
func withSRID(g geom.T) (geom.T, error) {
	switch g := g.(type) {
	case *geom.Point:
		return g.SetSRID(SRID), nil
	case *geom.MultiPoint:
		return g.SetSRID(SRID), nil
	case *geom.LineString:
		return g.SetSRID(SRID), nil
	case *geom.MultiLineString:
		return g.SetSRID(SRID), nil
	case *geom.Polygon:
		return g.SetSRID(SRID), nil
	case *geom.MultiPolygon:
		return g.SetSRID(SRID), nil
	case *geom.GeometryCollection:
		return g.SetSRID(SRID), nil
	default:
		return nil, shared.ErrInvalidTerritory
	}
}

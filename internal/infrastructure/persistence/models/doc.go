// Package models holds the GORM persistence models. Tables follow the
// upstream schema: dictionaries live in dic_* tables with integer keys,
// geometry columns are PostGIS SRID 4326, and personal identifiers are
// stored through the encrypted column types.
package models

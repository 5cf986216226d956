package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add KKM coordinates", "index cash registers by location")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.Equal(t, "add_kkm_coordinates", mf.Name)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_kkm_coordinates.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_kkm_coordinates.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_kkm_coordinates")
	assert.Contains(t, string(up), "-- Description: index cash registers by location")
	assert.Contains(t, string(up), "UP migration")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
	assert.Contains(t, string(down), "Rollback for index cash registers by location")
	assert.Contains(t, string(down), "DOWN migration")
}

func TestCreateMigrationMakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "create_bookings", "")
	require.NoError(t, err)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)
}

func TestCreateMigrationRejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Add KKM coordinates":  "add_kkm_coordinates",
		"create---taxpayers":   "create_taxpayers",
		"  spaced  out  ":      "spaced_out",
		"MixedCase_name-2":     "mixedcase_name_2",
		"период":               "",
		"enable postgis (v16)": "enable_postgis_v16",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), "slugify(%q)", in)
	}
}

func TestVersionPrefixSortsWithExisting(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "newest", "")
	require.NoError(t, err)

	// The checked-in migrations use the same 14-digit prefix; anything
	// generated now must sort after them.
	assert.True(t, strings.Compare(filepath.Base(mf.UpPath), "20250301100000_enable_postgis.up.sql") > 0)
}

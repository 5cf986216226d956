package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	log := zap.NewNop()
	svc := NewService(
		persistence.NewAnalyticsRepository(db, log),
		persistence.NewKkmRepository(db, log),
		nil,
		log,
	)
	return svc, mock
}

func TestOrganizationsMonthly_InvalidRegion(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.OrganizationsMonthly(context.Background(), Query{Region: "PLANET", Year: 2023})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_REGION", domainErr.Code)
}

func TestOrganizationsMonthly_YearRequired(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.OrganizationsMonthly(context.Background(), Query{Region: persistence.RegionRK})
	require.Error(t, err)
}

func TestOrganizationsMonthly_TotalIsLastMonth(t *testing.T) {
	svc, mock := newService(t)
	svc.now = func() time.Time { return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC) }

	rows := sqlmock.NewRows([]string{"month", "count"})
	for m := 1; m <= 12; m++ {
		rows.AddRow(m, int64(100+m))
	}
	mock.ExpectQuery(`generate_series`).
		WithArgs(
			time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC),
		).
		WillReturnRows(rows)

	series, err := svc.OrganizationsMonthly(context.Background(), Query{Region: persistence.RegionRK, Year: 2023})
	require.NoError(t, err)
	assert.Len(t, series.Months, 12)
	assert.Equal(t, int64(112), series.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationsMonthly_CurrentYearStopsAtCurrentMonth(t *testing.T) {
	svc, mock := newService(t)
	svc.now = func() time.Time { return time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC) }

	rows := sqlmock.NewRows([]string{"month", "count"})
	for m := 1; m <= 4; m++ {
		rows.AddRow(m, int64(m))
	}
	mock.ExpectQuery(`generate_series`).
		WithArgs(
			time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		).
		WillReturnRows(rows)

	series, err := svc.OrganizationsMonthly(context.Background(), Query{Region: persistence.RegionRK, Year: 2024})
	require.NoError(t, err)
	assert.Len(t, series.Months, 4)
	assert.Equal(t, int64(4), series.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationsMonthly_BadTerritory(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.OrganizationsMonthly(context.Background(), Query{
		Region:    persistence.RegionOblast,
		Territory: "neither wkt nor hex (",
		Year:      2023,
	})
	require.Error(t, err)
}

func TestOrganizationsCount_PastYearCutoff(t *testing.T) {
	svc, mock := newService(t)
	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }

	mock.ExpectQuery(`count\(\*\) FROM organizations`).
		WithArgs(
			time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC),
		).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(321)))

	count, err := svc.OrganizationsCount(context.Background(), Query{Region: persistence.RegionRK, Year: 2020})
	require.NoError(t, err)
	assert.Equal(t, int64(321), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationsCount_CurrentYearNoCutoff(t *testing.T) {
	svc, mock := newService(t)
	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }

	mock.ExpectQuery(`date_stop IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := svc.OrganizationsCount(context.Background(), Query{Region: persistence.RegionRK, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestEsfTotals_IndexedBySource(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery(`UNION ALL`).
		WillReturnRows(sqlmock.NewRows([]string{"source", "total"}).
			AddRow(persistence.SourceSellerAnnual, "100.50").
			AddRow(persistence.SourceSellerDaily, "0").
			AddRow(persistence.SourceBuyerAnnual, "42").
			AddRow(persistence.SourceBuyerDaily, "7.25"))

	summary, err := svc.EsfTotals(context.Background(), Query{Region: persistence.RegionRK, Year: 2023})
	require.NoError(t, err)
	require.Len(t, summary.Sources, 4)
	assert.Equal(t, "100.5", summary.Sources[persistence.SourceSellerAnnual].String())
	assert.Equal(t, "7.25", summary.Sources[persistence.SourceBuyerDaily].String())
}

func TestTaxRevenue_RequiresScopeID(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.TaxRevenue(context.Background(), Query{Region: persistence.RegionOblast, Year: 2023}, false)
	require.Error(t, err)

	_, err = svc.TaxRevenue(context.Background(), Query{Region: persistence.RegionRaion, Year: 2023}, false)
	require.Error(t, err)
}

func TestReceiptsMonthly_NoKkms(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery(`SELECT \* FROM "kkms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id"}))

	_, err := svc.ReceiptsMonthly(context.Background(), 5, 2023)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

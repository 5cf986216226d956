package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/geo"
	"go.uber.org/zap"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestAnalyticsRepository_CountOrganizationsMonthly(t *testing.T) {
	t.Run("past year national series", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		// one organization registered 2023-04-15, never de-registered:
		// the window contains every month-end from April on
		result := sqlmock.NewRows([]string{"month", "count"})
		for month := 1; month <= 12; month++ {
			count := 0
			if month >= 4 {
				count = 1
			}
			result.AddRow(month, count)
		}
		mock.ExpectQuery(`SELECT extract\(month FROM months\.m\)::int AS month, count\(o\.id\) AS count\s+FROM generate_series\(\$1::date, \$2::date, interval '1 month'\)`).
			WithArgs(date(2023, time.January, 1), date(2023, time.December, 1)).
			WillReturnRows(result)

		rows, err := repo.CountOrganizationsMonthly(context.Background(), date(2023, time.January, 1), date(2023, time.December, 1), nil)

		require.NoError(t, err)
		require.Len(t, rows, 12)
		for _, row := range rows[:3] {
			assert.Equal(t, int64(0), row.Count)
		}
		for _, row := range rows[3:] {
			assert.Equal(t, int64(1), row.Count)
		}
		// the series never decreases while nothing is de-registered
		for i := 1; i < len(rows); i++ {
			assert.GreaterOrEqual(t, rows[i].Count, rows[i-1].Count)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("territory adds an intersection predicate", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		territory, err := geo.ParseTerritory("POLYGON((70 50, 72 50, 72 52, 70 52, 70 50))")
		require.NoError(t, err)

		mock.ExpectQuery(`ST_Intersects\(o\.geometry, ST_GeomFromEWKB\(decode\(\$3, 'hex'\)\)\)`).
			WithArgs(date(2024, time.January, 1), date(2024, time.June, 1), territory.EWKBHex()).
			WillReturnRows(sqlmock.NewRows([]string{"month", "count"}).
				AddRow(1, 0).AddRow(2, 1).AddRow(3, 1).AddRow(4, 1).AddRow(5, 1).AddRow(6, 1))

		rows, err := repo.CountOrganizationsMonthly(context.Background(), date(2024, time.January, 1), date(2024, time.June, 1), territory)

		require.NoError(t, err)
		require.Len(t, rows, 6)
		assert.Equal(t, int64(0), rows[0].Count)
		assert.Equal(t, int64(1), rows[5].Count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnalyticsRepository_CountOrganizationsAt(t *testing.T) {
	t.Run("current year counts still-registered rows", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		mock.ExpectQuery(`SELECT count\(\*\) FROM organizations o WHERE o\.date_start IS NOT NULL AND o\.date_stop IS NULL`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		count, err := repo.CountOrganizationsAt(context.Background(), nil, nil)

		assert.NoError(t, err)
		assert.Equal(t, int64(12), count)
	})

	t.Run("past year evaluates at the cutoff", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		cutoff := date(2022, time.December, 31)
		mock.ExpectQuery(`o\.date_start <= \$1 AND \(o\.date_stop IS NULL OR o\.date_stop > \$2\)`).
			WithArgs(cutoff, cutoff).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

		count, err := repo.CountOrganizationsAt(context.Background(), &cutoff, nil)

		assert.NoError(t, err)
		assert.Equal(t, int64(9), count)
	})
}

func TestAnalyticsRepository_EsfTotals(t *testing.T) {
	t.Run("union of the four tagged sources", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		mock.ExpectQuery(`SELECT 'seller_annual' AS source.*UNION ALL.*'seller_daily'.*UNION ALL.*'buyer_annual'.*UNION ALL.*'buyer_daily'`).
			WithArgs(2023, 2023, 2023, 2023).
			WillReturnRows(sqlmock.NewRows([]string{"source", "total"}).
				AddRow(SourceSellerAnnual, "100.50").
				AddRow(SourceSellerDaily, "0").
				AddRow(SourceBuyerAnnual, "42.00").
				AddRow(SourceBuyerDaily, "0"))

		rows, err := repo.EsfTotals(context.Background(), 2023, nil)

		require.NoError(t, err)
		require.Len(t, rows, 4)

		bySource := make(map[string]decimal.Decimal, len(rows))
		for _, row := range rows {
			bySource[row.Source] = row.Total
		}
		assert.True(t, bySource[SourceSellerAnnual].Equal(decimal.RequireFromString("100.50")))
		assert.True(t, bySource[SourceBuyerDaily].IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("territory builds the organization CTE", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		territory, err := geo.ParseTerritory("POLYGON((70 50, 72 50, 72 52, 70 52, 70 50))")
		require.NoError(t, err)

		mock.ExpectQuery(`WITH orgs AS \(\s*SELECT id FROM organizations WHERE ST_Intersects.*JOIN orgs ON orgs\.id = t\.organization_id`).
			WithArgs(territory.EWKBHex(), 2023, 2023, 2023, 2023).
			WillReturnRows(sqlmock.NewRows([]string{"source", "total"}).
				AddRow(SourceSellerAnnual, "0").
				AddRow(SourceSellerDaily, "0").
				AddRow(SourceBuyerAnnual, "0").
				AddRow(SourceBuyerDaily, "0"))

		_, err = repo.EsfTotals(context.Background(), 2023, territory)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnalyticsRepository_TaxRevenue(t *testing.T) {
	t.Run("oblast set is direct offices union their children", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		mock.ExpectQuery(`SELECT id FROM dic_ugd WHERE oblast_id = \$2\s+UNION\s+SELECT id FROM dic_ugd WHERE parent_id IN \(SELECT id FROM dic_ugd WHERE oblast_id = \$3\)`).
			WithArgs(2023, 5, 5).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("1500.00"))

		total, err := repo.TaxRevenueTotal(context.Background(), 2023, intPtr(5), nil)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("1500.00")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("raion set is direct offices only", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		mock.ExpectQuery(`n\.ugd_id IN \(SELECT id FROM dic_ugd WHERE raion_id = \$2\)`).
			WithArgs(2023, 17).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("300.00"))

		total, err := repo.TaxRevenueTotal(context.Background(), 2023, nil, intPtr(17))

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("300.00")))
	})

	t.Run("monthly groups by extracted month", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		mock.ExpectQuery(`SELECT extract\(month FROM n\.date_\)::int AS month.*GROUP BY 1 ORDER BY 1`).
			WithArgs(2023).
			WillReturnRows(sqlmock.NewRows([]string{"month", "amount"}).
				AddRow(1, "10.00").AddRow(2, "20.00"))

		rows, err := repo.TaxRevenueMonthly(context.Background(), 2023, nil, nil)

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].Month)
		assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("20.00")))
	})
}

func TestAnalyticsRepository_ReceiptsMonthlyByKkms(t *testing.T) {
	t.Run("rejects empty kkm set", func(t *testing.T) {
		db, _, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		_, err := repo.ReceiptsMonthlyByKkms(context.Background(), nil, 2023)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("groups daily rollup by month", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		mock.ExpectQuery(`FROM receipts_daily r\s+WHERE r\.kkm_id IN \(\$1,\$2\) AND extract\(year FROM r\.date_\) = \$3`).
			WithArgs(11, 12, 2023).
			WillReturnRows(sqlmock.NewRows([]string{"month", "check_sum", "check_count"}).
				AddRow(1, "999.99", 42))

		rows, err := repo.ReceiptsMonthlyByKkms(context.Background(), []int{11, 12}, 2023)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(42), rows[0].CheckCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnalyticsRepository_Population(t *testing.T) {
	t.Run("monthly series coalesces missing anchors to zero", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		result := sqlmock.NewRows([]string{"month", "count"})
		for month := 1; month <= 12; month++ {
			count := int64(0)
			if month == 1 || month == 4 || month == 7 || month == 10 {
				count = 1000
			}
			result.AddRow(month, count)
		}
		mock.ExpectQuery(`LEFT JOIN population p ON p\.date_ = months\.m::date AND p\.oblast_id = \$3`).
			WithArgs(date(2023, time.January, 1), date(2023, time.December, 1), 5).
			WillReturnRows(result)

		rows, err := repo.PopulationMonthly(context.Background(), intPtr(5), nil, 2023)

		require.NoError(t, err)
		require.Len(t, rows, 12)
		assert.Equal(t, int64(1000), rows[0].Count)
		assert.Equal(t, int64(0), rows[1].Count)
	})

	t.Run("past year reads the documented anchors", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewAnalyticsRepository(db, zap.NewNop())

		mock.ExpectQuery(`FROM population p WHERE p\.raion_id = \$1 AND p\.date_ = \$2`).
			WithArgs(17, date(2022, time.December, 1)).
			WillReturnRows(sqlmock.NewRows([]string{"people_num"}).AddRow(50000))
		mock.ExpectQuery(`FROM population p WHERE p\.raion_id = \$1 AND p\.date_ = \$2`).
			WithArgs(17, date(2022, time.October, 1)).
			WillReturnRows(sqlmock.NewRows([]string{"man_num", "woman_num"}).AddRow(24000, 26000))

		snapshot, err := repo.PopulationPast(context.Background(), nil, intPtr(17), 2022)

		require.NoError(t, err)
		assert.Equal(t, int64(50000), snapshot.PeopleNum)
		assert.Equal(t, int64(24000), snapshot.ManNum)
		assert.Equal(t, int64(26000), snapshot.WomanNum)
	})
}

package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taxgeo/backend/internal/application/analytics"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
)

// seedOblastUgd inserts one oblast with a tax office and returns their ids.
func seedOblastUgd(t *testing.T, tdb *TestDB) (oblastID, ugdID int) {
	t.Helper()

	require.NoError(t, tdb.DB.Exec(
		`INSERT INTO dic_oblast (code, name_ru) VALUES ('11', 'Test Oblast')`).Error)
	require.NoError(t, tdb.DB.Raw(
		`SELECT id FROM dic_oblast WHERE code = '11'`).Scan(&oblastID).Error)

	require.NoError(t, tdb.DB.Exec(
		`INSERT INTO dic_ugd (code, name_ru, oblast_id) VALUES ('1101', 'Test UGD', ?)`,
		oblastID).Error)
	require.NoError(t, tdb.DB.Raw(
		`SELECT id FROM dic_ugd WHERE code = '1101'`).Scan(&ugdID).Error)
	return oblastID, ugdID
}

func seedOrganization(t *testing.T, tdb *TestDB, bin, dateStart, dateStop string) {
	t.Helper()

	if dateStop == "" {
		require.NoError(t, tdb.DB.Exec(
			`INSERT INTO organizations (iin_bin, name_ru, date_start) VALUES (?, ?, ?::date)`,
			bin, "Org "+bin, dateStart).Error)
		return
	}
	require.NoError(t, tdb.DB.Exec(
		`INSERT INTO organizations (iin_bin, name_ru, date_start, date_stop) VALUES (?, ?, ?::date, ?::date)`,
		bin, "Org "+bin, dateStart, dateStop).Error)
}

func newAnalyticsService(tdb *TestDB) *analytics.Service {
	log := zap.NewNop()
	repo := persistence.NewAnalyticsRepository(tdb.DB, log)
	kkms := persistence.NewKkmRepository(tdb.DB, log)
	return analytics.NewService(repo, kkms, nil, log)
}

func TestOrganizationsMonthly_RegistrationWindows(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()

	// Registered before the year, stays all year.
	seedOrganization(t, tdb, "100000000001", "2019-05-10", "")
	// Registered in March of the queried year.
	seedOrganization(t, tdb, "100000000002", "2020-03-15", "")
	// Deregistered at the end of June: counted through June, gone in July.
	seedOrganization(t, tdb, "100000000003", "2018-01-01", "2020-07-01")

	svc := newAnalyticsService(tdb)
	series, err := svc.OrganizationsMonthly(context.Background(), analytics.Query{
		Region: persistence.RegionRK,
		Year:   2020,
	})
	require.NoError(t, err)
	require.Len(t, series.Months, 12)

	byMonth := map[int]int64{}
	for _, m := range series.Months {
		byMonth[m.Month] = m.Count
	}

	assert.Equal(t, int64(2), byMonth[1], "January: long-lived org plus the one closing in July")
	assert.Equal(t, int64(3), byMonth[3], "March: the new registration joins")
	assert.Equal(t, int64(3), byMonth[6], "June: deregistration not yet effective")
	assert.Equal(t, int64(2), byMonth[7], "July: deregistered org drops out")
	assert.Equal(t, int64(2), byMonth[12])
	assert.Equal(t, int64(2), series.Total, "total mirrors the last month of the series")
}

func TestOrganizationsCount_PastYearCutoff(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()

	seedOrganization(t, tdb, "200000000001", "2019-02-01", "")
	seedOrganization(t, tdb, "200000000002", "2021-06-01", "")
	seedOrganization(t, tdb, "200000000003", "2018-01-01", "2020-03-01")

	svc := newAnalyticsService(tdb)

	count, err := svc.OrganizationsCount(context.Background(), analytics.Query{
		Region: persistence.RegionRK,
		Year:   2020,
	})
	require.NoError(t, err)
	// At the end of 2020 only the first org is registered: the second
	// starts in 2021, the third deregistered in March.
	assert.Equal(t, int64(1), count)
}

func TestTaxRevenue_RepublicBudgetOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	oblastID, ugdID := seedOblastUgd(t, tdb)

	insert := func(date string, summa string, rb bool) {
		require.NoError(t, tdb.DB.Exec(
			`INSERT INTO nalog_postuplenie (ugd_id, kbk, date_, summa, rb) VALUES (?, '101101', ?::date, ?, ?)`,
			ugdID, date, summa, rb).Error)
	}
	insert("2022-01-15", "100.50", true)
	insert("2022-03-20", "200.00", true)
	insert("2022-03-25", "999.99", false) // local budget, excluded
	insert("2023-01-10", "50.00", true)   // other year, excluded

	svc := newAnalyticsService(tdb)
	summary, err := svc.TaxRevenue(context.Background(), analytics.Query{
		Region:   persistence.RegionOblast,
		Year:     2022,
		OblastID: &oblastID,
	}, true)
	require.NoError(t, err)

	assert.True(t, summary.Total.Equal(decimal.RequireFromString("300.50")),
		"total %s", summary.Total)

	byMonth := map[int]decimal.Decimal{}
	for _, m := range summary.Months {
		byMonth[m.Month] = m.Amount
	}
	assert.True(t, byMonth[1].Equal(decimal.RequireFromString("100.50")))
	assert.True(t, byMonth[3].Equal(decimal.RequireFromString("200.00")))
}

func TestPopulation_AnchorResolution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	oblastID, _ := seedOblastUgd(t, tdb)

	insert := func(date string, people int64) {
		require.NoError(t, tdb.DB.Exec(
			`INSERT INTO population (oblast_id, date_, people_num, man_num, woman_num) VALUES (?, ?::date, ?, ?, ?)`,
			oblastID, date, people, people/2, people-people/2).Error)
	}
	insert("2020-01-01", 1000)
	insert("2020-04-01", 1100)
	insert("2020-10-01", 1300)
	insert("2020-12-01", 1350)

	svc := newAnalyticsService(tdb)
	summary, err := svc.Population(context.Background(), analytics.Query{
		Region:   persistence.RegionOblast,
		Year:     2020,
		OblastID: &oblastID,
	}, false)
	require.NoError(t, err)

	// Past-year totals anchor at Dec 1, gender counts at Oct 1.
	assert.Equal(t, int64(1350), summary.Totals.PeopleNum)
	assert.Equal(t, int64(650), summary.Totals.ManNum)
	assert.Equal(t, int64(650), summary.Totals.WomanNum)
}

func TestReceiptsMonthly_RollupPerOrganization(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()

	seedOrganization(t, tdb, "300000000001", "2015-01-01", "")
	var orgID int
	require.NoError(t, tdb.DB.Raw(
		`SELECT id FROM organizations WHERE iin_bin = '300000000001'`).Scan(&orgID).Error)

	require.NoError(t, tdb.DB.Exec(
		`INSERT INTO kkms (organization_id, reg_number) VALUES (?, 'KKM-1'), (?, 'KKM-2')`,
		orgID, orgID).Error)
	var kkmIDs []int
	require.NoError(t, tdb.DB.Raw(
		`SELECT id FROM kkms WHERE organization_id = ? ORDER BY id`, orgID).Scan(&kkmIDs).Error)
	require.Len(t, kkmIDs, 2)

	insert := func(kkmID int, date string, sum string, count int) {
		require.NoError(t, tdb.DB.Exec(
			`INSERT INTO receipts_daily (kkm_id, date_, check_sum, check_count) VALUES (?, ?::date, ?, ?)`,
			kkmID, date, sum, count).Error)
	}
	insert(kkmIDs[0], "2021-02-01", "10.00", 2)
	insert(kkmIDs[1], "2021-02-15", "15.00", 3)
	insert(kkmIDs[0], "2021-05-03", "7.50", 1)

	svc := newAnalyticsService(tdb)
	series, err := svc.ReceiptsMonthly(context.Background(), orgID, 2021)
	require.NoError(t, err)

	byMonth := map[int]persistence.MonthReceipts{}
	for _, m := range series.Months {
		byMonth[m.Month] = m
	}
	assert.True(t, byMonth[2].CheckSum.Equal(decimal.RequireFromString("25.00")),
		"February combines both registers: %s", byMonth[2].CheckSum)
	assert.Equal(t, int64(5), byMonth[2].CheckCount)
	assert.True(t, byMonth[5].CheckSum.Equal(decimal.RequireFromString("7.50")))
}

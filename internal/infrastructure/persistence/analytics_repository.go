package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/geo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Region is the level an analytical query is scoped to. RK is national:
// territory filtering is skipped because the data covers the whole
// country anyway.
type Region string

const (
	RegionRK       Region = "RK"
	RegionOblast   Region = "OBLAST"
	RegionRaion    Region = "RAION"
	RegionBuilding Region = "BUILDING"
)

// Valid reports whether the region level is one of the known values
func (r Region) Valid() bool {
	switch r {
	case RegionRK, RegionOblast, RegionRaion, RegionBuilding:
		return true
	}
	return false
}

// MonthCount is one month of an organization count series
type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// SourceTotal is a tagged aggregate from one ESF source table
type SourceTotal struct {
	Source string          `json:"source"`
	Total  decimal.Decimal `json:"total"`
}

// SourceMonthTurnover is one month of an ESF turnover series
type SourceMonthTurnover struct {
	Source   string          `json:"source"`
	Month    int             `json:"month"`
	Turnover decimal.Decimal `json:"turnover"`
}

// MonthAmount is one month of a monetary series
type MonthAmount struct {
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthReceipts is one month of a receipts rollup series
type MonthReceipts struct {
	Month      int             `json:"month"`
	CheckSum   decimal.Decimal `json:"check_sum"`
	CheckCount int64           `json:"check_count"`
}

// PopulationSnapshot carries the demographic counts at one anchor date
type PopulationSnapshot struct {
	PeopleNum int64 `json:"people_num"`
	ManNum    int64 `json:"man_num"`
	WomanNum  int64 `json:"woman_num"`
}

// MonthPopulation is one month of a population series
type MonthPopulation struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// ESF source tags, also used by handlers to index UNION ALL results
const (
	SourceSellerAnnual = "seller_annual"
	SourceSellerDaily  = "seller_daily"
	SourceBuyerAnnual  = "buyer_annual"
	SourceBuyerDaily   = "buyer_daily"
	SourceSeller       = "seller"
	SourceBuyer        = "buyer"
)

// AnalyticsRepository runs the raw analytical SQL: server-side month
// series, territory intersections, and multi-source UNION ALL
// aggregations. All statements are parameterized.
type AnalyticsRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAnalyticsRepository creates an analytics repository
func NewAnalyticsRepository(db *gorm.DB, log *zap.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, log: log}
}

const territoryPredicate = "ST_Intersects(%s, ST_GeomFromEWKB(decode(?, 'hex')))"

// CountOrganizationsMonthly counts, for each month of the series, the
// organizations whose registration window [date_start, date_stop or
// +infinity) contains the last day of that month. A nil territory skips
// the spatial predicate (national scope).
func (r *AnalyticsRepository) CountOrganizationsMonthly(ctx context.Context, periodStart, periodEnd time.Time, territory *geo.Territory) ([]MonthCount, error) {
	join := `o.date_start <= (date_trunc('month', months.m) + interval '1 month - 1 day')::date
		AND (o.date_stop IS NULL OR o.date_stop > (date_trunc('month', months.m) + interval '1 month - 1 day')::date)`
	args := []any{periodStart, periodEnd}
	if territory != nil {
		join += " AND " + fmt.Sprintf(territoryPredicate, "o.geometry")
		args = append(args, territory.EWKBHex())
	}

	query := fmt.Sprintf(`
		SELECT extract(month FROM months.m)::int AS month, count(o.id) AS count
		FROM generate_series(?::date, ?::date, interval '1 month') AS months(m)
		LEFT JOIN organizations o ON %s
		GROUP BY months.m
		ORDER BY months.m`, join)

	var rows []MonthCount
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, r.backendError("count organizations monthly", err)
	}
	return rows, nil
}

// CountOrganizationsAt evaluates the registration predicate at a single
// date. For the current year the cutoff is nil: still-registered rows
// are counted. For a past year the cutoff is Dec 31 of that year.
func (r *AnalyticsRepository) CountOrganizationsAt(ctx context.Context, cutoff *time.Time, territory *geo.Territory) (int64, error) {
	where := "o.date_start IS NOT NULL"
	var args []any
	if cutoff != nil {
		where += " AND o.date_start <= ? AND (o.date_stop IS NULL OR o.date_stop > ?)"
		args = append(args, *cutoff, *cutoff)
	} else {
		where += " AND o.date_stop IS NULL"
	}
	if territory != nil {
		where += " AND " + fmt.Sprintf(territoryPredicate, "o.geometry")
		args = append(args, territory.EWKBHex())
	}

	var count int64
	query := fmt.Sprintf("SELECT count(*) FROM organizations o WHERE %s", where)
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return 0, r.backendError("count organizations at date", err)
	}
	return count, nil
}

// esfSource describes one table of the UNION ALL. Annual tables carry a
// year column; daily tables carry date_.
type esfSource struct {
	tag    string
	table  string
	annual bool
}

var esfSources = []esfSource{
	{SourceSellerAnnual, "esf_seller_annual", true},
	{SourceSellerDaily, "esf_seller_daily", false},
	{SourceBuyerAnnual, "esf_buyer_annual", true},
	{SourceBuyerDaily, "esf_buyer_daily", false},
}

// EsfTotals builds one tagged sub-select per ESF source table and
// combines them with UNION ALL. With a territory, every sub-select joins
// a CTE of organizations intersecting it.
func (r *AnalyticsRepository) EsfTotals(ctx context.Context, year int, territory *geo.Territory) ([]SourceTotal, error) {
	var query string
	var args []any

	join := ""
	if territory != nil {
		query = fmt.Sprintf(`WITH orgs AS (
			SELECT id FROM organizations WHERE %s
		)
		`, fmt.Sprintf(territoryPredicate, "geometry"))
		args = append(args, territory.EWKBHex())
		join = "JOIN orgs ON orgs.id = t.organization_id"
	}

	for i, src := range esfSources {
		if i > 0 {
			query += "\nUNION ALL\n"
		}
		yearPredicate := "t.year = ?"
		if !src.annual {
			yearPredicate = "extract(year FROM t.date_) = ?"
		}
		query += fmt.Sprintf(`SELECT '%s' AS source, coalesce(sum(t.total_amount), 0) AS total
			FROM %s t %s WHERE %s`, src.tag, src.table, join, yearPredicate)
		args = append(args, year)
	}

	var rows []SourceTotal
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, r.backendError("esf totals", err)
	}
	return rows, nil
}

// EsfMonthly aggregates the two monthly ESF tables by month
func (r *AnalyticsRepository) EsfMonthly(ctx context.Context, year int, territory *geo.Territory) ([]SourceMonthTurnover, error) {
	var query string
	var args []any

	join := ""
	if territory != nil {
		query = fmt.Sprintf(`WITH orgs AS (
			SELECT id FROM organizations WHERE %s
		)
		`, fmt.Sprintf(territoryPredicate, "geometry"))
		args = append(args, territory.EWKBHex())
		join = "JOIN orgs ON orgs.id = t.organization_id"
	}

	sources := []struct{ tag, table string }{
		{SourceSeller, "esf_seller_monthly"},
		{SourceBuyer, "esf_buyer_monthly"},
	}
	for i, src := range sources {
		if i > 0 {
			query += "\nUNION ALL\n"
		}
		query += fmt.Sprintf(`SELECT '%s' AS source, t.month AS month, coalesce(sum(t.total_amount), 0) AS turnover
			FROM %s t %s WHERE t.year = ? GROUP BY t.month`, src.tag, src.table, join)
		args = append(args, year)
	}
	query += "\nORDER BY source, month"

	var rows []SourceMonthTurnover
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, r.backendError("esf monthly", err)
	}
	return rows, nil
}

// ugdSetClause yields the tax-office membership predicate for a region.
// At OBLAST (and RK when an oblast is given) the set is the union of
// offices directly assigned to the oblast and offices whose parent is
// one of those. At RAION only direct assignment counts.
func ugdSetClause(oblastID, raionID *int) (string, []any) {
	switch {
	case raionID != nil:
		return "n.ugd_id IN (SELECT id FROM dic_ugd WHERE raion_id = ?)", []any{*raionID}
	case oblastID != nil:
		return `n.ugd_id IN (
			SELECT id FROM dic_ugd WHERE oblast_id = ?
			UNION
			SELECT id FROM dic_ugd WHERE parent_id IN (SELECT id FROM dic_ugd WHERE oblast_id = ?)
		)`, []any{*oblastID, *oblastID}
	default:
		return "", nil
	}
}

// TaxRevenueTotal sums republic-budget revenue for a year over the
// region's tax-office set
func (r *AnalyticsRepository) TaxRevenueTotal(ctx context.Context, year int, oblastID, raionID *int) (decimal.Decimal, error) {
	where := "n.rb = true AND extract(year FROM n.date_) = ?"
	args := []any{year}
	if clause, clauseArgs := ugdSetClause(oblastID, raionID); clause != "" {
		where += " AND " + clause
		args = append(args, clauseArgs...)
	}

	var total decimal.Decimal
	query := fmt.Sprintf("SELECT coalesce(sum(n.summa), 0) FROM nalog_postuplenie n WHERE %s", where)
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&total).Error; err != nil {
		return decimal.Zero, r.backendError("tax revenue total", err)
	}
	return total, nil
}

// TaxRevenueMonthly is TaxRevenueTotal with extract(month) grouping
func (r *AnalyticsRepository) TaxRevenueMonthly(ctx context.Context, year int, oblastID, raionID *int) ([]MonthAmount, error) {
	where := "n.rb = true AND extract(year FROM n.date_) = ?"
	args := []any{year}
	if clause, clauseArgs := ugdSetClause(oblastID, raionID); clause != "" {
		where += " AND " + clause
		args = append(args, clauseArgs...)
	}

	query := fmt.Sprintf(`
		SELECT extract(month FROM n.date_)::int AS month, coalesce(sum(n.summa), 0) AS amount
		FROM nalog_postuplenie n WHERE %s
		GROUP BY 1 ORDER BY 1`, where)

	var rows []MonthAmount
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, r.backendError("tax revenue monthly", err)
	}
	return rows, nil
}

// ReceiptsMonthlyByKkms groups the daily receipts rollup of the given
// cash registers by month
func (r *AnalyticsRepository) ReceiptsMonthlyByKkms(ctx context.Context, kkmIDs []int, year int) ([]MonthReceipts, error) {
	if len(kkmIDs) == 0 {
		return nil, shared.ErrInvalidInput
	}

	query := `
		SELECT extract(month FROM r.date_)::int AS month,
			coalesce(sum(r.check_sum), 0) AS check_sum,
			coalesce(sum(r.check_count), 0) AS check_count
		FROM receipts_daily r
		WHERE r.kkm_id IN ? AND extract(year FROM r.date_) = ?
		GROUP BY 1 ORDER BY 1`

	var rows []MonthReceipts
	if err := r.db.WithContext(ctx).Raw(query, kkmIDs, year).Scan(&rows).Error; err != nil {
		return nil, r.backendError("receipts monthly by kkms", err)
	}
	return rows, nil
}

// populationRegionClause scopes population rows to an oblast or a raion
func populationRegionClause(oblastID, raionID *int) (string, []any) {
	if raionID != nil {
		return "p.raion_id = ?", []any{*raionID}
	}
	if oblastID != nil {
		return "p.oblast_id = ?", []any{*oblastID}
	}
	return "p.oblast_id IS NULL AND p.raion_id IS NULL", nil
}

// quarterAnchors are the canonical quarter-start dates gender counts are
// published at
func quarterAnchors(year int) []time.Time {
	return []time.Time{
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC),
	}
}

// PopulationCurrent resolves the current-year snapshot: the aggregate
// count comes from the latest anchor date not after today, gender counts
// from the latest canonical quarter date that exists in the data.
func (r *AnalyticsRepository) PopulationCurrent(ctx context.Context, oblastID, raionID *int, today time.Time) (PopulationSnapshot, error) {
	region, args := populationRegionClause(oblastID, raionID)

	var snapshot PopulationSnapshot
	totalQuery := fmt.Sprintf(`
		SELECT coalesce(p.people_num, 0) AS people_num
		FROM population p WHERE %s AND p.date_ <= ?
		ORDER BY p.date_ DESC LIMIT 1`, region)
	if err := r.db.WithContext(ctx).Raw(totalQuery, append(args, today)...).Scan(&snapshot).Error; err != nil {
		return PopulationSnapshot{}, r.backendError("population current total", err)
	}

	var gender struct {
		ManNum   int64
		WomanNum int64
	}
	genderQuery := fmt.Sprintf(`
		SELECT coalesce(p.man_num, 0) AS man_num, coalesce(p.woman_num, 0) AS woman_num
		FROM population p WHERE %s AND p.date_ IN ?
		ORDER BY p.date_ DESC LIMIT 1`, region)
	_, genderArgs := populationRegionClause(oblastID, raionID)
	if err := r.db.WithContext(ctx).Raw(genderQuery, append(genderArgs, quarterAnchors(today.Year()))...).Scan(&gender).Error; err != nil {
		return PopulationSnapshot{}, r.backendError("population current gender", err)
	}
	snapshot.ManNum = gender.ManNum
	snapshot.WomanNum = gender.WomanNum
	return snapshot, nil
}

// PopulationPast resolves a past-year snapshot: totals from Dec 1 and
// gender from Oct 1, the anchor convention the data is published with.
func (r *AnalyticsRepository) PopulationPast(ctx context.Context, oblastID, raionID *int, year int) (PopulationSnapshot, error) {
	region, args := populationRegionClause(oblastID, raionID)

	var snapshot PopulationSnapshot
	dec1 := time.Date(year, time.December, 1, 0, 0, 0, 0, time.UTC)
	totalQuery := fmt.Sprintf(`
		SELECT coalesce(p.people_num, 0) AS people_num
		FROM population p WHERE %s AND p.date_ = ? LIMIT 1`, region)
	if err := r.db.WithContext(ctx).Raw(totalQuery, append(args, dec1)...).Scan(&snapshot).Error; err != nil {
		return PopulationSnapshot{}, r.backendError("population past total", err)
	}

	var gender struct {
		ManNum   int64
		WomanNum int64
	}
	oct1 := time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC)
	genderQuery := fmt.Sprintf(`
		SELECT coalesce(p.man_num, 0) AS man_num, coalesce(p.woman_num, 0) AS woman_num
		FROM population p WHERE %s AND p.date_ = ? LIMIT 1`, region)
	_, genderArgs := populationRegionClause(oblastID, raionID)
	if err := r.db.WithContext(ctx).Raw(genderQuery, append(genderArgs, oct1)...).Scan(&gender).Error; err != nil {
		return PopulationSnapshot{}, r.backendError("population past gender", err)
	}
	snapshot.ManNum = gender.ManNum
	snapshot.WomanNum = gender.WomanNum
	return snapshot, nil
}

// PopulationMonthly outer-joins the year's month series on the irregular
// anchor rows; months without an anchor report zero.
func (r *AnalyticsRepository) PopulationMonthly(ctx context.Context, oblastID, raionID *int, year int) ([]MonthPopulation, error) {
	region, args := populationRegionClause(oblastID, raionID)

	query := fmt.Sprintf(`
		SELECT extract(month FROM months.m)::int AS month, coalesce(p.people_num, 0) AS count
		FROM generate_series(?::date, ?::date, interval '1 month') AS months(m)
		LEFT JOIN population p ON p.date_ = months.m::date AND %s
		ORDER BY months.m`, region)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 1, 0, 0, 0, 0, time.UTC)
	queryArgs := append([]any{start, end}, args...)

	var rows []MonthPopulation
	if err := r.db.WithContext(ctx).Raw(query, queryArgs...).Scan(&rows).Error; err != nil {
		return nil, r.backendError("population monthly", err)
	}
	return rows, nil
}

func (r *AnalyticsRepository) backendError(op string, err error) error {
	r.log.Error("analytics query failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", shared.ErrBackendFailure, op, err)
}

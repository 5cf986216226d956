// Package analytics turns validated query scopes into the raw
// analytical SQL of the persistence layer and shapes the results for
// the HTTP surface.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/geo"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service coordinates the analytical read paths
type Service struct {
	repo    *persistence.AnalyticsRepository
	kkms    *persistence.KkmRepository
	metrics *telemetry.APIMetrics
	now     func() time.Time
	log     *zap.Logger
}

// NewService creates the analytics service
func NewService(repo *persistence.AnalyticsRepository, kkms *persistence.KkmRepository, metrics *telemetry.APIMetrics, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		kkms:    kkms,
		metrics: metrics,
		now:     time.Now,
		log:     log,
	}
}

// territory resolves the query's spatial filter. National scope never
// filters by geometry; other scopes filter only when a territory value
// is present.
func (s *Service) territory(q Query) (*geo.Territory, error) {
	if q.Region == persistence.RegionRK || q.Territory == "" {
		return nil, nil
	}
	t, err := geo.ParseTerritory(q.Territory)
	if err != nil {
		s.log.Warn("unparseable territory value", zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (s *Service) validate(q Query) error {
	if !q.Region.Valid() {
		return shared.NewDomainError("INVALID_REGION", "Region must be one of RK, OBLAST, RAION, BUILDING")
	}
	if q.Year <= 0 {
		return shared.NewDomainError("INVALID_YEAR", "Year is required")
	}
	return nil
}

// currentYear reports whether the query targets the year still in
// progress.
func (s *Service) currentYear(q Query) bool {
	return q.Year == s.now().Year()
}

// OrganizationsMonthly builds the monthly registered-organization
// series. For the year in progress the series stops at the current
// month; the yearly total is the last observed month's count.
func (s *Service) OrganizationsMonthly(ctx context.Context, q Query) (*OrganizationSeries, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	t, err := s.territory(q)
	if err != nil {
		return nil, err
	}

	started := s.now()
	periodStart := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(q.Year, time.December, 1, 0, 0, 0, 0, time.UTC)
	if s.currentYear(q) {
		now := s.now()
		periodEnd = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	months, err := s.repo.CountOrganizationsMonthly(ctx, periodStart, periodEnd, t)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAnalyticsQuery(ctx, string(q.Region), "organizations_monthly", time.Since(started))

	series := &OrganizationSeries{Year: q.Year, Months: months}
	if len(months) > 0 {
		series.Total = months[len(months)-1].Count
	}
	return series, nil
}

// OrganizationsCount is the single-date count. The current year counts
// still-registered organizations; a past year evaluates the predicate
// at Dec 31.
func (s *Service) OrganizationsCount(ctx context.Context, q Query) (int64, error) {
	if err := s.validate(q); err != nil {
		return 0, err
	}
	t, err := s.territory(q)
	if err != nil {
		return 0, err
	}

	var cutoff *time.Time
	if !s.currentYear(q) {
		d := time.Date(q.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		cutoff = &d
	}
	return s.repo.CountOrganizationsAt(ctx, cutoff, t)
}

// EsfTotals aggregates the four invoice source tables for one year,
// indexed by source tag.
func (s *Service) EsfTotals(ctx context.Context, q Query) (*EsfSummary, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	t, err := s.territory(q)
	if err != nil {
		return nil, err
	}

	started := s.now()
	rows, err := s.repo.EsfTotals(ctx, q.Year, t)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAnalyticsQuery(ctx, string(q.Region), "esf_totals", time.Since(started))

	summary := &EsfSummary{Year: q.Year, Sources: make(map[string]decimal.Decimal, len(rows))}
	for _, row := range rows {
		summary.Sources[row.Source] = row.Total
	}
	return summary, nil
}

// EsfMonthly builds the seller/buyer monthly invoice turnover series.
func (s *Service) EsfMonthly(ctx context.Context, q Query) (*EsfMonthlySeries, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	t, err := s.territory(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.EsfMonthly(ctx, q.Year, t)
	if err != nil {
		return nil, err
	}

	series := &EsfMonthlySeries{
		Year:   q.Year,
		Series: make(map[string][]persistence.MonthAmount, 2),
	}
	for _, row := range rows {
		series.Series[row.Source] = append(series.Series[row.Source], persistence.MonthAmount{
			Month:  row.Month,
			Amount: row.Turnover,
		})
	}
	return series, nil
}

// TaxRevenue sums republican-budget receipts over the office set the
// region resolves to: an oblast covers its direct offices plus their
// children, a raion only its direct offices.
func (s *Service) TaxRevenue(ctx context.Context, q Query, monthly bool) (*TaxRevenueSummary, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	if q.Region == persistence.RegionOblast && q.OblastID == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "oblast_id is required at oblast scope")
	}
	if q.Region == persistence.RegionRaion && q.RaionID == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "raion_id is required at raion scope")
	}

	total, err := s.repo.TaxRevenueTotal(ctx, q.Year, q.OblastID, q.RaionID)
	if err != nil {
		return nil, err
	}
	summary := &TaxRevenueSummary{Year: q.Year, Total: total}
	if monthly {
		months, err := s.repo.TaxRevenueMonthly(ctx, q.Year, q.OblastID, q.RaionID)
		if err != nil {
			return nil, err
		}
		summary.Months = months
	}
	return summary, nil
}

// ReceiptsMonthly rolls up daily receipt aggregates over all cash
// registers of one organization.
func (s *Service) ReceiptsMonthly(ctx context.Context, organizationID, year int) (*ReceiptsSeries, error) {
	if year <= 0 {
		return nil, shared.NewDomainError("INVALID_YEAR", "Year is required")
	}
	kkms, err := s.kkms.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if len(kkms) == 0 {
		return nil, shared.ErrNotFound
	}
	ids := make([]int, len(kkms))
	for i, k := range kkms {
		ids[i] = k.ID
	}

	months, err := s.repo.ReceiptsMonthlyByKkms(ctx, ids, year)
	if err != nil {
		return nil, err
	}
	return &ReceiptsSeries{OrganizationID: organizationID, Year: year, Months: months}, nil
}

// Population returns the demographic snapshot for a year, optionally
// with the monthly series. The current year anchors totals on the
// latest observed date and gender on the latest canonical quarter; past
// years anchor on Dec 1 and Oct 1.
func (s *Service) Population(ctx context.Context, q Query, monthly bool) (*PopulationSummary, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}

	var snapshot persistence.PopulationSnapshot
	var err error
	if s.currentYear(q) {
		snapshot, err = s.repo.PopulationCurrent(ctx, q.OblastID, q.RaionID, s.now())
	} else {
		snapshot, err = s.repo.PopulationPast(ctx, q.OblastID, q.RaionID, q.Year)
	}
	if err != nil {
		return nil, err
	}

	summary := &PopulationSummary{Year: q.Year, Totals: snapshot}
	if monthly {
		months, err := s.repo.PopulationMonthly(ctx, q.OblastID, q.RaionID, q.Year)
		if err != nil {
			return nil, err
		}
		summary.Months = months
	}
	return summary, nil
}

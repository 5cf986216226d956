package analytics

import (
	"github.com/shopspring/decimal"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
)

// Query is the common scope every analytical endpoint accepts. Region
// decides how the territory is interpreted; at national scope the
// territory is ignored entirely.
type Query struct {
	Region    persistence.Region
	Territory string // opaque WKT or hex-WKB, empty at national scope
	Year      int
	OblastID  *int
	RaionID   *int
}

// OrganizationSeries is a year of monthly organization counts. Total is
// the count at the end of the last observed month.
type OrganizationSeries struct {
	Year   int                      `json:"year"`
	Months []persistence.MonthCount `json:"months"`
	Total  int64                    `json:"total"`
}

// EsfSummary indexes the four-source invoice aggregation by source tag.
type EsfSummary struct {
	Year    int                        `json:"year"`
	Sources map[string]decimal.Decimal `json:"sources"`
}

// EsfMonthlySeries groups monthly invoice turnover by direction.
type EsfMonthlySeries struct {
	Year   int                                  `json:"year"`
	Series map[string][]persistence.MonthAmount `json:"series"`
}

// TaxRevenueSummary is the republican-budget revenue for an office set.
type TaxRevenueSummary struct {
	Year   int                       `json:"year"`
	Total  decimal.Decimal           `json:"total"`
	Months []persistence.MonthAmount `json:"months,omitempty"`
}

// ReceiptsSeries is a year of monthly receipt rollups for one
// organization's cash registers.
type ReceiptsSeries struct {
	OrganizationID int                         `json:"organization_id"`
	Year           int                         `json:"year"`
	Months         []persistence.MonthReceipts `json:"months"`
}

// PopulationSummary is the demographic snapshot plus optional series.
type PopulationSummary struct {
	Year   int                            `json:"year"`
	Totals persistence.PopulationSnapshot `json:"totals"`
	Months []persistence.MonthPopulation  `json:"months,omitempty"`
}

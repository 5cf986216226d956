// Package receipts serves the ClickHouse receipt read path and merges
// in the relational organization dimension where callers ask for it.
// The two stores never join directly: ClickHouse resolves the receipt
// side, Postgres resolves the organization side, and the service stitches
// the rows together by id.
package receipts

import (
	"context"

	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/clickhouse"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// DefaultLimit bounds receipt listings when the caller does not set one.
const DefaultLimit uint64 = 1000

// ReceiptSource is the ClickHouse read path the service depends on.
// Satisfied by clickhouse.ReceiptsRepository.
type ReceiptSource interface {
	KkmsByID(ctx context.Context, id int64) ([]clickhouse.KkmRow, error)
	KkmsByOrganization(ctx context.Context, organizationID int64) ([]clickhouse.KkmRow, error)
	KkmsByRegNumber(ctx context.Context, regNumber string) ([]clickhouse.KkmRow, error)
	KkmsBySerialNumber(ctx context.Context, serialNumber string) ([]clickhouse.KkmRow, error)
	ReceiptsByKkmID(ctx context.Context, kkmID int64, limit uint64) ([]clickhouse.ReceiptRow, error)
	ReceiptsByOrganizationID(ctx context.Context, organizationID int64, limit uint64) ([]clickhouse.ReceiptWithKkm, error)
	ReceiptsByFiscalAndKkmRegNumbers(ctx context.Context, fiskalSign string, regNumbers []string, limit uint64) ([]clickhouse.ReceiptWithKkm, error)
	ReceiptsByFiscalAndKkmSerialNumbers(ctx context.Context, fiskalSign string, serialNumbers []string, limit uint64) ([]clickhouse.ReceiptWithKkm, error)
	StatsByKkm(ctx context.Context, kkmID int64, year int) (*clickhouse.KkmStats, error)
}

// OrganizationDimension resolves organization rows by id batch.
// Satisfied by persistence.OrganizationRepository.
type OrganizationDimension interface {
	GetManyByIDs(ctx context.Context, ids []int) (map[int]models.Organization, error)
}

// KkmDimension lists the relational cash registers of an organization.
// Satisfied by persistence.KkmRepository.
type KkmDimension interface {
	GetByOrganization(ctx context.Context, organizationID int) ([]models.Kkm, error)
}

// Service coordinates ClickHouse receipt lookups with the relational
// organization dimension.
type Service struct {
	ch   ReceiptSource
	orgs OrganizationDimension
	kkms KkmDimension
	log  *zap.Logger
}

// NewService creates the receipts service
func NewService(ch ReceiptSource, orgs OrganizationDimension, kkms KkmDimension, log *zap.Logger) *Service {
	return &Service{ch: ch, orgs: orgs, kkms: kkms, log: log}
}

// KkmsByID looks one cash register up on the ClickHouse side
func (s *Service) KkmsByID(ctx context.Context, id int64) ([]clickhouse.KkmRow, error) {
	return s.ch.KkmsByID(ctx, id)
}

// KkmsByOrganization lists cash registers of one organization
func (s *Service) KkmsByOrganization(ctx context.Context, organizationID int64) ([]clickhouse.KkmRow, error) {
	return s.ch.KkmsByOrganization(ctx, organizationID)
}

// KkmsByRegNumber looks cash registers up by registration number
func (s *Service) KkmsByRegNumber(ctx context.Context, regNumber string) ([]clickhouse.KkmRow, error) {
	return s.ch.KkmsByRegNumber(ctx, regNumber)
}

// KkmsBySerialNumber looks cash registers up by serial number
func (s *Service) KkmsBySerialNumber(ctx context.Context, serialNumber string) ([]clickhouse.KkmRow, error) {
	return s.ch.KkmsBySerialNumber(ctx, serialNumber)
}

// ReceiptsByKkm lists recent receipt lines of one cash register
func (s *Service) ReceiptsByKkm(ctx context.Context, kkmID int64, limit uint64) ([]clickhouse.ReceiptRow, error) {
	return s.ch.ReceiptsByKkmID(ctx, kkmID, normalizeLimit(limit))
}

// ReceiptsByOrganization lists recent receipt lines across all cash
// registers of one organization. When details are requested the
// relational organization record is attached to every line.
func (s *Service) ReceiptsByOrganization(ctx context.Context, organizationID int64, limit uint64, details bool) ([]EnrichedReceipt, error) {
	rows, err := s.ch.ReceiptsByOrganizationID(ctx, organizationID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rows, details)
}

// ReceiptsByFiscalSign resolves a fiscal sign within one organization.
// The organization's registered cash registers are matched by
// registration number first; when that yields nothing the serial
// numbers serve as the fallback identity. An organization without cash
// registers cannot have receipts, and a fiscal sign neither lookup can
// resolve does not exist; both cases are a 404.
func (s *Service) ReceiptsByFiscalSign(ctx context.Context, organizationID int, fiskalSign string, limit uint64, details bool) ([]EnrichedReceipt, error) {
	if fiskalSign == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Fiscal sign is required")
	}
	kkms, err := s.kkms.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if len(kkms) == 0 {
		return nil, shared.ErrNotFound
	}

	lim := normalizeLimit(limit)
	rows, err := s.ch.ReceiptsByFiscalAndKkmRegNumbers(ctx, fiskalSign, persistence.RegNumbers(kkms), lim)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		rows, err = s.ch.ReceiptsByFiscalAndKkmSerialNumbers(ctx, fiskalSign, persistence.SerialNumbers(kkms), lim)
		if err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return s.enrich(ctx, rows, details)
}

// StatsByKkm returns the daily and yearly rollups of one cash register
func (s *Service) StatsByKkm(ctx context.Context, kkmID int64, year int) (*clickhouse.KkmStats, error) {
	return s.ch.StatsByKkm(ctx, kkmID, year)
}

// enrich attaches the relational organization rows to receipt lines.
// Organization ids come from the ClickHouse kkm dimension; one Postgres
// query resolves the whole batch.
func (s *Service) enrich(ctx context.Context, rows []clickhouse.ReceiptWithKkm, details bool) ([]EnrichedReceipt, error) {
	out := make([]EnrichedReceipt, len(rows))
	for i, row := range rows {
		out[i] = EnrichedReceipt{ReceiptWithKkm: row}
	}
	if !details || len(rows) == 0 {
		return out, nil
	}

	seen := make(map[int]struct{})
	var ids []int
	for _, row := range rows {
		id := int(row.Kkm.OrganizationID)
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	orgs, err := s.orgs.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if org, ok := orgs[int(out[i].Kkm.OrganizationID)]; ok {
			out[i].Organization = &OrganizationInfo{
				ID:     org.ID,
				IinBin: org.IinBin,
				NameRu: org.NameRu,
				NameKz: org.NameKz,
			}
		}
	}
	return out, nil
}

func normalizeLimit(limit uint64) uint64 {
	if limit == 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}

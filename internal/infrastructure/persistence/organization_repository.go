package persistence

import (
	"context"
	"errors"

	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrganizationRepository extends the generic kernel with the lookups the
// receipts surface and the analytics handlers need.
type OrganizationRepository struct {
	*Repository[models.Organization]
}

// NewOrganizationRepository creates an organization repository
func NewOrganizationRepository(db *gorm.DB, log *zap.Logger) *OrganizationRepository {
	return &OrganizationRepository{Repository: NewRepository[models.Organization](db, log)}
}

// GetByIinBin finds an organization by its business identifier
func (r *OrganizationRepository) GetByIinBin(ctx context.Context, iinBin string) (*models.Organization, error) {
	var row models.Organization
	if err := r.DB().WithContext(ctx).Where("iin_bin = ?", iinBin).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// GetManyByIDs loads the organization dimension rows for a set of ids.
// The receipts handlers use this to merge relational metadata into
// ClickHouse results.
func (r *OrganizationRepository) GetManyByIDs(ctx context.Context, ids []int) (map[int]models.Organization, error) {
	if len(ids) == 0 {
		return map[int]models.Organization{}, nil
	}
	var rows []models.Organization
	if err := r.DB().WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int]models.Organization, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// KkmRepository extends the kernel with organization-scoped lookups used
// by the fiscal-sign fallback path.
type KkmRepository struct {
	*Repository[models.Kkm]
}

// NewKkmRepository creates a KKM repository
func NewKkmRepository(db *gorm.DB, log *zap.Logger) *KkmRepository {
	return &KkmRepository{Repository: NewRepository[models.Kkm](db, log)}
}

// GetByOrganization lists the cash registers of an organization
func (r *KkmRepository) GetByOrganization(ctx context.Context, organizationID int) ([]models.Kkm, error) {
	var rows []models.Kkm
	if err := r.DB().WithContext(ctx).Where("organization_id = ?", organizationID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RegNumbers collects the non-empty registration numbers of a KKM set
func RegNumbers(kkms []models.Kkm) []string {
	var numbers []string
	for _, kkm := range kkms {
		if kkm.RegNumber != nil && *kkm.RegNumber != "" {
			numbers = append(numbers, *kkm.RegNumber)
		}
	}
	return numbers
}

// SerialNumbers collects the non-empty serial numbers of a KKM set
func SerialNumbers(kkms []models.Kkm) []string {
	var numbers []string
	for _, kkm := range kkms {
		if kkm.SerialNumber != nil && *kkm.SerialNumber != "" {
			numbers = append(numbers, *kkm.SerialNumber)
		}
	}
	return numbers
}

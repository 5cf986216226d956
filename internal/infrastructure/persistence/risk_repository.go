package persistence

import (
	"context"
	"fmt"

	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RiskRepository adds the bulk assignment operations of the risk
// workflow on top of the generic kernel.
type RiskRepository struct {
	*Repository[models.Risk]
}

// NewRiskRepository creates a risk repository
func NewRiskRepository(db *gorm.DB, log *zap.Logger) *RiskRepository {
	return &RiskRepository{Repository: NewRepository[models.Risk](db, log)}
}

// AssignToOrder sets (is_ordered, order_id) on the given risks in one
// statement; both fields always move together. An empty id set is
// rejected.
func (r *RiskRepository) AssignToOrder(ctx context.Context, riskIDs []int, orderID int) (int64, error) {
	if len(riskIDs) == 0 {
		return 0, shared.NewDomainError("EMPTY_FILTER", "bulk assignment requires at least one risk id")
	}
	result := r.DB().WithContext(ctx).Model(&models.Risk{}).
		Where("id IN ?", riskIDs).
		Updates(map[string]any{"is_ordered": true, "order_id": orderID})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: assign risks: %v", shared.ErrBackendFailure, result.Error)
	}
	return result.RowsAffected, nil
}

// UnassignFromOrder clears both assignment fields for the given risks
func (r *RiskRepository) UnassignFromOrder(ctx context.Context, riskIDs []int) (int64, error) {
	if len(riskIDs) == 0 {
		return 0, shared.NewDomainError("EMPTY_FILTER", "bulk unassignment requires at least one risk id")
	}
	result := r.DB().WithContext(ctx).Model(&models.Risk{}).
		Where("id IN ?", riskIDs).
		Updates(map[string]any{"is_ordered": false, "order_id": nil})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: unassign risks: %v", shared.ErrBackendFailure, result.Error)
	}
	return result.RowsAffected, nil
}

// UnassignByOrder clears the assignment of every risk attached to an
// order; used when an order is deleted.
func (r *RiskRepository) UnassignByOrder(ctx context.Context, orderID int) (int64, error) {
	result := r.DB().WithContext(ctx).Model(&models.Risk{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{"is_ordered": false, "order_id": nil})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: unassign risks by order: %v", shared.ErrBackendFailure, result.Error)
	}
	return result.RowsAffected, nil
}

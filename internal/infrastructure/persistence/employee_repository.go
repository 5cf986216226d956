package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EmployeeRepository backs the authentication flows
type EmployeeRepository struct {
	*Repository[models.Employee]
}

// NewEmployeeRepository creates an employee repository
func NewEmployeeRepository(db *gorm.DB, log *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{Repository: NewRepository[models.Employee](db, log)}
}

// GetByLogin finds an employee by login, case-insensitively
func (r *EmployeeRepository) GetByLogin(ctx context.Context, login string) (*models.Employee, error) {
	var row models.Employee
	if err := r.DB().WithContext(ctx).Where("lower(login) = ?", strings.ToLower(login)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
// The handlers anticipate login and IIN conflicts and answer 409.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		(err != nil && strings.Contains(err.Error(), "duplicate key value"))
}

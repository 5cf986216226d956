package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/taxgeo/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository is the generic data-access kernel over a single relational
// store. Derived repositories embed it and add entity-specific queries.
type Repository[T any] struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRepository creates a repository bound to a session
func NewRepository[T any](db *gorm.DB, log *zap.Logger) *Repository[T] {
	return &Repository[T]{db: db, log: log}
}

// WithTx returns a copy of the repository bound to a transaction
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx, log: r.log}
}

// DB exposes the underlying session to derived repositories
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

func (r *Repository[T]) model(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T))
}

func (r *Repository[T]) scoped(ctx context.Context, filter Filter) *gorm.DB {
	query := r.model(ctx)
	if filter != nil {
		query = filter.Apply(query)
	}
	return query
}

// GetByID returns the row with the given primary key, or ErrNotFound
func (r *Repository[T]) GetByID(ctx context.Context, id int) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, r.backendError("get by id", err)
	}
	return &row, nil
}

// GetOne returns the first row matching the filter, or ErrNotFound
func (r *Repository[T]) GetOne(ctx context.Context, filter Filter) (*T, error) {
	var row T
	if err := r.scoped(ctx, filter).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, r.backendError("get one", err)
	}
	return &row, nil
}

// GetMany returns the rows matching the filter plus the total count of
// matching rows regardless of pagination. The total is computed from the
// same predicate shape with a count projection. With both pageSize and
// page set the offset is (page-1)*pageSize; with only pageSize set rows
// are limited without an offset; with neither no pagination applies.
func (r *Repository[T]) GetMany(ctx context.Context, filter Filter, pageSize, page *int) ([]T, int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, r.backendError("count", err)
	}

	query := r.scoped(ctx, filter)
	if pageSize != nil {
		query = query.Limit(*pageSize)
		if page != nil {
			query = query.Offset((*page - 1) * *pageSize)
		}
	}

	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, r.backendError("get many", err)
	}
	return rows, total, nil
}

// Add inserts a single row
func (r *Repository[T]) Add(ctx context.Context, row *T) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return r.backendError("add", err)
	}
	return nil
}

// AddMany inserts a batch of rows
func (r *Repository[T]) AddMany(ctx context.Context, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.backendError("add many", err)
	}
	return nil
}

// Update sets values on every row matching the filter and returns the
// affected rowcount
func (r *Repository[T]) Update(ctx context.Context, filter Filter, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, shared.ErrInvalidInput
	}
	result := r.scoped(ctx, filter).Updates(values)
	if result.Error != nil {
		return 0, r.backendError("update", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes every row matching the filter. A nil filter is
// rejected: unconditional deletes are a programming error here.
func (r *Repository[T]) Delete(ctx context.Context, filter Filter) (int64, error) {
	if filter == nil {
		return 0, shared.ErrEmptyFilter
	}
	result := r.scoped(ctx, filter).Delete(new(T))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrMissingWhereClause) {
			return 0, shared.ErrEmptyFilter
		}
		return 0, r.backendError("delete", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByID removes the row with the given primary key
func (r *Repository[T]) DeleteByID(ctx context.Context, id int) (int64, error) {
	result := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if result.Error != nil {
		return 0, r.backendError("delete by id", result.Error)
	}
	return result.RowsAffected, nil
}

// Count returns the number of rows matching the filter
func (r *Repository[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return 0, r.backendError("count", err)
	}
	return total, nil
}

// BulkUpdate applies per-row updates. Every row must carry an "id" key;
// the accumulated rowcount is returned.
func (r *Repository[T]) BulkUpdate(ctx context.Context, rows []map[string]any) (int64, error) {
	if len(rows) == 0 {
		return 0, shared.ErrInvalidInput
	}
	var updated int64
	for _, row := range rows {
		id, ok := row["id"]
		if !ok {
			return updated, shared.NewDomainError("MISSING_ID", "bulk update row has no id")
		}
		values := make(map[string]any, len(row)-1)
		for key, value := range row {
			if key != "id" {
				values[key] = value
			}
		}
		if len(values) == 0 {
			continue
		}
		result := r.model(ctx).Where("id = ?", id).Updates(values)
		if result.Error != nil {
			return updated, r.backendError("bulk update", result.Error)
		}
		updated += result.RowsAffected
	}
	return updated, nil
}

func (r *Repository[T]) backendError(op string, err error) error {
	r.log.Error("database operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", shared.ErrBackendFailure, op, err)
}

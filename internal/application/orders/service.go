// Package orders implements the field-work order and risk assignment
// workflow: orders group risk findings, executions record the steps
// taken, and files attach evidence through object storage.
package orders

import (
	"context"
	"time"

	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"github.com/taxgeo/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// downloadURLExpiry bounds how long a presigned attachment link lives.
const downloadURLExpiry = 15 * time.Minute

// patchableOrderColumns is the field subset an order PATCH may touch.
var patchableOrderColumns = map[string]struct{}{
	"status_id":   {},
	"type_id":     {},
	"employee_id": {},
	"step_count":  {},
	"description": {},
}

// Service runs the order workflow. Writes that touch more than one
// table go through the committing transaction helper; repositories are
// rebuilt on the transaction handle inside.
type Service struct {
	db         *persistence.Database
	orders     *persistence.Repository[models.Order]
	executions *persistence.Repository[models.OrderExecution]
	files      *persistence.Repository[models.OrderFile]
	risks      *persistence.RiskRepository
	store      storage.ObjectStorage
	log        *zap.Logger
}

// NewService creates the order workflow service
func NewService(db *persistence.Database, store storage.ObjectStorage, log *zap.Logger) *Service {
	return &Service{
		db:         db,
		orders:     persistence.NewRepository[models.Order](db.DB, log),
		executions: persistence.NewRepository[models.OrderExecution](db.DB, log),
		files:      persistence.NewRepository[models.OrderFile](db.DB, log),
		risks:      persistence.NewRiskRepository(db.DB, log),
		store:      store,
		log:        log,
	}
}

// CreateOrderInput carries the writable order fields
type CreateOrderInput struct {
	StatusID    *int    `json:"status_id"`
	TypeID      *int    `json:"type_id"`
	EmployeeID  *int    `json:"employee_id"`
	StepCount   *int    `json:"step_count"`
	Description *string `json:"description"`
	RiskIDs     []int   `json:"risk_ids"`
}

// CreateOrder inserts an order and, when risk ids are supplied, assigns
// them in the same transaction.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	order := &models.Order{
		StatusID:    input.StatusID,
		TypeID:      input.TypeID,
		EmployeeID:  input.EmployeeID,
		StepCount:   input.StepCount,
		Description: input.Description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := persistence.NewRepository[models.Order](tx, s.log).Add(ctx, order); err != nil {
			return err
		}
		if len(input.RiskIDs) > 0 {
			if _, err := persistence.NewRiskRepository(tx, s.log).AssignToOrder(ctx, input.RiskIDs, order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created", zap.Int("order_id", order.ID), zap.Int("risks", len(input.RiskIDs)))
	return order, nil
}

// GetOrder loads one order with its executions
func (s *Service) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	executions, _, err := s.executions.GetMany(ctx, &persistence.OrderExecutionFilter{OrderID: &id}, nil, nil)
	if err != nil {
		return nil, err
	}
	order.Executions = executions
	return order, nil
}

// ListOrders pages through orders with an optional filter
func (s *Service) ListOrders(ctx context.Context, filter persistence.Filter, pageSize, page *int) ([]models.Order, int64, error) {
	return s.orders.GetMany(ctx, filter, pageSize, page)
}

// PatchOrder applies any subset of the writable order fields. An empty
// patch is a client error, not a no-op: silently accepting it would
// mask broken callers.
func (s *Service) PatchOrder(ctx context.Context, id int, values map[string]any) (*models.Order, error) {
	if len(values) == 0 {
		return nil, shared.NewDomainError("EMPTY_PATCH", "Update requires at least one field")
	}
	for column := range values {
		if _, ok := patchableOrderColumns[column]; !ok {
			return nil, shared.NewDomainError("UNKNOWN_FIELD", "Field cannot be updated: "+column)
		}
	}

	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.orders.Update(ctx, &persistence.OrderFilter{ID: &id}, values); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

// DeleteOrder removes an order and releases its risks in one
// transaction. Executions and file rows cascade; stored objects are
// kept (audit retention).
func (s *Service) DeleteOrder(ctx context.Context, id int) error {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := persistence.NewRiskRepository(tx, s.log).UnassignByOrder(ctx, id); err != nil {
			return err
		}
		_, err := persistence.NewRepository[models.Order](tx, s.log).DeleteByID(ctx, id)
		return err
	})
}

// AssignRisks atomically marks a risk set as ordered. An empty set is
// rejected at the repository.
func (s *Service) AssignRisks(ctx context.Context, orderID int, riskIDs []int) (int64, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return 0, err
	}
	return s.risks.AssignToOrder(ctx, riskIDs, orderID)
}

// UnassignRisks clears the order linkage of a risk set
func (s *Service) UnassignRisks(ctx context.Context, riskIDs []int) (int64, error) {
	return s.risks.UnassignFromOrder(ctx, riskIDs)
}

// CreateExecutionInput carries the writable execution fields
type CreateExecutionInput struct {
	EmployeeID *int       `json:"employee_id"`
	Comment    *string    `json:"comment"`
	ExecutedAt *time.Time `json:"executed_at"`
}

// CreateExecution records one field-work step under an order
func (s *Service) CreateExecution(ctx context.Context, orderID int, input CreateExecutionInput) (*models.OrderExecution, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	execution := &models.OrderExecution{
		OrderID:    orderID,
		EmployeeID: input.EmployeeID,
		Comment:    input.Comment,
		ExecutedAt: input.ExecutedAt,
	}
	if err := s.executions.Add(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

// AttachFile uploads evidence to object storage and records the file
// row. The object is removed again if the row cannot be written.
func (s *Service) AttachFile(ctx context.Context, orderID, executionID int, fileName, contentType string, data []byte) (*models.OrderFile, error) {
	if fileName == "" || len(data) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "File name and content are required")
	}
	execution, err := s.executions.GetByID(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if execution.OrderID != orderID {
		return nil, shared.ErrNotFound
	}

	key := storage.OrderFileKey(orderID, executionID, fileName)
	if err := s.store.Upload(ctx, key, data, contentType); err != nil {
		return nil, err
	}

	file := &models.OrderFile{
		ExecutionID: executionID,
		FileName:    fileName,
		StorageKey:  key,
		Size:        int64(len(data)),
	}
	if contentType != "" {
		file.ContentType = &contentType
	}
	if err := s.files.Add(ctx, file); err != nil {
		if delErr := s.store.DeleteObject(ctx, key); delErr != nil {
			s.log.Warn("orphaned storage object after failed file insert",
				zap.String("storage_key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return file, nil
}

// FileDownloadURL returns a presigned link for one attachment
func (s *Service) FileDownloadURL(ctx context.Context, fileID int) (string, time.Time, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.store.GenerateDownloadURL(ctx, file.StorageKey, downloadURLExpiry)
}

// DeleteFile removes the row and the stored object
func (s *Service) DeleteFile(ctx context.Context, fileID int) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if _, err := s.files.DeleteByID(ctx, fileID); err != nil {
		return err
	}
	if err := s.store.DeleteObject(ctx, file.StorageKey); err != nil {
		s.log.Warn("failed to delete storage object",
			zap.String("storage_key", file.StorageKey), zap.Error(err))
	}
	return nil
}

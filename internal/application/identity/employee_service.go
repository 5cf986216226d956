package identity

import (
	"context"
	"strings"

	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/crypto"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// EmployeeService manages employee accounts
type EmployeeService struct {
	repo *persistence.EmployeeRepository
	log  *zap.Logger
}

// NewEmployeeService creates the employee service
func NewEmployeeService(repo *persistence.EmployeeRepository, log *zap.Logger) *EmployeeService {
	return &EmployeeService{repo: repo, log: log}
}

// Create registers an employee. Login and IIN are unique; a violation
// surfaces as ALREADY_EXISTS so the handler can answer 409.
func (s *EmployeeService) Create(ctx context.Context, input CreateEmployeeInput) (*EmployeeInfo, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	employee := &models.Employee{
		Login:        strings.TrimSpace(strings.ToLower(input.Login)),
		PasswordHash: hash,
		Iin:          crypto.EncryptedIIN(input.Iin),
		LastName:     crypto.EncryptedName(input.LastName),
		FirstName:    crypto.EncryptedName(input.FirstName),
		RoleID:       input.RoleID,
		UgdID:        input.UgdID,
	}
	if err := s.repo.Add(ctx, employee); err != nil {
		if persistence.IsDuplicateKey(err) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, err
	}

	s.log.Info("employee created", zap.Int("employee_id", employee.ID), zap.Int("role_id", employee.RoleID))
	info := employeeInfo(employee)
	return &info, nil
}

// List pages through employees
func (s *EmployeeService) List(ctx context.Context, filter persistence.Filter, pageSize, page *int) ([]EmployeeInfo, int64, error) {
	rows, total, err := s.repo.GetMany(ctx, filter, pageSize, page)
	if err != nil {
		return nil, 0, err
	}
	infos := make([]EmployeeInfo, len(rows))
	for i := range rows {
		infos[i] = employeeInfo(&rows[i])
	}
	return infos, total, nil
}

// SetBlocked flips the blocked flag of an account
func (s *EmployeeService) SetBlocked(ctx context.Context, id int, blocked bool) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := s.repo.Update(ctx, &persistence.EmployeeFilter{ID: &id}, map[string]any{"is_blocked": blocked})
	return err
}

// Delete soft-deletes an account; the login stays reserved
func (s *EmployeeService) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := s.repo.Update(ctx, &persistence.EmployeeFilter{ID: &id}, map[string]any{"is_deleted": true})
	return err
}

package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/db"
	e "github.com/okhalil/evalboard/internal/evaluation/errors"
	"github.com/okhalil/evalboard/internal/evaluation/events"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"go.uber.org/zap"
)

// EmployeeService manages the employee directory.
type EmployeeService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

func NewEmployeeService(repo Repository, producer EventProducer, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("employee_service"),
	}
}

// CreateEmployee registers a new hire. The employee number must be
// unique and the department must exist.
func (s *EmployeeService) CreateEmployee(ctx context.Context, number, fullName, jobTitle string, departmentID uuid.UUID) (*models.Employee, error) {
	if strings.TrimSpace(number) == "" {
		return nil, fmt.Errorf("%w: employee_number is required", e.ErrInvalidInput)
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, fmt.Errorf("%w: full_name is required", e.ErrInvalidInput)
	}
	if strings.TrimSpace(jobTitle) == "" {
		return nil, fmt.Errorf("%w: job_title is required", e.ErrInvalidInput)
	}

	taken, err := s.repo.EmployeeExistsByNumber(ctx, number, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check employee number: %w", err)
	}
	if taken {
		return nil, e.ErrDuplicateEmployeeNumber
	}

	dept, err := s.repo.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		ID:             uuid.New(),
		EmployeeNumber: number,
		FullName:       fullName,
		JobTitle:       jobTitle,
		DepartmentID:   departmentID,
	}
	if err := s.repo.CreateEmployee(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	employee.Department = dept

	mirror(s.producer, events.EmployeeCreated, employee.ID.String(), models.NewEmployeeView(employee))
	return employee, nil
}

// UpdateEmployee applies a partial update. Each field is independently
// optional; the employee number is re-checked excluding the employee
// itself and a new department is validated before assignment.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, patch *models.EmployeePatch) (*models.Employee, error) {
	if patch.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid employee ID", e.ErrInvalidInput)
	}
	if _, err := s.repo.GetEmployee(ctx, patch.ID); err != nil {
		return nil, err
	}

	if patch.EmployeeNumber != nil {
		if strings.TrimSpace(*patch.EmployeeNumber) == "" {
			return nil, fmt.Errorf("%w: employee_number cannot be empty", e.ErrInvalidInput)
		}
		taken, err := s.repo.EmployeeExistsByNumber(ctx, *patch.EmployeeNumber, patch.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check employee number: %w", err)
		}
		if taken {
			return nil, e.ErrDuplicateEmployeeNumber
		}
	}
	if patch.DepartmentID != nil {
		if _, err := s.repo.GetDepartment(ctx, *patch.DepartmentID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateEmployee(ctx, patch); err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	updated, err := s.repo.GetEmployee(ctx, patch.ID)
	if err != nil {
		s.logger.Error("failed to reload employee after update",
			zap.Error(err),
			zap.String("employee_id", patch.ID.String()),
		)
		return nil, err
	}

	mirror(s.producer, events.EmployeeUpdated, updated.ID.String(), models.NewEmployeeView(updated))
	return updated, nil
}

// DeleteEmployee removes an employee together with all owned
// evaluations and their scores, as one atomic unit.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	employee, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.DeleteScoresForEmployee(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteEvaluationsForEmployee(ctx, id); err != nil {
			return err
		}
		return tx.DeleteEmployee(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	mirror(s.producer, events.EmployeeDeleted, employee.ID.String(), models.NewEmployeeView(employee))
	return nil
}

// GetEmployee retrieves one employee with the department preloaded.
func (s *EmployeeService) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// ListEmployees returns all employees with department names resolved.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

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

// defaultMaxScore is the score ceiling applied when a criterion does
// not specify one.
const defaultMaxScore = 5

// DepartmentService manages departments and their criteria sets.
type DepartmentService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

// NewDepartmentService constructs a DepartmentService with a
// repository, an optional event producer, and a logger.
func NewDepartmentService(repo Repository, producer EventProducer, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("department_service"),
	}
}

// usableCriteria filters out entries with blank names and applies the
// default max score.
func usableCriteria(criteria []models.CriterionInput) []models.CriterionInput {
	kept := make([]models.CriterionInput, 0, len(criteria))
	for _, c := range criteria {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if c.MaxScore <= 0 {
			c.MaxScore = defaultMaxScore
		}
		kept = append(kept, c)
	}
	return kept
}

func criteriaRows(departmentID uuid.UUID, inputs []models.CriterionInput) []models.EvaluationCriteria {
	rows := make([]models.EvaluationCriteria, 0, len(inputs))
	for i, c := range inputs {
		rows = append(rows, models.EvaluationCriteria{
			ID:           uuid.New(),
			DepartmentID: departmentID,
			CriteriaName: c.Name,
			MaxScore:     c.MaxScore,
			Position:     i,
		})
	}
	return rows
}

// CreateDepartment registers a new department with its criteria set.
// The criteria count is derived from the filtered set, never from the
// caller-supplied length.
func (s *DepartmentService) CreateDepartment(ctx context.Context, name string, criteria []models.CriterionInput) (*models.Department, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: department name is required", e.ErrInvalidInput)
	}
	kept := usableCriteria(criteria)
	if len(kept) == 0 {
		return nil, e.ErrEmptyCriteria
	}

	exists, err := s.repo.DepartmentExistsByName(ctx, name, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check name existence: %w", err)
	}
	if exists {
		return nil, e.ErrDuplicateName
	}

	dept := &models.Department{
		ID:            uuid.New(),
		Name:          name,
		CriteriaCount: len(kept),
	}
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.CreateDepartment(ctx, dept); err != nil {
			return err
		}
		return tx.CreateCriteria(ctx, criteriaRows(dept.ID, kept))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	mirror(s.producer, events.DepartmentCreated, dept.ID.String(), models.NewDepartmentView(dept))
	return dept, nil
}

// UpdateDepartment renames a department and replaces its entire
// criteria set. Replacement is wholesale, not a diff.
func (s *DepartmentService) UpdateDepartment(ctx context.Context, id uuid.UUID, name string, criteria []models.CriterionInput) (*models.Department, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: department name is required", e.ErrInvalidInput)
	}
	kept := usableCriteria(criteria)
	if len(kept) == 0 {
		return nil, e.ErrEmptyCriteria
	}

	dept, err := s.repo.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.DepartmentExistsByName(ctx, name, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check name existence: %w", err)
	}
	if exists {
		return nil, e.ErrDuplicateName
	}

	dept.Name = name
	dept.CriteriaCount = len(kept)
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.SaveDepartment(ctx, dept); err != nil {
			return err
		}
		if err := tx.DeleteCriteriaForDepartment(ctx, id); err != nil {
			return err
		}
		return tx.CreateCriteria(ctx, criteriaRows(id, kept))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}

	mirror(s.producer, events.DepartmentUpdated, dept.ID.String(), models.NewDepartmentView(dept))
	return dept, nil
}

// DeleteDepartment removes a department and its criteria. Deletion is
// refused while any employee still references the department.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	dept, err := s.repo.GetDepartment(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountEmployeesByDepartment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count employees: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d employee(s) assigned", e.ErrDepartmentHasEmployees, count)
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.DeleteCriteriaForDepartment(ctx, id); err != nil {
			return err
		}
		return tx.DeleteDepartment(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	mirror(s.producer, events.DepartmentDeleted, dept.ID.String(), models.NewDepartmentView(dept))
	return nil
}

// GetDepartment returns one department together with its criteria in
// registry order.
func (s *DepartmentService) GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, []models.EvaluationCriteria, error) {
	dept, err := s.repo.GetDepartment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	criteria, err := s.repo.ListCriteria(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	return dept, criteria, nil
}

// ListDepartments returns all departments.
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.repo.ListDepartments(ctx)
}

// ListCriteria returns the criteria set of one department.
func (s *DepartmentService) ListCriteria(ctx context.Context, departmentID uuid.UUID) ([]models.EvaluationCriteria, error) {
	if _, err := s.repo.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	return s.repo.ListCriteria(ctx, departmentID)
}

// defaultDepartments is the fixture installed by SeedDefaults.
var defaultDepartments = []struct {
	name     string
	criteria []string
}{
	{"Human Resources", []string{
		"Attendance & Discipline",
		"Work Quality",
		"Team Collaboration",
		"Initiative & Creativity",
		"Punctuality",
	}},
	{"Sales", []string{
		"Sales Target Achievement",
		"Customer Service",
		"Attendance & Discipline",
		"Team Collaboration",
		"Initiative & Creativity",
		"Communication Skills",
		"Time Management",
		"Professional Development",
	}},
	{"Technology", []string{
		"Technical Proficiency",
		"Problem Solving",
		"Code Quality",
		"Attendance & Discipline",
		"Team Collaboration",
		"Continuous Learning",
		"Innovation",
		"Project Management",
	}},
	{"Finance", []string{
		"Financial Data Accuracy",
		"Punctuality",
		"Attendance & Discipline",
		"Team Collaboration",
		"Financial Analysis",
	}},
}

// SeedDefaults installs the default departments and criteria sets. It
// is idempotent: a store that already has any department is left
// untouched.
func (s *DepartmentService) SeedDefaults(ctx context.Context) (bool, error) {
	any, err := s.repo.AnyDepartments(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing departments: %w", err)
	}
	if any {
		return false, nil
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		for _, d := range defaultDepartments {
			dept := &models.Department{
				ID:            uuid.New(),
				Name:          d.name,
				CriteriaCount: len(d.criteria),
			}
			if err := tx.CreateDepartment(ctx, dept); err != nil {
				return err
			}
			inputs := make([]models.CriterionInput, 0, len(d.criteria))
			for _, name := range d.criteria {
				inputs = append(inputs, models.CriterionInput{Name: name, MaxScore: defaultMaxScore})
			}
			if err := tx.CreateCriteria(ctx, criteriaRows(dept.ID, inputs)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed departments: %w", err)
	}

	s.logger.Info("seeded default departments", zap.Int("count", len(defaultDepartments)))
	return true, nil
}

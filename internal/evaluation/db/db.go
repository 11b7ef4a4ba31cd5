// Package db implements the GORM-backed repository for the evaluation
// domain. All multi-row mutations are expected to run inside
// WithTransaction so a failure mid-sequence leaves the store unchanged.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	e "github.com/okhalil/evalboard/internal/evaluation/errors"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewRepositoryFromGorm wraps an existing gorm connection. Tests use
// it to run the repository against in-memory sqlite.
func NewRepositoryFromGorm(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// Migrate creates or updates the schema for all domain entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Department{},
		&models.EvaluationCriteria{},
		&models.Employee{},
		&models.MonthlyEvaluation{},
		&models.EvaluationScore{},
	)
}

// WithTransaction runs fn against a repository bound to one
// transaction; any error rolls the whole unit back.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// Departments

func (r *Repository) CreateDepartment(ctx context.Context, dept *models.Department) error {
	result := r.db.WithContext(ctx).Create(dept)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var dept models.Department
	result := r.db.WithContext(ctx).First(&dept, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrDepartmentNotFound
		}
		return nil, result.Error
	}
	return &dept, nil
}

func (r *Repository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	result := r.db.WithContext(ctx).Order("name").Find(&depts)
	return depts, result.Error
}

// SaveDepartment persists name and criteria count changes.
func (r *Repository) SaveDepartment(ctx context.Context, dept *models.Department) error {
	result := r.db.WithContext(ctx).Model(&models.Department{}).
		Where("id = ?", dept.ID).
		Updates(map[string]interface{}{
			"name":           dept.Name,
			"criteria_count": dept.CriteriaCount,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrDepartmentNotFound
	}
	return nil
}

func (r *Repository) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Department{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrDepartmentNotFound
	}
	return nil
}

// DepartmentExistsByName reports whether another department already
// uses the name. exclude is ignored when uuid.Nil.
func (r *Repository) DepartmentExistsByName(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Department{}).Where("name = ?", name)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

func (r *Repository) AnyDepartments(ctx context.Context) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Department{}).Limit(1).Count(&count)
	return count > 0, result.Error
}

// Criteria

func (r *Repository) CreateCriteria(ctx context.Context, criteria []models.EvaluationCriteria) error {
	if len(criteria) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&criteria).Error
}

func (r *Repository) GetCriteria(ctx context.Context, id uuid.UUID) (*models.EvaluationCriteria, error) {
	var criterion models.EvaluationCriteria
	result := r.db.WithContext(ctx).First(&criterion, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrCriteriaNotFound
		}
		return nil, result.Error
	}
	return &criterion, nil
}

// ListCriteria returns a department's criteria in registry order.
func (r *Repository) ListCriteria(ctx context.Context, departmentID uuid.UUID) ([]models.EvaluationCriteria, error) {
	var criteria []models.EvaluationCriteria
	result := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("position").
		Find(&criteria)
	return criteria, result.Error
}

func (r *Repository) DeleteCriteriaForDepartment(ctx context.Context, departmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.EvaluationCriteria{}, "department_id = ?", departmentID).Error
}

// Employees

func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	result := r.db.WithContext(ctx).Omit("Department").Create(employee)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateEmployeeNumber
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).Preload("Department").First(&employee, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrEmployeeNotFound
		}
		return nil, result.Error
	}
	return &employee, nil
}

func (r *Repository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	result := r.db.WithContext(ctx).Preload("Department").Order("employee_number").Find(&employees)
	return employees, result.Error
}

func (r *Repository) ListEmployeesByDepartment(ctx context.Context, departmentID uuid.UUID) ([]models.Employee, error) {
	var employees []models.Employee
	result := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("employee_number").
		Find(&employees)
	return employees, result.Error
}

func (r *Repository) UpdateEmployee(ctx context.Context, patch *models.EmployeePatch) error {
	updates := map[string]interface{}{}
	if patch.EmployeeNumber != nil {
		updates["employee_number"] = *patch.EmployeeNumber
	}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.JobTitle != nil {
		updates["job_title"] = *patch.JobTitle
	}
	if patch.DepartmentID != nil {
		updates["department_id"] = *patch.DepartmentID
	}
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", patch.ID).
		Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateEmployeeNumber
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrEmployeeNotFound
	}
	return nil
}

func (r *Repository) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Employee{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrEmployeeNotFound
	}
	return nil
}

func (r *Repository) EmployeeExistsByNumber(ctx context.Context, number string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Employee{}).Where("employee_number = ?", number)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

func (r *Repository) CountEmployeesByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("department_id = ?", departmentID).
		Count(&count)
	return count, result.Error
}

// Evaluations

func (r *Repository) CreateEvaluation(ctx context.Context, evaluation *models.MonthlyEvaluation) error {
	result := r.db.WithContext(ctx).Omit("Scores").Create(evaluation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateEvaluation
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetEvaluation(ctx context.Context, id uuid.UUID) (*models.MonthlyEvaluation, error) {
	var evaluation models.MonthlyEvaluation
	result := r.db.WithContext(ctx).
		Preload("Scores.Criteria").
		First(&evaluation, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrEvaluationNotFound
		}
		return nil, result.Error
	}
	return &evaluation, nil
}

func (r *Repository) DeleteEvaluation(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MonthlyEvaluation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrEvaluationNotFound
	}
	return nil
}

func (r *Repository) EvaluationExists(ctx context.Context, employeeID uuid.UUID, month, year int) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.MonthlyEvaluation{}).
		Where("employee_id = ? AND evaluation_month = ? AND evaluation_year = ?", employeeID, month, year).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

// ListEvaluationsForEmployee returns the evaluation history newest
// first, scores and their criteria preloaded.
func (r *Repository) ListEvaluationsForEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.MonthlyEvaluation, error) {
	var evaluations []models.MonthlyEvaluation
	result := r.db.WithContext(ctx).
		Preload("Scores.Criteria").
		Where("employee_id = ?", employeeID).
		Order("evaluation_year DESC, evaluation_month DESC").
		Find(&evaluations)
	return evaluations, result.Error
}

// ListEvaluationsForYear returns one employee's evaluations within a
// year, months ascending.
func (r *Repository) ListEvaluationsForYear(ctx context.Context, employeeID uuid.UUID, year int) ([]models.MonthlyEvaluation, error) {
	var evaluations []models.MonthlyEvaluation
	result := r.db.WithContext(ctx).
		Preload("Scores.Criteria").
		Where("employee_id = ? AND evaluation_year = ?", employeeID, year).
		Order("evaluation_month").
		Find(&evaluations)
	return evaluations, result.Error
}

// EvaluatedEmployeeIDs returns the ids of a department's employees
// that already have an evaluation for the period.
func (r *Repository) EvaluatedEmployeeIDs(ctx context.Context, departmentID uuid.UUID, month, year int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.db.WithContext(ctx).Model(&models.MonthlyEvaluation{}).
		Joins("JOIN employees ON employees.id = monthly_evaluations.employee_id").
		Where("employees.department_id = ? AND monthly_evaluations.evaluation_month = ? AND monthly_evaluations.evaluation_year = ?",
			departmentID, month, year).
		Pluck("monthly_evaluations.employee_id", &ids)
	return ids, result.Error
}

// Scores

func (r *Repository) CreateScores(ctx context.Context, scores []models.EvaluationScore) error {
	if len(scores) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Criteria").Create(&scores).Error
}

func (r *Repository) DeleteScoresForEvaluation(ctx context.Context, evaluationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.EvaluationScore{}, "evaluation_id = ?", evaluationID).Error
}

func (r *Repository) DeleteScoresForEmployee(ctx context.Context, employeeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("evaluation_id IN (?)",
			r.db.Model(&models.MonthlyEvaluation{}).Select("id").Where("employee_id = ?", employeeID)).
		Delete(&models.EvaluationScore{}).Error
}

func (r *Repository) DeleteEvaluationsForEmployee(ctx context.Context, employeeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.MonthlyEvaluation{}, "employee_id = ?", employeeID).Error
}

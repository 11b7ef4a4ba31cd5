// Package controller implements the core business logic (service
// layer) of the evaluation system: the department registry, the
// employee directory and the evaluation ledger. Services orchestrate
// repository operations, enforce the cross-entity invariants and send
// mirror events for the external sheet-sync collaborator.
package controller

import (
	"context"

	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/db"
	"github.com/okhalil/evalboard/internal/evaluation/events"
	"github.com/okhalil/evalboard/internal/evaluation/models"
)

// EventProducer mirrors entity representations to the sync topic.
// Implementations must never block the caller.
type EventProducer interface {
	Produce(eventType events.EventType, key string, entity interface{})
}

// Repository defines the storage interface shared by the services.
type Repository interface {
	CreateDepartment(ctx context.Context, dept *models.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	SaveDepartment(ctx context.Context, dept *models.Department) error
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
	DepartmentExistsByName(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	AnyDepartments(ctx context.Context) (bool, error)

	CreateCriteria(ctx context.Context, criteria []models.EvaluationCriteria) error
	GetCriteria(ctx context.Context, id uuid.UUID) (*models.EvaluationCriteria, error)
	ListCriteria(ctx context.Context, departmentID uuid.UUID) ([]models.EvaluationCriteria, error)
	DeleteCriteriaForDepartment(ctx context.Context, departmentID uuid.UUID) error

	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	ListEmployeesByDepartment(ctx context.Context, departmentID uuid.UUID) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, patch *models.EmployeePatch) error
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
	EmployeeExistsByNumber(ctx context.Context, number string, exclude uuid.UUID) (bool, error)
	CountEmployeesByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)

	CreateEvaluation(ctx context.Context, evaluation *models.MonthlyEvaluation) error
	GetEvaluation(ctx context.Context, id uuid.UUID) (*models.MonthlyEvaluation, error)
	DeleteEvaluation(ctx context.Context, id uuid.UUID) error
	EvaluationExists(ctx context.Context, employeeID uuid.UUID, month, year int) (bool, error)
	ListEvaluationsForEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.MonthlyEvaluation, error)
	ListEvaluationsForYear(ctx context.Context, employeeID uuid.UUID, year int) ([]models.MonthlyEvaluation, error)
	EvaluatedEmployeeIDs(ctx context.Context, departmentID uuid.UUID, month, year int) ([]uuid.UUID, error)

	CreateScores(ctx context.Context, scores []models.EvaluationScore) error
	DeleteScoresForEvaluation(ctx context.Context, evaluationID uuid.UUID) error
	DeleteScoresForEmployee(ctx context.Context, employeeID uuid.UUID) error
	DeleteEvaluationsForEmployee(ctx context.Context, employeeID uuid.UUID) error

	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// mirror sends an event when a producer is configured. Produce never
// blocks, so events reach the producer in mutation order.
func mirror(producer EventProducer, eventType events.EventType, key string, entity interface{}) {
	if producer == nil {
		return
	}
	producer.Produce(eventType, key, entity)
}

package controller

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/aggregate"
	"github.com/okhalil/evalboard/internal/evaluation/db"
	e "github.com/okhalil/evalboard/internal/evaluation/errors"
	"github.com/okhalil/evalboard/internal/evaluation/events"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"go.uber.org/zap"
)

// EvaluationService is the evaluation ledger. An (employee, month,
// year) key moves from non-existent to recorded exactly once; the only
// later transitions are wholesale score replacement and deletion.
type EvaluationService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

func NewEvaluationService(repo Repository, producer EventProducer, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("evaluation_service"),
	}
}

// validateScores checks every entry before any write: the entry must
// be complete, its criterion must exist, and the criterion must belong
// to the employee's department. Returns the rows to insert.
func (s *EvaluationService) validateScores(ctx context.Context, evaluationID, departmentID uuid.UUID, scores []models.ScoreInput) ([]models.EvaluationScore, error) {
	rows := make([]models.EvaluationScore, 0, len(scores))
	for _, entry := range scores {
		if entry.CriteriaID == nil || entry.Score == nil {
			return nil, e.ErrIncompleteScore
		}
		criterion, err := s.repo.GetCriteria(ctx, *entry.CriteriaID)
		if err != nil {
			if e.Classify(err) == e.KindNotFound {
				return nil, fmt.Errorf("%w: %s", e.ErrCriteriaNotFound, entry.CriteriaID)
			}
			return nil, fmt.Errorf("failed to load criteria: %w", err)
		}
		if criterion.DepartmentID != departmentID {
			return nil, fmt.Errorf("%w: %s", e.ErrCriteriaDepartmentMismatch, criterion.CriteriaName)
		}
		rows = append(rows, models.EvaluationScore{
			ID:           uuid.New(),
			EvaluationID: evaluationID,
			CriteriaID:   *entry.CriteriaID,
			Score:        *entry.Score,
		})
	}
	return rows, nil
}

// CreateEvaluation records one employee's evaluation for a period.
// All preconditions are checked before any write; the evaluation row
// and its scores are inserted in one transaction.
func (s *EvaluationService) CreateEvaluation(ctx context.Context, employeeID uuid.UUID, month, year int, scores []models.ScoreInput) (*models.MonthlyEvaluation, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: evaluation_month must be 1-12", e.ErrInvalidInput)
	}

	employee, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.EvaluationExists(ctx, employeeID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing evaluation: %w", err)
	}
	if exists {
		return nil, e.ErrDuplicateEvaluation
	}

	evaluation := &models.MonthlyEvaluation{
		ID:              uuid.New(),
		EmployeeID:      employeeID,
		EvaluationMonth: month,
		EvaluationYear:  year,
	}
	rows, err := s.validateScores(ctx, evaluation.ID, employee.DepartmentID, scores)
	if err != nil {
		return nil, err
	}

	// The unique index on (employee, month, year) backs up the
	// pre-check: a concurrent creator loses here and the whole unit
	// rolls back.
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.CreateEvaluation(ctx, evaluation); err != nil {
			return err
		}
		return tx.CreateScores(ctx, rows)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.GetEvaluation(ctx, evaluation.ID)
	if err != nil {
		s.logger.Error("failed to reload evaluation after create",
			zap.Error(err),
			zap.String("evaluation_id", evaluation.ID.String()),
		)
		return nil, err
	}

	mirror(s.producer, events.EvaluationCreated, created.ID.String(), models.NewEvaluationView(created))
	return created, nil
}

// UpdateEvaluation replaces an evaluation's score set wholesale. A nil
// scores slice leaves the evaluation untouched. Replacement entries go
// through the same validation as creation.
func (s *EvaluationService) UpdateEvaluation(ctx context.Context, evaluationID uuid.UUID, scores []models.ScoreInput) (*models.MonthlyEvaluation, error) {
	evaluation, err := s.repo.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	if scores != nil {
		employee, err := s.repo.GetEmployee(ctx, evaluation.EmployeeID)
		if err != nil {
			return nil, err
		}
		rows, err := s.validateScores(ctx, evaluationID, employee.DepartmentID, scores)
		if err != nil {
			return nil, err
		}
		err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
			if err := tx.DeleteScoresForEvaluation(ctx, evaluationID); err != nil {
				return err
			}
			return tx.CreateScores(ctx, rows)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to replace scores: %w", err)
		}
	}

	updated, err := s.repo.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	mirror(s.producer, events.EvaluationUpdated, updated.ID.String(), models.NewEvaluationView(updated))
	return updated, nil
}

// DeleteEvaluation removes an evaluation and all of its scores.
func (s *EvaluationService) DeleteEvaluation(ctx context.Context, evaluationID uuid.UUID) error {
	evaluation, err := s.repo.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.DeleteScoresForEvaluation(ctx, evaluationID); err != nil {
			return err
		}
		return tx.DeleteEvaluation(ctx, evaluationID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete evaluation: %w", err)
	}

	mirror(s.producer, events.EvaluationDeleted, evaluation.ID.String(), models.NewEvaluationView(evaluation))
	return nil
}

// ListForEmployee returns the employee's evaluation history, newest
// period first.
func (s *EvaluationService) ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.MonthlyEvaluation, error) {
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.repo.ListEvaluationsForEmployee(ctx, employeeID)
}

// ChartSeries assembles the per-year chart data for one employee.
func (s *EvaluationService) ChartSeries(ctx context.Context, employeeID uuid.UUID, year int) (*models.Employee, aggregate.ChartSeries, error) {
	employee, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, aggregate.ChartSeries{}, err
	}
	evaluations, err := s.repo.ListEvaluationsForYear(ctx, employeeID, year)
	if err != nil {
		return nil, aggregate.ChartSeries{}, fmt.Errorf("failed to list evaluations: %w", err)
	}
	criteria, err := s.repo.ListCriteria(ctx, employee.DepartmentID)
	if err != nil {
		return nil, aggregate.ChartSeries{}, fmt.Errorf("failed to list criteria: %w", err)
	}
	return employee, aggregate.BuildChartSeries(year, evaluations, criteria), nil
}

// CompletionStats reports how many of a department's employees do and
// do not have an evaluation recorded for the period.
func (s *EvaluationService) CompletionStats(ctx context.Context, departmentID uuid.UUID, month, year int) (aggregate.CompletionStats, error) {
	if month < 1 || month > 12 {
		return aggregate.CompletionStats{}, fmt.Errorf("%w: month must be 1-12", e.ErrInvalidInput)
	}
	if _, err := s.repo.GetDepartment(ctx, departmentID); err != nil {
		return aggregate.CompletionStats{}, err
	}
	employees, err := s.repo.ListEmployeesByDepartment(ctx, departmentID)
	if err != nil {
		return aggregate.CompletionStats{}, fmt.Errorf("failed to list employees: %w", err)
	}
	evaluated, err := s.repo.EvaluatedEmployeeIDs(ctx, departmentID, month, year)
	if err != nil {
		return aggregate.CompletionStats{}, fmt.Errorf("failed to list evaluated employees: %w", err)
	}
	return aggregate.Completion(departmentID, month, year, employees, evaluated), nil
}

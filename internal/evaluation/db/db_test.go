package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	e "github.com/okhalil/evalboard/internal/evaluation/errors"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"github.com/okhalil/evalboard/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	err = Migrate(db)
	require.NoError(t, err, "failed to migrate test database")

	return &Repository{db: db}
}

func seedDepartment(t *testing.T, repo *Repository, name string) *models.Department {
	t.Helper()
	dept := &models.Department{ID: uuid.New(), Name: name, CriteriaCount: 0}
	require.NoError(t, repo.CreateDepartment(context.Background(), dept))
	return dept
}

func seedEmployee(t *testing.T, repo *Repository, number string, departmentID uuid.UUID) *models.Employee {
	t.Helper()
	employee := &models.Employee{
		ID:             uuid.New(),
		EmployeeNumber: number,
		FullName:       "Test Employee",
		JobTitle:       "Analyst",
		DepartmentID:   departmentID,
	}
	require.NoError(t, repo.CreateEmployee(context.Background(), employee))
	return employee
}

func TestCreateDepartmentDuplicateName(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	seedDepartment(t, repo, "Finance")
	err := repo.CreateDepartment(ctx, &models.Department{ID: uuid.New(), Name: "Finance"})
	assert.ErrorIs(t, err, e.ErrDuplicateName, "second department with the same name should conflict")
}

func TestGetDepartmentNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetDepartment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrDepartmentNotFound)
}

func TestDepartmentExistsByNameExcludesSelf(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Sales")

	exists, err := repo.DepartmentExistsByName(ctx, "Sales", uuid.Nil)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.DepartmentExistsByName(ctx, "Sales", dept.ID)
	assert.NoError(t, err)
	assert.False(t, exists, "excluding the department itself should report no conflict")
}

func TestListCriteriaRegistryOrder(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Technology")
	criteria := []models.EvaluationCriteria{
		{ID: uuid.New(), DepartmentID: dept.ID, CriteriaName: "Problem Solving", MaxScore: 5, Position: 1},
		{ID: uuid.New(), DepartmentID: dept.ID, CriteriaName: "Code Quality", MaxScore: 5, Position: 0},
	}
	require.NoError(t, repo.CreateCriteria(ctx, criteria))

	listed, err := repo.ListCriteria(ctx, dept.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Code Quality", listed[0].CriteriaName, "criteria should come back in position order")
	assert.Equal(t, "Problem Solving", listed[1].CriteriaName)
}

func TestCreateEmployeeDuplicateNumber(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "HR")
	seedEmployee(t, repo, "E-100", dept.ID)

	err := repo.CreateEmployee(ctx, &models.Employee{
		ID:             uuid.New(),
		EmployeeNumber: "E-100",
		FullName:       "Someone Else",
		JobTitle:       "Clerk",
		DepartmentID:   dept.ID,
	})
	assert.ErrorIs(t, err, e.ErrDuplicateEmployeeNumber)
}

func TestUpdateEmployeePartialFields(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "HR")
	employee := seedEmployee(t, repo, "E-200", dept.ID)

	err := repo.UpdateEmployee(ctx, &models.EmployeePatch{
		ID:       employee.ID,
		JobTitle: utils.Ptr("Senior Analyst"),
	})
	assert.NoError(t, err)

	updated, err := repo.GetEmployee(ctx, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Analyst", updated.JobTitle)
	assert.Equal(t, "E-200", updated.EmployeeNumber, "untouched fields should be preserved")
}

func TestUpdateEmployeeNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateEmployee(context.Background(), &models.EmployeePatch{
		ID:       uuid.New(),
		FullName: utils.Ptr("Ghost"),
	})
	assert.ErrorIs(t, err, e.ErrEmployeeNotFound)
}

func TestGetEmployeePreloadsDepartment(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Finance")
	employee := seedEmployee(t, repo, "E-300", dept.ID)

	got, err := repo.GetEmployee(ctx, employee.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Department)
	assert.Equal(t, "Finance", got.Department.Name)
}

func TestCreateEvaluationDuplicatePeriod(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Sales")
	employee := seedEmployee(t, repo, "E-400", dept.ID)

	first := &models.MonthlyEvaluation{
		ID:              uuid.New(),
		EmployeeID:      employee.ID,
		EvaluationMonth: 3,
		EvaluationYear:  2024,
	}
	require.NoError(t, repo.CreateEvaluation(ctx, first))

	err := repo.CreateEvaluation(ctx, &models.MonthlyEvaluation{
		ID:              uuid.New(),
		EmployeeID:      employee.ID,
		EvaluationMonth: 3,
		EvaluationYear:  2024,
	})
	assert.ErrorIs(t, err, e.ErrDuplicateEvaluation, "the unique period index should reject a second row")

	// A different period is fine.
	err = repo.CreateEvaluation(ctx, &models.MonthlyEvaluation{
		ID:              uuid.New(),
		EmployeeID:      employee.ID,
		EvaluationMonth: 4,
		EvaluationYear:  2024,
	})
	assert.NoError(t, err)
}

func TestListEvaluationsForEmployeeOrder(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Sales")
	employee := seedEmployee(t, repo, "E-500", dept.ID)

	periods := [][2]int{{1, 2024}, {11, 2023}, {3, 2024}}
	for _, p := range periods {
		require.NoError(t, repo.CreateEvaluation(ctx, &models.MonthlyEvaluation{
			ID:              uuid.New(),
			EmployeeID:      employee.ID,
			EvaluationMonth: p[0],
			EvaluationYear:  p[1],
		}))
	}

	listed, err := repo.ListEvaluationsForEmployee(ctx, employee.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, [2]int{3, 2024}, [2]int{listed[0].EvaluationMonth, listed[0].EvaluationYear})
	assert.Equal(t, [2]int{1, 2024}, [2]int{listed[1].EvaluationMonth, listed[1].EvaluationYear})
	assert.Equal(t, [2]int{11, 2023}, [2]int{listed[2].EvaluationMonth, listed[2].EvaluationYear})
}

func TestEvaluatedEmployeeIDs(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Technology")
	evaluated := seedEmployee(t, repo, "E-600", dept.ID)
	seedEmployee(t, repo, "E-601", dept.ID)

	require.NoError(t, repo.CreateEvaluation(ctx, &models.MonthlyEvaluation{
		ID:              uuid.New(),
		EmployeeID:      evaluated.ID,
		EvaluationMonth: 6,
		EvaluationYear:  2024,
	}))

	ids, err := repo.EvaluatedEmployeeIDs(ctx, dept.ID, 6, 2024)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, evaluated.ID, ids[0])

	ids, err = repo.EvaluatedEmployeeIDs(ctx, dept.ID, 7, 2024)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteScoresForEmployee(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Finance")
	employee := seedEmployee(t, repo, "E-700", dept.ID)
	criteria := []models.EvaluationCriteria{
		{ID: uuid.New(), DepartmentID: dept.ID, CriteriaName: "Financial Analysis", MaxScore: 5},
	}
	require.NoError(t, repo.CreateCriteria(ctx, criteria))

	evaluation := &models.MonthlyEvaluation{
		ID:              uuid.New(),
		EmployeeID:      employee.ID,
		EvaluationMonth: 2,
		EvaluationYear:  2024,
	}
	require.NoError(t, repo.CreateEvaluation(ctx, evaluation))
	require.NoError(t, repo.CreateScores(ctx, []models.EvaluationScore{
		{ID: uuid.New(), EvaluationID: evaluation.ID, CriteriaID: criteria[0].ID, Score: 4},
	}))

	require.NoError(t, repo.DeleteScoresForEmployee(ctx, employee.ID))
	require.NoError(t, repo.DeleteEvaluationsForEmployee(ctx, employee.ID))

	got, err := repo.GetEvaluation(ctx, evaluation.ID)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, e.ErrEvaluationNotFound)
}

func TestWithTransactionRollsBack(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := seedDepartment(t, repo, "Sales")

	err := repo.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.CreateEmployee(ctx, &models.Employee{
			ID:             uuid.New(),
			EmployeeNumber: "E-800",
			FullName:       "Rollback Target",
			JobTitle:       "Rep",
			DepartmentID:   dept.ID,
		}); err != nil {
			return err
		}
		// Duplicate number inside the same transaction forces a rollback.
		return tx.CreateEmployee(ctx, &models.Employee{
			ID:             uuid.New(),
			EmployeeNumber: "E-800",
			FullName:       "Duplicate",
			JobTitle:       "Rep",
			DepartmentID:   dept.ID,
		})
	})
	require.Error(t, err)

	exists, err := repo.EmployeeExistsByNumber(ctx, "E-800", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, exists, "no partial writes should survive the rollback")
}

package controller

import (
	"context"
	"testing"

	"github.com/google/uuid"
	e "github.com/okhalil/evalboard/internal/evaluation/errors"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"github.com/okhalil/evalboard/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEmployee(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	dept, _ := mustDepartment(t, s, "HR", "Work Quality")

	employee, err := s.employees.CreateEmployee(ctx, "E-1", "Dana Khoury", "Recruiter", dept.ID)
	require.NoError(t, err)
	require.NotNil(t, employee.Department)
	assert.Equal(t, "HR", models.NewEmployeeView(employee).DepartmentName)
}

func TestCreateEmployeeValidation(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	dept, _ := mustDepartment(t, s, "HR", "Work Quality")

	_, err := s.employees.CreateEmployee(ctx, "", "Name", "Title", dept.ID)
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = s.employees.CreateEmployee(ctx, "E-1", "", "Title", dept.ID)
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = s.employees.CreateEmployee(ctx, "E-1", "Name", "Title", uuid.New())
	assert.ErrorIs(t, err, e.ErrDepartmentNotFound)
}

func TestCreateEmployeeDuplicateNumber(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	dept, _ := mustDepartment(t, s, "HR", "Work Quality")
	mustEmployee(t, s, "E-1", dept.ID)

	_, err := s.employees.CreateEmployee(ctx, "E-1", "Other Person", "Clerk", dept.ID)
	assert.ErrorIs(t, err, e.ErrDuplicateEmployeeNumber)
}

func TestUpdateEmployeePatch(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	hr, _ := mustDepartment(t, s, "HR", "Work Quality")
	finance, _ := mustDepartment(t, s, "Finance", "Accuracy")
	employee := mustEmployee(t, s, "E-1", hr.ID)

	updated, err := s.employees.UpdateEmployee(ctx, &models.EmployeePatch{
		ID:           employee.ID,
		JobTitle:     utils.Ptr("Payroll Officer"),
		DepartmentID: &finance.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Payroll Officer", updated.JobTitle)
	assert.Equal(t, finance.ID, updated.DepartmentID)
	assert.Equal(t, "Finance", updated.Department.Name)
	assert.Equal(t, "E-1", updated.EmployeeNumber, "unset fields stay put")
}

func TestUpdateEmployeeNumberConflict(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	dept, _ := mustDepartment(t, s, "HR", "Work Quality")
	first := mustEmployee(t, s, "E-1", dept.ID)
	mustEmployee(t, s, "E-2", dept.ID)

	// Re-submitting one's own number is fine.
	_, err := s.employees.UpdateEmployee(ctx, &models.EmployeePatch{
		ID:             first.ID,
		EmployeeNumber: utils.Ptr("E-1"),
	})
	assert.NoError(t, err)

	_, err = s.employees.UpdateEmployee(ctx, &models.EmployeePatch{
		ID:             first.ID,
		EmployeeNumber: utils.Ptr("E-2"),
	})
	assert.ErrorIs(t, err, e.ErrDuplicateEmployeeNumber)
}

func TestUpdateEmployeeInvalidDepartment(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	dept, _ := mustDepartment(t, s, "HR", "Work Quality")
	employee := mustEmployee(t, s, "E-1", dept.ID)

	unknown := uuid.New()
	_, err := s.employees.UpdateEmployee(ctx, &models.EmployeePatch{
		ID:           employee.ID,
		DepartmentID: &unknown,
	})
	assert.ErrorIs(t, err, e.ErrDepartmentNotFound)
}

func TestDeleteEmployeeCascadesEvaluations(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	dept, criteria := mustDepartment(t, s, "HR", "Work Quality", "Punctuality")
	employee := mustEmployee(t, s, "E-1", dept.ID)

	evaluation, err := s.evaluations.CreateEvaluation(ctx, employee.ID, 5, 2024, scoreEntries(criteria, 4, 3))
	require.NoError(t, err)

	require.NoError(t, s.employees.DeleteEmployee(ctx, employee.ID))

	_, err = s.employees.GetEmployee(ctx, employee.ID)
	assert.ErrorIs(t, err, e.ErrEmployeeNotFound)

	_, err = s.evaluations.UpdateEvaluation(ctx, evaluation.ID, nil)
	assert.ErrorIs(t, err, e.ErrEvaluationNotFound, "owned evaluations must be gone")
}

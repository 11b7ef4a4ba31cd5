package aggregate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluationWith(month, year int, scores ...models.EvaluationScore) models.MonthlyEvaluation {
	return models.MonthlyEvaluation{
		ID:              uuid.New(),
		EmployeeID:      uuid.New(),
		EvaluationMonth: month,
		EvaluationYear:  year,
		Scores:          scores,
	}
}

func scoreFor(criteriaID uuid.UUID, name string, value float64) models.EvaluationScore {
	return models.EvaluationScore{
		ID:         uuid.New(),
		CriteriaID: criteriaID,
		Score:      value,
		Criteria:   &models.EvaluationCriteria{ID: criteriaID, CriteriaName: name, MaxScore: 5},
	}
}

func TestTotalAndAverageScore(t *testing.T) {
	c1, c2 := uuid.New(), uuid.New()
	ev := evaluationWith(3, 2024,
		scoreFor(c1, "Work Quality", 4),
		scoreFor(c2, "Punctuality", 5),
	)

	assert.Equal(t, 9.0, TotalScore(&ev))
	assert.Equal(t, 4.5, AverageScore(&ev))
}

func TestAverageScoreEmptyEvaluation(t *testing.T) {
	ev := evaluationWith(3, 2024)

	assert.Equal(t, 0.0, AverageScore(&ev), "zero scores must not divide by zero")
	assert.Equal(t, 0.0, TotalScore(&ev))
}

func TestOverallAverage(t *testing.T) {
	c := uuid.New()
	evaluations := []models.MonthlyEvaluation{
		evaluationWith(1, 2024, scoreFor(c, "Work Quality", 4)),
		evaluationWith(2, 2024, scoreFor(c, "Work Quality", 2)),
	}

	avg, ok := OverallAverage(evaluations)
	assert.True(t, ok)
	assert.Equal(t, 3.0, avg)

	avg, ok = OverallAverage(nil)
	assert.False(t, ok, "no evaluations must be reported explicitly")
	assert.Equal(t, 0.0, avg)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "January", MonthLabel(1))
	assert.Equal(t, "December", MonthLabel(12))
	assert.Equal(t, "", MonthLabel(0))
	assert.Equal(t, "", MonthLabel(13))
}

func TestBuildChartSeries(t *testing.T) {
	c1, c2 := uuid.New(), uuid.New()
	criteria := []models.EvaluationCriteria{
		{ID: c1, CriteriaName: "Work Quality", MaxScore: 5, Position: 0},
		{ID: c2, CriteriaName: "Punctuality", MaxScore: 5, Position: 1},
	}
	evaluations := []models.MonthlyEvaluation{
		evaluationWith(1, 2024, scoreFor(c1, "Work Quality", 3), scoreFor(c2, "Punctuality", 1)),
		evaluationWith(3, 2024, scoreFor(c1, "Work Quality", 4), scoreFor(c2, "Punctuality", 2)),
	}

	series := BuildChartSeries(2024, evaluations, criteria)

	assert.Equal(t, 2024, series.Year)
	assert.Equal(t, []string{"January", "March"}, series.Months, "only recorded months appear, ascending")
	assert.Equal(t, []float64{4, 6}, series.TotalScores)
	assert.Equal(t, []float64{2, 3}, series.AverageScores)

	require.Len(t, series.Criteria, 2)
	assert.Equal(t, c1, series.Criteria[0].CriteriaID)
	assert.Equal(t, []float64{3, 4}, series.Criteria[0].Scores)
	assert.Equal(t, []float64{1, 2}, series.Criteria[1].Scores)
}

func TestBuildChartSeriesKeysByIDNotName(t *testing.T) {
	// Two criteria sharing a name stay distinct series.
	c1, c2 := uuid.New(), uuid.New()
	criteria := []models.EvaluationCriteria{
		{ID: c1, CriteriaName: "Attendance & Discipline"},
		{ID: c2, CriteriaName: "Attendance & Discipline"},
	}
	evaluations := []models.MonthlyEvaluation{
		evaluationWith(2, 2024,
			scoreFor(c1, "Attendance & Discipline", 5),
			scoreFor(c2, "Attendance & Discipline", 1),
		),
	}

	series := BuildChartSeries(2024, evaluations, criteria)

	require.Len(t, series.Criteria, 2)
	assert.Equal(t, []float64{5}, series.Criteria[0].Scores)
	assert.Equal(t, []float64{1}, series.Criteria[1].Scores)
}

func TestBuildChartSeriesIncludesRetiredCriteria(t *testing.T) {
	// A score whose criterion was removed from the registry still shows,
	// after the registry-ordered series.
	current := uuid.New()
	retired := uuid.New()
	criteria := []models.EvaluationCriteria{{ID: current, CriteriaName: "Work Quality"}}
	evaluations := []models.MonthlyEvaluation{
		evaluationWith(4, 2024,
			scoreFor(current, "Work Quality", 4),
			scoreFor(retired, "Old Criterion", 2),
		),
	}

	series := BuildChartSeries(2024, evaluations, criteria)

	require.Len(t, series.Criteria, 2)
	assert.Equal(t, current, series.Criteria[0].CriteriaID)
	assert.Equal(t, retired, series.Criteria[1].CriteriaID)
	assert.Equal(t, "Old Criterion", series.Criteria[1].Name)
}

func TestCompletion(t *testing.T) {
	deptID := uuid.New()
	e1 := models.Employee{ID: uuid.New(), EmployeeNumber: "E-1", DepartmentID: deptID}
	e2 := models.Employee{ID: uuid.New(), EmployeeNumber: "E-2", DepartmentID: deptID}

	stats := Completion(deptID, 6, 2024, []models.Employee{e1, e2}, []uuid.UUID{e1.ID})

	assert.Equal(t, 2, stats.TotalEmployees)
	assert.Equal(t, 1, stats.Evaluated)
	assert.Equal(t, 1, stats.Pending)
	require.Len(t, stats.PendingList, 1)
	assert.Equal(t, e2.ID, stats.PendingList[0].ID)
}

func TestCompletionEmptyDepartment(t *testing.T) {
	stats := Completion(uuid.New(), 6, 2024, nil, nil)

	assert.Equal(t, 0, stats.TotalEmployees)
	assert.Equal(t, 0, stats.Evaluated)
	assert.Equal(t, 0, stats.Pending)
	assert.NotNil(t, stats.PendingList)
}

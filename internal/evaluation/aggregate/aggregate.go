// Package aggregate computes derived statistics from raw ledger data:
// evaluation totals and averages, per-employee overall averages,
// chart series and department completion stats. Everything here is a
// pure function over already-loaded records; nothing is stored.
package aggregate

import (
	"time"

	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/models"
)

// TotalScore is the sum of an evaluation's scores.
func TotalScore(ev *models.MonthlyEvaluation) float64 {
	var total float64
	for i := range ev.Scores {
		total += ev.Scores[i].Score
	}
	return total
}

// AverageScore is the mean score of an evaluation, 0 when the
// evaluation has no scores.
func AverageScore(ev *models.MonthlyEvaluation) float64 {
	if len(ev.Scores) == 0 {
		return 0
	}
	return TotalScore(ev) / float64(len(ev.Scores))
}

// OverallAverage is the mean of AverageScore across evaluations. The
// second return is false when there are no evaluations.
func OverallAverage(evaluations []models.MonthlyEvaluation) (float64, bool) {
	if len(evaluations) == 0 {
		return 0, false
	}
	var sum float64
	for i := range evaluations {
		sum += AverageScore(&evaluations[i])
	}
	return sum / float64(len(evaluations)), true
}

// MonthLabel returns the display label for a 1-12 month number.
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// CriterionSeries is the ordered sequence of one criterion's scores
// across a year's evaluations. Series are keyed by criteria id;
// same-named criteria in different departments stay distinct. The
// display name is resolved here so presentation layers never need the
// id alone.
type CriterionSeries struct {
	CriteriaID uuid.UUID `json:"criteria_id"`
	Name       string    `json:"criteria_name"`
	Scores     []float64 `json:"scores"`
}

// ChartSeries is the chart payload for one employee and year. Slices
// run in ascending month order and only recorded months appear.
type ChartSeries struct {
	Year          int               `json:"year"`
	Months        []string          `json:"months"`
	TotalScores   []float64         `json:"total_scores"`
	AverageScores []float64         `json:"average_scores"`
	Criteria      []CriterionSeries `json:"criteria_scores"`
}

// BuildChartSeries assembles chart data from a year's evaluations,
// which must already be sorted by month ascending. criteria fixes the
// series order (registry order); criteria seen only on scores (e.g.
// since deleted from the registry) are appended after, in first-seen
// order, with names taken from the score's loaded criterion.
func BuildChartSeries(year int, evaluations []models.MonthlyEvaluation, criteria []models.EvaluationCriteria) ChartSeries {
	series := ChartSeries{
		Year:          year,
		Months:        make([]string, 0, len(evaluations)),
		TotalScores:   make([]float64, 0, len(evaluations)),
		AverageScores: make([]float64, 0, len(evaluations)),
	}

	order := make([]uuid.UUID, 0, len(criteria))
	byID := make(map[uuid.UUID]*CriterionSeries, len(criteria))
	add := func(id uuid.UUID, name string) *CriterionSeries {
		if cs, ok := byID[id]; ok {
			return cs
		}
		order = append(order, id)
		byID[id] = &CriterionSeries{CriteriaID: id, Name: name}
		return byID[id]
	}
	for i := range criteria {
		add(criteria[i].ID, criteria[i].CriteriaName)
	}

	for i := range evaluations {
		ev := &evaluations[i]
		series.Months = append(series.Months, MonthLabel(ev.EvaluationMonth))
		series.TotalScores = append(series.TotalScores, TotalScore(ev))
		series.AverageScores = append(series.AverageScores, AverageScore(ev))

		for j := range ev.Scores {
			score := &ev.Scores[j]
			name := ""
			if score.Criteria != nil {
				name = score.Criteria.CriteriaName
			}
			cs := add(score.CriteriaID, name)
			if cs.Name == "" {
				cs.Name = name
			}
			cs.Scores = append(cs.Scores, score.Score)
		}
	}

	for _, id := range order {
		series.Criteria = append(series.Criteria, *byID[id])
	}
	return series
}

// CompletionStats reports evaluation coverage of one department for
// one period.
type CompletionStats struct {
	DepartmentID   uuid.UUID             `json:"department_id"`
	Month          int                   `json:"month"`
	Year           int                   `json:"year"`
	TotalEmployees int                   `json:"total_employees"`
	Evaluated      int                   `json:"evaluated"`
	Pending        int                   `json:"pending"`
	PendingList    []models.EmployeeView `json:"pending_employees"`
}

// Completion splits a department's employees into evaluated and
// pending for the period. evaluated ids not belonging to employees are
// ignored.
func Completion(departmentID uuid.UUID, month, year int, employees []models.Employee, evaluated []uuid.UUID) CompletionStats {
	done := make(map[uuid.UUID]struct{}, len(evaluated))
	for _, id := range evaluated {
		done[id] = struct{}{}
	}

	stats := CompletionStats{
		DepartmentID:   departmentID,
		Month:          month,
		Year:           year,
		TotalEmployees: len(employees),
		PendingList:    []models.EmployeeView{},
	}
	for i := range employees {
		if _, ok := done[employees[i].ID]; ok {
			stats.Evaluated++
			continue
		}
		stats.Pending++
		stats.PendingList = append(stats.PendingList, models.NewEmployeeView(&employees[i]))
	}
	return stats
}

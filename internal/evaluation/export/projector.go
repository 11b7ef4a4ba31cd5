// Package export shapes ledger and aggregation output into flat
// tabular structures, and renders them to a workbook. The projector
// functions are pure; only the workbook writer touches excelize.
package export

import (
	"sort"

	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/aggregate"
	"github.com/okhalil/evalboard/internal/evaluation/models"
)

// NoEvaluationsMarker is the explicit cell value for employees without
// any recorded evaluation.
const NoEvaluationsMarker = "no evaluations"

// identityColumns lead every per-employee table, before the criteria
// columns and the trailing average.
var identityColumns = []string{"Month", "Year"}

// averageColumn trails the criteria columns.
const averageColumn = "Average"

// Row is one evaluation flattened against the current criteria set.
// Scores align with the table's criteria columns; a criterion the
// evaluation has no score for shows as 0, not missing.
type Row struct {
	MonthLabel string
	Month      int
	Year       int
	Scores     []float64
	// Average is the row total divided by the current criteria count,
	// not the count active when the evaluation was recorded.
	Average float64
}

// EmployeeTable is the flat evaluation history of one employee.
type EmployeeTable struct {
	Employee models.EmployeeView
	// Columns is the full deterministic header: identity columns,
	// criteria in registry order, then the average.
	Columns     []string
	CriteriaIDs []uuid.UUID
	Rows        []Row
}

// BuildEmployeeTable projects an employee's evaluations against the
// department's current criteria set. Rows run oldest period first.
func BuildEmployeeTable(employee *models.Employee, criteria []models.EvaluationCriteria, evaluations []models.MonthlyEvaluation) EmployeeTable {
	table := EmployeeTable{
		Employee:    models.NewEmployeeView(employee),
		Columns:     make([]string, 0, len(identityColumns)+len(criteria)+1),
		CriteriaIDs: make([]uuid.UUID, 0, len(criteria)),
	}
	table.Columns = append(table.Columns, identityColumns...)
	for i := range criteria {
		table.Columns = append(table.Columns, criteria[i].CriteriaName)
		table.CriteriaIDs = append(table.CriteriaIDs, criteria[i].ID)
	}
	table.Columns = append(table.Columns, averageColumn)

	ordered := make([]models.MonthlyEvaluation, len(evaluations))
	copy(ordered, evaluations)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].EvaluationYear != ordered[j].EvaluationYear {
			return ordered[i].EvaluationYear < ordered[j].EvaluationYear
		}
		return ordered[i].EvaluationMonth < ordered[j].EvaluationMonth
	})

	for i := range ordered {
		ev := &ordered[i]
		byCriteria := make(map[uuid.UUID]float64, len(ev.Scores))
		for j := range ev.Scores {
			byCriteria[ev.Scores[j].CriteriaID] = ev.Scores[j].Score
		}

		row := Row{
			MonthLabel: aggregate.MonthLabel(ev.EvaluationMonth),
			Month:      ev.EvaluationMonth,
			Year:       ev.EvaluationYear,
			Scores:     make([]float64, 0, len(criteria)),
		}
		var total float64
		for _, id := range table.CriteriaIDs {
			score := byCriteria[id]
			row.Scores = append(row.Scores, score)
			total += score
		}
		if len(criteria) > 0 {
			row.Average = total / float64(len(criteria))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// summaryColumns is the fixed header of the cross-employee summary.
var summaryColumns = []string{
	"Full Name", "Employee Number", "Job Title", "Department",
	"Evaluations", "Overall Average",
}

// SummaryRow is one employee's line in the cross-employee summary.
type SummaryRow struct {
	Employee        models.EmployeeView
	EvaluationCount int
	OverallAverage  float64
	// HasEvaluations is false when the average column must show the
	// explicit no-evaluations marker instead of a number.
	HasEvaluations bool
}

// SummaryTable is the cross-employee summary: one row per employee.
type SummaryTable struct {
	Columns []string
	Rows    []SummaryRow
}

// BuildSummaryTable projects all employees with their evaluation
// counts and overall averages.
func BuildSummaryTable(employees []models.Employee, evaluationsByEmployee map[uuid.UUID][]models.MonthlyEvaluation) SummaryTable {
	table := SummaryTable{Columns: summaryColumns}
	for i := range employees {
		evaluations := evaluationsByEmployee[employees[i].ID]
		avg, ok := aggregate.OverallAverage(evaluations)
		table.Rows = append(table.Rows, SummaryRow{
			Employee:        models.NewEmployeeView(&employees[i]),
			EvaluationCount: len(evaluations),
			OverallAverage:  avg,
			HasEvaluations:  ok,
		})
	}
	return table
}

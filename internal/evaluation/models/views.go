package models

import (
	"time"

	"github.com/google/uuid"
)

// View structs are the canonical JSON representations served by the
// routing layer and mirrored to the sheet-sync collaborator.

type DepartmentView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	CriteriaCount int       `json:"criteria_count"`
}

type CriteriaView struct {
	ID           uuid.UUID `json:"id"`
	DepartmentID uuid.UUID `json:"department_id"`
	CriteriaName string    `json:"criteria_name"`
	MaxScore     int       `json:"max_score"`
}

type EmployeeView struct {
	ID             uuid.UUID `json:"id"`
	EmployeeNumber string    `json:"employee_number"`
	FullName       string    `json:"full_name"`
	JobTitle       string    `json:"job_title"`
	DepartmentID   uuid.UUID `json:"department_id"`
	DepartmentName string    `json:"department_name"`
	CreatedAt      time.Time `json:"created_at"`
}

type ScoreView struct {
	ID           uuid.UUID `json:"id"`
	EvaluationID uuid.UUID `json:"evaluation_id"`
	CriteriaID   uuid.UUID `json:"criteria_id"`
	CriteriaName string    `json:"criteria_name"`
	Score        float64   `json:"score"`
	MaxScore     int       `json:"max_score"`
}

type EvaluationView struct {
	ID              uuid.UUID   `json:"id"`
	EmployeeID      uuid.UUID   `json:"employee_id"`
	EvaluationMonth int         `json:"evaluation_month"`
	EvaluationYear  int         `json:"evaluation_year"`
	CreatedAt       time.Time   `json:"created_at"`
	Scores          []ScoreView `json:"scores"`
}

// NewDepartmentView projects a department into its API representation.
func NewDepartmentView(d *Department) DepartmentView {
	return DepartmentView{ID: d.ID, Name: d.Name, CriteriaCount: d.CriteriaCount}
}

func NewCriteriaView(c *EvaluationCriteria) CriteriaView {
	return CriteriaView{
		ID:           c.ID,
		DepartmentID: c.DepartmentID,
		CriteriaName: c.CriteriaName,
		MaxScore:     c.MaxScore,
	}
}

// NewEmployeeView projects an employee; the department name is taken
// from the preloaded association when present.
func NewEmployeeView(e *Employee) EmployeeView {
	v := EmployeeView{
		ID:             e.ID,
		EmployeeNumber: e.EmployeeNumber,
		FullName:       e.FullName,
		JobTitle:       e.JobTitle,
		DepartmentID:   e.DepartmentID,
		CreatedAt:      e.CreatedAt,
	}
	if e.Department != nil {
		v.DepartmentName = e.Department.Name
	}
	return v
}

func NewScoreView(s *EvaluationScore) ScoreView {
	v := ScoreView{
		ID:           s.ID,
		EvaluationID: s.EvaluationID,
		CriteriaID:   s.CriteriaID,
		Score:        s.Score,
	}
	if s.Criteria != nil {
		v.CriteriaName = s.Criteria.CriteriaName
		v.MaxScore = s.Criteria.MaxScore
	}
	return v
}

func NewEvaluationView(ev *MonthlyEvaluation) EvaluationView {
	scores := make([]ScoreView, 0, len(ev.Scores))
	for i := range ev.Scores {
		scores = append(scores, NewScoreView(&ev.Scores[i]))
	}
	return EvaluationView{
		ID:              ev.ID,
		EmployeeID:      ev.EmployeeID,
		EvaluationMonth: ev.EvaluationMonth,
		EvaluationYear:  ev.EvaluationYear,
		CreatedAt:       ev.CreatedAt,
		Scores:          scores,
	}
}

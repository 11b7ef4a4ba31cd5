// Package models defines the core domain entities of the evaluation
// system: departments with their scored criteria, employees, and the
// monthly evaluations recorded against them. The structs carry GORM
// tags and are migrated directly by the db package.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Department is an organizational unit defining its own evaluation
// criteria. CriteriaCount is denormalized for display but is always
// derived from the persisted criteria set inside the same transaction
// that mutates it; it is never taken from caller input.
type Department struct {
	// ID is the unique identifier for the department.
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// Name is unique across all departments and never empty.
	Name string `gorm:"size:100;not null;uniqueIndex"`
	// CriteriaCount mirrors the number of criteria rows owned by the department.
	CriteriaCount int `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EvaluationCriteria is one named, scored dimension of evaluation
// belonging to exactly one department.
type EvaluationCriteria struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	CriteriaName string    `gorm:"size:200;not null"`
	// Position fixes the registry order of criteria within a department;
	// export columns and chart series follow it.
	Position int `gorm:"not null"`
	// MaxScore is the upper bound shown to raters. Scores are not
	// range-checked against it at write time.
	MaxScore int `gorm:"not null;default:5;check:max_score > 0"`
}

// Employee is a member of exactly one department.
type Employee struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// EmployeeNumber is the HR-assigned number, unique across all employees.
	EmployeeNumber string    `gorm:"size:50;not null;uniqueIndex"`
	FullName       string    `gorm:"size:200;not null"`
	JobTitle       string    `gorm:"size:200;not null"`
	DepartmentID   uuid.UUID `gorm:"type:uuid;not null;index"`

	// Department is preloaded for projections needing the department name.
	Department *Department `gorm:"foreignKey:DepartmentID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MonthlyEvaluation is one employee's recorded evaluation for one
// (month, year) period. The composite unique index serializes
// concurrent creations for the same period: one wins, the rest fail
// on the constraint.
type MonthlyEvaluation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_employee_period"`
	// EvaluationMonth is 1-12.
	EvaluationMonth int `gorm:"not null;uniqueIndex:idx_employee_period;check:evaluation_month >= 1 AND evaluation_month <= 12"`
	EvaluationYear  int `gorm:"not null;uniqueIndex:idx_employee_period"`

	// Scores are exclusively owned: deleting the evaluation deletes them.
	Scores []EvaluationScore `gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

// EvaluationScore is a single criterion's numeric rating within one
// evaluation. Its criterion always belongs to the same department as
// the evaluation's employee; the ledger enforces this on every write.
type EvaluationScore struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	EvaluationID uuid.UUID `gorm:"type:uuid;not null;index"`
	CriteriaID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Score        float64   `gorm:"not null"`

	// Criteria is preloaded for projections. No database constraint:
	// redefining a department's criteria deletes the old rows while
	// historical scores keep referencing them, and those orphans must
	// survive as plain records.
	Criteria *EvaluationCriteria `gorm:"foreignKey:CriteriaID;constraint:-"`
}

// CriterionInput is one criteria definition supplied when creating or
// redefining a department. Entries with a blank name are skipped.
type CriterionInput struct {
	Name string
	// MaxScore zero means the default of 5.
	MaxScore int
}

// ScoreInput is one score entry supplied to the ledger. Pointer fields
// distinguish "absent" from zero values so incomplete entries can be
// rejected.
type ScoreInput struct {
	CriteriaID *uuid.UUID
	Score      *float64
}

// EmployeePatch represents a partial employee update. Nil fields are
// left unchanged.
type EmployeePatch struct {
	ID             uuid.UUID
	EmployeeNumber *string
	FullName       *string
	JobTitle       *string
	DepartmentID   *uuid.UUID
}

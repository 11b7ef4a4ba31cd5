package controller

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/db"
	"github.com/okhalil/evalboard/internal/evaluation/events"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRepo opens an in-memory SQLite store so service tests exercise
// the real repository, constraints included.
func setupRepo(t *testing.T) *db.Repository {
	return openRepo(t, ":memory:")
}

// setupRepoEnforcingFKs enables foreign key enforcement, which SQLite
// leaves off by default but the production Postgres store always has.
func setupRepoEnforcingFKs(t *testing.T) *db.Repository {
	return openRepo(t, ":memory:?_foreign_keys=1")
}

func openRepo(t *testing.T, dsn string) *db.Repository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")
	return db.NewRepositoryFromGorm(gdb)
}

// MockProducer records mirrored events.
type MockProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockProducer) Produce(eventType events.EventType, key string, entity interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events.Event{Type: eventType, Key: key, Entity: entity})
}

func (m *MockProducer) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

type testServices struct {
	repo        *db.Repository
	departments *DepartmentService
	employees   *EmployeeService
	evaluations *EvaluationService
	producer    *MockProducer
}

func setupServices(t *testing.T) *testServices {
	return newServices(t, setupRepo(t))
}

func newServices(t *testing.T, repo *db.Repository) *testServices {
	t.Helper()
	logger := zaptest.NewLogger(t)
	producer := &MockProducer{}
	return &testServices{
		repo:        repo,
		departments: NewDepartmentService(repo, producer, logger),
		employees:   NewEmployeeService(repo, producer, logger),
		evaluations: NewEvaluationService(repo, producer, logger),
		producer:    producer,
	}
}

func mustDepartment(t *testing.T, s *testServices, name string, criteriaNames ...string) (*models.Department, []models.EvaluationCriteria) {
	t.Helper()
	inputs := make([]models.CriterionInput, 0, len(criteriaNames))
	for _, n := range criteriaNames {
		inputs = append(inputs, models.CriterionInput{Name: n})
	}
	dept, err := s.departments.CreateDepartment(context.Background(), name, inputs)
	require.NoError(t, err)
	criteria, err := s.departments.ListCriteria(context.Background(), dept.ID)
	require.NoError(t, err)
	return dept, criteria
}

func mustEmployee(t *testing.T, s *testServices, number string, departmentID uuid.UUID) *models.Employee {
	t.Helper()
	employee, err := s.employees.CreateEmployee(context.Background(), number, "Test Employee "+number, "Analyst", departmentID)
	require.NoError(t, err)
	return employee
}

func scoreEntries(criteria []models.EvaluationCriteria, values ...float64) []models.ScoreInput {
	entries := make([]models.ScoreInput, 0, len(values))
	for i, v := range values {
		id := criteria[i].ID
		value := v
		entries = append(entries, models.ScoreInput{CriteriaID: &id, Score: &value})
	}
	return entries
}

// Package handlers exposes the evaluation services over a REST JSON
// API and maps core error kinds to HTTP statuses. The routing layer
// holds no business logic; it parses requests, delegates to the
// services and shapes responses.
package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/okhalil/evalboard/internal/evaluation/controller"
	e "github.com/okhalil/evalboard/internal/evaluation/errors"
	"github.com/okhalil/evalboard/internal/evaluation/export"
	"github.com/okhalil/evalboard/internal/evaluation/models"
	"github.com/okhalil/evalboard/internal/evaluation/settings"
	"go.uber.org/zap"
)

type Handler struct {
	departments *controller.DepartmentService
	employees   *controller.EmployeeService
	evaluations *controller.EvaluationService
	settings    *settings.Store
	logger      *zap.Logger
}

func New(
	departments *controller.DepartmentService,
	employees *controller.EmployeeService,
	evaluations *controller.EvaluationService,
	store *settings.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		departments: departments,
		employees:   employees,
		evaluations: evaluations,
		settings:    store,
		logger:      logger.Named("http_handler"),
	}
}

// Register mounts all routes under /api.
func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/departments", h.listDepartments)
	api.Post("/departments", h.createDepartment)
	api.Get("/departments/:id", h.getDepartment)
	api.Put("/departments/:id", h.updateDepartment)
	api.Delete("/departments/:id", h.deleteDepartment)
	api.Get("/departments/:id/criteria", h.listCriteria)
	api.Get("/departments/:id/completion", h.completionStats)
	api.Post("/init-departments", h.initDepartments)

	api.Get("/employees", h.listEmployees)
	api.Post("/employees", h.createEmployee)
	api.Get("/employees/:id", h.getEmployee)
	api.Put("/employees/:id", h.updateEmployee)
	api.Delete("/employees/:id", h.deleteEmployee)
	api.Get("/employees/:id/evaluations", h.listEvaluations)
	api.Get("/employees/:id/evaluations/chart-data", h.chartData)

	api.Post("/evaluations", h.createEvaluation)
	api.Put("/evaluations/:id", h.updateEvaluation)
	api.Delete("/evaluations/:id", h.deleteEvaluation)

	api.Get("/export/all-evaluations", h.exportAll)
	api.Get("/export/employee/:id", h.exportEmployee)

	api.Get("/settings", h.getSettings)
	api.Put("/settings/sheet-sync", h.putSheetSync)
	api.Put("/settings/period", h.putPeriod)
}

// respondError maps a core error to its HTTP status. Internal errors
// are logged and masked.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	switch e.Classify(err) {
	case e.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case e.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case e.KindConflict, e.KindIntegrity:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error("internal error", zap.Error(err), zap.String("path", c.Path()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", e.ErrInvalidInput)
	}
	return id, nil
}

// Departments

type criterionRequest struct {
	Name     string `json:"name"`
	MaxScore int    `json:"max_score"`
}

type departmentRequest struct {
	Name     string             `json:"name"`
	Criteria []criterionRequest `json:"criteria"`
}

func criterionInputs(reqs []criterionRequest) []models.CriterionInput {
	inputs := make([]models.CriterionInput, 0, len(reqs))
	for _, r := range reqs {
		inputs = append(inputs, models.CriterionInput{Name: r.Name, MaxScore: r.MaxScore})
	}
	return inputs
}

func (h *Handler) listDepartments(c *fiber.Ctx) error {
	depts, err := h.departments.ListDepartments(c.Context())
	if err != nil {
		return h.respondError(c, err)
	}
	views := make([]models.DepartmentView, 0, len(depts))
	for i := range depts {
		views = append(views, models.NewDepartmentView(&depts[i]))
	}
	return c.JSON(views)
}

func (h *Handler) createDepartment(c *fiber.Ctx) error {
	var req departmentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	dept, err := h.departments.CreateDepartment(c.Context(), req.Name, criterionInputs(req.Criteria))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewDepartmentView(dept))
}

func (h *Handler) getDepartment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	dept, criteria, err := h.departments.GetDepartment(c.Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	criteriaViews := make([]models.CriteriaView, 0, len(criteria))
	for i := range criteria {
		criteriaViews = append(criteriaViews, models.NewCriteriaView(&criteria[i]))
	}
	return c.JSON(fiber.Map{
		"id":             dept.ID,
		"name":           dept.Name,
		"criteria_count": dept.CriteriaCount,
		"criteria":       criteriaViews,
	})
}

func (h *Handler) updateDepartment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	var req departmentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	dept, err := h.departments.UpdateDepartment(c.Context(), id, req.Name, criterionInputs(req.Criteria))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.NewDepartmentView(dept))
}

func (h *Handler) deleteDepartment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.departments.DeleteDepartment(c.Context(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "department deleted"})
}

func (h *Handler) listCriteria(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	criteria, err := h.departments.ListCriteria(c.Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	views := make([]models.CriteriaView, 0, len(criteria))
	for i := range criteria {
		views = append(views, models.NewCriteriaView(&criteria[i]))
	}
	return c.JSON(views)
}

func (h *Handler) initDepartments(c *fiber.Ctx) error {
	seeded, err := h.departments.SeedDefaults(c.Context())
	if err != nil {
		return h.respondError(c, err)
	}
	if !seeded {
		return c.JSON(fiber.Map{"message": "departments already initialized"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "default departments initialized"})
}

func (h *Handler) completionStats(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	now := time.Now()
	defMonth, defYear := now.Month(), now.Year()
	if h.settings != nil {
		m, y := h.settings.ActivePeriod(now)
		defMonth, defYear = time.Month(m), y
	}
	month := c.QueryInt("month", int(defMonth))
	year := c.QueryInt("year", defYear)
	stats, err := h.evaluations.CompletionStats(c.Context(), id, month, year)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(stats)
}

// Employees

type createEmployeeRequest struct {
	EmployeeNumber *string    `json:"employee_number"`
	FullName       *string    `json:"full_name"`
	JobTitle       *string    `json:"job_title"`
	DepartmentID   *uuid.UUID `json:"department_id"`
}

func (h *Handler) listEmployees(c *fiber.Ctx) error {
	employees, err := h.employees.ListEmployees(c.Context())
	if err != nil {
		return h.respondError(c, err)
	}
	views := make([]models.EmployeeView, 0, len(employees))
	for i := range employees {
		views = append(views, models.NewEmployeeView(&employees[i]))
	}
	return c.JSON(views)
}

func (h *Handler) createEmployee(c *fiber.Ctx) error {
	var req createEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	if req.EmployeeNumber == nil || req.FullName == nil || req.JobTitle == nil || req.DepartmentID == nil {
		return h.respondError(c, fmt.Errorf("%w: employee_number, full_name, job_title and department_id are required", e.ErrInvalidInput))
	}
	employee, err := h.employees.CreateEmployee(c.Context(), *req.EmployeeNumber, *req.FullName, *req.JobTitle, *req.DepartmentID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewEmployeeView(employee))
}

func (h *Handler) getEmployee(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	employee, err := h.employees.GetEmployee(c.Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.NewEmployeeView(employee))
}

func (h *Handler) updateEmployee(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	var req createEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	employee, err := h.employees.UpdateEmployee(c.Context(), &models.EmployeePatch{
		ID:             id,
		EmployeeNumber: req.EmployeeNumber,
		FullName:       req.FullName,
		JobTitle:       req.JobTitle,
		DepartmentID:   req.DepartmentID,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.NewEmployeeView(employee))
}

func (h *Handler) deleteEmployee(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.employees.DeleteEmployee(c.Context(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "employee deleted"})
}

// Evaluations

type scoreRequest struct {
	CriteriaID *uuid.UUID `json:"criteria_id"`
	Score      *float64   `json:"score"`
}

type createEvaluationRequest struct {
	EmployeeID      *uuid.UUID     `json:"employee_id"`
	EvaluationMonth *int           `json:"evaluation_month"`
	EvaluationYear  *int           `json:"evaluation_year"`
	Scores          []scoreRequest `json:"scores"`
}

type updateEvaluationRequest struct {
	Scores []scoreRequest `json:"scores"`
}

func scoreInputs(reqs []scoreRequest) []models.ScoreInput {
	if reqs == nil {
		return nil
	}
	inputs := make([]models.ScoreInput, 0, len(reqs))
	for _, r := range reqs {
		inputs = append(inputs, models.ScoreInput{CriteriaID: r.CriteriaID, Score: r.Score})
	}
	return inputs
}

func (h *Handler) createEvaluation(c *fiber.Ctx) error {
	var req createEvaluationRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	if req.EmployeeID == nil || req.EvaluationMonth == nil || req.EvaluationYear == nil || req.Scores == nil {
		return h.respondError(c, fmt.Errorf("%w: employee_id, evaluation_month, evaluation_year and scores are required", e.ErrInvalidInput))
	}
	evaluation, err := h.evaluations.CreateEvaluation(c.Context(), *req.EmployeeID, *req.EvaluationMonth, *req.EvaluationYear, scoreInputs(req.Scores))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewEvaluationView(evaluation))
}

func (h *Handler) updateEvaluation(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	var req updateEvaluationRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	evaluation, err := h.evaluations.UpdateEvaluation(c.Context(), id, scoreInputs(req.Scores))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.NewEvaluationView(evaluation))
}

func (h *Handler) deleteEvaluation(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.evaluations.DeleteEvaluation(c.Context(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "evaluation deleted"})
}

func (h *Handler) listEvaluations(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	evaluations, err := h.evaluations.ListForEmployee(c.Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	views := make([]models.EvaluationView, 0, len(evaluations))
	for i := range evaluations {
		views = append(views, models.NewEvaluationView(&evaluations[i]))
	}
	return c.JSON(views)
}

func (h *Handler) chartData(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	year := c.QueryInt("year", time.Now().Year())
	employee, series, err := h.evaluations.ChartSeries(c.Context(), id, year)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"employee":        models.NewEmployeeView(employee),
		"year":            series.Year,
		"months":          series.Months,
		"total_scores":    series.TotalScores,
		"average_scores":  series.AverageScores,
		"criteria_scores": series.Criteria,
	})
}

// Export

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// buildEmployeeTable gathers the current criteria set and history for
// one employee. The history is returned alongside the table so summary
// building reuses it instead of fetching again.
func (h *Handler) buildEmployeeTable(c *fiber.Ctx, employee *models.Employee) (export.EmployeeTable, []models.MonthlyEvaluation, error) {
	criteria, err := h.departments.ListCriteria(c.Context(), employee.DepartmentID)
	if err != nil {
		return export.EmployeeTable{}, nil, err
	}
	evaluations, err := h.evaluations.ListForEmployee(c.Context(), employee.ID)
	if err != nil {
		return export.EmployeeTable{}, nil, err
	}
	return export.BuildEmployeeTable(employee, criteria, evaluations), evaluations, nil
}

func (h *Handler) sendWorkbook(c *fiber.Ctx, summary export.SummaryTable, tables []export.EmployeeTable, filename string) error {
	f, err := export.WriteWorkbook(summary, tables)
	if err != nil {
		return h.respondError(c, err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.SendStream(buf)
}

func (h *Handler) exportAll(c *fiber.Ctx) error {
	employees, err := h.employees.ListEmployees(c.Context())
	if err != nil {
		return h.respondError(c, err)
	}
	if len(employees) == 0 {
		return h.respondError(c, fmt.Errorf("%w: no employees to export", e.ErrInvalidInput))
	}

	tables := make([]export.EmployeeTable, 0, len(employees))
	evaluationsByEmployee := make(map[uuid.UUID][]models.MonthlyEvaluation, len(employees))
	for i := range employees {
		table, evaluations, err := h.buildEmployeeTable(c, &employees[i])
		if err != nil {
			return h.respondError(c, err)
		}
		tables = append(tables, table)
		evaluationsByEmployee[employees[i].ID] = evaluations
	}

	summary := export.BuildSummaryTable(employees, evaluationsByEmployee)
	filename := fmt.Sprintf("employee-evaluations_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	return h.sendWorkbook(c, summary, tables, filename)
}

func (h *Handler) exportEmployee(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.respondError(c, err)
	}
	employee, err := h.employees.GetEmployee(c.Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	table, evaluations, err := h.buildEmployeeTable(c, employee)
	if err != nil {
		return h.respondError(c, err)
	}

	summary := export.BuildSummaryTable(
		[]models.Employee{*employee},
		map[uuid.UUID][]models.MonthlyEvaluation{id: evaluations},
	)
	filename := fmt.Sprintf("evaluation_%s_%s.xlsx", employee.EmployeeNumber, time.Now().Format("2006-01-02_15-04-05"))
	return h.sendWorkbook(c, summary, []export.EmployeeTable{table}, filename)
}

// Settings

type sheetSyncRequest struct {
	URL      *string `json:"url"`
	AutoSync *bool   `json:"auto_sync"`
}

type periodRequest struct {
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

func (h *Handler) getSettings(c *fiber.Ctx) error {
	return c.JSON(h.settings.Get())
}

func (h *Handler) putSheetSync(c *fiber.Ctx) error {
	var req sheetSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	if req.URL == nil || *req.URL == "" {
		return h.respondError(c, fmt.Errorf("%w: url is required", e.ErrInvalidInput))
	}
	cfg := settings.SheetSync{URL: *req.URL, AutoSync: true}
	if req.AutoSync != nil {
		cfg.AutoSync = *req.AutoSync
	}
	if err := h.settings.SetSheetSync(cfg); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(h.settings.Get())
}

func (h *Handler) putPeriod(c *fiber.Ctx) error {
	var req periodRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: %v", e.ErrInvalidInput, err))
	}
	if req.Month == nil || req.Year == nil {
		return h.respondError(c, fmt.Errorf("%w: month and year are required", e.ErrInvalidInput))
	}
	if *req.Month < 1 || *req.Month > 12 {
		return h.respondError(c, fmt.Errorf("%w: month must be 1-12", e.ErrInvalidInput))
	}
	if err := h.settings.SetEvaluationPeriod(*req.Month, *req.Year); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(h.settings.Get())
}

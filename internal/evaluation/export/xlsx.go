package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

// Workbook cell styling, matching the report layout the projector
// tables were designed for: a summary sheet first, then one sheet per
// employee.

const headerFillColor = "366092"

// maxSheetName is the workbook format's sheet name limit.
const maxSheetName = 31

type workbookStyles struct {
	title  int
	header int
	cell   int
}

func newStyles(f *excelize.File) (workbookStyles, error) {
	border := []excelize.Border{
		{Type: "left", Style: 1},
		{Type: "right", Style: 1},
		{Type: "top", Style: 1},
		{Type: "bottom", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Alignment: center,
	})
	if err != nil {
		return workbookStyles{}, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Alignment: center,
		Border:    border,
	})
	if err != nil {
		return workbookStyles{}, err
	}
	cell, err := f.NewStyle(&excelize.Style{
		Alignment: center,
		Border:    border,
	})
	if err != nil {
		return workbookStyles{}, err
	}
	return workbookStyles{title: title, header: header, cell: cell}, nil
}

// WriteWorkbook renders the summary table and the per-employee tables
// into a workbook: summary sheet first, then one sheet per employee.
func WriteWorkbook(summary SummaryTable, tables []EmployeeTable) (*excelize.File, error) {
	f := excelize.NewFile()
	styles, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("failed to build styles: %w", err)
	}

	if err := writeSummarySheet(f, styles, summary); err != nil {
		return nil, err
	}

	used := map[string]bool{"Summary": true}
	for i := range tables {
		name := sheetName(tables[i].Employee.FullName, tables[i].Employee.EmployeeNumber, used)
		if err := writeEmployeeSheet(f, styles, name, &tables[i]); err != nil {
			return nil, err
		}
	}

	// Replace the default sheet with the summary at index 0.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex("Summary")
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

// sheetName derives a unique, length-limited sheet name from the
// employee's name, falling back to the employee number on collision.
func sheetName(fullName, number string, used map[string]bool) string {
	name := fullName
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	if name == "" || used[name] {
		name = number
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}
	}
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%.28s-%d", number, i)
	}
	used[name] = true
	return name
}

func writeSummarySheet(f *excelize.File, styles workbookStyles, summary SummaryTable) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", "Employee Evaluation Summary"); err != nil {
		return err
	}
	end, _ := excelize.CoordinatesToCellName(len(summary.Columns), 1)
	if err := f.MergeCell(sheet, "A1", end); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", end, styles.title); err != nil {
		return err
	}

	for col, header := range summary.Columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 3)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return err
		}
	}

	for i, row := range summary.Rows {
		values := []interface{}{
			row.Employee.FullName,
			row.Employee.EmployeeNumber,
			row.Employee.JobTitle,
			row.Employee.DepartmentName,
			row.EvaluationCount,
			NoEvaluationsMarker,
		}
		if row.HasEvaluations {
			values[5] = round2(row.OverallAverage)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+4)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.cell); err != nil {
				return err
			}
		}
	}

	last, _ := excelize.ColumnNumberToName(len(summary.Columns))
	return f.SetColWidth(sheet, "A", last, 18)
}

func writeEmployeeSheet(f *excelize.File, styles workbookStyles, sheet string, table *EmployeeTable) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	info := [][2]interface{}{
		{"Full Name", table.Employee.FullName},
		{"Employee Number", table.Employee.EmployeeNumber},
		{"Job Title", table.Employee.JobTitle},
		{"Department", table.Employee.DepartmentName},
	}
	if err := f.SetCellValue(sheet, "A1", "Employee"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", styles.title); err != nil {
		return err
	}
	for i, pair := range info {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+2)
		valCell, _ := excelize.CoordinatesToCellName(2, i+2)
		if err := f.SetCellValue(sheet, keyCell, pair[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, valCell, pair[1]); err != nil {
			return err
		}
	}

	if len(table.Rows) == 0 {
		return f.SetCellValue(sheet, "A7", NoEvaluationsMarker)
	}

	const headerRow = 7
	for col, header := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return err
		}
	}

	for i, row := range table.Rows {
		values := make([]interface{}, 0, len(table.Columns))
		values = append(values, row.MonthLabel, row.Year)
		for _, score := range row.Scores {
			values = append(values, score)
		}
		values = append(values, round2(row.Average))
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, headerRow+1+i)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.cell); err != nil {
				return err
			}
		}
	}

	last, _ := excelize.ColumnNumberToName(len(table.Columns))
	return f.SetColWidth(sheet, "A", last, 15)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

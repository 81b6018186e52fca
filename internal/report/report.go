// Package report renders a printable program summary.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rotisserie/eris"

	"github.com/algae-foundation/teacher-analytics/internal/analytics"
)

// BuildSummaryPDF renders the KPI block and top-state table as a one-page
// PDF for program officers.
func BuildSummaryPDF(s analytics.Summary, topStates []analytics.Count, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Teacher Training Program Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.Format(time.RFC1123)))
	pdf.Ln(10)

	kpi := func(label, value string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, value, "", 0, "L", false, 0, "")
		pdf.Ln(6)
	}

	kpi("Teachers trained", fmt.Sprintf("%d", s.TotalTeachers))
	kpi("Students reached", fmt.Sprintf("%d", s.TotalStudents))
	kpi("States reached", fmt.Sprintf("%d", s.StatesReached))
	kpi("Rows with coordinates", fmt.Sprintf("%d", s.GeocodedRows))
	kpi("Title 1 schools (yes / no / unknown)",
		fmt.Sprintf("%d / %d / %d", s.Title1.Yes, s.Title1.No, s.Title1.Unknown))
	kpi("ELL classrooms (yes / no / unknown)",
		fmt.Sprintf("%d / %d / %d", s.ELL.Yes, s.ELL.No, s.ELL.Unknown))
	kpi("Returning teachers (yes / no / unknown)",
		fmt.Sprintf("%d / %d / %d", s.Returning.Yes, s.Returning.No, s.Returning.Unknown))
	if s.AvgFreeLunchPct != nil {
		kpi("Avg free/reduced lunch", fmt.Sprintf("%.1f%%", *s.AvgFreeLunchPct))
	} else {
		kpi("Avg free/reduced lunch", "unknown")
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "State", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Teachers", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, c := range topStates {
		pdf.CellFormat(60, 6, c.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", c.Count), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, eris.Wrap(err, "report: render pdf")
	}
	return buf.Bytes(), nil
}

// Package export renders dataset snapshots as downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/algae-foundation/teacher-analytics/internal/model"
)

// Filename builds the conventional download name for an export:
// teacher_data_{all|filtered}_YYYYMMDD_HHMMSS.{csv,xlsx}.
func Filename(format string, filtered bool, now time.Time) string {
	scope := "all"
	if filtered {
		scope = "filtered"
	}
	return fmt.Sprintf("teacher_data_%s_%s.%s", scope, now.Format("20060102_150405"), format)
}

// WriteCSV streams records as CSV in the canonical column order. Unknown
// flags and percentages render as blank cells, the same shape the flat-file
// backend persists.
func WriteCSV(w io.Writer, records []model.TeacherRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns()); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for i := range records {
		if err := cw.Write(records[i].Row()); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// BuildXLSX renders records as a single-sheet workbook.
func BuildXLSX(records []model.TeacherRecord) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Teacher Data"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range model.Columns() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, eris.Wrap(err, "export: cell name")
		}
		_ = f.SetCellValue(sheet, cell, name)
	}
	for i := range records {
		for col, val := range records[i].Row() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, eris.Wrap(err, "export: cell name")
			}
			_ = f.SetCellValue(sheet, cell, val)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "export: write workbook")
	}
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column describes one column of an exported sheet. NumFmt is an excelize
// custom number format applied to the data cells, e.g. "#,##0.00".
type Column struct {
	Header string
	Width  float64
	NumFmt string
}

// Sheet is a rectangular table. Each row must have len(Columns) cells.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
	// Totals, when set, is written as a bold final row.
	Totals []any
}

// WriteXLSX renders sheets into a workbook. The first sheet replaces
// excelize's default "Sheet1".
func WriteXLSX(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", s.Name, err)
		}
		if err := writeSheet(f, s, header); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle int) error {
	for c, col := range s.Columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(s.Name, cell, col.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if col.Width > 0 {
			if err := f.SetColWidth(s.Name, name, name, col.Width); err != nil {
				return err
			}
		}
	}
	last, err := excelize.CoordinatesToCellName(len(s.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	rows := s.Rows
	if s.Totals != nil {
		rows = append(rows[:len(rows):len(rows)], s.Totals)
	}
	for r, row := range rows {
		if len(row) != len(s.Columns) {
			return fmt.Errorf("sheet %s row %d: got %d cells, want %d", s.Name, r+1, len(row), len(s.Columns))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	for c, col := range s.Columns {
		if col.NumFmt == "" || len(rows) == 0 {
			continue
		}
		format := col.NumFmt
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			return err
		}
		from, _ := excelize.CoordinatesToCellName(c+1, 2)
		to, _ := excelize.CoordinatesToCellName(c+1, len(rows)+1)
		if err := f.SetCellStyle(s.Name, from, to, style); err != nil {
			return err
		}
	}

	if s.Totals != nil {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(1, len(rows)+1)
		if err := f.SetCellStyle(s.Name, cell, cell, bold); err != nil {
			return err
		}
	}

	return f.SetPanes(s.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

package sheet

import (
	"fmt"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "Sheet1"
	columnWidth = 10
	fontFamily  = "Arial"
	fontSize    = 10
	numFmtText  = 49 // builtin "@"
)

// Exporter writes partitions as formatted xlsx workbooks.
// It implements core.TableExporter.
type Exporter struct{}

// Export drops the category column, repairs phone columns and returns the
// workbook bytes. t is not modified.
func (Exporter) Export(t *core.Table, phoneMarkers []string) ([]byte, error) {
	out := exportCopy(t, phoneMarkers)

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, out); err != nil {
		return nil, fmt.Errorf("write sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// exportCopy returns t without CategoryColumn and with phone values
// normalized. Cells are copied, never shared.
func exportCopy(t *core.Table, phoneMarkers []string) *core.Table {
	keep := make([]int, 0, len(t.Header))
	phone := make(map[int]bool)
	for i, h := range t.Header {
		if h == core.CategoryColumn {
			continue
		}
		keep = append(keep, i)
		if core.IsPhoneColumn(h, phoneMarkers) {
			phone[i] = true
		}
	}

	out := &core.Table{
		Header: make([]string, len(keep)),
		Rows:   make([][]string, len(t.Rows)),
	}
	for j, i := range keep {
		out.Header[j] = t.Header[i]
	}
	for r, row := range t.Rows {
		cells := make([]string, len(keep))
		for j, i := range keep {
			if phone[i] {
				cells[j] = core.NormalizePhone(row[i])
			} else {
				cells[j] = row[i]
			}
		}
		out.Rows[r] = cells
	}
	return out
}

func writeSheet(f *excelize.File, t *core.Table) error {
	if len(t.Header) == 0 {
		return nil
	}

	headerStyle, err := f.NewStyle(cellStyle(false))
	if err != nil {
		return err
	}
	bodyStyle, err := f.NewStyle(cellStyle(true))
	if err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, columnWidth); err != nil {
		return err
	}
	if err := f.SetColStyle(sheetName, "A:"+lastCol, bodyStyle); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheetName, "A1", &t.Header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &t.Rows[i]); err != nil {
			return err
		}
	}
	if len(t.Rows) > 0 {
		end := fmt.Sprintf("%s%d", lastCol, len(t.Rows)+1)
		if err := f.SetCellStyle(sheetName, "A2", end, bodyStyle); err != nil {
			return err
		}
	}
	return nil
}

// cellStyle is the warehouse print layout. Headers keep full text.
func cellStyle(shrink bool) *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{Family: fontFamily, Size: fontSize},
		Alignment: &excelize.Alignment{
			Horizontal:  "left",
			Vertical:    "center",
			ShrinkToFit: shrink,
		},
		NumFmt: numFmtText,
	}
}

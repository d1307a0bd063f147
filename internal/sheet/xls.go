package sheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/extrame/xls"
)

// readXLS reads the first sheet of a legacy BIFF workbook.
func readXLS(r io.Reader) (tbl *core.Table, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableFile, err)
	}

	// The BIFF parser panics on some corrupt files.
	defer func() {
		if p := recover(); p != nil {
			tbl, err = nil, fmt.Errorf("%w: %v", core.ErrUnreadableFile, p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableFile, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no Workbook stream", core.ErrUnreadableFile)
	}
	if wb.NumSheets() == 0 {
		return nil, core.ErrEmptyFile
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, core.ErrEmptyFile
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := rowAt(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return newTable(rows)
}

// rowAt returns nil for rows the sheet never recorded. WorkSheet.Row
// dereferences the missing entry, so the panic is absorbed here.
func rowAt(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

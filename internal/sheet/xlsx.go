package sheet

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first worksheet with raw cell values, so a phone
// stored as the number 912345678 comes back as "912345678".
func readXLSX(r io.Reader) (*core.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", core.ErrUnreadableFile, sheets[0], err)
	}
	return newTable(rows)
}

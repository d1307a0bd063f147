package sheet

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/shipsort/internal/core"
)

// newTable turns raw rows into a rectangular table. The first row is the
// header. Fully blank rows are dropped. Blank header cells, and columns
// past the end of a short header, are named "Unnamed: N".
func newTable(rows [][]string) (*core.Table, error) {
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, core.ErrEmptyFile
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	header := make([]string, width)
	copy(header, rows[0])
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		data = append(data, padded)
	}

	return &core.Table{Header: header, Rows: data}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package sheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/shipsort/internal/core"
)

// readCSV parses a comma-separated file. Ragged rows are allowed and padded.
func readCSV(r io.Reader) (*core.Table, error) {
	cr := csv.NewReader(newTextReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableFile, err)
	}
	return newTable(rows)
}

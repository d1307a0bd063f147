package core

import (
	"fmt"

	"github.com/samber/lo"
)

// Label classifies every row of t by the value in column addrIdx.
// The returned table shares t's cells and carries CategoryColumn last.
func Label(t *Table, addrIdx int, c *Classifier) (*Table, error) {
	if addrIdx < 0 || addrIdx >= len(t.Header) {
		return nil, fmt.Errorf("address column %d out of range (%d columns)", addrIdx, len(t.Header))
	}

	header := make([]string, 0, len(t.Header)+1)
	header = append(header, t.Header...)
	header = append(header, CategoryColumn)

	rows := lo.Map(t.Rows, func(row []string, _ int) []string {
		labeled := make([]string, 0, len(row)+1)
		labeled = append(labeled, row...)
		return append(labeled, string(c.Classify(row[addrIdx])))
	})

	return &Table{Header: header, Rows: rows}, nil
}

// Partition splits a labeled table by its CategoryColumn.
// Every category gets a table, possibly empty, and rows keep input order.
func Partition(labeled *Table) (map[Category]*Table, error) {
	col := labeled.ColumnIndex(CategoryColumn)
	if col < 0 {
		return nil, fmt.Errorf("table has no %s column", CategoryColumn)
	}

	groups := lo.GroupBy(labeled.Rows, func(row []string) Category {
		return Category(row[col])
	})

	parts := make(map[Category]*Table, len(Categories))
	for _, cat := range Categories {
		parts[cat] = &Table{Header: labeled.Header, Rows: groups[cat]}
	}
	return parts, nil
}

// Summarize counts partition sizes.
func Summarize(parts map[Category]*Table) Summary {
	s := Summary{
		PostOffice:  parts[PostOffice].Len(),
		HasDistrict: parts[HasDistrict].Len(),
		NoDistrict:  parts[NoDistrict].Len(),
	}
	s.Total = s.PostOffice + s.HasDistrict + s.NoDistrict
	return s
}

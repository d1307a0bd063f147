package core

import (
	"time"
)

// Category is the routing label assigned to one record.
type Category string

const (
	PostOffice  Category = "POST_OFFICE"
	HasDistrict Category = "HAS_DISTRICT"
	NoDistrict  Category = "NO_DISTRICT"
)

// Categories lists every category in display order.
var Categories = []Category{PostOffice, HasDistrict, NoDistrict}

// CategoryColumn is the working annotation column appended to labeled tables.
// It never reaches an exported file.
const CategoryColumn = "_category"

// Label returns the operational name shown to warehouse staff.
func (c Category) Label() string {
	switch c {
	case PostOffice:
		return "轉郵局"
	case HasDistrict:
		return "轉新竹_有鄉鎮"
	case NoDistrict:
		return "轉新竹_無鄉鎮"
	default:
		return string(c)
	}
}

// FileName returns the download name for the category's spreadsheet.
func (c Category) FileName() string {
	return c.Label() + "_已修復.xlsx"
}

// Slug returns the URL-safe form of the category.
func (c Category) Slug() string {
	switch c {
	case PostOffice:
		return "post-office"
	case HasDistrict:
		return "has-district"
	case NoDistrict:
		return "no-district"
	default:
		return ""
	}
}

// ParseCategory accepts either the enum value or its slug.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if s == string(c) || s == c.Slug() {
			return c, true
		}
	}
	return "", false
}

// Table is a header row plus data rows, all cells as text.
// Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the first column named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Record returns row i as an ordered column-name/value list.
func (t *Table) Record(i int) []Field {
	row := t.Rows[i]
	fields := make([]Field, len(t.Header))
	for j, h := range t.Header {
		fields[j] = Field{Column: h, Value: row[j]}
	}
	return fields
}

// Field is one cell of a record.
type Field struct {
	Column string
	Value  string
}

// Summary holds per-category row counts for one run.
type Summary struct {
	Total       int `json:"total"`
	PostOffice  int `json:"postOffice"`
	HasDistrict int `json:"hasDistrict"`
	NoDistrict  int `json:"noDistrict"`
}

// Count returns the count for a single category.
func (s Summary) Count(c Category) int {
	switch c {
	case PostOffice:
		return s.PostOffice
	case HasDistrict:
		return s.HasDistrict
	case NoDistrict:
		return s.NoDistrict
	default:
		return 0
	}
}

// Run is the cached result of one classify action.
type Run struct {
	ID            string
	FileName      string
	AddressColumn string
	Labeled       *Table // source table plus CategoryColumn
	Partitions    map[Category]*Table
	Summary       Summary
	CreatedAt     time.Time
}

// Input is a parsed upload waiting to be classified.
type Input struct {
	FileName string
	Table    *Table
	LoadedAt time.Time
}

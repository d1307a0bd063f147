package core

import (
	"fmt"
	"strings"
)

// ColumnMatcher locates a column in a header row.
type ColumnMatcher interface {
	// Match returns the index of the matching column.
	Match(header []string) (int, bool)
	String() string
}

// ExactMatcher matches a header equal to the name after trimming.
type ExactMatcher string

func (m ExactMatcher) Match(header []string) (int, bool) {
	for i, h := range header {
		if strings.TrimSpace(h) == string(m) {
			return i, true
		}
	}
	return -1, false
}

func (m ExactMatcher) String() string { return fmt.Sprintf("exact %q", string(m)) }

// ContainsMatcher matches the first header containing the substring.
type ContainsMatcher string

func (m ContainsMatcher) Match(header []string) (int, bool) {
	for i, h := range header {
		if strings.Contains(h, string(m)) {
			return i, true
		}
	}
	return -1, false
}

func (m ContainsMatcher) String() string { return fmt.Sprintf("contains %q", string(m)) }

// IndexMatcher picks a fixed zero-based column position.
type IndexMatcher int

func (m IndexMatcher) Match(header []string) (int, bool) {
	if int(m) >= 0 && int(m) < len(header) {
		return int(m), true
	}
	return -1, false
}

func (m IndexMatcher) String() string { return fmt.Sprintf("index %d", int(m)) }

// ResolveColumn tries matchers in order; the first hit wins.
// Returns an error wrapping ErrMissingColumn when nothing matches.
func ResolveColumn(header []string, matchers []ColumnMatcher) (int, error) {
	for _, m := range matchers {
		if idx, ok := m.Match(header); ok {
			return idx, nil
		}
	}

	tried := make([]string, len(matchers))
	for i, m := range matchers {
		tried[i] = m.String()
	}
	return -1, fmt.Errorf("%w (tried %s; headers %v)", ErrMissingColumn, strings.Join(tried, ", "), header)
}

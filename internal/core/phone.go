package core

import (
	"strings"

	"github.com/samber/lo"
)

// phoneWidth is the length of a Taiwan mobile number with its leading zero.
const phoneWidth = 10

// IsPhoneColumn reports whether a header names a phone/contact column.
func IsPhoneColumn(header string, markers []string) bool {
	return lo.ContainsBy(markers, func(m string) bool { return strings.Contains(header, m) })
}

// NormalizePhone repairs spreadsheet import damage on a phone value.
//
// A trailing ".0" is removed and whitespace trimmed. A 9-digit value
// starting with 9 is a mobile number that lost its leading zero and is padded
// back to 10 characters. Anything else is returned as trimmed.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, ".0"))

	if len(s) == phoneWidth-1 && s[0] == '9' && isDigits(s) {
		return "0" + s
	}
	return s
}

func isDigits(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

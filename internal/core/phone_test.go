package core

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"912345678", "0912345678"},
		{"912345678.0", "0912345678"},
		{" 912345678 ", "0912345678"},
		{"0912345678", "0912345678"},
		{"0912345678.0", "0912345678"},
		{"812345678", "812345678"},
		{"91234567", "91234567"},
		{"9123-5678", "9123-5678"},
		{"9abcdefgh", "9abcdefgh"},
		{"03-5551234", "03-5551234"},
		{"", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsPhoneColumn(t *testing.T) {
	markers := DefaultRuleSet().PhoneColumnMarkers

	tests := []struct {
		header string
		want   bool
	}{
		{"收件人電話", true},
		{"連絡方式", true},
		{"手機", false},
		{"地址", false},
	}
	for _, tt := range tests {
		if got := IsPhoneColumn(tt.header, markers); got != tt.want {
			t.Errorf("IsPhoneColumn(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

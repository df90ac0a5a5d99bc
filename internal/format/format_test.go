package format

import "testing"

func TestTaxID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12345678901", "123.456.789-01"},
		{"123.456.789-01", "123.456.789-01"},
		{"a1b2c3d4e5f", "a1b2c3d4e5f"},
		{"1234", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TaxID(tt.input); got != tt.want {
			t.Errorf("TaxID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"11987654321", "(11) 98765-4321"},
		{"1133334444", "(11) 3333-4444"},
		{"(555) 123-4567", "(55) 5123-4567"},
		{"555-1234", "555-1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Phone(tt.input); got != tt.want {
			t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1990-01-02T03:04:05.000Z", "02/01/1990"},
		{"2015-06-07T08:09:10Z", "07/06/2015"},
		{"2015-06-07", "07/06/2015"},
		{"", "-"},
		{"yesterday", "yesterday"},
	}
	for _, tt := range tests {
		if got := Date(tt.input); got != tt.want {
			t.Errorf("Date(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package format

import (
	"testing"
	"time"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "1234567", "1.234.567"},
		{"already grouped", "1.234.567", "1.234.567"},
		{"mixed characters", "12a3,4 5đ", "12.345"},
		{"short", "999", "999"},
		{"thousand", "1000", "1.000"},
		{"leading zeros", "0050000", "50.000"},
		{"only zeros", "000", "0"},
		{"empty", "", ""},
		{"no digits", "abc", ""},
		{"wider than int64", "123456789012345678901", "123.456.789.012.345.678.901"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Amount(tt.input); got != tt.want {
				t.Errorf("Amount(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmountRoundTrip(t *testing.T) {
	if got := DigitsOnly(Amount("1234567")); got != "1234567" {
		t.Fatalf("DigitsOnly(Amount(1234567)) = %q", got)
	}
}

func TestDate(t *testing.T) {
	tests := map[string]string{
		"2025-09-14": "14/09/2025",
		"14/09/2025": "14/09/2025",
		"2025-9-14":  "2025-9-14",
		"":           "",
	}
	for in, want := range tests {
		if got := Date(in); got != want {
			t.Errorf("Date(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTime(t *testing.T) {
	tests := map[string]string{
		"08:30":    "08:30:00",
		"08:30:15": "08:30:15",
		"8:30":     "8:30",
		"":         "",
	}
	for in, want := range tests {
		if got := Time(in); got != want {
			t.Errorf("Time(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaults(t *testing.T) {
	now := time.Date(2025, 3, 7, 9, 5, 42, 0, time.Local)
	date, clock := Defaults(now)
	if date != "2025-03-07" || clock != "09:05" {
		t.Fatalf("Defaults() = %q, %q", date, clock)
	}
}

package http

import "testing"

func TestSuggestionLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ăn sáng", "Ăn sáng (an sang)"},
		{"Đá bóng", "Đá bóng (da bong)"},
		{"Snack", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := suggestionLabel(tt.in); got != tt.want {
			t.Errorf("suggestionLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

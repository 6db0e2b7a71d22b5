package taxonomy

import (
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ăn sáng", "an sang"},
		{"Đá bóng", "da bong"},
		{"đường", "duong"},
		{"Tiết kiệm dài hạn", "tiet kiem dai han"},
		{"Coffee Study", "coffee study"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		candidate string
		query     string
		want      bool
	}{
		{"Ăn sáng", "an sang", true},
		{"Ăn sáng", "SÁNG", true},
		{"Ăn sáng", "ăn", true},
		{"Đá bóng", "da b", true},
		{"Ăn sáng", "an trua", false},
		{"Gym", "", true},
	}
	for _, tt := range tests {
		if got := Matches(tt.candidate, tt.query); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.candidate, tt.query, got, tt.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	ix := Build(Default())

	got := ix.Suggest("an", "Needs", "Ăn uống", 0)
	want := []string{"Ăn sáng", "Ăn trưa", "Ăn tối"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Suggest(an, Needs/Ăn uống) = %v, want %v", got, want)
	}

	if got := ix.Suggest("", "Savings", "Dài hạn", 0); len(got) != 4 {
		t.Fatalf("empty query should list the whole subgroup, got %v", got)
	}

	if got := ix.Suggest("bao hiem", "", "", 0); !reflect.DeepEqual(got, []string{"Bảo hiểm y tế", "Bảo hiểm nhân thọ"}) {
		t.Fatalf("Suggest(bao hiem) = %v", got)
	}

	if got := ix.Suggest("", "", "", 5); len(got) != 5 {
		t.Fatalf("limit not applied, got %d items", len(got))
	}

	if got := ix.Suggest("zzz", "", "", 0); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %v", got)
	}
}

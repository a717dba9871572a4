package util

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"intro", "intro", 0},
		{"outro-teaser", "outro teaser", 1},
		{"ad-break", "outro-teaser", 9},
		{"héllo", "hello", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"outro-teaser", "Outro", true},
		{"outro", "outro-teaser", true},
		{"intro", "outro", false},
		{"", "outro", false},
		{"intro", "", false},
		{"Sponsor Message", "sponsor", true},
	}
	for _, tt := range tests {
		if got := ContainsFold(tt.a, tt.b); got != tt.want {
			t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStringInSlice(t *testing.T) {
	if !StringInSlice("b", []string{"a", "b"}) {
		t.Error("expected b to be found")
	}
	if StringInSlice("c", []string{"a", "b"}) {
		t.Error("expected c to be absent")
	}
}

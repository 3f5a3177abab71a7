package model

import "testing"

func TestParseArticleID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"7", 7, false},
		{"42", 42, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"../1", 0, true},
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseArticleID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseArticleID(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseArticleID(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseArticleID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseSequence_RejectsNegative(t *testing.T) {
	if _, err := ParseSequence("-3"); err == nil {
		t.Error("expected error for negative sequence")
	}
	n, err := ParseSequence("3")
	if err != nil || n != 3 {
		t.Errorf("ParseSequence(3) = %d, %v", n, err)
	}
}

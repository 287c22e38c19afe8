package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-3", 0, -3},
		{"abc", 7, 7},
		{"4.2", 9, 9},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.in, tc.def); got != tc.want {
			t.Errorf("AtoiDefault(%q, %d) = %d, want %d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(0, 1, 500); got != 1 {
		t.Errorf("ClampInt(0,1,500) = %d, want 1", got)
	}
	if got := ClampInt(1000, 1, 500); got != 500 {
		t.Errorf("ClampInt(1000,1,500) = %d, want 500", got)
	}
	if got := ClampInt(50, 1, 500); got != 50 {
		t.Errorf("ClampInt(50,1,500) = %d, want 50", got)
	}
}

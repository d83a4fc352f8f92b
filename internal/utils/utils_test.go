package utils

import "testing"

func TestJSONPointerToPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"#", ""},
		{"#/sectors", "sectors"},
		{"#/sectors/0/x1", "sectors[0].x1"},
		{"/sectors/12", "sectors[12]"},
		{"#/a~1b/c~0d", "a/b.c~d"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := JSONPointerToPath(tt.in); got != tt.want {
				t.Errorf("JSONPointerToPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

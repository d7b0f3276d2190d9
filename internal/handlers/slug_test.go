package handlers

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Himalayan Tea", "himalayan-tea"},
		{"  Spiced   Momo Mix  ", "spiced-momo-mix"},
		{"Gundruk (dried)", "gundruk-dried"},
		{"100% Pure Ghee!", "100-pure-ghee"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Fatalf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

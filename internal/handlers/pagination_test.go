package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsInvalid(t *testing.T) {
	tests := []struct {
		page, limit string
	}{
		{"0", "10"},
		{"-1", "10"},
		{"abc", "10"},
		{"1", "0"},
		{"1", "101"},
		{"1", "xyz"},
	}
	for _, tt := range tests {
		if _, _, err := parsePaginationParams(tt.page, tt.limit, 20); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", tt.page, tt.limit)
		}
	}
}

func TestTotalPages(t *testing.T) {
	if got := totalPages(45, 20); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := totalPages(40, 20); got != 2 {
		t.Fatalf("expected 2 pages, got %d", got)
	}
	if got := totalPages(0, 20); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
}

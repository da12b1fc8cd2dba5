package textutil

import "testing"

func TestTabSpaces(t *testing.T) {
	tests := []struct {
		column, tabWidth, want int
	}{
		{0, 4, 4},
		{1, 4, 3},
		{3, 4, 1},
		{4, 4, 4},
		{5, 8, 3},
		{2, 0, 1},
	}
	for _, tt := range tests {
		if got := TabSpaces(tt.column, tt.tabWidth); got != tt.want {
			t.Errorf("TabSpaces(%d, %d) = %d, want %d", tt.column, tt.tabWidth, got, tt.want)
		}
	}
}

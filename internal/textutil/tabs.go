package textutil

const DefaultTabWidth = 4

// TabSpaces returns how many cells a tab drawn at column takes to reach the
// next tab stop.
func TabSpaces(column, tabWidth int) int {
	if tabWidth <= 0 {
		return 1
	}
	return tabWidth - (column % tabWidth)
}

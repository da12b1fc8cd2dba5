package ui

import "github.com/gdamore/tcell/v2"

// ColorTheme defines application colors.
type ColorTheme struct {
	Foreground  tcell.Color
	PromptFg    tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	DirectoryFg tcell.Color
	FileFg      tcell.Color
	MatchFg     tcell.Color
	LineFg      tcell.Color
	FooterBg    tcell.Color
	FooterFg    tcell.Color
	BusyFg      tcell.Color
	WarningFg   tcell.Color
}

// GetColorTheme returns the default color scheme.
func GetColorTheme() ColorTheme {
	return ColorTheme{
		Foreground:  tcell.ColorDefault,
		PromptFg:    tcell.Color33,
		SelectionBg: tcell.Color33,
		SelectionFg: tcell.ColorWhite,
		DirectoryFg: tcell.Color33,
		FileFg:      tcell.ColorDefault,
		MatchFg:     tcell.ColorYellow,
		LineFg:      tcell.Color44,
		FooterBg:    tcell.ColorDefault,
		FooterFg:    tcell.ColorDefault,
		BusyFg:      tcell.ColorYellowGreen,
		WarningFg:   tcell.ColorOrange,
	}
}

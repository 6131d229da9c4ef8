// Package theme centralizes the terminal color scheme so individual
// components never hard-code tcell colors.
package theme

import (
	"github.com/gdamore/tcell/v2"
)

// PanelColors styles a bordered panel (chat view, waypoint table).
type PanelColors struct {
	Background tcell.Color
	Foreground tcell.Color
	Border     tcell.Color
	Title      tcell.Color
	Header     tcell.Color
}

// StatusColors styles the one-line status bar.
type StatusColors struct {
	Background     tcell.Color
	ConnectedFg    tcell.Color
	DisconnectedFg tcell.Color
	BusyFg         tcell.Color
}

// Theme is the full color scheme for the client.
type Theme struct {
	Panel  PanelColors
	Status StatusColors

	SystemMessageFg tcell.Color
	InputLabelFg    tcell.Color
}

// current is the active theme. There is one scheme today; keeping it behind
// an accessor means components never bake colors in.
var current = Theme{
	Panel: PanelColors{
		Background: tcell.ColorBlack,
		Foreground: tcell.ColorWhite,
		Border:     tcell.ColorGray,
		Title:      tcell.ColorWhite,
		Header:     tcell.ColorAqua,
	},
	Status: StatusColors{
		Background:     tcell.ColorBlack,
		ConnectedFg:    tcell.ColorGreen,
		DisconnectedFg: tcell.ColorRed,
		BusyFg:         tcell.ColorYellow,
	},
	SystemMessageFg: tcell.ColorYellow,
	InputLabelFg:    tcell.ColorAqua,
}

// Current returns the active theme.
func Current() Theme {
	return current
}

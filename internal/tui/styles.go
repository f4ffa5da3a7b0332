package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox palette.
var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
	colorFg     = lipgloss.Color("#ebdbb2")
	colorHeader = lipgloss.Color("#fe8019")
)

var (
	styleHeader   = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleCell     = lipgloss.NewStyle().Foreground(colorFg)
	styleCursor   = lipgloss.NewStyle().Foreground(colorFg).Reverse(true)
	styleGroup    = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleFooter   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleCellErr  = lipgloss.NewStyle().Foreground(colorRed)
	stylePending  = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)
	styleStatus   = lipgloss.NewStyle().Foreground(colorDim)
	styleEditing  = lipgloss.NewStyle().Foreground(colorHeader)
	styleMenuItem = lipgloss.NewStyle().Foreground(colorFg).PaddingLeft(2)
	styleMenuSel  = lipgloss.NewStyle().Foreground(colorHeader).Bold(true).PaddingLeft(1)
)

// oikosHuhTheme styles huh forms with the same palette.
func oikosHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(colorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(colorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(colorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(colorFg).Background(colorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(colorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(colorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(colorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(colorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(colorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(colorDim)

	return t
}

package tui

import (
	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/lipgloss/v2"
)

var (
	RGBBlue       = lipgloss.Color("45")
	RGBPink       = lipgloss.Color("201")
	RGBRed        = lipgloss.Color("196")
	RGBYellow     = lipgloss.Color("220")
	RGBGreen      = lipgloss.Color("46")
	RGBGrey       = lipgloss.Color("246")
	RGBSubtlePink = lipgloss.Color("#2a1a2a")
)

// General styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(RGBPink)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(RGBGrey)

	NavActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(RGBPink).
			Background(RGBSubtlePink).
			Padding(0, 1)

	NavItemStyle = lipgloss.NewStyle().
			Foreground(RGBGrey).
			Padding(0, 1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(RGBYellow).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(RGBRed).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(RGBGrey)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(RGBPink)

	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(RGBBlue)

	FilterLabelStyle = lipgloss.NewStyle().
				Foreground(RGBGrey)

	FilterActiveStyle = lipgloss.NewStyle().
				Foreground(RGBPink)

	BorderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(RGBBlue)
)

// ApplyTableStyles applies the shared table theme.
func ApplyTableStyles(t table.Model) table.Model {
	s := table.DefaultStyles()

	s.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(RGBPink).
		BorderBottom(true).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		Foreground(RGBPink).
		Bold(true).
		Padding(0, 1)

	s.Selected = lipgloss.NewStyle().
		Bold(true).
		Foreground(RGBPink).
		Background(RGBSubtlePink).
		Padding(0, 0)

	s.Cell = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(RGBPink).
		BorderRight(false).
		Padding(0, 1)

	t.SetStyles(s)
	return t
}

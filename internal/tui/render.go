package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/klondike/internal/board"
)

// cellWidth is the display width of one card cell without its separator.
const cellWidth = 4

var (
	redStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	blackStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	backStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A6EA5"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	bannerStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).BorderForeground(lipgloss.Color("#C89A3A"))
)

type cellState int

const (
	cellPlain cellState = iota
	cellCursor
	cellSelected
)

type styledCell struct {
	text  string
	style lipgloss.Style
}

func cardCell(c *board.Card) styledCell {
	if c == nil {
		return styledCell{text: "", style: emptyStyle}
	}
	if !c.FaceUp {
		return styledCell{text: "##", style: backStyle}
	}
	if c.Color() == board.Red {
		return styledCell{text: c.String(), style: redStyle}
	}
	return styledCell{text: c.String(), style: blackStyle}
}

func slotCell(label string) styledCell {
	return styledCell{text: label, style: emptyStyle}
}

// render pads the cell to cellWidth display columns before styling, so wide
// suit glyphs keep the grid aligned.
func (c styledCell) render(state cellState) string {
	text := padCell(c.text, cellWidth)
	switch state {
	case cellCursor:
		return cursorStyle.Inherit(c.style).Render(text)
	case cellSelected:
		return selectedStyle.Render(text)
	default:
		return c.style.Render(text)
	}
}

func padCell(value string, width int) string {
	w := runewidth.StringWidth(value)
	if w >= width {
		return runewidth.Truncate(value, width, "")
	}
	return value + strings.Repeat(" ", width-w)
}

func joinCells(cells []string) string {
	return strings.Join(cells, " ")
}

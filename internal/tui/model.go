// Package tui provides the Bubble Tea solitaire interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/verte-zerg/klondike/internal/achievements"
	"github.com/verte-zerg/klondike/internal/board"
	"github.com/verte-zerg/klondike/internal/game"
	"github.com/verte-zerg/klondike/internal/model"
	"github.com/verte-zerg/klondike/internal/stats"
)

// Top row slots share columns with the tableau: stock, waste, a gap, then
// the four foundations.
const (
	slotStock = iota
	slotWaste
	slotFoundation0
	topSlots = slotFoundation0 + board.FoundationCount
)

var (
	topToColumn = [topSlots]int{0, 1, 3, 4, 5, 6}
	columnToTop = [board.TableauCount]int{0, 1, 1, 2, 3, 4, 5}
)

type tickMsg time.Time

type cursor struct {
	top  bool
	slot int // top row slot when top is set, tableau column otherwise
	pos  int // position inside the tableau column
}

func (c cursor) location() board.Location {
	if !c.top {
		return board.Location{Kind: board.Tableau, Index: c.slot, Pos: c.pos}
	}
	switch c.slot {
	case slotStock:
		return board.Pile(board.Stock, 0)
	case slotWaste:
		return board.Pile(board.Waste, 0)
	default:
		return board.Pile(board.Foundation, c.slot-slotFoundation0)
	}
}

type winBanner struct {
	summary  model.Summary
	unlocked []string
}

// Model implements the Bubble Tea game UI.
type Model struct {
	ctx    context.Context
	game   *game.Game
	logger *zap.Logger
	keys   keyMap
	help   help.Model

	width  int
	height int

	cur      cursor
	status   string
	unseen   bool
	nextMode model.DrawMode
	banner   *winBanner
}

// NewModel builds the UI for a game that has already been dealt or resumed.
// unlocked are the achievements earned while opening the game.
func NewModel(ctx context.Context, g *game.Game, logger *zap.Logger, unlocked []int) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Model{
		ctx:      ctx,
		game:     g,
		logger:   logger,
		keys:     defaultKeyMap(),
		help:     help.New(),
		cur:      cursor{slot: 0},
		nextMode: g.DrawMode(),
	}
	m.clampCursor()
	m.announce(unlocked)
	m.unseen = g.HasUnseen(ctx)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.FocusMsg:
		m.game.Resume()
		return m, nil
	case tea.BlurMsg:
		m.game.Pause()
		return m, nil
	case tea.ResumeMsg:
		m.game.Resume()
		return m, nil
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.game.Pause()
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Suspend) {
		m.game.Pause()
		return m, tea.Suspend
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.banner != nil {
		if key.Matches(msg, m.keys.Restart, m.keys.Select) {
			m.restart()
		}
		return m, nil
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Left):
		m.moveHorizontal(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveHorizontal(1)
	case key.Matches(msg, m.keys.Up):
		m.moveUp()
	case key.Matches(msg, m.keys.Down):
		m.moveDown()
	case key.Matches(msg, m.keys.Select):
		m.selectAtCursor()
	case key.Matches(msg, m.keys.Cancel):
		m.game.EndDrag(m.ctx, nil)
	case key.Matches(msg, m.keys.Draw):
		m.apply(m.game.Draw(m.ctx), "")
	case key.Matches(msg, m.keys.Foundation):
		m.sendToFoundation()
	case key.Matches(msg, m.keys.Undo):
		m.apply(m.game.Undo(m.ctx), "Nothing to undo")
	case key.Matches(msg, m.keys.Restart):
		m.restart()
	case key.Matches(msg, m.keys.DrawMode):
		m.toggleDrawMode()
	case key.Matches(msg, m.keys.GiveUp):
		if _, err := m.game.ExitToMenu(m.ctx); err != nil {
			m.logger.Error("give up failed", zap.Error(err))
		}
		return m, tea.Quit
	}
	m.clampCursor()
	return m, nil
}

func (m *Model) selectAtCursor() {
	loc := m.cur.location()
	if from, dragging := m.dragSource(); dragging {
		if from.SamePile(loc) {
			m.game.EndDrag(m.ctx, nil)
			return
		}
		m.apply(m.game.EndDrag(m.ctx, &loc), "Cannot place there")
		return
	}
	if loc.Kind == board.Stock {
		m.apply(m.game.Draw(m.ctx), "")
		return
	}
	if _, ok := m.game.BeginDrag(loc); !ok {
		m.status = "Nothing to pick up"
	}
}

func (m *Model) dragSource() (board.Location, bool) {
	ids, ok := m.game.Dragging()
	if !ok {
		return board.Location{}, false
	}
	return m.game.Board().Locate(ids[0])
}

func (m *Model) sendToFoundation() {
	loc := m.cur.location()
	id, ok := m.game.Board().TopOf(loc.Kind, loc.Index)
	if !ok {
		m.status = "Nothing to send"
		return
	}
	m.apply(m.game.SendToFoundation(m.ctx, id), "No foundation accepts that card")
}

func (m *Model) apply(out game.Outcome, rejected string) {
	if !out.Changed {
		if rejected != "" {
			m.status = rejected
		}
		return
	}
	if out.Won {
		m.banner = &winBanner{summary: out.Summary, unlocked: titles(out.Unlocked)}
	} else {
		m.announce(out.Unlocked)
	}
	if len(out.Unlocked) > 0 {
		m.unseen = true
	}
}

func (m *Model) restart() {
	unlocked, err := m.game.Restart(m.ctx)
	if err != nil {
		m.logger.Error("new deal failed", zap.Error(err))
		m.status = "Could not record the game; see log"
	}
	m.banner = nil
	m.nextMode = m.game.DrawMode()
	m.cur = cursor{}
	m.clampCursor()
	m.announce(unlocked)
}

func (m *Model) toggleDrawMode() {
	next := model.DrawThree
	if m.nextMode.IsThree() {
		next = model.DrawOne
	}
	if err := m.game.SetDrawMode(m.ctx, next); err != nil {
		m.logger.Error("save draw mode failed", zap.Error(err))
		m.status = "Could not save the draw mode"
		return
	}
	m.nextMode = next
	m.status = fmt.Sprintf("Next deal draws %d", int(next))
}

func (m *Model) announce(unlocked []int) {
	if len(unlocked) == 0 {
		return
	}
	m.unseen = true
	m.status = "Unlocked: " + strings.Join(titles(unlocked), ", ")
}

func titles(ids []int) []string {
	return lo.FilterMap(ids, func(id int, _ int) (string, bool) {
		a, ok := achievements.Lookup(id)
		return a.Title, ok
	})
}

func (m *Model) moveHorizontal(delta int) {
	if m.cur.top {
		m.cur.slot = (m.cur.slot + delta + topSlots) % topSlots
		return
	}
	m.cur.slot = (m.cur.slot + delta + board.TableauCount) % board.TableauCount
	m.cur.pos = len(m.column(m.cur.slot)) - 1
}

func (m *Model) moveUp() {
	if m.cur.top {
		return
	}
	col := m.column(m.cur.slot)
	if m.cur.pos > 0 && m.game.Board().Card(col[m.cur.pos-1]).FaceUp {
		m.cur.pos--
		return
	}
	m.cur = cursor{top: true, slot: columnToTop[m.cur.slot]}
}

func (m *Model) moveDown() {
	if m.cur.top {
		col := topToColumn[m.cur.slot]
		m.cur = cursor{slot: col, pos: len(m.column(col)) - 1}
		return
	}
	if m.cur.pos+1 < len(m.column(m.cur.slot)) {
		m.cur.pos++
	}
}

func (m *Model) column(i int) []int {
	b := m.game.Board()
	if b == nil {
		return nil
	}
	return b.Tableau[i]
}

func (m *Model) clampCursor() {
	if m.cur.top {
		return
	}
	n := len(m.column(m.cur.slot))
	m.cur.pos = max(0, min(m.cur.pos, n-1))
	if n > 0 && !m.game.Board().Card(m.column(m.cur.slot)[m.cur.pos]).FaceUp {
		m.cur.pos = n - 1
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	b := m.game.Board()
	if b == nil {
		return ""
	}
	parts := []string{m.renderTop(b), "", m.renderTableau(b), ""}
	if m.banner != nil {
		parts = append(parts, m.renderBanner())
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m.keys))
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderTop(b *board.Board) string {
	cells := make([]string, board.TableauCount)
	for col := range cells {
		cells[col] = strings.Repeat(" ", cellWidth)
	}
	for slot := 0; slot < topSlots; slot++ {
		c := cursor{top: true, slot: slot}
		loc := c.location()
		var cell styledCell
		switch loc.Kind {
		case board.Stock:
			cell = stockCell(b)
		case board.Waste:
			cell = m.pileTop(b, loc, "")
		default:
			cell = m.pileTop(b, loc, "··")
		}
		cells[topToColumn[slot]] = cell.render(m.stateFor(loc, b.Pile(loc.Kind, loc.Index), len(b.Pile(loc.Kind, loc.Index))-1))
	}
	return joinCells(cells)
}

func stockCell(b *board.Board) styledCell {
	switch {
	case len(b.Stock) > 0:
		return styledCell{text: "##", style: backStyle}
	case len(b.Waste) > 0:
		return slotCell("↺")
	default:
		return slotCell("")
	}
}

func (m *Model) pileTop(b *board.Board, loc board.Location, empty string) styledCell {
	if c := b.TopCard(loc.Kind, loc.Index); c != nil {
		return cardCell(c)
	}
	return slotCell(empty)
}

func (m *Model) renderTableau(b *board.Board) string {
	rows := 1
	for _, col := range b.Tableau {
		rows = max(rows, len(col))
	}
	lines := make([]string, rows)
	for r := 0; r < rows; r++ {
		cells := make([]string, board.TableauCount)
		for i, col := range b.Tableau {
			loc := board.Location{Kind: board.Tableau, Index: i, Pos: r}
			switch {
			case r < len(col):
				cells[i] = cardCell(b.Card(col[r])).render(m.stateFor(loc, col, r))
			case r == 0:
				cells[i] = slotCell("··").render(m.stateFor(loc, col, r))
			default:
				cells[i] = strings.Repeat(" ", cellWidth)
			}
		}
		lines[r] = strings.TrimRight(joinCells(cells), " ")
	}
	return strings.Join(lines, "\n")
}

// stateFor decides how the cell at index pos of pile is highlighted.
func (m *Model) stateFor(loc board.Location, pile []int, pos int) cellState {
	if ids, ok := m.game.Dragging(); ok && pos >= 0 && pos < len(pile) && lo.Contains(ids, pile[pos]) {
		return cellSelected
	}
	cur := m.cur.location()
	if !cur.SamePile(loc) {
		return cellPlain
	}
	if loc.Kind != board.Tableau {
		return cellCursor
	}
	if cur.Pos == pos || (len(pile) == 0 && pos == 0) {
		return cellCursor
	}
	return cellPlain
}

func (m *Model) renderBanner() string {
	s := m.banner.summary
	lines := []string{
		fmt.Sprintf("You won in %s with %d moves", stats.FormatDuration(s.DurationSec), s.Moves),
	}
	if s.Undos > 0 {
		lines = append(lines, fmt.Sprintf("Undos used: %d", s.Undos))
	}
	if len(m.banner.unlocked) > 0 {
		lines = append(lines, "Unlocked: "+strings.Join(m.banner.unlocked, ", "))
	}
	lines = append(lines, "Press r for a new deal, q to quit")
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	sum, ok := m.game.Payload()
	if !ok {
		return ""
	}
	segments := []string{
		"Time " + stats.FormatDuration(sum.DurationSec),
		fmt.Sprintf("Moves %d", sum.Moves),
		fmt.Sprintf("Undos %d", sum.Undos),
		fmt.Sprintf("Draw %d", int(sum.DrawMode)),
	}
	if b := m.game.Board(); b != nil {
		segments = append(segments, fmt.Sprintf("Stock %d", len(b.Stock)))
	}
	if m.unseen {
		segments = append(segments, "New achievements")
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}

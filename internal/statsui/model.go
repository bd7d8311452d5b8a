// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/verte-zerg/klondike/internal/achievements"
	"github.com/verte-zerg/klondike/internal/model"
	"github.com/verte-zerg/klondike/internal/stats"
	"github.com/verte-zerg/klondike/internal/store"
)

const (
	tabOverview = iota
	tabAchievements
	tabGames
)

const endedLayout = "2006-01-02 15:04"

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	gw   *store.Gateway
	last int

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	tables    map[int]*table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model for the gateway's profile. Opening the
// view marks every unlock as seen.
func NewModel(ctx context.Context, gw *store.Gateway, last int) *Model {
	m := &Model{
		gw:       gw,
		last:     last,
		tabs:     []string{"Overview", "Achievements", "Games"},
		overview: viewport.New(0, 0),
	}
	m.refreshReport(ctx)
	if m.errMsg == "" {
		if err := gw.SetUnseen(ctx, false); err != nil {
			m.errMsg = err.Error()
		}
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t, ok := m.tables[m.activeTab]; ok {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			m.overview, cmd = m.overview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.overview.SetContent(renderOverview(m.report, m.width))
	for _, t := range m.tables {
		t.SetWidth(m.width)
		t.SetHeight(max(1, bodyHeight-1))
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	for tab, t := range m.tables {
		if tab == m.activeTab {
			t.Focus()
		} else {
			t.Blur()
		}
	}
}

func (m *Model) refreshReport(ctx context.Context) {
	report, err := stats.BuildReport(ctx, m.gw, m.last)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = report
	achievementTable := buildTable(achievementColumns(), achievementRows(report.Unlocked))
	gamesTable := buildTable(gameColumns(), gameRows(report.Recent))
	m.tables = map[int]*table.Model{
		tabAchievements: &achievementTable,
		tabGames:        &gamesTable,
	}
	m.overview.SetContent(renderOverview(report, max(m.width, 80)))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Profile: %s  achievements %d/%d", m.report.Profile, len(m.report.Unlocked), m.report.Total)
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Top/bottom: g/G  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if t, ok := m.tables[m.activeTab]; ok {
		if m.activeTab == tabGames && len(m.report.Recent) == 0 {
			return "No games recorded."
		}
		return tableMutedStyle.Render(t.View())
	}
	return m.overview.View()
}

func renderOverview(r stats.Report, width int) string {
	s := r.Stats
	rate := "-"
	if v, ok := stats.WinRate(s.Totals); ok {
		rate = fmt.Sprintf("%.1f%%", v)
	}
	best := "-"
	if s.Records.BestWinSec != nil {
		best = stats.FormatDuration(*s.Records.BestWinSec)
	}
	cards := []string{
		metricCard("Games", strconv.Itoa(s.Totals.GamesStarted)),
		metricCard("Wins", strconv.Itoa(s.Totals.Wins)),
		metricCard("Win rate", rate),
		metricCard("Best time", best),
		metricCard("Win streak", strconv.Itoa(s.Streaks.Win)),
		metricCard("Play streak", fmt.Sprintf("%d days", s.Play.Streak)),
	}
	var grid string
	if width < 3*lipgloss.Width(cards[0])+6 {
		grid = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		grid = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	if wins := stats.WinDurations(r.Recent); len(wins) > 1 {
		grid += "\n\nWin times (oldest first): " + stats.Sparkline(wins)
	}
	return grid
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func achievementColumns() []table.Column {
	return []table.Column{
		{Title: "", Width: 2},
		{Title: "Achievement", Width: 24},
		{Title: "How", Width: 52},
	}
}

// achievementRows lists the whole catalog, unlocked entries first.
func achievementRows(unlocked []achievements.Achievement) []table.Row {
	have := lo.SliceToMap(unlocked, func(a achievements.Achievement) (int, struct{}) {
		return a.ID, struct{}{}
	})
	rows := make([]table.Row, 0, len(achievements.Catalog))
	for _, a := range unlocked {
		rows = append(rows, table.Row{"✓", a.Title, a.Description})
	}
	for _, a := range achievements.Catalog {
		if _, ok := have[a.ID]; !ok {
			rows = append(rows, table.Row{"", a.Title, a.Description})
		}
	}
	return rows
}

func gameColumns() []table.Column {
	return []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Result", Width: 18},
		{Title: "Time", Width: 8},
		{Title: "Moves", Width: 6},
		{Title: "Undos", Width: 6},
		{Title: "Draw", Width: 4},
	}
}

func gameRows(games []model.GameRecord) []table.Row {
	return lo.Map(games, func(g model.GameRecord, _ int) table.Row {
		result := string(g.Summary.EndState)
		if g.Summary.AbandonReason != "" {
			result += " (" + g.Summary.AbandonReason + ")"
		}
		return table.Row{
			g.EndedAt.Local().Format(endedLayout),
			result,
			stats.FormatDuration(g.Summary.DurationSec),
			strconv.Itoa(g.Summary.Moves),
			strconv.Itoa(g.Summary.Undos),
			strconv.Itoa(int(g.Summary.DrawMode)),
		}
	})
}

func buildTable(cols []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

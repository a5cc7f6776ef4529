// Package dashboard renders a terminal overview of the universe: planets,
// fleets, and the recent tick journal, refreshed from the store.
package dashboard

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"galaxysim/internal/store"
	"galaxysim/internal/universe"
)

const (
	refreshInterval = 2 * time.Second
	journalLines    = 50
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusedStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("12"))
	blurredStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("8"))
)

type refreshMsg struct {
	planets []*universe.Planet
	fleets  []*universe.Fleet
	journal []universe.JournalRow
	tick    int64
	err     error
}

type tickMsg time.Time

// Model is the bubbletea model behind the dashboard command.
type Model struct {
	db *store.DB

	planets  table.Model
	fleets   table.Model
	journal  viewport.Model
	focus    int // 0 planets, 1 fleets, 2 journal
	width    int
	height   int
	tick     int64
	lastErr  error
	rowCount int
}

// New builds the dashboard model over an open store.
func New(db *store.DB) Model {
	width, height := 100, 30
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	planetCols := []table.Column{
		{Title: "Coord", Width: 14},
		{Title: "Name", Width: 20},
		{Title: "Owner", Width: 10},
		{Title: "Metal", Width: 12},
		{Title: "Crystal", Width: 12},
		{Title: "Deut", Width: 12},
		{Title: "Diff", Width: 4},
	}
	fleetCols := []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Owner", Width: 10},
		{Title: "Mission", Width: 10},
		{Title: "Status", Width: 22},
		{Title: "Ships", Width: 6},
		{Title: "ETA", Width: 10},
		{Title: "W/L", Width: 7},
	}
	pt := table.New(table.WithColumns(planetCols), table.WithFocused(true))
	ft := table.New(table.WithColumns(fleetCols))
	vp := viewport.New(width, 10)

	return Model{
		db:      db,
		planets: pt,
		fleets:  ft,
		journal: vp,
		width:   width,
		height:  height,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh, scheduleTick())
}

func scheduleTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refresh pulls the current universe snapshot from the store.
func (m Model) refresh() tea.Msg {
	msg := refreshMsg{}
	msg.planets, msg.err = m.db.AllPlanets()
	if msg.err != nil {
		return msg
	}
	msg.fleets, msg.err = m.db.AllFleets()
	if msg.err != nil {
		return msg
	}
	msg.journal, msg.err = m.db.RecentJournal(journalLines)
	if msg.err != nil {
		return msg
	}
	msg.tick, msg.err = m.db.LastTick()
	return msg
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.journal.Width = msg.Width - 2
		m.resize()
	case tickMsg:
		return m, tea.Batch(m.refresh, scheduleTick())
	case refreshMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.tick = msg.tick
		m.rowCount = len(msg.journal)
		m.planets.SetRows(planetRows(msg.planets))
		m.fleets.SetRows(fleetRows(msg.fleets))
		m.journal.SetContent(journalContent(msg.journal, m.journal.Width))
		m.journal.GotoBottom()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.focus = (m.focus + 1) % 3
			m.planets.Blur()
			m.fleets.Blur()
			switch m.focus {
			case 0:
				m.planets.Focus()
			case 1:
				m.fleets.Focus()
			}
		case "r":
			return m, m.refresh
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case 0:
		m.planets, cmd = m.planets.Update(msg)
	case 1:
		m.fleets, cmd = m.fleets.Update(msg)
	case 2:
		m.journal, cmd = m.journal.Update(msg)
	}
	return m, cmd
}

// resize splits the vertical space between the two tables and the
// journal viewport.
func (m *Model) resize() {
	section := (m.height - 8) / 3
	if section < 3 {
		section = 3
	}
	m.planets.SetHeight(section)
	m.fleets.SetHeight(section)
	m.journal.Height = section
}

func (m Model) View() string {
	header := titleStyle.Render(fmt.Sprintf("galaxysim — tick %d", m.tick))
	if m.lastErr != nil {
		header += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.lastErr.Error())
	}

	sections := []string{
		header,
		m.renderSection("Planets", m.planets.View(), m.focus == 0),
		m.renderSection("Fleets", m.fleets.View(), m.focus == 1),
		m.renderSection("Journal", m.journal.View(), m.focus == 2),
		statusStyle.Render("tab: switch section · r: refresh · q: quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSection(title, body string, focused bool) string {
	style := blurredStyle
	if focused {
		style = focusedStyle
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), style.Render(body))
}

func planetRows(planets []*universe.Planet) []table.Row {
	rows := make([]table.Row, 0, len(planets))
	for _, p := range planets {
		owner := p.Owner
		if owner == "" {
			owner = "-"
		}
		rows = append(rows, table.Row{
			p.Coord.String(),
			p.Name,
			owner,
			humanize.Comma(p.Resources.Metal),
			humanize.Comma(p.Resources.Crystal),
			humanize.Comma(p.Resources.Deuterium),
			strconv.Itoa(p.ColonizationDifficulty),
		})
	}
	return rows
}

func fleetRows(fleets []*universe.Fleet) []table.Row {
	rows := make([]table.Row, 0, len(fleets))
	for _, f := range fleets {
		eta := "-"
		if f.ArrivalTime != nil {
			eta = humanize.Time(*f.ArrivalTime)
		}
		rows = append(rows, table.Row{
			f.Name,
			f.Owner,
			string(f.Mission),
			f.Status.String(),
			strconv.Itoa(f.Ships.Total()),
			eta,
			fmt.Sprintf("%d/%d", f.Victories, f.Defeats),
		})
	}
	return rows
}

func journalContent(rows []universe.JournalRow, width int) string {
	if width <= 0 {
		width = 80
	}
	content := ""
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		line := fmt.Sprintf("[%s] tick=%d %s", r.Timestamp.Format("15:04:05"), r.Tick, r.Kind)
		if r.Owner != "" {
			line += " owner=" + r.Owner
		}
		if r.Metal != 0 || r.Crystal != 0 || r.Deuterium != 0 {
			line += fmt.Sprintf(" m=%d c=%d d=%d", r.Metal, r.Crystal, r.Deuterium)
		}
		if r.Details != "" {
			line += " " + r.Details
		}
		content += wordwrap.String(line, width) + "\n"
	}
	return content
}

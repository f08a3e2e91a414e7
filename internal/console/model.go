package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/webtail/internal/prefs"
	"github.com/five82/webtail/internal/state"
)

const (
	refreshInterval = time.Second
	defaultMaxLines = 500
)

type tickMsg time.Time

type entryMsg Entry

type prefsSavedMsg struct{ err error }

// Model is the bubbletea model for the operator console.
type Model struct {
	store *state.Store
	feed  *Feed

	theme    Theme
	snapshot state.Snapshot

	lines    []string
	entries  []Entry
	maxLines int
	follow   bool

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	// prefsPath empty disables persisting theme and follow choices.
	prefsFS   afero.Fs
	prefsPath string
}

// NewModel builds a console model reading from store and feed.
func NewModel(store *state.Store, feed *Feed, themeName string) Model {
	m := Model{
		store:    store,
		feed:     feed,
		theme:    GetTheme(themeName),
		maxLines: defaultMaxLines,
		follow:   true,
	}
	if store != nil {
		m.snapshot = store.Snapshot()
	}
	return m
}

// WithPrefs applies saved preferences and persists later changes to path.
func (m Model) WithPrefs(fs afero.Fs, path string) Model {
	p := prefs.Load(fs, path)
	if p.Theme != "" {
		m.theme = GetTheme(p.Theme)
	}
	m.follow = !p.PauseFollow
	m.prefsFS = fs
	m.prefsPath = path
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForEntry())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForEntry() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	ch := m.feed.Entries()
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return entryMsg(e)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "t":
			m.theme = GetTheme(NextTheme(m.theme.Name))
			m.rerender()
			return m, m.savePrefs()
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
			return m, m.savePrefs()
		case "c":
			m.entries = nil
			m.lines = nil
			m.refreshViewport()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tickMsg:
		if m.store != nil {
			m.snapshot = m.store.Snapshot()
		}
		return m, tick()

	case entryMsg:
		m.appendEntry(Entry(msg))
		return m, m.waitForEntry()

	case prefsSavedMsg:
		if msg.err != nil {
			m.appendEntry(Entry{
				Time:    time.Now(),
				Level:   logrus.WarnLevel,
				Message: "save preferences failed",
				Fields:  "error=" + msg.err.Error(),
			})
		}
		return m, nil
	}
	return m, nil
}

func (m Model) savePrefs() tea.Cmd {
	if m.prefsPath == "" || m.prefsFS == nil {
		return nil
	}
	fs, path := m.prefsFS, m.prefsPath
	p := prefs.Prefs{Theme: m.theme.Name, PauseFollow: !m.follow}
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(fs, path, p)}
	}
}

func (m *Model) resize() {
	bodyHeight := m.height - 2 // header + command bar
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, bodyHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = bodyHeight
	}
	m.rerender()
}

func (m *Model) appendEntry(e Entry) {
	m.entries = append(m.entries, e)
	m.lines = append(m.lines, m.formatEntry(e))
	if over := len(m.entries) - m.maxLines; over > 0 {
		m.entries = m.entries[over:]
		m.lines = m.lines[over:]
	}
	m.refreshViewport()
}

// rerender restyles every buffered entry, after a theme or width change.
func (m *Model) rerender() {
	m.lines = m.lines[:0]
	for _, e := range m.entries {
		m.lines = append(m.lines, m.formatEntry(e))
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) formatEntry(e Entry) string {
	styles := m.theme.Styles()
	level := strings.ToUpper(e.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	line := styles.FaintText.Render(e.Time.Format("15:04:05")) + " " +
		styles.LevelStyle(e.Level).Render(level) + " " +
		styles.Text.Render(e.Message)
	if e.Fields != "" {
		line += " " + styles.MutedText.Render(e.Fields)
	}
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return line
}

func (m Model) View() string {
	if !m.ready {
		return "starting webtail console..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderCommandBar(),
	)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	on := func(s lipgloss.Style, text string) string {
		return s.Background(lipgloss.Color(m.theme.Surface)).Render(text)
	}

	parts := []string{styles.Logo.Render("webtail")}
	if snap.Degraded {
		parts = append(parts, on(styles.DangerText, "● DEGRADED"))
	} else {
		parts = append(parts, on(styles.SuccessText, "● LIVE"))
	}
	parts = append(parts,
		on(styles.MutedText, "File:")+" "+on(styles.Text, truncateMiddle(snap.Path, 40)),
		on(styles.MutedText, "Addr:")+" "+on(styles.Text, snap.Addr),
		on(styles.MutedText, "Viewers:")+" "+on(styles.AccentText, fmt.Sprintf("%d", snap.Viewers)),
		on(styles.MutedText, "Chunks:")+" "+on(styles.Text, fmt.Sprintf("%d", snap.Chunks)),
		on(styles.MutedText, "Sent:")+" "+on(styles.Text, formatBytes(snap.Bytes)),
	)
	if snap.Truncations > 0 {
		parts = append(parts, on(styles.WarningText, fmt.Sprintf("Truncated ×%d", snap.Truncations)))
	}
	if snap.Degraded && snap.LastError != nil {
		parts = append(parts, on(styles.DangerText, snap.LastError.Error()))
	}

	content := strings.Join(parts, "  ")
	if m.width > 2 {
		content = ansi.Truncate(content, m.width-2, "…")
	}
	return styles.Header.Width(m.width).Render(content)
}

func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	follow := "off"
	if m.follow {
		follow = "on"
	}
	segments := []string{
		"q quit",
		"t theme:" + m.theme.Name,
		"f follow:" + follow,
		"c clear",
		"↑/↓ scroll",
	}
	if m.feed != nil {
		if dropped := m.feed.Dropped(); dropped > 0 {
			segments = append(segments, fmt.Sprintf("dropped:%d", dropped))
		}
	}
	content := strings.Join(segments, "  ")
	if m.width > 2 {
		content = ansi.Truncate(content, m.width-2, "…")
	}
	return styles.Footer.Width(m.width).Render(content)
}

// truncateMiddle keeps the end of s, which holds the file name.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= max {
		return s
	}
	if max <= 5 {
		return ansi.Truncate(s, max, "")
	}
	endLen := (max - 1) * 2 / 3
	startLen := max - 1 - endLen
	w := ansi.StringWidth(s)
	return ansi.Truncate(s, startLen, "") + "…" + ansi.Cut(s, w-endLen, w)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

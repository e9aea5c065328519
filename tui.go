package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slmtnm/s4view/internal/browser"
)

// ViewMode represents the current view mode
type ViewMode int

const (
	ViewBrowser ViewMode = iota
	ViewHelp
)

// Model represents the application state
type Model struct {
	ctx      context.Context
	viewer   *browser.Viewer
	location *browser.MemoryHash
	title    string
	state    browser.State
	cursor   int
	viewMode ViewMode
	spinner  spinner.Model
	links    map[*browser.Entry]string
	linkErr  error
	width    int
	height   int
}

// Messages for async operations
type viewerChangedMsg struct{}

type linkResolvedMsg struct {
	entry *browser.Entry
	link  string
	err   error
}

// Styles - Minimalistic theme
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0066cc"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1)

	directoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0066cc")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbbbbb"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#006600"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cc0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	browserStyle = lipgloss.NewStyle().
			BorderForeground(lipgloss.Color("#999999")).
			Padding(1, 2).
			Align(lipgloss.Center)

	centerStyle = lipgloss.NewStyle().
			Align(lipgloss.Center)

	verticalCenterStyle = lipgloss.NewStyle().
				AlignVertical(lipgloss.Center)
)

// NewModel creates a new TUI model bound to a started viewer. Navigation is
// written to location, which the viewer follows.
func NewModel(ctx context.Context, viewer *browser.Viewer, location *browser.MemoryHash, title string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		viewer:   viewer,
		location: location,
		title:    title,
		state:    viewer.Snapshot(),
		viewMode: ViewBrowser,
		spinner:  s,
		links:    make(map[*browser.Entry]string),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange())
}

// waitForChange delivers the next viewer state change to the program.
func (m Model) waitForChange() tea.Cmd {
	changed := m.viewer.Changed()
	done := m.ctx.Done()
	return func() tea.Msg {
		select {
		case <-changed:
			return viewerChangedMsg{}
		case <-done:
			return nil
		}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ViewBrowser:
			return m.updateBrowser(msg)
		case ViewHelp:
			return m.updateHelp(msg)
		}

	case viewerChangedMsg:
		prevPath := m.state.Path
		m.state = m.viewer.Snapshot()
		if m.state.Path != prevPath {
			m.cursor = 0
			m.linkErr = nil
		}
		if n := m.rowCount(); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		return m, tea.Batch(m.waitForChange(), m.resolveSelected())

	case linkResolvedMsg:
		if msg.err != nil {
			m.linkErr = msg.err
		} else {
			m.links[msg.entry] = msg.link
			m.linkErr = nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// rowCount returns the number of selectable rows: folders, then files.
func (m Model) rowCount() int {
	return len(m.state.Folders) + len(m.state.Files)
}

// selected returns the folder or file under the cursor.
func (m Model) selected() (*browser.FolderView, *browser.FileView) {
	if m.cursor < len(m.state.Folders) {
		return m.state.Folders[m.cursor], nil
	}
	i := m.cursor - len(m.state.Folders)
	if i < len(m.state.Files) {
		return nil, m.state.Files[i]
	}
	return nil, nil
}

// navigate moves the location to hash; the viewer picks the change up.
func (m Model) navigate(hash string) (tea.Model, tea.Cmd) {
	m.location.SetHash(hash)
	m.state = m.viewer.Snapshot()
	m.cursor = 0
	m.linkErr = nil
	return m, nil
}

// updateBrowser handles browser view updates
func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			return m, m.resolveSelected()
		}

	case "down", "j":
		if m.cursor < m.rowCount()-1 {
			m.cursor++
			return m, m.resolveSelected()
		}

	case "enter", "right", "l", "o":
		folder, file := m.selected()
		switch {
		case folder != nil:
			return m.navigate(folder.Href())
		case file != nil:
			return m, m.resolveLink(file)
		}

	case "backspace", "left", "h":
		// Go back to parent directory
		if parents := browser.Ancestors(m.state.Path); len(parents) > 0 {
			return m.navigate(parents[len(parents)-1].Path)
		}

	case "~":
		return m.navigate("#")

	case "r":
		m.viewer.Retry()
		m.state = m.viewer.Snapshot()

	case "?":
		m.viewMode = ViewHelp
	}

	return m, nil
}

// updateHelp handles help view updates
func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "?":
		m.viewMode = ViewBrowser
	}
	return m, nil
}

// resolveSelected resolves the link of the file under the cursor, if any.
func (m Model) resolveSelected() tea.Cmd {
	if _, file := m.selected(); file != nil {
		return m.resolveLink(file)
	}
	return nil
}

// resolveLink asks for a file's download link. Links already on the entry
// are returned without an API call.
func (m Model) resolveLink(file *browser.FileView) tea.Cmd {
	if _, ok := m.links[file.Entry]; ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		link, err := file.Link(ctx)
		return linkResolvedMsg{entry: file.Entry, link: link, err: err}
	}
}

// View renders the current view
func (m Model) View() string {
	switch m.viewMode {
	case ViewBrowser:
		return m.viewBrowser()
	case ViewHelp:
		return m.viewHelp()
	}
	return ""
}

func (m Model) center(content string) string {
	if m.width > 0 && m.height > 0 {
		centered := centerStyle.Width(m.width).Render(content)
		return verticalCenterStyle.Height(m.height).Render(centered)
	}
	return content
}

// renderBreadcrumb joins the crumbs of the current path.
func renderBreadcrumb(crumbs []browser.Crumb) string {
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, crumbStyle.Render(c.Name))
	}
	return strings.Join(names, " » ")
}

// viewBrowser renders the file browser view
func (m Model) viewBrowser() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.title))
	s.WriteString("\n")
	s.WriteString(renderBreadcrumb(m.state.Breadcrumb))
	s.WriteString("\n\n")

	switch m.state.Status {
	case browser.StatusLoading:
		s.WriteString(m.spinner.View() + " Loading...\n\n")
	case browser.StatusErrored:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.state.Err)))
		s.WriteString("\n\n")
	}
	if m.linkErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.linkErr)))
		s.WriteString("\n\n")
	}

	if m.rowCount() == 0 {
		if m.state.Status == browser.StatusReady {
			s.WriteString("This folder is empty.\n")
		}
	} else {
		row := 0
		for _, folder := range m.state.Folders {
			s.WriteString(m.renderRow(row, directoryStyle.Render(folder.Name()+"/")))
			row++
		}
		for _, file := range m.state.Files {
			line := fmt.Sprintf("%s - %s", fileStyle.Render(file.Name()), file.Size())
			if link, ok := m.links[file.Entry]; ok {
				line += " - " + linkStyle.Render(link)
			} else if link, ok := file.CachedLink(); ok {
				line += " - " + linkStyle.Render(link)
			}
			s.WriteString(m.renderRow(row, line))
			row++
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/k: up • ↓/j: down • ←/h: back • →/l/o/enter: open • ~: home • r: reload • ?: help • q: quit"))

	return m.center(browserStyle.Render(s.String()))
}

func (m Model) renderRow(row int, line string) string {
	cursor := " "
	if row == m.cursor {
		cursor = ">"
	}
	line = fmt.Sprintf("%s %s", cursor, line)
	if row == m.cursor {
		line = selectedStyle.Render(line)
	}
	return line + "\n"
}

// viewHelp renders the help view
func (m Model) viewHelp() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("s4view - Help"))
	s.WriteString("\n\n")

	help := `Navigation:
  ↑/k         Move cursor up
  ↓/j         Move cursor down
  ←/h         Go back to parent folder
  →/l/o/enter Open folder or fetch a file's download link
  ~           Go to the root folder
  r           Reload the current folder (e.g. after an error)

Actions:
  ?           Show this help
  q/ctrl+c    Quit application

Browser Features:
  - Folder listings are cached for the session
  - Sub-folders and parent folders are fetched in the background
  - Download links are fetched when a file is selected

Configuration:
  s4view reads configuration from .s3cfg file in:
  - Current directory
  - Home directory (~/.s3cfg)
  - System directory (/etc/s3cfg)
`

	s.WriteString(help)
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc/?: back • q: quit"))

	return m.center(s.String())
}

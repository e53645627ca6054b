package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/config"
	"github.com/sadopc/askfin/internal/export"
	"github.com/sadopc/askfin/internal/format"
	"github.com/sadopc/askfin/internal/reports"
	"github.com/sadopc/askfin/internal/session"
)

var exportFormats = []string{"CSV", "JSON"}

// App is the root Bubble Tea model.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	query     queryModel
	reports   reportsModel
	analytics analyticsModel
	settings  settingsModel

	// deepLink is submitted once when the program starts.
	deepLink string

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(cfg *config.Config, gw Gateway, logger zerolog.Logger, deepLink string) App {
	h := help.New()
	h.ShowAll = false

	store := reports.NewStore(gw, logger)
	f := newFormatter(cfg)

	return App{
		cfg:        cfg,
		logger:     logger,
		activeView: viewQuery,
		query:      newQueryModel(session.New(gw, logger), store, f),
		reports:    newReportsModel(store),
		analytics:  newAnalyticsModel(gw, f),
		settings:   newSettingsModel(cfg),
		deepLink:   deepLink,
		help:       h,
	}
}

func newFormatter(cfg *config.Config) *format.Formatter {
	return format.New(format.WithCurrencySymbol(cfg.CurrencySymbol))
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, a.reports.refresh()}
	if a.deepLink != "" {
		link := a.deepLink
		cmds = append(cmds, func() tea.Msg { return deepLinkMsg{query: link} })
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.query.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.analytics.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			if _, ok := a.query.state.SavableQuery(); !ok {
				a.setStatus("Nothing to export yet", true)
				return a, nil
			}
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewQuery
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewAnalytics
			return a, a.analytics.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	// Results of background work go to their owning view whichever view is shown.
	case deepLinkMsg:
		a.activeView = viewQuery
		a.query, cmd = a.query.submitDeepLink(msg.query)
		return a, cmd

	case runReportMsg:
		a.activeView = viewQuery
		a.query, cmd = a.query.submit(msg.report.Query)
		return a, cmd

	case queryDoneMsg, spinner.TickMsg:
		a.query, cmd = a.query.update(msg)
		return a, cmd

	case reportSavedMsg:
		a.query, cmd = a.query.update(msg)
		if msg.report != nil {
			return a, tea.Batch(cmd, a.reports.fromCache())
		}
		return a, cmd

	case reportsDataMsg, reportDeletedMsg:
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case dashboardDataMsg:
		a.analytics, cmd = a.analytics.update(msg)
		return a, cmd

	case settingsSavedMsg:
		a.settings, cmd = a.settings.update(msg)
		if msg.err == nil {
			f := newFormatter(a.cfg)
			a.query.format = f
			a.query.rebuildTable()
			a.analytics.format = f
		}
		return a, cmd

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusErr = isError
	if isError {
		a.logger.Debug().Str("status", text).Msg("error shown")
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewQuery:
		a.query, cmd = a.query.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewAnalytics:
		a.analytics, cmd = a.analytics.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewQuery:
		return a.query.editing()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewReports:
		return a.reports.refresh()
	case viewAnalytics:
		return a.analytics.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewQuery:
		content = a.query.view()
	case viewReports:
		content = a.reports.view()
	case viewAnalytics:
		content = a.analytics.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("askfin")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Session indicator in footer
	phase := ""
	if st := a.query.state; st.Phase == session.Loading {
		phase = warningStyle.Render(" ● asking")
	}

	left := footerStyle.Render(helpView)
	right := phase + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render("to "+a.exportDir()))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) exportDir() string {
	if a.cfg.ExportDir != "" {
		return a.cfg.ExportDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func (a App) doExport(kind int) tea.Cmd {
	st := a.query.state
	dir := a.exportDir()
	logger := a.logger
	return func() tea.Msg {
		if st.Result == nil {
			return statusMsg{text: "Nothing to export yet", isError: true}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		var path string
		if kind == 0 {
			path = filepath.Join(dir, export.DefaultCSVName)
			if err := export.ToCSV(st.Result, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, export.DefaultJSONName)
			if err := export.ToJSON(st.Result, st.Query, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		logger.Info().Str("path", path).Int("rows", len(st.Result.Rows)).Msg("result exported")
		return exportDoneMsg{path: path}
	}
}

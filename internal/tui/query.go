package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/askfin/internal/format"
	"github.com/sadopc/askfin/internal/model"
	"github.com/sadopc/askfin/internal/reports"
	"github.com/sadopc/askfin/internal/session"
)

const maxColumnWidth = 32

type queryModel struct {
	session  *session.Controller
	store    *reports.Store
	composer *reports.Composer
	format   *format.Formatter
	width    int
	height   int

	input   textinput.Model
	spinner spinner.Model
	table   table.Model
	state   session.State

	// Composer form; reportName survives value copies.
	form       *huh.Form
	reportName *string
	saving     bool
}

func newQueryModel(c *session.Controller, s *reports.Store, f *format.Formatter) queryModel {
	ti := textinput.New()
	ti.Placeholder = "e.g. show the top 5 customers by spending"
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = highlightStyle

	name := ""
	return queryModel{
		session:    c,
		store:      s,
		composer:   reports.NewComposer(s),
		format:     f,
		input:      ti,
		spinner:    sp,
		table:      table.New(),
		reportName: &name,
	}
}

func (q *queryModel) setSize(w, h int) {
	q.width = w
	q.height = h
	q.input.Width = max(w-14, 10)
	q.rebuildTable()
}

func (q queryModel) tableHeight() int {
	return max(q.height-16, 3)
}

// editing reports whether keystrokes belong to the view rather than the app.
func (q queryModel) editing() bool {
	return q.input.Focused() || q.form != nil
}

// submit starts a new submission for text, superseding any in flight.
func (q queryModel) submit(text string) (queryModel, tea.Cmd) {
	q.input.SetValue(text)
	req, err := q.session.Begin(text)
	if err != nil {
		return q, func() tea.Msg { return errStatus("", err) }
	}
	return q.started(req)
}

// submitDeepLink submits param unless it was already consumed.
func (q queryModel) submitDeepLink(param string) (queryModel, tea.Cmd) {
	req, ok, err := q.session.BeginDeepLink(param)
	if err != nil {
		return q, func() tea.Msg { return errStatus("", err) }
	}
	if !ok {
		return q, nil
	}
	q.input.SetValue(req.Query)
	return q.started(req)
}

func (q queryModel) started(req session.Request) (queryModel, tea.Cmd) {
	q.state = q.session.State()
	q.input.Blur()
	q.rebuildTable()

	c := q.session
	return q, tea.Batch(q.spinner.Tick, func() tea.Msg {
		return queryDoneMsg{outcome: c.Run(context.Background(), req)}
	})
}

func (q queryModel) update(msg tea.Msg) (queryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case queryDoneMsg:
		if !q.session.Resolve(msg.outcome) {
			return q, nil
		}
		q.state = q.session.State()
		q.rebuildTable()
		return q, nil

	case spinner.TickMsg:
		if q.state.Phase != session.Loading {
			return q, nil
		}
		var cmd tea.Cmd
		q.spinner, cmd = q.spinner.Update(msg)
		return q, cmd

	case reportSavedMsg:
		q.saving = false
		q.composer.Complete(msg.report, msg.err)
		if msg.report == nil {
			next, cmd := q.showComposerForm()
			return next, tea.Batch(cmd, func() tea.Msg { return errStatus("Save failed: ", msg.err) })
		}
		name := msg.report.Name
		if msg.err != nil {
			// Saved, but the list could not be reloaded.
			return q, func() tea.Msg {
				return errStatus(fmt.Sprintf("Saved report %q; reports not reloaded: ", name), msg.err)
			}
		}
		return q, func() tea.Msg { return statusMsg{text: fmt.Sprintf("Saved report %q", name)} }
	}

	if q.form != nil {
		return q.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if q.input.Focused() {
			var cmd tea.Cmd
			q.input, cmd = q.input.Update(msg)
			return q, cmd
		}
		return q, nil
	}

	if q.input.Focused() {
		switch {
		case key.Matches(keyMsg, keys.Submit):
			return q.submit(q.input.Value())
		case key.Matches(keyMsg, keys.Back):
			q.input.Blur()
			return q, nil
		}
		var cmd tea.Cmd
		q.input, cmd = q.input.Update(keyMsg)
		return q, cmd
	}

	switch {
	case key.Matches(keyMsg, keys.Edit):
		q.input.Focus()
		return q, textinput.Blink
	case key.Matches(keyMsg, keys.Save):
		return q.openComposer()
	case key.Matches(keyMsg, keys.Up), key.Matches(keyMsg, keys.Down):
		var cmd tea.Cmd
		q.table, cmd = q.table.Update(keyMsg)
		return q, cmd
	}
	return q, nil
}

func (q queryModel) openComposer() (queryModel, tea.Cmd) {
	if _, ok := q.state.SavableQuery(); !ok {
		return q, func() tea.Msg {
			return statusMsg{text: "Run a successful query before saving it", isError: true}
		}
	}
	if q.saving {
		return q, nil
	}
	q.composer.Open()
	return q.showComposerForm()
}

func (q queryModel) showComposerForm() (queryModel, tea.Cmd) {
	*q.reportName = q.composer.Name()
	q.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Report name").
				Placeholder("Monthly food spend").
				Value(q.reportName),
		),
	).WithShowHelp(true).WithShowErrors(true)
	return q, q.form.Init()
}

func (q queryModel) updateForm(msg tea.Msg) (queryModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			q.composer.SetName(*q.reportName)
			q.composer.Close()
			q.form = nil
			return q, nil
		}
	}

	form, cmd := q.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		q.form = f
	}

	if q.form.State == huh.StateCompleted {
		q.form = nil
		q.composer.SetName(*q.reportName)
		name, query, err := q.composer.Prepare(q.state)
		if err != nil {
			return q.showComposerForm()
		}
		q.saving = true
		s := q.store
		return q, func() tea.Msg {
			created, err := s.Create(context.Background(), name, query)
			return reportSavedMsg{report: created, err: err}
		}
	}

	return q, cmd
}

// rebuildTable lays out the current result with a leading row number column.
func (q *queryModel) rebuildTable() {
	res := q.state.Result
	if q.state.Phase != session.Success || res == nil || res.Empty() {
		q.table = table.New()
		return
	}

	titles := make([]string, 0, len(res.Columns)+1)
	titles = append(titles, "#")
	for _, col := range res.Columns {
		titles = append(titles, format.Header(col))
	}
	widths := make([]int, len(titles))
	for i, t := range titles {
		widths[i] = lipgloss.Width(t)
	}

	rows := make([]table.Row, 0, len(res.Rows))
	for i, rec := range res.Rows {
		cells := append([]string{strconv.Itoa(i + 1)}, q.format.Row(res.Columns, rec)...)
		for j, c := range cells {
			widths[j] = max(widths[j], lipgloss.Width(c))
		}
		rows = append(rows, table.Row(cells))
	}

	cols := make([]table.Column, len(titles))
	for i, t := range titles {
		cols[i] = table.Column{Title: t, Width: min(widths[i], maxColumnWidth)}
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(colorFg).Background(colorPrimary)

	q.table = table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows), q.tableHeight())+2),
		table.WithStyles(styles),
	)
}

func (q queryModel) view() string {
	if q.width < 20 {
		return "Terminal too small"
	}
	w := q.width - 4

	inputPanel := panelStyle
	if q.input.Focused() {
		inputPanel = activePanelStyle
	}
	ask := inputPanel.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Ask a question"),
		q.input.View(),
	))

	parts := []string{ask, q.renderResultPanel(w)}
	if q.composer.IsOpen() {
		parts = append(parts, q.renderComposer(w))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (q queryModel) renderResultPanel(w int) string {
	var rows []string

	if q.state.Query != "" {
		rows = append(rows, subtitleStyle.Render("Question: ")+highlightStyle.Render(q.state.Query))
	}

	switch q.state.Phase {
	case session.Idle:
		rows = append(rows,
			mutedStyle.Render("Type a question about customers or transactions and press enter."),
			mutedStyle.Render("Press / to edit the question, esc to leave the input."),
		)
	case session.Loading:
		rows = append(rows, "", q.spinner.View()+" "+warningStyle.Render("Thinking..."))
	case session.Failed:
		rows = append(rows, "", errorStyle.Render("✗ "+q.state.ErrMessage))
	case session.Success:
		res := q.state.Result
		if res.GeneratedQuery != "" {
			rows = append(rows, subtitleStyle.Render("SQL: ")+sqlStyle.Render(res.GeneratedQuery))
		}
		rows = append(rows, "")
		if res.Empty() {
			rows = append(rows, mutedStyle.Render("No results found."))
			break
		}
		rows = append(rows,
			q.table.View(),
			"",
			successStyle.Render(fmt.Sprintf("%d result(s) found", len(res.Rows)))+
				mutedStyle.Render(" in "+formatElapsed(q.state.Elapsed)),
			mutedStyle.Render("  ↑/↓: scroll  s: save report  e: export  /: new question"),
		)
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (q queryModel) renderComposer(w int) string {
	rows := []string{titleStyle.Render("Save Report")}
	if err := q.composer.Err(); err != nil {
		rows = append(rows, errorStyle.Render(model.Message(err)))
	}
	switch {
	case q.saving:
		rows = append(rows, mutedStyle.Render("Saving..."))
	case q.form != nil:
		rows = append(rows, "", q.form.View())
	}
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

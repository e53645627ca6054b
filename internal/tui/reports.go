package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/askfin/internal/model"
	"github.com/sadopc/askfin/internal/reports"
)

type reportsModel struct {
	store  *reports.Store
	width  int
	height int

	reports  []model.SavedReport
	cursor   int
	loaded   bool
	loadErr  string
	deleting bool
}

func newReportsModel(s *reports.Store) reportsModel {
	return reportsModel{store: s}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r reportsModel) refresh() tea.Cmd {
	s := r.store
	return func() tea.Msg {
		list, err := s.Refresh(context.Background())
		if err != nil {
			return reportsDataMsg{reports: s.Reports(), err: err}
		}
		return reportsDataMsg{reports: list}
	}
}

// fromCache re-reads the list the store fetched after its last mutation.
func (r reportsModel) fromCache() tea.Cmd {
	s := r.store
	return func() tea.Msg {
		return reportsDataMsg{reports: s.Reports()}
	}
}

func (r reportsModel) selected() (model.SavedReport, bool) {
	if r.cursor < 0 || r.cursor >= len(r.reports) {
		return model.SavedReport{}, false
	}
	return r.reports[r.cursor], true
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.reports = msg.reports
		if r.cursor >= len(r.reports) {
			r.cursor = max(0, len(r.reports)-1)
		}
		if msg.err != nil {
			r.loadErr = model.Message(msg.err)
			return r, func() tea.Msg { return errStatus("", msg.err) }
		}
		r.loaded = true
		r.loadErr = ""
		return r, nil

	case reportDeletedMsg:
		r.deleting = false
		if msg.err != nil {
			return r, tea.Batch(r.fromCache(), func() tea.Msg { return errStatus("Delete failed: ", msg.err) })
		}
		return r, tea.Batch(r.fromCache(), func() tea.Msg { return statusMsg{text: "Report deleted"} })

	case tea.KeyMsg:
		return r.updateList(msg)
	}
	return r, nil
}

func (r reportsModel) updateList(msg tea.KeyMsg) (reportsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if r.cursor > 0 {
			r.cursor--
		}
	case key.Matches(msg, keys.Down):
		if r.cursor < len(r.reports)-1 {
			r.cursor++
		}
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Run):
		if rep, ok := r.selected(); ok {
			return r, func() tea.Msg { return runReportMsg{report: rep} }
		}
	case key.Matches(msg, keys.Delete):
		rep, ok := r.selected()
		if !ok || r.deleting {
			return r, nil
		}
		r.deleting = true
		s := r.store
		return r, func() tea.Msg {
			return reportDeletedMsg{id: rep.ID, err: s.Delete(context.Background(), rep.ID)}
		}
	case key.Matches(msg, keys.Reload):
		return r, r.refresh()
	}
	return r, nil
}

func (r reportsModel) view() string {
	w := r.width - 4
	title := titleStyle.Render("Saved Reports")

	switch {
	case r.loadErr != "" && len(r.reports) == 0:
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", errorStyle.Render(r.loadErr), "", mutedStyle.Render("  ctrl+r: retry"),
		))
	case !r.loaded && len(r.reports) == 0:
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("Loading reports..."),
		))
	case len(r.reports) == 0:
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No saved reports yet. Run a query and press s to save it."),
		))
	}

	queryWidth := max(w-56, 16)

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-24s %-*s %s", "Name", queryWidth, "Question", "Created"))
	rows = append(rows, header)

	for i, rep := range r.reports {
		cursor := "  "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		created := ""
		if !rep.CreatedAt.IsZero() {
			created = rep.CreatedAt.Local().Format("Jan 2, 2006 15:04")
		}
		row := style.Render(fmt.Sprintf("%s%-24s %-*s ",
			cursor, truncate(rep.Name, 24), queryWidth, truncate(rep.Query, queryWidth),
		)) + mutedStyle.Render(created)
		rows = append(rows, row)
	}

	if r.loadErr != "" {
		rows = append(rows, "", errorStyle.Render(r.loadErr))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter/r: run  d: delete  ctrl+r: reload"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

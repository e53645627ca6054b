package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/askfin/internal/format"
	"github.com/sadopc/askfin/internal/model"
)

var categoryColors = []lipgloss.Color{"#10B981", "#38BDF8", "#F59E0B", "#F472B6", "#A78BFA", "#EF4444", "#84CC16", "#FB923C"}

type dashboardSource interface {
	Dashboard(ctx context.Context) (*model.DashboardSnapshot, error)
}

type analyticsModel struct {
	source dashboardSource
	format *format.Formatter
	width  int
	height int

	snapshot *model.DashboardSnapshot
	err      string

	chart barchart.Model
	trend sparkline.Model
}

func newAnalyticsModel(src dashboardSource, f *format.Formatter) analyticsModel {
	return analyticsModel{
		source: src,
		format: f,
		chart:  barchart.New(60, 12),
		trend:  sparkline.New(60, 5),
	}
}

func (m *analyticsModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildCharts()
}

func (m analyticsModel) refresh() tea.Cmd {
	src := m.source
	return func() tea.Msg {
		snap, err := src.Dashboard(context.Background())
		return dashboardDataMsg{snapshot: snap, err: err}
	}
}

func (m analyticsModel) update(msg tea.Msg) (analyticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			m.err = model.Message(msg.err)
			m.snapshot = nil
			return m, nil
		}
		m.err = ""
		m.snapshot = msg.snapshot
		m.buildCharts()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Reload) {
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m *analyticsModel) buildCharts() {
	chartWidth := max(m.width-8, 20)
	chartHeight := 10
	if m.height > 36 {
		chartHeight = 14
	}

	m.chart = barchart.New(chartWidth, chartHeight)
	m.trend = sparkline.New(chartWidth, 4)
	if m.snapshot == nil {
		return
	}

	bars := make([]barchart.BarData, 0, len(m.snapshot.ByCategory))
	for i, c := range m.snapshot.ByCategory {
		style := lipgloss.NewStyle().Foreground(categoryColors[i%len(categoryColors)])
		bars = append(bars, barchart.BarData{
			Label: c.Name,
			Values: []barchart.BarValue{{
				Name:  c.Name,
				Value: c.Value.InexactFloat64(),
				Style: style,
			}},
		})
	}
	if len(bars) > 0 {
		m.chart.PushAll(bars)
		m.chart.Draw()
	}

	points := make([]float64, 0, len(m.snapshot.DailyTrend))
	for _, d := range m.snapshot.DailyTrend {
		points = append(points, d.Amount.InexactFloat64())
	}
	if len(points) > 0 {
		m.trend.PushAll(points)
		m.trend.Draw()
	}
}

func (m analyticsModel) view() string {
	w := m.width - 4
	title := titleStyle.Render("Analytics")

	if m.err != "" {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", errorStyle.Render(m.err), "", mutedStyle.Render("  ctrl+r: retry"),
		))
	}
	if m.snapshot == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("Loading dashboard..."),
		))
	}

	s := m.snapshot.Summary
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderCard("Total volume", m.format.Currency(s.TotalVolume)),
		" ",
		m.renderCard("Transactions", fmt.Sprintf("%d", s.TotalCount)),
		" ",
		m.renderCard("Average", m.format.Currency(s.AvgAmount)),
	)

	parts := []string{title, "", cards, ""}
	if len(m.snapshot.ByCategory) == 0 {
		parts = append(parts, mutedStyle.Render("  No transactions yet"))
	} else {
		parts = append(parts,
			subtitleStyle.Render("Spend by category"),
			m.chart.View(),
			m.renderLegend(),
			"",
			m.renderCategoryTable(w),
		)
	}
	if len(m.snapshot.DailyTrend) > 0 {
		first := m.snapshot.DailyTrend[0].Date
		last := m.snapshot.DailyTrend[len(m.snapshot.DailyTrend)-1].Date
		parts = append(parts,
			"",
			subtitleStyle.Render("Daily trend")+mutedStyle.Render(fmt.Sprintf("  %s → %s", first, last)),
			m.trend.View(),
		)
	}
	parts = append(parts, "", mutedStyle.Render("  ctrl+r: reload"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m analyticsModel) renderCard(label, value string) string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		mutedStyle.Render(label),
		figureStyle.Render(value),
	))
}

func (m analyticsModel) renderLegend() string {
	var items []string
	for i, c := range m.snapshot.ByCategory {
		dot := lipgloss.NewStyle().Foreground(categoryColors[i%len(categoryColors)]).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, c.Name))
	}
	return "  " + strings.Join(items, "  ")
}

func (m analyticsModel) renderCategoryTable(w int) string {
	total := m.snapshot.Summary.TotalVolume

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-16s %16s %8s", "Category", "Amount", "Share")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 42))))
	for _, c := range m.snapshot.ByCategory {
		share := "-"
		if total.IsPositive() {
			share = c.Value.Div(total).Shift(2).StringFixed(1) + "%"
		}
		rows = append(rows, fmt.Sprintf("  %-16s %16s %8s", c.Name, m.format.Currency(c.Value), share))
	}
	return strings.Join(rows, "\n")
}

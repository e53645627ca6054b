package tui

import (
	"context"
	"time"

	"github.com/sadopc/askfin/internal/config"
	"github.com/sadopc/askfin/internal/model"
	"github.com/sadopc/askfin/internal/reports"
	"github.com/sadopc/askfin/internal/session"
)

// viewState represents the currently active view.
type viewState int

const (
	viewQuery viewState = iota
	viewReports
	viewAnalytics
	viewSettings
)

var viewNames = []string{"Query", "Reports", "Analytics", "Settings"}

// Gateway is everything the views ask of the answering service.
type Gateway interface {
	session.Asker
	reports.Backend
	Dashboard(ctx context.Context) (*model.DashboardSnapshot, error)
}

// --- Messages ---

type queryDoneMsg struct {
	outcome session.Outcome
}

type runReportMsg struct {
	report model.SavedReport
}

type reportSavedMsg struct {
	report *model.SavedReport
	err    error
}

type reportsDataMsg struct {
	reports []model.SavedReport
	err     error
}

type reportDeletedMsg struct {
	id  int64
	err error
}

type dashboardDataMsg struct {
	snapshot *model.DashboardSnapshot
	err      error
}

type settingsSavedMsg struct {
	cfg *config.Config
	err error
}

type deepLinkMsg struct {
	query string
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: prefix + model.Message(err), isError: true}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

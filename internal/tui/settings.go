package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/askfin/internal/config"
)

type settingsModel struct {
	cfg    *config.Config
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	apiURL    *string
	timeout   *string
	currency  *string
	exportDir *string
	logLevel  *string
}

func newSettingsModel(cfg *config.Config) settingsModel {
	u, t, c, d, l := "", "", "", "", ""
	return settingsModel{
		cfg:       cfg,
		apiURL:    &u,
		timeout:   &t,
		currency:  &c,
		exportDir: &d,
		logLevel:  &l,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsSavedMsg:
		if msg.err != nil {
			return s, func() tea.Msg { return errStatus("Settings not saved: ", msg.err) }
		}
		*s.cfg = *msg.cfg
		path := s.cfg.Path
		return s, func() tea.Msg { return statusMsg{text: "Settings saved to " + path} }

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.apiURL = s.cfg.APIURL
	*s.timeout = formatTimeout(s.cfg.RequestTimeout)
	*s.currency = s.cfg.CurrencySymbol
	*s.exportDir = s.cfg.ExportDir
	*s.logLevel = s.cfg.LogLevel

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Service URL").Value(s.apiURL).Validate(validateURL),
			huh.NewInput().Title("Request timeout").
				Description("e.g. 30s; 0 keeps the transport default").
				Value(s.timeout).Validate(validateTimeout),
		).Title("Service"),
		huh.NewGroup(
			huh.NewInput().Title("Currency symbol").Value(s.currency).Validate(notBlank("currency symbol")),
			huh.NewInput().Title("Export directory").Value(s.exportDir),
			huh.NewSelect[string]().Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).Value(s.logLevel),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.saveSettings()
	}

	return s, cmd
}

// saveSettings writes the edited values back to the config file. The shared
// config is replaced in update once the write succeeds.
func (s settingsModel) saveSettings() tea.Cmd {
	next := *s.cfg
	next.APIURL = strings.TrimRight(strings.TrimSpace(*s.apiURL), "/")
	next.CurrencySymbol = strings.TrimSpace(*s.currency)
	next.ExportDir = strings.TrimSpace(*s.exportDir)
	next.LogLevel = *s.logLevel
	if d, err := parseTimeout(*s.timeout); err == nil {
		next.RequestTimeout = d
	}

	return func() tea.Msg {
		if err := config.Save(&next); err != nil {
			return settingsSavedMsg{err: err}
		}
		return settingsSavedMsg{cfg: &next}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, kv := range [][2]string{
		{"Service URL", s.cfg.APIURL},
		{"Request timeout", formatTimeout(s.cfg.RequestTimeout)},
		{"Currency symbol", s.cfg.CurrencySymbol},
		{"Export directory", s.cfg.ExportDir},
		{"Log level", s.cfg.LogLevel},
		{"Log file", s.cfg.LogFile},
		{"Config file", s.cfg.Path},
	} {
		label := lipgloss.NewStyle().Width(24).Render(kv[0])
		value := highlightStyle.Render(kv[1])
		if kv[1] == "" {
			value = mutedStyle.Render("(not set)")
		}
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings. The service URL applies on next start."))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatTimeout(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	return d.String()
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func validateTimeout(s string) error {
	d, err := parseTimeout(s)
	if err != nil {
		return errors.New("not a duration, try 30s or 1m")
	}
	if d < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http(s) URL")
	}
	return nil
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/config"
	"github.com/sadopc/askfin/internal/export"
	"github.com/sadopc/askfin/internal/model"
	"github.com/sadopc/askfin/internal/session"
	"github.com/shopspring/decimal"
)

// fakeGateway answers from memory and records every question asked.
type fakeGateway struct {
	mu sync.Mutex

	answers map[string]*model.QueryResult
	askErr  error
	asked   []string

	snapshot *model.DashboardSnapshot
	dashErr  error

	reports   []model.SavedReport
	nextID    int64
	createErr error
	creates   int
	// listFailAfterCreate fails every list call once a report was created.
	listFailAfterCreate bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{answers: make(map[string]*model.QueryResult)}
}

func (g *fakeGateway) Ask(_ context.Context, query string) (*model.QueryResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.asked = append(g.asked, query)
	if g.askErr != nil {
		return nil, g.askErr
	}
	if res, ok := g.answers[query]; ok {
		return res, nil
	}
	return &model.QueryResult{GeneratedQuery: "SELECT 1"}, nil
}

func (g *fakeGateway) Dashboard(context.Context) (*model.DashboardSnapshot, error) {
	if g.dashErr != nil {
		return nil, g.dashErr
	}
	return g.snapshot, nil
}

func (g *fakeGateway) ListReports(context.Context) ([]model.SavedReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listFailAfterCreate && g.creates > 0 {
		return nil, &model.TransportError{Op: "list reports", Err: errors.New("reset")}
	}
	out := make([]model.SavedReport, len(g.reports))
	copy(out, g.reports)
	return out, nil
}

func (g *fakeGateway) CreateReport(_ context.Context, name, query string) (*model.SavedReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates++
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	r := model.SavedReport{ID: g.nextID, Name: name, Query: query, CreatedAt: model.Timestamp{Time: time.Now()}}
	g.reports = append([]model.SavedReport{r}, g.reports...)
	return &r, nil
}

func (g *fakeGateway) DeleteReport(_ context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, r := range g.reports {
		if r.ID == id {
			g.reports = append(g.reports[:i], g.reports[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (g *fakeGateway) questions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.asked...)
}

func spendResult() *model.QueryResult {
	return &model.QueryResult{
		GeneratedQuery: "SELECT name, amount, date FROM transactions",
		Columns:        []string{"customer_name", "amount", "date"},
		Rows: []model.Record{
			{"customer_name": model.String("Asha"), "amount": model.String("1250.5"), "date": model.String("2024-01-05")},
			{"customer_name": model.String("Ravi"), "amount": model.String("80"), "date": model.Null()},
		},
	}
}

func newTestApp(t *testing.T, g *fakeGateway, deepLink string) App {
	t.Helper()
	cfg := config.Default()
	cfg.ExportDir = t.TempDir()
	cfg.Path = filepath.Join(t.TempDir(), "config.yaml")

	a := NewApp(cfg, g, zerolog.Nop(), deepLink)
	return send(t, a, tea.WindowSizeMsg{Width: 120, Height: 60})
}

// send delivers msg and then every message its commands produce.
func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, cmd := a.Update(msg)
	return drain(t, m.(App), cmd)
}

func drain(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	for _, msg := range collect(cmd) {
		a = send(t, a, msg)
	}
	return a
}

// collect runs cmd and keeps only the messages the app itself defines, so
// cursor blinks and spinner ticks never loop.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case queryDoneMsg, runReportMsg, reportSavedMsg, reportsDataMsg, reportDeletedMsg,
		dashboardDataMsg, settingsSavedMsg, deepLinkMsg, statusMsg, exportDoneMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ask(t *testing.T, a App, question string) App {
	t.Helper()
	if !a.query.input.Focused() {
		a = send(t, a, keyPress("/"))
	}
	a.query.input.SetValue(question)
	return send(t, a, keyPress("enter"))
}

// ============================================================
// Query view
// ============================================================

func TestSubmitShowsFormattedResults(t *testing.T) {
	g := newFakeGateway()
	g.answers["who spent most"] = spendResult()
	a := newTestApp(t, g, "")

	a = ask(t, a, "who spent most")

	if a.query.state.Phase != session.Success {
		t.Fatalf("phase = %v, want success", a.query.state.Phase)
	}
	out := a.View()
	for _, want := range []string{
		"who spent most",
		"SELECT name, amount, date FROM transactions",
		"customer name",
		"₹1,250.50",
		"Jan 5, 2024",
		"2 result(s) found",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestSubmitTrimsAndBlurs(t *testing.T) {
	g := newFakeGateway()
	a := newTestApp(t, g, "")

	a = ask(t, a, "   list customers  ")

	if got := g.questions(); len(got) != 1 || got[0] != "list customers" {
		t.Fatalf("asked %v", got)
	}
	if a.query.input.Focused() {
		t.Fatal("input should blur after submit")
	}
}

func TestBlankSubmitIsRejected(t *testing.T) {
	g := newFakeGateway()
	a := newTestApp(t, g, "")

	a = ask(t, a, "   ")

	if len(g.questions()) != 0 {
		t.Fatal("blank query must not reach the gateway")
	}
	if a.query.state.Phase != session.Idle {
		t.Fatalf("phase = %v, want idle", a.query.state.Phase)
	}
	if !a.statusErr || a.status != "query cannot be empty" {
		t.Fatalf("status = %q (error %v)", a.status, a.statusErr)
	}
}

func TestNoResultsFound(t *testing.T) {
	g := newFakeGateway()
	g.answers["nothing"] = &model.QueryResult{GeneratedQuery: "SELECT * FROM t WHERE 0"}
	a := newTestApp(t, g, "")

	a = ask(t, a, "nothing")

	out := a.View()
	if !strings.Contains(out, "No results found.") {
		t.Fatal("empty result should say so")
	}
	if strings.Contains(out, "result(s) found") {
		t.Fatal("empty result should not show a count")
	}
}

func TestFailedQueryShowsMessageOnly(t *testing.T) {
	g := newFakeGateway()
	g.answers["first"] = spendResult()
	a := newTestApp(t, g, "")
	a = ask(t, a, "first")

	g.askErr = &model.TransportError{Op: "ask", Err: errors.New("connection refused")}
	a = ask(t, a, "second")

	if a.query.state.Phase != session.Failed {
		t.Fatalf("phase = %v, want failed", a.query.state.Phase)
	}
	out := a.View()
	if !strings.Contains(out, "failed to connect to the server") {
		t.Fatal("view should show the transport message")
	}
	if strings.Contains(out, "Asha") {
		t.Fatal("failed session must not show the previous result")
	}
}

func TestStaleOutcomeIsIgnored(t *testing.T) {
	g := newFakeGateway()
	g.answers["old"] = &model.QueryResult{Columns: []string{"v"}, Rows: []model.Record{{"v": model.String("old")}}}
	g.answers["new"] = &model.QueryResult{Columns: []string{"v"}, Rows: []model.Record{{"v": model.String("new")}}}
	a := newTestApp(t, g, "")

	var oldCmd, newCmd tea.Cmd
	a.query, oldCmd = a.query.submit("old")
	a.query, newCmd = a.query.submit("new")

	a = drain(t, a, newCmd)
	a = drain(t, a, oldCmd)

	st := a.query.state
	if st.Query != "new" || st.Phase != session.Success {
		t.Fatalf("state = %+v", st)
	}
	if got := st.Result.Rows[0]["v"].Raw(); got != "new" {
		t.Fatalf("result from stale request applied: %q", got)
	}
}

func TestInputCapturesGlobalKeys(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")

	m, _ := a.Update(keyPress("q"))
	a = m.(App)
	if a.query.input.Value() != "q" {
		t.Fatalf("q should be typed into the input, got %q", a.query.input.Value())
	}

	a = send(t, a, keyPress("esc"))
	if a.query.input.Focused() {
		t.Fatal("esc should leave the input")
	}
	if a.isFormActive() {
		t.Fatal("no form should be active after esc")
	}
}

func TestDeepLinkSubmittedOnce(t *testing.T) {
	g := newFakeGateway()
	g.answers["food spend"] = spendResult()
	a := newTestApp(t, g, "food spend")

	a = drain(t, a, a.Init())
	if a.query.state.Phase != session.Success || a.query.input.Value() != "food spend" {
		t.Fatalf("deep link not submitted: %+v", a.query.state)
	}

	a = send(t, a, deepLinkMsg{query: "food spend"})
	if got := g.questions(); len(got) != 1 {
		t.Fatalf("deep link consumed %d times", len(got))
	}
}

// ============================================================
// Report composer
// ============================================================

func completeComposer(t *testing.T, a App, name string) App {
	t.Helper()
	if a.query.form == nil {
		t.Fatal("composer form is not open")
	}
	*a.query.reportName = name
	a.query.form.State = huh.StateCompleted
	return send(t, a, keyPress("enter"))
}

func TestSaveReportFromSuccessfulQuery(t *testing.T) {
	g := newFakeGateway()
	g.answers["food spend"] = spendResult()
	a := newTestApp(t, g, "")
	a = ask(t, a, "food spend")

	a = send(t, a, keyPress("s"))
	if !a.query.composer.IsOpen() {
		t.Fatal("s should open the composer")
	}
	a = completeComposer(t, a, "  Food  ")

	if a.query.composer.IsOpen() || a.query.composer.Name() != "" {
		t.Fatal("composer should close and clear after saving")
	}
	if len(g.reports) != 1 || g.reports[0].Name != "Food" || g.reports[0].Query != "food spend" {
		t.Fatalf("reports = %+v", g.reports)
	}
	if len(a.reports.reports) != 1 {
		t.Fatal("reports view should pick up the re-fetched list")
	}
	if a.status != `Saved report "Food"` {
		t.Fatalf("status = %q", a.status)
	}
}

func TestSaveReportWhenReloadFails(t *testing.T) {
	g := newFakeGateway()
	g.listFailAfterCreate = true
	a := newTestApp(t, g, "")
	a = ask(t, a, "anything")
	a = send(t, a, keyPress("s"))

	a = completeComposer(t, a, "Monthly")

	if g.creates != 1 {
		t.Fatalf("creates = %d, want 1", g.creates)
	}
	if a.query.composer.IsOpen() || a.query.form != nil || a.query.composer.Name() != "" {
		t.Fatal("a created report must not leave the composer open for a duplicate save")
	}
	if !a.statusErr || !strings.HasPrefix(a.status, `Saved report "Monthly"`) {
		t.Fatalf("status = %q", a.status)
	}
}

func TestSaveReportNeedsSuccessfulQuery(t *testing.T) {
	g := newFakeGateway()
	a := newTestApp(t, g, "")
	a = send(t, a, keyPress("esc"))

	a = send(t, a, keyPress("s"))

	if a.query.composer.IsOpen() {
		t.Fatal("composer must not open without a result")
	}
	if !a.statusErr {
		t.Fatal("expected an error status")
	}
}

func TestSaveReportBlankNameIsNotSent(t *testing.T) {
	g := newFakeGateway()
	a := newTestApp(t, g, "")
	a = ask(t, a, "anything")
	a = send(t, a, keyPress("s"))

	a = completeComposer(t, a, "   ")

	if g.creates != 0 {
		t.Fatal("blank name must not reach the gateway")
	}
	if a.query.form == nil || !a.query.composer.IsOpen() {
		t.Fatal("form should reopen for a valid name")
	}
	if a.query.composer.Err() == nil {
		t.Fatal("composer should carry the validation error")
	}
}

func TestSaveReportFailureKeepsName(t *testing.T) {
	g := newFakeGateway()
	g.createErr = &model.TransportError{Op: "create report", Err: errors.New("boom")}
	a := newTestApp(t, g, "")
	a = ask(t, a, "anything")
	a = send(t, a, keyPress("s"))

	a = completeComposer(t, a, "Monthly")

	if !a.query.composer.IsOpen() || a.query.composer.Name() != "Monthly" {
		t.Fatal("name should be kept for a retry")
	}
	if *a.query.reportName != "Monthly" {
		t.Fatalf("form value = %q", *a.query.reportName)
	}
	if !a.statusErr || !strings.Contains(a.status, "failed to create report") {
		t.Fatalf("status = %q", a.status)
	}
}

func TestComposerEscCloses(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")
	a = ask(t, a, "anything")
	a = send(t, a, keyPress("s"))

	a = send(t, a, keyPress("esc"))

	if a.query.composer.IsOpen() || a.query.form != nil {
		t.Fatal("esc should close the composer")
	}
}

// ============================================================
// Saved reports view
// ============================================================

func seededReports(g *fakeGateway) {
	now := time.Now()
	g.reports = []model.SavedReport{
		{ID: 2, Name: "Travel", Query: "travel spend", CreatedAt: model.Timestamp{Time: now}},
		{ID: 1, Name: "Food", Query: "food spend", CreatedAt: model.Timestamp{Time: now.Add(-time.Hour)}},
	}
	g.nextID = 2
}

func TestReportsViewListsInStoreOrder(t *testing.T) {
	g := newFakeGateway()
	seededReports(g)
	a := newTestApp(t, g, "")
	a = send(t, a, keyPress("esc"))

	a = send(t, a, keyPress("2"))

	if a.activeView != viewReports {
		t.Fatal("2 should open the reports view")
	}
	if len(a.reports.reports) != 2 || a.reports.reports[0].Name != "Travel" {
		t.Fatalf("reports = %+v", a.reports.reports)
	}
	out := a.View()
	if strings.Index(out, "Travel") > strings.Index(out, "Food") {
		t.Fatal("list should keep the store order")
	}
}

func TestReportsViewRunReplaysQuery(t *testing.T) {
	g := newFakeGateway()
	seededReports(g)
	g.answers["food spend"] = spendResult()
	a := newTestApp(t, g, "")
	a = send(t, a, keyPress("esc"))
	a = send(t, a, keyPress("2"))

	a = send(t, a, keyPress("j"))
	a = send(t, a, keyPress("r"))

	if a.activeView != viewQuery {
		t.Fatal("running a report should switch to the query view")
	}
	if a.query.state.Query != "food spend" || a.query.state.Phase != session.Success {
		t.Fatalf("state = %+v", a.query.state)
	}
}

func TestReportsViewDeleteRefetches(t *testing.T) {
	g := newFakeGateway()
	seededReports(g)
	a := newTestApp(t, g, "")
	a = send(t, a, keyPress("esc"))
	a = send(t, a, keyPress("2"))

	a = send(t, a, keyPress("d"))

	if len(a.reports.reports) != 1 || a.reports.reports[0].Name != "Food" {
		t.Fatalf("reports = %+v", a.reports.reports)
	}
	if a.status != "Report deleted" {
		t.Fatalf("status = %q", a.status)
	}
}

func TestReportsViewEmpty(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")
	a = send(t, a, keyPress("esc"))
	a = send(t, a, keyPress("2"))

	if !strings.Contains(a.View(), "No saved reports yet") {
		t.Fatal("empty list should show a hint")
	}
}

// ============================================================
// Analytics view
// ============================================================

func TestAnalyticsView(t *testing.T) {
	g := newFakeGateway()
	g.snapshot = &model.DashboardSnapshot{
		Summary: model.Summary{
			TotalVolume: decimal.RequireFromString("3000"),
			TotalCount:  3,
			AvgAmount:   decimal.RequireFromString("1000"),
		},
		ByCategory: []model.CategoryTotal{
			{Name: "Food", Value: decimal.RequireFromString("1000")},
			{Name: "Travel", Value: decimal.RequireFromString("2000")},
		},
		DailyTrend: []model.DailyAmount{
			{Date: "2024-01-01", Amount: decimal.RequireFromString("1000")},
			{Date: "2024-01-02", Amount: decimal.RequireFromString("2000")},
		},
	}
	a := newTestApp(t, g, "")
	a = send(t, a, keyPress("esc"))

	a = send(t, a, keyPress("3"))

	out := a.View()
	for _, want := range []string{"Total volume", "₹3,000.00", "₹1,000.00", "Food", "Travel", "66.7%", "Daily trend"} {
		if !strings.Contains(out, want) {
			t.Fatalf("analytics view missing %q", want)
		}
	}
}

func TestAnalyticsFailure(t *testing.T) {
	g := newFakeGateway()
	g.dashErr = &model.TransportError{Op: "dashboard", Err: errors.New("down")}
	a := newTestApp(t, g, "")
	a = send(t, a, keyPress("esc"))

	a = send(t, a, keyPress("3"))

	if !strings.Contains(a.View(), "failed to load dashboard data") {
		t.Fatal("dashboard failure message missing")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportCSV(t *testing.T) {
	g := newFakeGateway()
	g.answers["spend"] = spendResult()
	a := newTestApp(t, g, "")
	a = ask(t, a, "spend")

	a = send(t, a, keyPress("e"))
	if !a.exportPicking {
		t.Fatal("e should open the export picker")
	}
	a = send(t, a, keyPress("enter"))

	path := filepath.Join(a.cfg.ExportDir, export.DefaultCSVName)
	if a.status != "Exported to "+path {
		t.Fatalf("status = %q", a.status)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cols, rows, err := export.ParseCSV(f)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cols, ",") != "customer_name,amount,date" || len(rows) != 2 {
		t.Fatalf("cols %v rows %v", cols, rows)
	}
	if rows[0][1] != "1250.5" {
		t.Fatalf("csv keeps raw values, got %q", rows[0][1])
	}
}

func TestExportJSON(t *testing.T) {
	g := newFakeGateway()
	g.answers["spend"] = spendResult()
	a := newTestApp(t, g, "")
	a = ask(t, a, "spend")

	a = send(t, a, keyPress("e"))
	a = send(t, a, keyPress("j"))
	a = send(t, a, keyPress("enter"))

	data, err := os.ReadFile(filepath.Join(a.cfg.ExportDir, export.DefaultJSONName))
	if err != nil {
		t.Fatal(err)
	}
	res, query, err := export.ParseJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if query != "spend" || len(res.Rows) != 2 || !res.Rows[1]["date"].IsNull() {
		t.Fatalf("query %q result %+v", query, res)
	}
}

func TestExportNeedsResult(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")
	a = send(t, a, keyPress("esc"))

	a = send(t, a, keyPress("e"))

	if a.exportPicking {
		t.Fatal("picker should not open without a result")
	}
	if a.status != "Nothing to export yet" {
		t.Fatalf("status = %q", a.status)
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsSave(t *testing.T) {
	g := newFakeGateway()
	g.answers["spend"] = spendResult()
	a := newTestApp(t, g, "")
	a = ask(t, a, "spend")
	a = send(t, a, keyPress("4"))

	a = send(t, a, keyPress("enter"))
	if !a.isFormActive() {
		t.Fatal("enter should open the settings form")
	}
	*a.settings.currency = "$"
	*a.settings.timeout = "45s"
	a.settings.form.State = huh.StateCompleted
	a = send(t, a, keyPress("enter"))

	if a.cfg.CurrencySymbol != "$" || a.cfg.RequestTimeout != 45*time.Second {
		t.Fatalf("config not updated: %+v", a.cfg)
	}
	if _, err := os.Stat(a.cfg.Path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	loaded, err := config.Load(a.cfg.Path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.CurrencySymbol != "$" {
		t.Fatalf("saved currency = %q", loaded.CurrencySymbol)
	}

	a = send(t, a, keyPress("1"))
	if !strings.Contains(a.View(), "$1,250.50") {
		t.Fatal("results should re-render with the new currency")
	}
}

func TestSettingsEscCancels(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")
	a = send(t, a, keyPress("esc"))
	a = send(t, a, keyPress("4"))
	a = send(t, a, keyPress("enter"))

	a = send(t, a, keyPress("esc"))

	if a.settings.formActive {
		t.Fatal("esc should close the form")
	}
	if a.cfg.CurrencySymbol != config.DefaultCurrencySymbol {
		t.Fatal("cancel must not change config")
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) error
		in   string
		ok   bool
	}{
		{"url http", validateURL, "http://localhost:8000", true},
		{"url https", validateURL, "https://api.example.com", true},
		{"url no scheme", validateURL, "localhost:8000", false},
		{"url ftp", validateURL, "ftp://host", false},
		{"timeout zero", validateTimeout, "0", true},
		{"timeout empty", validateTimeout, "", true},
		{"timeout duration", validateTimeout, "1m30s", true},
		{"timeout garbage", validateTimeout, "soon", false},
		{"timeout negative", validateTimeout, "-5s", false},
		{"blank", notBlank("x"), "  ", false},
		{"not blank", notBlank("x"), "$", true},
	}
	for _, tt := range tests {
		err := tt.fn(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("%s: %q got err %v", tt.name, tt.in, err)
		}
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	a := NewApp(config.Default(), newFakeGateway(), zerolog.Nop(), "")

	if a.activeView != viewQuery {
		t.Fatal("default view should be query")
	}
	if !a.query.input.Focused() {
		t.Fatal("query input should start focused")
	}
	if a.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if a.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
}

func TestAppViewStates(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")

	// Test all views render without panic
	for v := range viewNames {
		a.activeView = viewState(v)
		if a.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabCycles(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")
	a = send(t, a, keyPress("esc"))

	for i := 1; i <= len(viewNames); i++ {
		a = send(t, a, keyPress("tab"))
		if want := viewState(i % len(viewNames)); a.activeView != want {
			t.Fatalf("after %d tabs view = %d, want %d", i, a.activeView, want)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")

	header := a.renderHeader()
	if !strings.Contains(header, "askfin") {
		t.Fatal("header missing title")
	}
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	a := NewApp(config.Default(), newFakeGateway(), zerolog.Nop(), "")
	// Width 0 means not yet sized
	if out := a.View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestAppStatusMessage(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")
	a = send(t, a, statusMsg{text: "test status"})

	if !strings.Contains(a.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(t, newFakeGateway(), "")
	a = send(t, a, keyPress("esc"))

	_, cmd := a.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"toolong", 4, "too…"},
		{"₹₹₹₹", 2, "₹…"},
		{"x", 0, "x"},
		{"ab", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(1234567 * time.Microsecond); got != "1.23s" {
		t.Fatalf("got %q", got)
	}
	if got := formatElapsed(42*time.Millisecond + 300*time.Microsecond); got != "42ms" {
		t.Fatalf("got %q", got)
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"figure", func() string { return figureStyle.Render("test") }},
		{"card", func() string { return cardStyle.Render("test") }},
		{"sql", func() string { return sqlStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/sadopc/askfin/internal/config"
	"github.com/sadopc/askfin/internal/export"
	"github.com/sadopc/askfin/internal/format"
	"github.com/sadopc/askfin/internal/model"
	"golang.org/x/term"
)

type outputMode int

const (
	outputAuto outputMode = iota
	outputCSV
	outputJSON
)

func modeFor(csv, json bool) outputMode {
	switch {
	case csv:
		return outputCSV
	case json:
		return outputJSON
	}
	return outputAuto
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printer renders command output. Styling is only used on a terminal.
type printer struct {
	out    io.Writer
	tty    bool
	format *format.Formatter
}

func newPrinter(out io.Writer, cfg *config.Config) *printer {
	tty := isTerminal(out)
	if !tty {
		pterm.DisableStyling()
	}
	return &printer{
		out:    out,
		tty:    tty,
		format: format.New(format.WithCurrencySymbol(cfg.CurrencySymbol)),
	}
}

func (p *printer) println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *printer) table(data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	p.println(s)
	return nil
}

// result writes a successful answer. Pipes get raw CSV so the output can be
// fed to other tools; a terminal gets the formatted table.
func (p *printer) result(res *model.QueryResult, query string, elapsed time.Duration, mode outputMode) error {
	switch {
	case mode == outputJSON:
		return export.WriteJSON(p.out, res, query)
	case mode == outputCSV, !p.tty:
		return export.WriteCSV(p.out, res)
	}

	p.println(pterm.DefaultBox.WithTitle("SQL").Sprint(res.GeneratedQuery))
	if res.Empty() {
		p.println(pterm.Info.Sprint("No results found."))
		return nil
	}

	data := make(pterm.TableData, 0, len(res.Rows)+1)
	header := []string{export.RowNumberColumn}
	for _, col := range res.Columns {
		header = append(header, format.Header(col))
	}
	data = append(data, header)
	for i, rec := range res.Rows {
		data = append(data, append([]string{strconv.Itoa(i + 1)}, p.format.Row(res.Columns, rec)...))
	}
	if err := p.table(data); err != nil {
		return err
	}
	p.println(pterm.FgGray.Sprint(fmt.Sprintf("%d result(s) found in %s", len(res.Rows), elapsed.Round(time.Millisecond))))
	return nil
}

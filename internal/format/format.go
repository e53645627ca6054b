// Package format turns raw result cells into display strings. It never
// mutates the result it reads.
package format

import (
	"strings"
	"time"

	"github.com/sadopc/askfin/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is rendered for null or absent cells.
const Placeholder = "-"

// MediumDate is the medium date style, e.g. "Jan 5, 2024".
const MediumDate = "Jan 2, 2006"

type Role string

const (
	RoleNone     Role = ""
	RoleMonetary Role = "monetary"
	RoleTemporal Role = "temporal"
)

// Rule binds column-name keywords to a renderer. Render reports false when
// the value cannot be interpreted, letting later rules and the fallbacks run.
type Rule struct {
	Role     Role
	Keywords []string
	Render   func(f *Formatter, v model.Value) (string, bool)
}

// Matches reports whether the lower-cased column contains any keyword.
func (r Rule) Matches(column string) bool {
	col := strings.ToLower(column)
	for _, kw := range r.Keywords {
		if strings.Contains(col, kw) {
			return true
		}
	}
	return false
}

// DefaultRules is the ordered rule table: money first, then dates.
func DefaultRules() []Rule {
	return []Rule{
		{
			Role:     RoleMonetary,
			Keywords: []string{"amount", "price", "balance", "spent", "cost", "revenue", "total"},
			Render:   renderMoney,
		},
		{
			Role:     RoleTemporal,
			Keywords: []string{"date", "created_at"},
			Render:   renderDate,
		},
	}
}

type Formatter struct {
	rules      []Rule
	symbol     string
	printer    *message.Printer
	dateLayout string
}

type Option func(*Formatter)

func WithCurrencySymbol(sym string) Option {
	return func(f *Formatter) { f.symbol = sym }
}

func WithLocale(tag language.Tag) Option {
	return func(f *Formatter) { f.printer = message.NewPrinter(tag) }
}

func WithRules(rules []Rule) Option {
	return func(f *Formatter) { f.rules = rules }
}

func WithDateLayout(layout string) Option {
	return func(f *Formatter) { f.dateLayout = layout }
}

func New(opts ...Option) *Formatter {
	f := &Formatter{
		rules:      DefaultRules(),
		symbol:     "₹",
		printer:    message.NewPrinter(language.AmericanEnglish),
		dateLayout: MediumDate,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Role returns the role of the first rule matching column.
func (f *Formatter) Role(column string) Role {
	for _, r := range f.rules {
		if r.Matches(column) {
			return r.Role
		}
	}
	return RoleNone
}

// Cell renders one value for display.
func (f *Formatter) Cell(column string, v model.Value) string {
	if v.IsNull() {
		return Placeholder
	}
	for _, r := range f.rules {
		if !r.Matches(column) {
			continue
		}
		if s, ok := r.Render(f, v); ok {
			return s
		}
	}
	if v.Kind() == model.KindNumber && !v.IsInteger() {
		if d, err := decimal.NewFromString(v.Raw()); err == nil {
			return d.StringFixed(2)
		}
	}
	return v.Raw()
}

// Row renders rec in column order.
func (f *Formatter) Row(columns []string, rec model.Record) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = f.Cell(col, rec[col])
	}
	return out
}

// Currency renders d with the configured symbol, grouping and two fraction
// digits. Digits come from the decimal itself, so large amounts stay exact.
func (f *Formatter) Currency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	group, point := f.separators()
	return sign + f.symbol + groupThousands(whole, group) + point + frac
}

// separators asks the locale printer for its grouping and decimal marks.
func (f *Formatter) separators() (group, point string) {
	group = strings.TrimSuffix(strings.TrimPrefix(f.printer.Sprintf("%d", 1000), "1"), "000")
	point = strings.TrimSuffix(strings.TrimPrefix(f.printer.Sprintf("%.1f", 0.5), "0"), "5")
	if point == "" {
		point = "."
	}
	return group, point
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date renders t without its time component.
func (f *Formatter) Date(t time.Time) string {
	return t.Format(f.dateLayout)
}

// Header turns a column name into a display label.
func Header(column string) string {
	return strings.ReplaceAll(column, "_", " ")
}

func renderMoney(f *Formatter, v model.Value) (string, bool) {
	d, ok := parseDecimal(v)
	if !ok {
		return "", false
	}
	return f.Currency(d), true
}

func renderDate(f *Formatter, v model.Value) (string, bool) {
	switch v.Kind() {
	case model.KindNumber:
		return f.Date(time.UnixMilli(int64(v.Float())).UTC()), true
	case model.KindString:
		t, ok := model.ParseTime(v.Raw())
		if !ok {
			return "", false
		}
		return f.Date(t), true
	}
	return "", false
}

func parseDecimal(v model.Value) (decimal.Decimal, bool) {
	switch v.Kind() {
	case model.KindNumber:
		if d, err := decimal.NewFromString(v.Raw()); err == nil {
			return d, true
		}
		return decimal.NewFromFloat(v.Float()), true
	case model.KindString:
		s := strings.TrimSpace(v.Raw())
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

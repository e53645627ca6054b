// Package model holds the values exchanged between the answering service,
// the session controller and the presentation layer.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record maps a column name to its cell.
type Record map[string]Value

// QueryResult is the outcome of a successful ask. It is never mutated after
// construction; formatters read it and render copies.
type QueryResult struct {
	GeneratedQuery string
	Columns        []string
	Rows           []Record
}

// Cell returns the value of col in row i. Absent cells are Null.
func (r *QueryResult) Cell(i int, col string) Value {
	if i < 0 || i >= len(r.Rows) {
		return Null()
	}
	return r.Rows[i][col]
}

func (r *QueryResult) Empty() bool { return len(r.Rows) == 0 }

// DecodeRecords decodes a JSON array of objects, keeping the key order of the
// objects as the column order. Keys first seen in later records are appended.
func DecodeRecords(data []byte) ([]string, []Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, nil, err
	}

	var columns []string
	seen := make(map[string]bool)
	var rows []Record

	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, nil, err
		}
		rec := Record{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, nil, fmt.Errorf("decode record key: %w", err)
			}
			key, ok := tok.(string)
			if !ok {
				return nil, nil, fmt.Errorf("decode record key: unexpected %v", tok)
			}
			var v Value
			if err := dec.Decode(&v); err != nil {
				return nil, nil, fmt.Errorf("decode record %q: %w", key, err)
			}
			rec[key] = v
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, nil, err
		}
		rows = append(rows, rec)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, nil, err
	}
	return columns, rows, nil
}

// EncodeRecords is the inverse of DecodeRecords.
func EncodeRecords(columns []string, rows []Record) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			val, err := rec[col].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode records: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("decode records: expected %q, got %v", want, tok)
	}
	return nil
}

// SavedReport is a persisted, replayable question.
type SavedReport struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	CreatedAt Timestamp `json:"created_at"`
}

// DashboardSnapshot is the read-only aggregate shown on the analytics view.
type DashboardSnapshot struct {
	Summary    Summary         `json:"summary"`
	ByCategory []CategoryTotal `json:"by_category"`
	DailyTrend []DailyAmount   `json:"daily_trend"`
}

type Summary struct {
	TotalVolume decimal.Decimal `json:"total_volume"`
	TotalCount  int64           `json:"total_count"`
	AvgAmount   decimal.Decimal `json:"avg_amount"`
}

type CategoryTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type DailyAmount struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Timestamp accepts the date and datetime shapes the service emits.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	parsed, ok := ParseTime(s)
	if !ok {
		return fmt.Errorf("decode timestamp: unrecognised %q", s)
	}
	t.Time = parsed
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseTime parses the ISO-like date and datetime forms returned by the
// service. Values without a zone are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

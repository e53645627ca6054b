package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sadopc/askfin/internal/model"
)

// DefaultCSVName is the file name used when the caller does not pick one.
const DefaultCSVName = "financial_data.csv"

// RowNumberColumn heads the synthetic 1-based row index column.
const RowNumberColumn = "#"

// WriteCSV writes the raw, unformatted cells of res. Null cells are empty.
func WriteCSV(w io.Writer, res *model.QueryResult) error {
	cw := csv.NewWriter(w)

	header := append([]string{RowNumberColumn}, res.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, rec := range res.Rows {
		row := make([]string, 0, len(res.Columns)+1)
		row = append(row, strconv.Itoa(i+1))
		for _, col := range res.Columns {
			row = append(row, rec[col].Raw())
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ToCSV writes res to path.
func ToCSV(res *model.QueryResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, res); err != nil {
		return err
	}
	return f.Close()
}

// ParseCSV reads an export back into column names and raw cell rows,
// dropping the row number column. Carriage returns inside quoted cells are
// kept as written.
func ParseCSV(r io.Reader) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	data, marker := protectQuotedCR(data)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if marker != "" {
		for _, rec := range records {
			for i, f := range rec {
				rec[i] = strings.ReplaceAll(f, marker, "\r")
			}
		}
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read csv: missing header")
	}
	header := records[0]
	if len(header) == 0 || header[0] != RowNumberColumn {
		return nil, nil, fmt.Errorf("read csv: first column is %q, want %q", first(header), RowNumberColumn)
	}

	rows := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if rec[0] != strconv.Itoa(i+1) {
			return nil, nil, fmt.Errorf("read csv: row %d numbered %q", i+1, rec[0])
		}
		rows = append(rows, rec[1:])
	}
	return header[1:], rows, nil
}

// protectQuotedCR swaps every '\r' inside a quoted field for a rune that
// does not occur in data, since csv.Reader folds "\r\n" to "\n" there.
// It returns the marker, or "" when nothing was swapped.
func protectQuotedCR(data []byte) ([]byte, string) {
	if !bytes.ContainsRune(data, '\r') {
		return data, ""
	}
	mark := rune(0xE000)
	for bytes.ContainsRune(data, mark) {
		mark++
	}
	marker := string(mark)

	out := make([]byte, 0, len(data))
	quoted, swapped := false, false
	for _, b := range data {
		switch {
		case b == '"':
			quoted = !quoted
		case b == '\r' && quoted:
			out = append(out, marker...)
			swapped = true
			continue
		}
		out = append(out, b)
	}
	if !swapped {
		return data, ""
	}
	return out, marker
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

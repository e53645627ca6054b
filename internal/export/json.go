package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/askfin/internal/model"
)

// DefaultJSONName is the JSON counterpart of DefaultCSVName.
const DefaultJSONName = "financial_data.json"

type jsonExport struct {
	ExportedAt string          `json:"exported_at"`
	Query      string          `json:"query"`
	SQL        string          `json:"sql"`
	Columns    []string        `json:"columns"`
	Count      int             `json:"count"`
	Rows       json.RawMessage `json:"rows"`
}

// WriteJSON writes res, with the question that produced it, as indented
// JSON. Unlike CSV it keeps the null/number/string distinction.
func WriteJSON(w io.Writer, res *model.QueryResult, query string) error {
	rows, err := model.EncodeRecords(res.Columns, res.Rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}

	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Query:      query,
		SQL:        res.GeneratedQuery,
		Columns:    res.Columns,
		Count:      len(res.Rows),
		Rows:       rows,
	}
	if export.Columns == nil {
		export.Columns = []string{}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// ToJSON writes the WriteJSON document to path.
func ToJSON(res *model.QueryResult, query, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, res, query); err != nil {
		return err
	}
	return f.Close()
}

// ParseJSON reads a ToJSON file back into a result and its question.
func ParseJSON(data []byte) (*model.QueryResult, string, error) {
	var in jsonExport
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, "", fmt.Errorf("unmarshal json: %w", err)
	}
	cols, rows, err := model.DecodeRecords(in.Rows)
	if err != nil {
		return nil, "", err
	}
	if len(in.Columns) > 0 {
		cols = in.Columns
	}
	return &model.QueryResult{GeneratedQuery: in.SQL, Columns: cols, Rows: rows}, in.Query, nil
}

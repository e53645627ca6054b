package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/askfin/internal/model"
)

// ErrNotReadOnly rejects statements RunQuery will not execute.
var ErrNotReadOnly = errors.New("only single SELECT or WITH statements are allowed")

// ReadOnly reports whether query is a single SELECT or WITH statement.
func ReadOnly(query string) bool {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if q == "" || strings.Contains(q, ";") {
		return false
	}
	first := strings.ToUpper(strings.Fields(q)[0])
	return first == "SELECT" || first == "WITH"
}

// RunQuery executes a read-only statement and returns its rows with the
// column order the database reports.
func (s *Store) RunQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	if !ReadOnly(query) {
		return nil, ErrNotReadOnly
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("enable query_only: %w", err)
	}
	defer restoreWrites(conn)

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	cols := uniqueColumns(names)

	res := &model.QueryResult{GeneratedQuery: strings.TrimSpace(query), Columns: cols, Rows: []model.Record{}}
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec := make(model.Record, len(cols))
		for i, col := range cols {
			rec[col] = toValue(dest[i])
		}
		res.Rows = append(res.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	return res, nil
}

// restoreWrites turns query_only back off before conn returns to the pool.
// If that fails the connection is discarded so no later write lands on a
// read-only connection.
func restoreWrites(conn *sql.Conn) {
	if _, err := conn.ExecContext(context.Background(), "PRAGMA query_only = OFF"); err != nil {
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
}

func toValue(v any) model.Value {
	switch x := v.(type) {
	case nil:
		return model.Null()
	case int64:
		return model.Number(float64(x))
	case float64:
		return model.Number(x)
	case bool:
		if x {
			return model.Number(1)
		}
		return model.Number(0)
	case []byte:
		return model.String(string(x))
	case string:
		return model.String(x)
	case time.Time:
		return model.String(x.Format(time.RFC3339))
	}
	return model.String(fmt.Sprint(v))
}

// uniqueColumns suffixes repeated names so every column keeps its own cell.
// A suffix never collides with a name the database reported.
func uniqueColumns(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	count := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		count[n]++
		if count[n] == 1 {
			out[i] = n
			continue
		}
		k := count[n]
		for taken[n+"_"+strconv.Itoa(k)] {
			k++
		}
		out[i] = n + "_" + strconv.Itoa(k)
		taken[out[i]] = true
	}
	return out
}

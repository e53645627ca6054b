package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/askfin/internal/model"
)

func (s *Store) CreateReport(ctx context.Context, name, query string) (*model.SavedReport, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_reports (name, query, created_at) VALUES (?, ?, ?)`,
		name, query, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetReport(ctx, id)
}

func (s *Store) GetReport(ctx context.Context, id int64) (*model.SavedReport, error) {
	r := &model.SavedReport{}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, query, created_at FROM saved_reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &r.Query, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	r.CreatedAt.Time, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

// ListReports returns every report, newest first.
func (s *Store) ListReports(ctx context.Context) ([]model.SavedReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, query, created_at FROM saved_reports ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []model.SavedReport{}
	for rows.Next() {
		var r model.SavedReport
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Name, &r.Query, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt.Time, _ = time.Parse(time.RFC3339, createdAt)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// DeleteReport removes a report; model.ErrNotFound if it does not exist.
func (s *Store) DeleteReport(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete report %d: %w", id, model.ErrNotFound)
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sadopc/askfin/internal/model"
	"github.com/shopspring/decimal"
)

func (s *Store) CreateCustomer(ctx context.Context, name, email, city, state string) (*Customer, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, email, city, state) VALUES (?, ?, ?, ?)`,
		name, email, city, state,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Customer{ID: id, Name: name, Email: email, City: city, State: state}, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (customer_id, amount, category, date, description) VALUES (?, ?, ?, ?, ?)`,
		tx.CustomerID, tx.Amount, tx.Category, tx.Date.Format(dateLayout), tx.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID, _ = res.LastInsertId()
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	query := `SELECT id, customer_id, amount, category, date, description FROM transactions WHERE 1=1`
	var args []any

	if f.CustomerID != nil {
		query += ` AND customer_id = ?`
		args = append(args, *f.CustomerID)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.From != nil {
		query += ` AND date >= ?`
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		query += ` AND date < ?`
		args = append(args, f.To.Format(dateLayout))
	}
	query += ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var date string
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Amount, &t.Category, &date, &t.Description); err != nil {
			return nil, err
		}
		t.Date, _ = time.Parse(dateLayout, date)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// Dashboard aggregates every transaction into the analytics snapshot.
func (s *Store) Dashboard(ctx context.Context) (*model.DashboardSnapshot, error) {
	snap := &model.DashboardSnapshot{
		ByCategory: []model.CategoryTotal{},
		DailyTrend: []model.DailyAmount{},
	}

	var total, avg float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*), COALESCE(AVG(amount), 0) FROM transactions`,
	).Scan(&total, &snap.Summary.TotalCount, &avg)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	snap.Summary.TotalVolume = money(total)
	snap.Summary.AvgAmount = money(avg)

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount)
		FROM transactions
		GROUP BY category
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("dashboard by category: %w", err)
	}
	for rows.Next() {
		var c model.CategoryTotal
		var v float64
		if err := rows.Scan(&c.Name, &v); err != nil {
			rows.Close()
			return nil, err
		}
		c.Value = money(v)
		snap.ByCategory = append(snap.ByCategory, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT date, SUM(amount)
		FROM transactions
		GROUP BY date
		ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("dashboard daily trend: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d model.DailyAmount
		var v float64
		if err := rows.Scan(&d.Date, &v); err != nil {
			return nil, err
		}
		d.Amount = money(v)
		snap.DailyTrend = append(snap.DailyTrend, d)
	}
	return snap, rows.Err()
}

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

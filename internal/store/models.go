package store

import "time"

type Customer struct {
	ID    int64
	Name  string
	Email string
	City  string
	State string
}

type Transaction struct {
	ID          int64
	CustomerID  int64
	Amount      float64
	Category    string
	Date        time.Time
	Description string
}

// TransactionFilter is used to filter transactions in queries.
type TransactionFilter struct {
	CustomerID *int64
	Category   string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// dateLayout is how transaction dates are stored.
const dateLayout = "2006-01-02"

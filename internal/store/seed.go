package store

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	SeedCustomers    = 20
	SeedTransactions = 150
)

// Categories are the spending categories of seeded transactions.
var Categories = []string{"Food", "Travel", "Utilities", "Entertainment", "Shopping", "Healthcare"}

var (
	firstNames = []string{"Aarav", "Priya", "Rohan", "Ananya", "Vikram", "Meera", "Arjun", "Kavya", "Sanjay", "Isha", "Nikhil", "Divya"}
	lastNames  = []string{"Sharma", "Iyer", "Patel", "Reddy", "Gupta", "Nair", "Mehta", "Rao", "Singh", "Das"}
	places     = [][2]string{
		{"Mumbai", "Maharashtra"}, {"Pune", "Maharashtra"}, {"Bengaluru", "Karnataka"},
		{"Chennai", "Tamil Nadu"}, {"Hyderabad", "Telangana"}, {"Kolkata", "West Bengal"},
		{"Jaipur", "Rajasthan"}, {"Kochi", "Kerala"}, {"Ahmedabad", "Gujarat"},
	}
	descriptions = map[string][]string{
		"Food":          {"Dinner with friends", "Weekly groceries", "Lunch delivery", "Coffee and snacks"},
		"Travel":        {"Flight to Delhi", "Train tickets", "Hotel booking", "Airport cab"},
		"Utilities":     {"Electricity bill", "Water bill", "Mobile recharge", "Broadband plan"},
		"Entertainment": {"Movie tickets", "Concert pass", "Streaming subscription", "Bowling night"},
		"Shopping":      {"New headphones", "Festival clothes", "Kitchen appliances", "Books order"},
		"Healthcare":    {"Pharmacy purchase", "Dental checkup", "Lab tests", "Clinic consultation"},
	}
)

// Seed fills an empty database with sample customers and transactions dated
// within the year before now. It does nothing when customers already exist.
func (s *Store) Seed(ctx context.Context, rng *rand.Rand, now time.Time) (bool, error) {
	n, err := s.CountCustomers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	customers := make([]*Customer, 0, SeedCustomers)
	for i := 0; i < SeedCustomers; i++ {
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]
		place := places[rng.IntN(len(places))]
		email := fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1)
		c, err := s.CreateCustomer(ctx, first+" "+last, email, place[0], place[1])
		if err != nil {
			return false, fmt.Errorf("seed customer: %w", err)
		}
		customers = append(customers, c)
	}

	start := now.AddDate(-1, 0, 0)
	days := int(now.Sub(start).Hours() / 24)
	for i := 0; i < SeedTransactions; i++ {
		c := customers[rng.IntN(len(customers))]
		cat := Categories[rng.IntN(len(Categories))]
		opts := descriptions[cat]
		amount := math.Round((10+rng.Float64()*4990)*100) / 100
		_, err := s.CreateTransaction(ctx, Transaction{
			CustomerID:  c.ID,
			Amount:      amount,
			Category:    cat,
			Date:        start.AddDate(0, 0, rng.IntN(days+1)),
			Description: opts[rng.IntN(len(opts))],
		})
		if err != nil {
			return false, fmt.Errorf("seed transaction: %w", err)
		}
	}
	return true, nil
}

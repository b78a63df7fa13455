package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Summary is the dashboard view derived from a state at a given instant.
type Summary struct {
	WeekStart       time.Time        `json:"weekStart"`
	WeeklyTotal     float64          `json:"weeklyTotal"`
	WeeklyLimit     float64          `json:"weeklyLimit"`
	LimitExceeded   bool             `json:"limitExceeded"`
	ByCategory      []CategoryAmount `json:"byCategory"`
	GoalPercent     float64          `json:"goalPercent"`
	PendingImpulses int              `json:"pendingImpulses"`
	HealthPoints    int              `json:"healthPoints"`
}

// Summarize computes the weekly figures, category split and goal progress.
// Without a registered user the limit fields stay zero.
func Summarize(s AppState, now time.Time) Summary {
	var limit float64
	if s.User != nil {
		limit = s.User.WeeklyLimit
	}
	week := CheckWeeklyLimit(s.Expenses, limit, now)

	sum := Summary{
		WeekStart:     week.WeekStart,
		WeeklyTotal:   week.Total,
		WeeklyLimit:   limit,
		LimitExceeded: s.User != nil && week.Exceeded,
		HealthPoints:  s.HealthPoints,
	}

	byCat := map[string]decimal.Decimal{}
	for _, e := range ExpensesSince(s.Expenses, week.WeekStart) {
		byCat[e.Category] = byCat[e.Category].Add(decimal.NewFromFloat(e.Amount))
	}
	for name, amt := range byCat {
		sum.ByCategory = append(sum.ByCategory, CategoryAmount{Name: name, Amount: amt.InexactFloat64()})
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		if sum.ByCategory[i].Amount != sum.ByCategory[j].Amount {
			return sum.ByCategory[i].Amount > sum.ByCategory[j].Amount
		}
		return sum.ByCategory[i].Name < sum.ByCategory[j].Name
	})

	if s.Goal.TargetAmount > 0 {
		pct := decimal.NewFromFloat(s.Goal.CurrentAmount).
			Div(decimal.NewFromFloat(s.Goal.TargetAmount)).
			Mul(decimal.NewFromInt(100)).
			Round(1)
		if pct.GreaterThan(decimal.NewFromInt(100)) {
			pct = decimal.NewFromInt(100)
		}
		sum.GoalPercent = pct.InexactFloat64()
	}

	for _, p := range s.ImpulsePurchases {
		if p.Status == ImpulsePending {
			sum.PendingImpulses++
		}
	}
	return sum
}

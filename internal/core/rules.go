package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeklySpend is the outcome of the weekly limit check.
type WeeklySpend struct {
	WeekStart time.Time
	Total     float64
	Limit     float64
	Exceeded  bool
}

// StartOfWeek returns the most recent Sunday at midnight in now's location.
// On a Sunday that is today at midnight.
func StartOfWeek(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(now.Weekday()))
}

// ExpensesSince returns the expenses dated on or after start.
func ExpensesSince(expenses []Expense, start time.Time) []Expense {
	var out []Expense
	for _, e := range expenses {
		if !e.Date.Before(start) {
			out = append(out, e)
		}
	}
	return out
}

// CheckWeeklyLimit sums this week's expenses and compares them to the limit.
// Exceeded uses strict inequality: spending exactly the limit is fine.
func CheckWeeklyLimit(expenses []Expense, limit float64, now time.Time) WeeklySpend {
	start := StartOfWeek(now)
	total := SumAmounts(ExpensesSince(expenses, start))
	return WeeklySpend{
		WeekStart: start,
		Total:     total.InexactFloat64(),
		Limit:     limit,
		Exceeded:  total.GreaterThan(decimal.NewFromFloat(limit)),
	}
}

// RetentionCutoff is now minus the retention window in calendar months.
func RetentionCutoff(now time.Time) time.Time {
	return now.AddDate(0, -RetentionMonths, 0)
}

// PruneExpenses keeps expenses strictly newer than the retention cutoff.
// The bool reports whether anything was dropped; the input is not modified.
func PruneExpenses(expenses []Expense, now time.Time) ([]Expense, bool) {
	cutoff := RetentionCutoff(now)
	kept := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept, len(kept) != len(expenses)
}

// EligibleImpulses returns the pending purchases whose speedbump is over.
func EligibleImpulses(purchases []ImpulsePurchase, now time.Time) []ImpulsePurchase {
	var out []ImpulsePurchase
	for _, p := range purchases {
		if p.Eligible(now) {
			out = append(out, p)
		}
	}
	return out
}

package core

import (
	"math"
	"testing"
	"time"
)

func TestNewAppStateDefaults(t *testing.T) {
	s := NewAppState()
	if s.User != nil {
		t.Fatalf("expected no user")
	}
	if len(s.Expenses) != 0 || len(s.ImpulsePurchases) != 0 || len(s.Inventory) != 0 {
		t.Fatalf("expected empty collections, got %+v", s)
	}
	if s.HealthPoints != 100 {
		t.Fatalf("expected 100 points, got %d", s.HealthPoints)
	}
	g := s.Goal
	if g.Name != "Flight to Tokyo" || g.TargetAmount != 100000 || g.CurrentAmount != 0 || g.ViceName != "Daily Coffee" || g.VicePrice != 250 {
		t.Fatalf("unexpected default goal: %+v", g)
	}
}

func TestUserProfileValidate(t *testing.T) {
	good := UserProfile{Name: "Asha", Mobile: "+91 9000000000", Country: India, Currency: INR, WeeklyLimit: 1000}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []UserProfile{
		{Name: " ", Currency: INR, WeeklyLimit: 1000},
		{Name: "a", Currency: "JPY", WeeklyLimit: 1000},
		{Name: "a", Currency: USD, WeeklyLimit: 0},
		{Name: "a", Currency: USD, WeeklyLimit: -5},
		{Name: "a", Currency: USD, WeeklyLimit: math.NaN()},
	}
	for i, u := range bads {
		if err := u.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGoalValidateAndReached(t *testing.T) {
	g := DefaultGoal()
	if err := g.Validate(); err != nil {
		t.Fatalf("default goal invalid: %v", err)
	}
	if g.Reached() {
		t.Fatalf("default goal should not be reached")
	}
	g.CurrentAmount = g.TargetAmount
	if !g.Reached() {
		t.Fatalf("goal at target should count as reached")
	}

	bads := []Goal{
		{Name: "", TargetAmount: 1, VicePrice: 1},
		{Name: "x", TargetAmount: 0, VicePrice: 1},
		{Name: "x", TargetAmount: 1, VicePrice: 0},
		{Name: "x", TargetAmount: 1, VicePrice: 1, CurrentAmount: -1},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestImpulseEligibility(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := ImpulsePurchase{ID: "x", Amount: 10, CreatedAt: created, Status: ImpulsePending}

	if p.Eligible(created.Add(23*time.Hour + 59*time.Minute)) {
		t.Fatalf("should still be held at 23h59m")
	}
	if !p.Eligible(created.Add(24 * time.Hour)) {
		t.Fatalf("should be eligible at exactly 24h")
	}
	if !p.Eligible(created.Add(24*time.Hour + time.Minute)) {
		t.Fatalf("should be eligible at 24h01m")
	}

	p.Status = ImpulseCancelled
	if p.Eligible(created.Add(48 * time.Hour)) {
		t.Fatalf("resolved purchases are never eligible")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	prompted := time.Now()
	s := NewAppState()
	s.User = &UserProfile{Name: "a"}
	s.Expenses = []Expense{{ID: "e1", Amount: 1}}
	s.ImpulsePurchases = []ImpulsePurchase{{ID: "i1", PromptedAt: &prompted}}
	s.Inventory = []string{"badge_newbie"}

	c := s.Clone()
	c.User.Name = "b"
	c.Expenses[0].Amount = 99
	*c.ImpulsePurchases[0].PromptedAt = time.Time{}
	c.Inventory[0] = "other"

	if s.User.Name != "a" || s.Expenses[0].Amount != 1 || s.Inventory[0] != "badge_newbie" {
		t.Fatalf("clone aliased original: %+v", s)
	}
	if s.ImpulsePurchases[0].PromptedAt.IsZero() {
		t.Fatalf("clone aliased prompted time")
	}
}

func TestCatalogLookup(t *testing.T) {
	r, ok := FindReward("badge_warrior")
	if !ok || r.Cost != 300 || r.Type != RewardBadge {
		t.Fatalf("unexpected reward: %+v ok=%v", r, ok)
	}
	if _, ok := FindReward("nope"); ok {
		t.Fatalf("unknown reward should not be found")
	}
	if len(Rewards()) != 6 {
		t.Fatalf("expected 6 catalog entries")
	}
	if EUR.Symbol() != "€" || CurrencyCode("XYZ").Symbol() != "XYZ" {
		t.Fatalf("unexpected symbols")
	}
}

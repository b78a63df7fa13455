package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	INR CurrencyCode = "INR"
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
)

const (
	India   Country = "India"
	USA     Country = "USA"
	UK      Country = "UK"
	Germany Country = "Germany"
)

const (
	ImpulsePending   ImpulseStatus = "pending"
	ImpulseCompleted ImpulseStatus = "completed"
	ImpulseCancelled ImpulseStatus = "cancelled"
)

const (
	RewardBadge   RewardType = "badge"
	RewardVoucher RewardType = "voucher"
)

type (
	CurrencyCode  string
	Country       string
	ImpulseStatus string
	RewardType    string

	UserProfile struct {
		Name        string       `json:"name"`
		Mobile      string       `json:"mobile"`
		Country     Country      `json:"country"`
		Currency    CurrencyCode `json:"currency"`
		WeeklyLimit float64      `json:"weeklyLimit"`
	}

	Expense struct {
		ID             string    `json:"id"`
		Amount         float64   `json:"amount"`
		Category       string    `json:"category"`
		Description    string    `json:"description"`
		Date           time.Time `json:"date"`
		IsSubscription bool      `json:"isSubscription,omitempty"`
	}

	ImpulsePurchase struct {
		ID          string        `json:"id"`
		Amount      float64       `json:"amount"`
		Description string        `json:"description"`
		CreatedAt   time.Time     `json:"createdAt"`
		Status      ImpulseStatus `json:"status"`
		// PromptedAt is set once the user has been asked to decide.
		PromptedAt *time.Time `json:"promptedAt,omitempty"`
	}

	Goal struct {
		Name          string  `json:"name"`
		TargetAmount  float64 `json:"targetAmount"`
		CurrentAmount float64 `json:"currentAmount"`
		ViceName      string  `json:"viceName"`
		VicePrice     float64 `json:"vicePrice"`
	}

	Reward struct {
		ID   string     `json:"id"`
		Name string     `json:"name"`
		Cost int        `json:"cost"`
		Icon string     `json:"icon"`
		Type RewardType `json:"type"`
	}

	// AppState is the aggregate persisted as a single snapshot.
	AppState struct {
		User             *UserProfile      `json:"user"`
		Expenses         []Expense         `json:"expenses"`
		ImpulsePurchases []ImpulsePurchase `json:"impulsePurchases"`
		Goal             Goal              `json:"goal"`
		HealthPoints     int               `json:"healthPoints"`
		Inventory        []string          `json:"inventory"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidLimit       = errors.New("weekly limit must be positive")
	ErrInvalidCurrency    = errors.New("unsupported currency")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidGoal        = errors.New("invalid goal")
	ErrNoUser             = errors.New("no registered user")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrInsufficientPoints = errors.New("not enough health points")
	ErrImpulseNotFound    = errors.New("impulse purchase not found")
	ErrSpeedbumpActive    = errors.New("speedbump still active")
	ErrImpulseResolved    = errors.New("impulse purchase already resolved")
	ErrInvalidDecision    = errors.New("invalid impulse decision")
)

// DefaultGoal is the goal every fresh state starts with.
func DefaultGoal() Goal {
	return Goal{
		Name:          "Flight to Tokyo",
		TargetAmount:  100000,
		CurrentAmount: 0,
		ViceName:      "Daily Coffee",
		VicePrice:     250,
	}
}

// NewAppState returns the first-run state.
func NewAppState() AppState {
	return AppState{
		User:             nil,
		Expenses:         []Expense{},
		ImpulsePurchases: []ImpulsePurchase{},
		Goal:             DefaultGoal(),
		HealthPoints:     InitialHealthPoints,
		Inventory:        []string{},
	}
}

// Clone returns a deep copy so readers never alias the committed snapshot.
func (s AppState) Clone() AppState {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Expenses = append([]Expense{}, s.Expenses...)
	out.ImpulsePurchases = make([]ImpulsePurchase, len(s.ImpulsePurchases))
	for i, p := range s.ImpulsePurchases {
		if p.PromptedAt != nil {
			t := *p.PromptedAt
			p.PromptedAt = &t
		}
		out.ImpulsePurchases[i] = p
	}
	out.Inventory = append([]string{}, s.Inventory...)
	return out
}

func (c CurrencyCode) IsValid() bool {
	_, ok := currencySymbols[c]
	return ok
}

func (c Country) IsValid() bool {
	switch c {
	case India, USA, UK, Germany:
		return true
	default:
		return false
	}
}

func (u UserProfile) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !u.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if !ValidAmount(u.WeeklyLimit) {
		return ErrInvalidLimit
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrInvalidGoal
	}
	if !ValidAmount(g.TargetAmount) || !ValidAmount(g.VicePrice) {
		return ErrInvalidGoal
	}
	if g.CurrentAmount < 0 || math.IsNaN(g.CurrentAmount) || math.IsInf(g.CurrentAmount, 0) {
		return ErrInvalidGoal
	}
	return nil
}

// Reached reports whether the saved amount meets the target.
func (g Goal) Reached() bool {
	return g.CurrentAmount >= g.TargetAmount
}

// Age is how long the purchase has been held at the given instant.
func (p ImpulsePurchase) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}

// Eligible reports whether the speedbump is over and a decision can be made.
func (p ImpulsePurchase) Eligible(now time.Time) bool {
	return p.Status == ImpulsePending && p.Age(now) >= SpeedbumpHold
}

func (s ImpulseStatus) IsFinal() bool {
	return s == ImpulseCompleted || s == ImpulseCancelled
}

// ValidAmount reports whether v is a finite, strictly positive amount.
func ValidAmount(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

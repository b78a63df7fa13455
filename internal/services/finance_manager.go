package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finhealth/internal/core"
	"finhealth/internal/log"
	"finhealth/internal/notify"
	"finhealth/internal/persist"
)

// errNoChange aborts an update without saving or committing.
var errNoChange = errors.New("no change")

// FinanceManager owns the single AppState. Every mutation is a pure
// transformation of the latest committed state, persisted before it is
// committed, so a failed save leaves the state as it was.
type FinanceManager struct {
	mu    sync.Mutex
	state core.AppState

	store    persist.StateStore
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*FinanceManager)

func WithNotifier(n notify.Notifier) Option {
	return func(m *FinanceManager) { m.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(m *FinanceManager) { m.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(m *FinanceManager) { m.newID = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(m *FinanceManager) { m.logger = l }
}

// NewFinanceManager loads the persisted state, falling back to the first-run
// defaults when nothing was stored, and runs the load-time observation
// (retention pruning and the weekly limit check).
func NewFinanceManager(ctx context.Context, store persist.StateStore, opts ...Option) (*FinanceManager, error) {
	if store == nil {
		return nil, errors.New("nil state store")
	}
	m := &FinanceManager{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentState),
	}
	for _, opt := range opts {
		opt(m)
	}

	loaded, ok, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		loaded = core.NewAppState()
	}
	m.state = normalize(loaded)
	m.logger.InfoContext(ctx, "State loaded",
		log.FieldOperation, log.OpLoad,
		"found", ok,
		"registered", m.state.User != nil,
		"expenses", len(m.state.Expenses),
		log.FieldHealthPoints, m.state.HealthPoints)

	// The load itself counts as a spending change for the weekly check.
	if _, err := m.update(ctx, log.OpObserve, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		return prev, nil, errNoChange
	}, true); err != nil {
		return nil, err
	}
	return m, nil
}

// normalize fills nil collections in states written by older clients.
func normalize(s core.AppState) core.AppState {
	if s.Expenses == nil {
		s.Expenses = []core.Expense{}
	}
	if s.ImpulsePurchases == nil {
		s.ImpulsePurchases = []core.ImpulsePurchase{}
	}
	if s.Inventory == nil {
		s.Inventory = []string{}
	}
	if s.Goal == (core.Goal{}) {
		s.Goal = core.DefaultGoal()
	}
	return s
}

// Snapshot returns a deep copy of the committed state.
func (m *FinanceManager) Snapshot() core.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Now exposes the manager's clock to callers that render relative times.
func (m *FinanceManager) Now() time.Time {
	return m.now()
}

// Summary aggregates the committed state for dashboards.
func (m *FinanceManager) Summary() core.Summary {
	return core.Summarize(m.Snapshot(), m.now())
}

// Register stores the user profile, replacing any previous one.
func (m *FinanceManager) Register(ctx context.Context, u core.UserProfile) (core.UserProfile, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Mobile = strings.TrimSpace(u.Mobile)
	if err := u.Validate(); err != nil {
		return core.UserProfile{}, err
	}
	_, err := m.update(ctx, log.OpRegister, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		p := u
		prev.User = &p
		return prev, nil, nil
	}, false)
	if err != nil {
		return core.UserProfile{}, err
	}
	return u, nil
}

// Reset clears the user profile and returns to onboarding. Expenses, goal,
// points and inventory are kept.
func (m *FinanceManager) Reset(ctx context.Context) error {
	_, err := m.update(ctx, log.OpReset, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		prev.User = nil
		return prev, nil, nil
	}, false)
	return err
}

// ExpenseInput is a manual or captured expense before it gets an id and date.
type ExpenseInput struct {
	Amount         float64
	Description    string
	Category       string
	IsSubscription bool
}

// ExpenseResult is the logged expense with the balance it committed.
type ExpenseResult struct {
	core.Expense
	HealthPoints int
}

// AddExpense prepends a new expense and grants the logging reward.
func (m *FinanceManager) AddExpense(ctx context.Context, in ExpenseInput) (ExpenseResult, error) {
	if err := validateAmount(in.Amount); err != nil {
		return ExpenseResult{}, err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return ExpenseResult{}, core.ErrEmptyDescription
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = core.DefaultCategory
	}
	e := core.Expense{
		ID:             m.newID(),
		Amount:         in.Amount,
		Category:       category,
		Description:    desc,
		Date:           m.now(),
		IsSubscription: in.IsSubscription,
	}

	next, err := m.update(ctx, log.OpAddExpense, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		return withExpense(prev, e), nil, nil
	}, false)
	if err != nil {
		return ExpenseResult{}, err
	}
	m.logger.InfoContext(ctx, "Expense logged",
		log.NewFields().WithExpense(e.ID, e.Amount, e.Category).WithPoints(next.HealthPoints).ToSlice()...)
	return ExpenseResult{Expense: e, HealthPoints: next.HealthPoints}, nil
}

func withExpense(s core.AppState, e core.Expense) core.AppState {
	s.Expenses = append([]core.Expense{e}, s.Expenses...)
	s.HealthPoints += core.ExpenseLogReward
	return s
}

// ViceResult reports the goal after a resisted vice.
type ViceResult struct {
	Goal         core.Goal `json:"goal"`
	HealthPoints int       `json:"healthPoints"`
	Reached      bool      `json:"reached"`
}

// TriggerVice credits the vice price towards the goal and grants the
// discipline reward. Reaching the target raises an alert; there is no cap,
// further clicks keep adding.
func (m *FinanceManager) TriggerVice(ctx context.Context) (ViceResult, error) {
	next, err := m.update(ctx, log.OpTriggerVice, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		prev.Goal.CurrentAmount += prev.Goal.VicePrice
		prev.HealthPoints += core.ViceDisciplineReward
		var notices []notify.Notice
		if prev.Goal.Reached() {
			notices = append(notices, notify.Notice{
				Kind:    notify.KindAlert,
				Message: core.GoalReachedMessage(prev.Goal.Name),
			})
		}
		return prev, notices, nil
	}, false)
	if err != nil {
		return ViceResult{}, err
	}
	return ViceResult{Goal: next.Goal, HealthPoints: next.HealthPoints, Reached: next.Goal.Reached()}, nil
}

// SetGoal replaces the goal definition. The saved amount is kept unless the
// caller provides one.
func (m *FinanceManager) SetGoal(ctx context.Context, g core.Goal, keepProgress bool) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.ViceName = strings.TrimSpace(g.ViceName)
	next, err := m.update(ctx, log.OpSetGoal, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		if keepProgress {
			g.CurrentAmount = prev.Goal.CurrentAmount
		}
		if err := g.Validate(); err != nil {
			return prev, nil, err
		}
		prev.Goal = g
		return prev, nil, nil
	}, false)
	if err != nil {
		return core.Goal{}, err
	}
	return next.Goal, nil
}

// FlagImpulsePurchase puts a purchase on hold behind the 24h speedbump.
func (m *FinanceManager) FlagImpulsePurchase(ctx context.Context, amount float64, description string) (core.ImpulsePurchase, error) {
	if err := validateAmount(amount); err != nil {
		return core.ImpulsePurchase{}, err
	}
	p := core.ImpulsePurchase{
		ID:          m.newID(),
		Amount:      amount,
		Description: strings.TrimSpace(description),
		CreatedAt:   m.now(),
		Status:      core.ImpulsePending,
	}
	_, err := m.update(ctx, log.OpFlagImpulse, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		prev.ImpulsePurchases = append([]core.ImpulsePurchase{p}, prev.ImpulsePurchases...)
		return prev, []notify.Notice{{Kind: notify.KindAlert, Message: core.SpeedbumpMessage}}, nil
	}, false)
	if err != nil {
		return core.ImpulsePurchase{}, err
	}
	return p, nil
}

// ScanImpulses returns every pending purchase whose hold is over. Purchases
// becoming eligible for the first time are marked as prompted and announced
// once; later scans return them without repeating the prompt.
func (m *FinanceManager) ScanImpulses(ctx context.Context) ([]core.ImpulsePurchase, error) {
	next, err := m.update(ctx, log.OpScanImpulse, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		now := m.now()
		var notices []notify.Notice
		for i, p := range prev.ImpulsePurchases {
			if !p.Eligible(now) || p.PromptedAt != nil {
				continue
			}
			at := now
			prev.ImpulsePurchases[i].PromptedAt = &at
			notices = append(notices, notify.Notice{
				Kind:    notify.KindAlert,
				Message: core.SpeedbumpOverMessage(p.Description),
			})
		}
		if len(notices) == 0 {
			return prev, nil, errNoChange
		}
		return prev, notices, nil
	}, false)
	if err != nil {
		return nil, err
	}
	return core.EligibleImpulses(next.ImpulsePurchases, m.now()), nil
}

// ResolveImpulse records the user's decision on a purchase whose hold is
// over. Completing it logs the purchase as an expense.
func (m *FinanceManager) ResolveImpulse(ctx context.Context, id string, decision core.ImpulseStatus) (core.ImpulsePurchase, error) {
	if !decision.IsFinal() {
		return core.ImpulsePurchase{}, core.ErrInvalidDecision
	}
	var resolved core.ImpulsePurchase
	_, err := m.update(ctx, log.OpResolve, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		idx := -1
		for i, p := range prev.ImpulsePurchases {
			if p.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return prev, nil, core.ErrImpulseNotFound
		}
		p := prev.ImpulsePurchases[idx]
		now := m.now()
		switch {
		case p.Status.IsFinal():
			return prev, nil, core.ErrImpulseResolved
		case !p.Eligible(now):
			return prev, nil, core.ErrSpeedbumpActive
		}

		p.Status = decision
		prev.ImpulsePurchases[idx] = p
		if decision == core.ImpulseCompleted {
			desc := p.Description
			if desc == "" {
				desc = core.ImpulseCategory
			}
			prev = withExpense(prev, core.Expense{
				ID:          m.newID(),
				Amount:      p.Amount,
				Category:    core.ImpulseCategory,
				Description: desc,
				Date:        now,
			})
		}
		resolved = p
		return prev, nil, nil
	}, decision == core.ImpulseCompleted)
	if err != nil {
		return core.ImpulsePurchase{}, err
	}
	return resolved, nil
}

// RedeemResult is the redeemed reward with the balance and inventory it
// committed.
type RedeemResult struct {
	core.Reward
	HealthPoints int
	Inventory    []string
}

// Redeem exchanges health points for a catalog reward. Repeat redemptions
// are allowed. On insufficient points the state is left untouched and an
// alert is raised.
func (m *FinanceManager) Redeem(ctx context.Context, rewardID string) (RedeemResult, error) {
	reward, ok := core.FindReward(rewardID)
	if !ok {
		return RedeemResult{}, core.ErrRewardNotFound
	}
	next, err := m.update(ctx, log.OpRedeem, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		if prev.HealthPoints < reward.Cost {
			return prev, nil, core.ErrInsufficientPoints
		}
		prev.HealthPoints -= reward.Cost
		prev.Inventory = append(prev.Inventory, reward.ID)
		return prev, []notify.Notice{{Kind: notify.KindAlert, Message: core.RedeemedMessage(reward.Name)}}, nil
	}, false)
	if errors.Is(err, core.ErrInsufficientPoints) {
		m.notify(ctx, []notify.Notice{{Kind: notify.KindAlert, Message: core.InsufficientPointsMessage}})
	}
	if err != nil {
		return RedeemResult{}, err
	}
	return RedeemResult{Reward: reward, HealthPoints: next.HealthPoints, Inventory: next.Inventory}, nil
}

// Observe re-applies retention against the current clock. Meant for a
// periodic caller; it saves only when something expired.
func (m *FinanceManager) Observe(ctx context.Context) error {
	_, err := m.update(ctx, log.OpObserve, func(prev core.AppState) (core.AppState, []notify.Notice, error) {
		return prev, nil, errNoChange
	}, false)
	return err
}

// update runs fn against a copy of the committed state, applies retention
// and the weekly check, persists, and only then commits. Notices are
// delivered after the lock is released. forceCheck runs the weekly check
// even when fn did not touch spending data.
func (m *FinanceManager) update(ctx context.Context, op string, fn func(prev core.AppState) (core.AppState, []notify.Notice, error), forceCheck bool) (core.AppState, error) {
	m.mu.Lock()

	prev := m.state
	next, notices, err := fn(prev.Clone())
	changed := true
	if errors.Is(err, errNoChange) {
		changed, err = false, nil
	}
	if err != nil {
		m.mu.Unlock()
		return core.AppState{}, err
	}

	now := m.now()
	if kept, pruned := core.PruneExpenses(next.Expenses, now); pruned {
		m.logger.InfoContext(ctx, "Expired expenses pruned",
			log.FieldOperation, op,
			"dropped", len(next.Expenses)-len(kept))
		next.Expenses = kept
		changed = true
	}

	if forceCheck || spendingChanged(prev, next) {
		if n, ok := weeklyLimitNotice(next, now); ok {
			m.logger.WarnContext(ctx, "Weekly limit exceeded",
				log.FieldWeeklyTotal, n.total,
				log.FieldWeeklyLimit, n.limit)
			notices = append(notices, n.Notice)
		}
	}

	if changed {
		if err := m.store.Save(ctx, next); err != nil {
			m.mu.Unlock()
			m.logger.ErrorContext(ctx, "Failed to persist state",
				log.FieldOperation, op,
				log.FieldError, err)
			return core.AppState{}, fmt.Errorf("persist state: %w", err)
		}
		m.state = next
	}
	out := m.state.Clone()
	m.mu.Unlock()

	m.notify(ctx, notices)
	return out, nil
}

func (m *FinanceManager) notify(ctx context.Context, notices []notify.Notice) {
	if m.notifier == nil {
		return
	}
	for _, n := range notices {
		if n.At.IsZero() {
			n.At = m.now()
		}
		m.notifier.Notify(ctx, n)
	}
}

type limitNotice struct {
	notify.Notice
	total, limit float64
}

func weeklyLimitNotice(s core.AppState, now time.Time) (limitNotice, bool) {
	if s.User == nil {
		return limitNotice{}, false
	}
	ws := core.CheckWeeklyLimit(s.Expenses, s.User.WeeklyLimit, now)
	if !ws.Exceeded {
		return limitNotice{}, false
	}
	return limitNotice{
		Notice: notify.Notice{
			Kind:      notify.KindBanner,
			Message:   core.WeeklyLimitMessage(ws.Total, ws.Limit),
			Recipient: s.User.Mobile,
		},
		total: ws.Total,
		limit: ws.Limit,
	}, true
}

// spendingChanged reports whether the user profile or the expense list
// differ between two states.
func spendingChanged(a, b core.AppState) bool {
	switch {
	case (a.User == nil) != (b.User == nil):
		return true
	case a.User != nil && *a.User != *b.User:
		return true
	case len(a.Expenses) != len(b.Expenses):
		return true
	}
	for i := range a.Expenses {
		if a.Expenses[i].ID != b.Expenses[i].ID {
			return true
		}
	}
	return false
}

func validateAmount(v float64) error {
	if !core.ValidAmount(v) {
		return core.ErrInvalidAmount
	}
	return nil
}

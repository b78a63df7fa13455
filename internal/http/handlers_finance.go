package http

import (
	"net/http"
	"time"

	"finhealth/internal/core"
	"finhealth/internal/services"
)

type expenseRequest struct {
	Amount         Amount `json:"amount"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	IsSubscription bool   `json:"isSubscription"`
}

type expenseResponse struct {
	Expense      core.Expense `json:"expense"`
	HealthPoints int          `json:"healthPoints"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.manager.AddExpense(r.Context(), services.ExpenseInput{
		Amount:         float64(req.Amount),
		Description:    req.Description,
		Category:       req.Category,
		IsSubscription: req.IsSubscription,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{Expense: res.Expense, HealthPoints: res.HealthPoints})
}

func (s *Server) handleTriggerVice(w http.ResponseWriter, r *http.Request) {
	res, err := s.manager.TriggerVice(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type goalRequest struct {
	Name          string   `json:"name"`
	TargetAmount  Amount   `json:"targetAmount"`
	CurrentAmount *Balance `json:"currentAmount"`
	ViceName      string   `json:"viceName"`
	VicePrice     Amount   `json:"vicePrice"`
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g := core.Goal{
		Name:         req.Name,
		TargetAmount: float64(req.TargetAmount),
		ViceName:     req.ViceName,
		VicePrice:    float64(req.VicePrice),
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = float64(*req.CurrentAmount)
	}
	goal, err := s.manager.SetGoal(r.Context(), g, req.CurrentAmount == nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

type impulseView struct {
	core.ImpulsePurchase
	Eligible         bool  `json:"eligible"`
	RemainingSeconds int64 `json:"remainingSeconds"`
}

func (s *Server) handleListImpulses(w http.ResponseWriter, r *http.Request) {
	now := s.manager.Now()
	st := s.manager.Snapshot()
	out := make([]impulseView, 0, len(st.ImpulsePurchases))
	for _, p := range st.ImpulsePurchases {
		v := impulseView{ImpulsePurchase: p, Eligible: p.Eligible(now)}
		if p.Status == core.ImpulsePending && !v.Eligible {
			v.RemainingSeconds = int64((core.SpeedbumpHold - p.Age(now)) / time.Second)
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

type impulseRequest struct {
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) handleFlagImpulse(w http.ResponseWriter, r *http.Request) {
	var req impulseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.manager.FlagImpulsePurchase(r.Context(), float64(req.Amount), req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type resolveRequest struct {
	Decision core.ImpulseStatus `json:"decision"`
}

func (s *Server) handleResolveImpulse(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.manager.ResolveImpulse(r.Context(), r.PathValue("id"), req.Decision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type rewardView struct {
	core.Reward
	Affordable bool `json:"affordable"`
	Owned      int  `json:"owned"`
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	st := s.manager.Snapshot()
	owned := make(map[string]int, len(st.Inventory))
	for _, id := range st.Inventory {
		owned[id]++
	}
	catalog := core.Rewards()
	out := make([]rewardView, 0, len(catalog))
	for _, rw := range catalog {
		out = append(out, rewardView{Reward: rw, Affordable: st.HealthPoints >= rw.Cost, Owned: owned[rw.ID]})
	}
	writeJSON(w, http.StatusOK, out)
}

type redeemResponse struct {
	Reward       core.Reward `json:"reward"`
	HealthPoints int         `json:"healthPoints"`
	Inventory    []string    `json:"inventory"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	res, err := s.manager.Redeem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redeemResponse{Reward: res.Reward, HealthPoints: res.HealthPoints, Inventory: res.Inventory})
}

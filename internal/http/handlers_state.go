package http

import (
	"net/http"

	"finhealth/internal/core"
)

type stateResponse struct {
	core.AppState
	CurrencySymbol string `json:"currencySymbol,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.manager.Snapshot()
	resp := stateResponse{AppState: st}
	if st.User != nil {
		resp.CurrencySymbol = st.User.Currency.Symbol()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Summary())
}

type registerRequest struct {
	Name        string            `json:"name"`
	Mobile      string            `json:"mobile"`
	Country     core.Country      `json:"country"`
	Currency    core.CurrencyCode `json:"currency"`
	WeeklyLimit Amount            `json:"weeklyLimit"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.manager.Register(r.Context(), core.UserProfile{
		Name:        req.Name,
		Mobile:      req.Mobile,
		Country:     req.Country,
		Currency:    req.Currency,
		WeeklyLimit: float64(req.WeeklyLimit),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type currencyResponse struct {
	Code   core.CurrencyCode `json:"code"`
	Symbol string            `json:"symbol"`
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	codes := core.Currencies()
	out := make([]currencyResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, currencyResponse{Code: c, Symbol: c.Symbol()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notices.Current())
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	s.notices.DismissAlert()
	w.WriteHeader(http.StatusNoContent)
}
